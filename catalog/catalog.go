/*
Package catalog implements an SQLite database of tileset images.

Images are stored once per distinct content, identified by SHA-1, and can be
registered under any number of names. A catalog satisfies the image source
interface used by the optimizer so maps can be repacked without their images
being laid out next to them on disk.
*/
package catalog

import (
	"bytes"
	"crypto/sha1"
	"database/sql"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	_ "github.com/mattn/go-sqlite3" // register driver
)

const cacheSize = 64

var errEmptyName = errors.New("catalog: image name is empty")

// Catalog is an open image database. Recently opened images are kept in
// memory.
type Catalog struct {
	db    *sql.DB
	cache *lru.Cache
}

// New opens or creates the catalog stored in file.
func New(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS image (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL UNIQUE, width INTEGER NOT NULL, height INTEGER NOT NULL, data BLOB NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS name (name TEXT PRIMARY KEY NOT NULL, image_id INTEGER NOT NULL, FOREIGN KEY(image_id) REFERENCES image(id))"); err != nil {
		db.Close()
		return nil, err
	}

	cache, err := lru.New(cacheSize)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Catalog{
		db:    db,
		cache: cache,
	}, nil
}

// Close closes the catalog.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Add stores the image read from r under name, replacing whatever image the
// name referred to before. The data must decode as an image.
func (c *Catalog) Add(name string, r io.Reader) error {
	if name == "" {
		return errEmptyName
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("catalog: %s: %w", name, err)
	}

	id, err := c.addImage(b, cfg)
	if err != nil {
		return err
	}

	if _, err := c.db.Exec("INSERT OR REPLACE INTO name (name, image_id) VALUES (?, ?)", name, id); err != nil {
		return err
	}
	c.cache.Remove(name)

	return nil
}

func (c *Catalog) addImage(b []byte, cfg image.Config) (int64, error) {
	sha := fmt.Sprintf("%X", sha1.Sum(b))

	var id int64
	switch err := c.db.QueryRow("SELECT id FROM image WHERE sha1 = ?", sha).Scan(&id); err {
	case sql.ErrNoRows:
		result, err := c.db.Exec("INSERT INTO image (sha1, width, height, data) VALUES (?, ?, ?, ?)", sha, cfg.Width, cfg.Height, b)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	case nil:
		return id, nil
	default:
		return 0, err
	}
}

// AddFile stores file under its base name.
func (c *Catalog) AddFile(file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	return c.Add(filepath.Base(file), f)
}

// ImportDir adds every PNG, GIF and JPEG file directly inside dir and
// returns how many were added.
func (c *Catalog) ImportDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	var n int
	for _, e := range entries {
		if !e.Type().IsRegular() || e.Name()[0] == '.' {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".gif", ".jpg", ".jpeg":
		default:
			continue
		}
		if err := c.AddFile(filepath.Join(dir, e.Name())); err != nil {
			return n, err
		}
		n++
	}

	return n, nil
}

// Open returns the contents of the image stored under name. A name that is
// not in the catalog returns an error matching os.ErrNotExist.
func (c *Catalog) Open(name string) (io.ReadCloser, error) {
	if v, ok := c.cache.Get(name); ok {
		return io.NopCloser(bytes.NewReader(v.([]byte))), nil
	}

	var b []byte
	switch err := c.db.QueryRow("SELECT i.data FROM name AS n JOIN image AS i ON n.image_id = i.id WHERE n.name = ?", name).Scan(&b); err {
	case sql.ErrNoRows:
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
	case nil:
		c.cache.Add(name, b)
		return io.NopCloser(bytes.NewReader(b)), nil
	default:
		return nil, err
	}
}

// Entry describes a named image in the catalog.
type Entry struct {
	Name   string
	SHA1   string
	Width  int
	Height int
}

// List returns every named image ordered by name.
func (c *Catalog) List() ([]Entry, error) {
	rows, err := c.db.Query("SELECT n.name, i.sha1, i.width, i.height FROM name AS n JOIN image AS i ON n.image_id = i.id ORDER BY n.name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.SHA1, &e.Width, &e.Height); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
