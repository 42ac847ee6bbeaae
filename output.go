package tilepack

import (
	"bufio"
	"image"
	"image/png"
	"io"
	"os"

	"github.com/bodgit/tilepack/tiled"
	"github.com/google/renameio/v2"
)

// Output describes the files a run produced.
type Output struct {
	Image       string     `json:"image"`
	Map         string     `json:"map"`
	JSON        *tiled.Map `json:"json"`
	Scaled      []Scaled   `json:"scaled,omitempty"`
	Diagnostics []*Error   `json:"diagnostics,omitempty"`
}

// Scaled describes one enlarged variant.
type Scaled struct {
	Factor int        `json:"factor"`
	Image  string     `json:"image"`
	Map    string     `json:"map"`
	JSON   *tiled.Map `json:"json"`
}

// publisher writes each file through a pending file that is renamed into
// place so no reader ever sees a partial file. discard removes everything
// published so far.
type publisher struct {
	written []string
}

func (p *publisher) write(file string, fn func(io.Writer) error) error {
	t, err := renameio.NewPendingFile(file, renameio.WithPermissions(0644))
	if err != nil {
		return newError(IOError, "write", err)
	}
	defer t.Cleanup()

	w := bufio.NewWriter(t)
	if err = fn(w); err == nil {
		err = w.Flush()
	}
	if err == nil {
		err = t.CloseAtomicallyReplace()
	}
	if err != nil {
		return newError(IOError, "write", err)
	}

	p.written = append(p.written, file)
	return nil
}

func (p *publisher) writeImage(file string, m image.Image) error {
	return p.write(file, func(w io.Writer) error {
		return png.Encode(w, m)
	})
}

func (p *publisher) writeMap(file string, m *tiled.Map) error {
	b, err := tiled.Marshal(m)
	if err != nil {
		return newError(DataFormatError, "encode map", err)
	}
	return p.write(file, func(w io.Writer) error {
		_, err := w.Write(b)
		return err
	})
}

func (p *publisher) discard() {
	for _, file := range p.written {
		os.Remove(file)
	}
	p.written = nil
}
