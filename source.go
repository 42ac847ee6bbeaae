package tilepack

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ImageSource resolves the image name a tileset refers to into its contents.
type ImageSource interface {
	Open(name string) (io.ReadCloser, error)
}

// DirSource looks images up under a root folder.
type DirSource string

// Open implements the ImageSource interface.
func (d DirSource) Open(name string) (io.ReadCloser, error) {
	return openFile(filepath.Join(string(d), name))
}

func openFile(name string) (io.ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// FileMap maps image names to file paths.
type FileMap map[string]string

// Open implements the ImageSource interface.
func (m FileMap) Open(name string) (io.ReadCloser, error) {
	file, ok := m[name]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
	}
	return openFile(file)
}

// MemorySource holds image contents in memory, for example from an upload.
type MemorySource map[string][]byte

// Open implements the ImageSource interface.
func (m MemorySource) Open(name string) (io.ReadCloser, error) {
	b, ok := m[name]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

// Sources tries each source in turn, returning the first image found.
type Sources []ImageSource

// Open implements the ImageSource interface.
func (s Sources) Open(name string) (io.ReadCloser, error) {
	err := error(&os.PathError{Op: "open", Path: name, Err: os.ErrNotExist})
	for _, src := range s {
		rc, e := src.Open(name)
		if e == nil {
			return rc, nil
		}
		if !errors.Is(e, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, e)
		}
		err = e
	}
	return nil, err
}
