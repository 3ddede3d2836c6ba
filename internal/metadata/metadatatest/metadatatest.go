// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package metadatatest provides a map-backed tag reader/writer for scanner
// and merge tests, keyed by file path.
package metadatatest

import (
	"fmt"
	"sync"

	"github.com/taibuivan/resona/internal/metadata"
)

// Reader implements metadata.Reader and metadata.Writer over an in-memory
// path → tags map.
type Reader struct {
	mu     sync.Mutex
	files  map[string]*metadata.File
	images map[string][]byte

	// Written records every Write call by path.
	Written map[string]*metadata.File
}

// NewReader creates an empty fake.
func NewReader() *Reader {
	return &Reader{
		files:   map[string]*metadata.File{},
		images:  map[string][]byte{},
		Written: map[string]*metadata.File{},
	}
}

// Set registers the tags returned for a path.
func (r *Reader) Set(path string, file *metadata.File) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *file
	r.files[path] = &c
}

// SetImage registers the embedded image returned for a path.
func (r *Reader) SetImage(path string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images[path] = data
}

// Move re-registers tags under a new path, mirroring a file move.
func (r *Reader) Move(oldPath, newPath string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, found := r.files[oldPath]; found {
		delete(r.files, oldPath)
		r.files[newPath] = f
	}
	if img, found := r.images[oldPath]; found {
		delete(r.images, oldPath)
		r.images[newPath] = img
	}
}

func (r *Reader) Read(path string) (*metadata.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, found := r.files[path]
	if !found {
		return nil, fmt.Errorf("no tags registered for %s", path)
	}
	c := *f
	return &c, nil
}

func (r *Reader) ReadImage(path string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.images[path], nil
}

func (r *Reader) Write(path string, file *metadata.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *file
	r.files[path] = &c
	r.Written[path] = &c
	return nil
}
