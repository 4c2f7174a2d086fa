package storage

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
)

// ErrUnavailable indicates the blob store could not be reached or written.
// Callers decide whether to retry; this layer never does.
var ErrUnavailable = errors.New("blob store unavailable")

// ErrNotFound indicates no blob exists under the requested key.
var ErrNotFound = errors.New("blob not found")

// Blob is an opaque key-addressed byte store. Put overwrites any existing
// blob under the same key, so retried writes never leave duplicates.
type Blob interface {
	Put(key string, r io.Reader) error
	Get(key string) (io.ReadCloser, error)
}

// ChunkKey derives the stable storage address for one chunk of an upload.
func ChunkKey(uploadID string, index int) string {
	return fmt.Sprintf("chunks/%s/%04d.wav", uploadID, index)
}

// OriginalKey derives the storage address for an upload's source file.
func OriginalKey(uploadID, filename string) string {
	return fmt.Sprintf("original/%s/%s", uploadID, filepath.Base(filename))
}
