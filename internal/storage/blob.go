package storage

import "io"

// BlobStore holds question figures (diagrams, circuit images) referenced
// from prompt text.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
}
