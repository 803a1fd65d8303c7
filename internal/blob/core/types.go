// Package core defines the input file store shared by the blob drivers.
package core

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a concrete blob storage backend implementation.
type Driver string

const (
	DriverFilesystem Driver = "fs"     // local directory (default)
	DriverS3         Driver = "s3"     // S3 / MinIO compatible
	DriverGCS        Driver = "gs"     // Google Cloud Storage
	DriverMemory     Driver = "memory" // in-memory (tests)
)

// Info describes a stored input file.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size_bytes"`
	ContentType  string    `json:"content_type,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Store holds the input files a load run reads. Keys are slash separated
// relative paths.
type Store interface {
	// Open streams the content of key. Missing keys yield an error
	// matching ErrNotFound.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Stat(ctx context.Context, key string) (Info, error)
	// List returns files whose key has prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]Info, error)
	// Put stages a new file. It fails when key already exists.
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error)
	Driver() Driver
}

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("blob: not found")

// ErrExists is returned by Put when the key is already taken.
var ErrExists = errors.New("blob: already exists")
