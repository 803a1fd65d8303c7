// Package gs serves input files from a Google Cloud Storage bucket.
package gs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"legfed/internal/blob/core"
)

// Config holds construction parameters.
type Config struct {
	Bucket string
	// Endpoint overrides the API endpoint, e.g. for a local emulator.
	// Requests to a custom endpoint are sent without authentication.
	Endpoint string
}

// Store implements core.Store over one bucket.
type Store struct {
	client *storage.Client
	bucket *storage.BucketHandle
	name   string
}

// New constructs a store using application default credentials.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gs bucket required")
	}
	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gs client: %w", err)
	}
	return &Store{client: client, bucket: client.Bucket(cfg.Bucket), name: cfg.Bucket}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error { return s.client.Close() }

// Driver returns the blob driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverGCS }

func (s *Store) wrap(key string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%s: %w", key, core.ErrNotFound)
	}
	return fmt.Errorf("gs://%s/%s: %w", s.name, key, err)
}

// Open streams the object content.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := s.bucket.Object(key).NewReader(ctx)
	if err != nil {
		return nil, s.wrap(key, err)
	}
	return r, nil
}

// Stat returns object metadata.
func (s *Store) Stat(ctx context.Context, key string) (core.Info, error) {
	attrs, err := s.bucket.Object(key).Attrs(ctx)
	if err != nil {
		return core.Info{}, s.wrap(key, err)
	}
	return infoFor(attrs), nil
}

func infoFor(attrs *storage.ObjectAttrs) core.Info {
	return core.Info{
		Key:          attrs.Name,
		Size:         attrs.Size,
		ContentType:  attrs.ContentType,
		ETag:         attrs.Etag,
		LastModified: attrs.Updated.UTC(),
	}
}

// List returns objects whose name has prefix, ordered by key.
func (s *Store) List(ctx context.Context, prefix string) ([]core.Info, error) {
	var out []core.Info
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gs list %s/%s: %w", s.name, prefix, err)
		}
		out = append(out, infoFor(attrs))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Put uploads a new object. The write is conditional on the object not
// existing yet.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, contentType string) (core.Info, error) {
	w := s.bucket.Object(key).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return core.Info{}, s.wrap(key, err)
	}
	if err := w.Close(); err != nil {
		if preconditionFailed(err) {
			return core.Info{}, fmt.Errorf("%s: %w", key, core.ErrExists)
		}
		return core.Info{}, s.wrap(key, err)
	}
	return infoFor(w.Attrs()), nil
}
