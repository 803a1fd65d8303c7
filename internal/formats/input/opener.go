// Package input opens source files from a blob store, transparently
// decompressing gzip and BGZF content.
package input

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/biogo/hts/bgzf"

	"legfed/internal/blob"
)

// Opener implements core.InputOpener over a blob store.
type Opener struct {
	store blob.Store
	// Readers is the BGZF decompression concurrency. Zero selects one.
	Readers int
}

// NewOpener returns an opener reading from store.
func NewOpener(store blob.Store) *Opener {
	return &Opener{store: store, Readers: 1}
}

// Store returns the underlying blob store.
func (o *Opener) Store() blob.Store { return o.store }

// Open returns the decompressed content of name.
func (o *Opener) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	rc, err := o.store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(rc)
	magic, _ := br.Peek(18)
	switch {
	case isBGZF(magic):
		readers := o.Readers
		if readers < 1 {
			readers = 1
		}
		bg, err := bgzf.NewReader(br, readers)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		return &stacked{Reader: bg, closers: []io.Closer{bg, rc}}, nil
	case isGzip(magic):
		gz, err := gzip.NewReader(br)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		return &stacked{Reader: gz, closers: []io.Closer{gz, rc}}, nil
	default:
		return &stacked{Reader: br, closers: []io.Closer{rc}}, nil
	}
}

func isGzip(b []byte) bool {
	return len(b) >= 2 && b[0] == 0x1f && b[1] == 0x8b
}

// isBGZF checks for the gzip FEXTRA flag carrying the BC subfield.
func isBGZF(b []byte) bool {
	return len(b) >= 14 && isGzip(b) && b[3]&0x04 != 0 && b[12] == 'B' && b[13] == 'C'
}

type stacked struct {
	io.Reader
	closers []io.Closer
}

func (s *stacked) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Expand resolves configured file entries to store keys. Entries ending in
// "/" select every file below that prefix; entries containing glob
// metacharacters are matched against the files of their directory; other
// entries are returned unchanged.
func Expand(ctx context.Context, store blob.Store, entries []string) ([]string, error) {
	var out []string
	seen := make(map[string]struct{})
	add := func(key string) {
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			out = append(out, key)
		}
	}
	for _, entry := range entries {
		switch {
		case strings.HasSuffix(entry, "/"):
			infos, err := store.List(ctx, entry)
			if err != nil {
				return nil, err
			}
			for _, info := range infos {
				if !skipFile(info.Key) {
					add(info.Key)
				}
			}
		case strings.ContainsAny(entry, "*?["):
			dir, _ := path.Split(entry)
			infos, err := store.List(ctx, dir)
			if err != nil {
				return nil, err
			}
			for _, info := range infos {
				ok, err := path.Match(entry, info.Key)
				if err != nil {
					return nil, fmt.Errorf("pattern %q: %w", entry, err)
				}
				if ok {
					add(info.Key)
				}
			}
		default:
			add(entry)
		}
	}
	return out, nil
}

// skipFile reports files that accompany data files in a directory but are
// not data themselves.
func skipFile(key string) bool {
	base := path.Base(key)
	return strings.HasPrefix(base, ".") || strings.HasPrefix(strings.ToUpper(base), "README")
}
