package fs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"legfed/internal/blob/core"
)

func TestStorePutOpenList(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	info, err := s.Put(ctx, "qtl/soy/markers.txt", strings.NewReader("TaxonID\t3847\n"), "")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 13 || info.ETag == "" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := s.Put(ctx, "qtl/soy/markers.txt", strings.NewReader("x"), ""); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if _, err := s.Put(ctx, "cmap/a.cmap", strings.NewReader("x"), "text/tab-separated-values"); err != nil {
		t.Fatalf("put cmap: %v", err)
	}

	rc, err := s.Open(ctx, "qtl/soy/markers.txt")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(b) != "TaxonID\t3847\n" {
		t.Fatalf("unexpected content %q", b)
	}

	list, err := s.List(ctx, "qtl/")
	if err != nil || len(list) != 1 || list[0].Key != "qtl/soy/markers.txt" {
		t.Fatalf("list: %v %+v", err, list)
	}
	all, err := s.List(ctx, "")
	if err != nil || len(all) != 2 || all[0].Key != "cmap/a.cmap" {
		t.Fatalf("list all: %v %+v", err, all)
	}
}

func TestStoreMissingAndInvalidKeys(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := s.Open(ctx, "missing.gff3"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Stat(ctx, "missing.gff3"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from stat, got %v", err)
	}
	for _, key := range []string{"", "/etc/passwd", "../outside", "a/../../b"} {
		if _, err := s.Open(ctx, key); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestNewRequiresDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := New(file); err == nil {
		t.Fatalf("expected error for file root")
	}
	if _, err := New(filepath.Join(dir, "absent")); err == nil {
		t.Fatalf("expected error for missing root")
	}
}

func TestStatReportsSize(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "genes.gff3"), []byte("##gff-version 3\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := New(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	info, err := s.Stat(context.Background(), "genes.gff3")
	if err != nil || info.Size != 16 || s.Driver() != core.DriverFilesystem {
		t.Fatalf("stat: %v %+v", err, info)
	}
}
