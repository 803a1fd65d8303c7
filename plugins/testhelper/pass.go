// Package testhelper builds processing passes for processor tests. Input
// files are served from an in-memory blob store.
package testhelper

import (
	"context"
	"strings"
	"testing"

	"legfed/internal/blob"
	"legfed/internal/core"
	"legfed/internal/formats/input"
	"legfed/pkg/domain"
)

// Organisms is the organism directory processor tests run with.
var Organisms = []core.OrganismInfo{
	{TaxonID: "3847", Genus: "Glycine", Species: "max", Name: "soybean"},
	{TaxonID: "3885", Genus: "Phaseolus", Species: "vulgaris", Name: "common bean"},
}

// NewPass returns a pass over src whose files are the given name/content
// pairs.
func NewPass(t testing.TB, src core.Source, files map[string]string) *core.Pass {
	t.Helper()
	store := blob.NewMemory()
	for name, content := range files {
		if _, err := store.Put(context.Background(), name, strings.NewReader(content), ""); err != nil {
			t.Fatalf("put %s: %v", name, err)
		}
	}
	if src.Name == "" {
		src.Name = src.Type
	}
	return &core.Pass{
		Source: src,
		Graph:  core.NewGraph(src.Name, Organisms),
		Logger: core.NoopLogger(),
		Inputs: input.NewOpener(store),
	}
}

// Run builds the processor for src with factory and runs it over files.
func Run(t testing.TB, factory core.ProcessorFactory, src core.Source, files map[string]string) (*core.Pass, error) {
	t.Helper()
	pass := NewPass(t, src, files)
	proc, err := factory(src)
	if err != nil {
		return pass, err
	}
	return pass, proc.Process(context.Background(), pass)
}

// Find returns the item of pass's graph with the given id.
func Find[T domain.Item](t testing.TB, pass *core.Pass, id string) T {
	t.Helper()
	for _, item := range pass.Graph.Items() {
		if item.ItemID() != id {
			continue
		}
		v, ok := item.(T)
		if !ok {
			t.Fatalf("item %s has type %T", id, item)
		}
		return v
	}
	var zero T
	t.Fatalf("item %s not in graph", id)
	return zero
}

// Has reports whether pass's graph holds an item with the given id.
func Has(pass *core.Pass, id string) bool {
	for _, item := range pass.Graph.Items() {
		if item.ItemID() == id {
			return true
		}
	}
	return false
}
