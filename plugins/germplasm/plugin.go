// Package germplasm loads tab-delimited germplasm tables: a TaxonID header
// line followed by rows of Identifier, Name, Origin and Description.
package germplasm

import (
	"context"
	"errors"
	"fmt"
	"io"

	"legfed/internal/core"
	"legfed/internal/formats/tabfile"
)

// Type is the processor type name.
const Type = "germplasm-file"

// Plugin registers the processor.
type Plugin struct{}

// New constructs the plugin.
func New() Plugin { return Plugin{} }

// Name returns the plugin identifier.
func (Plugin) Name() string { return "germplasm" }

// Version returns the plugin semantic version.
func (Plugin) Version() string { return "1.0.0" }

// Register wires the processor.
func (Plugin) Register(registry *core.PluginRegistry) error {
	return registry.RegisterProcessor(Type, NewProcessor)
}

// Processor converts germplasm rows into strains.
type Processor struct{}

// NewProcessor builds a processor.
func NewProcessor(core.Source) (core.Processor, error) { return Processor{}, nil }

// Process implements core.Processor.
func (Processor) Process(ctx context.Context, pass *core.Pass) error {
	if pass.Source.TaxonID != "" {
		if _, err := pass.Graph.SetOrganism(pass.Source.TaxonID); err != nil {
			return err
		}
	}
	for _, name := range pass.Source.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := processFile(ctx, pass, name)
		if err != nil {
			return err
		}
		pass.Logger.Info("germplasm file read", "source", pass.Source.Name, "file", name, "strains", n)
	}
	return nil
}

func processFile(ctx context.Context, pass *core.Pass, name string) (int, error) {
	rc, err := pass.Open(ctx, name)
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	r := tabfile.NewReader(rc, []string{"TaxonID"}, tabfile.WithColumnHeader("Identifier"))
	n := 0
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("%s: %w", name, err)
		}
		if rec.Header {
			if _, err := pass.Graph.SetOrganism(rec.Value); err != nil {
				return n, err
			}
			continue
		}
		org, err := pass.Graph.RequireOrganism(rec.Line)
		if err != nil {
			return n, err
		}
		if rec.Field(0) == "" {
			pass.Skip(rec.Line, "", "empty identifier")
			continue
		}
		strain, created := pass.Graph.Strain(org, rec.Field(0))
		if created {
			n++
		}
		fill(&strain.Name, rec.Field(1))
		fill(&strain.Origin, rec.Field(2))
		fill(&strain.Description, rec.Field(3))
	}
}

// fill sets *dst to v unless a value is already present.
func fill(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
