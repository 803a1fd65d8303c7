// Package cmapfile loads CMap genetic map exports. Every map accession
// becomes a linkage group of one genetic map; QTL rows become QTL ranges and
// other rows marker positions.
package cmapfile

import (
	"context"
	"path"
	"strings"

	"legfed/internal/core"
	"legfed/internal/formats/cmap"
	"legfed/pkg/domain"
)

// Type is the processor type name.
const Type = "cmap-file"

// Plugin registers the processor.
type Plugin struct{}

// New constructs the plugin.
func New() Plugin { return Plugin{} }

// Name returns the plugin identifier.
func (Plugin) Name() string { return "cmapfile" }

// Version returns the plugin semantic version.
func (Plugin) Version() string { return "1.0.0" }

// Register wires the processor.
func (Plugin) Register(registry *core.PluginRegistry) error {
	return registry.RegisterProcessor(Type, NewProcessor)
}

// Processor converts CMap rows.
type Processor struct {
	mapName string
}

// NewProcessor builds a processor. The source must name its organism.
func NewProcessor(src core.Source) (core.Processor, error) {
	if src.TaxonID == "" {
		return nil, core.ConfigError{Source: src.Name, Msg: "cmap-file requires taxon_id"}
	}
	return &Processor{mapName: src.Property("map_name", "")}, nil
}

// Process implements core.Processor.
func (p *Processor) Process(ctx context.Context, pass *core.Pass) error {
	org, err := pass.Graph.SetOrganism(pass.Source.TaxonID)
	if err != nil {
		return err
	}
	for _, name := range pass.Source.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.processFile(ctx, pass, org, name); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) processFile(ctx context.Context, pass *core.Pass, org *domain.Organism, name string) error {
	rc, err := pass.Open(ctx, name)
	if err != nil {
		return err
	}
	defer rc.Close()
	rows, err := cmap.ReadRows(rc)
	if err != nil {
		return err
	}

	mapName := p.mapName
	if mapName == "" {
		mapName = strings.TrimSuffix(path.Base(name), path.Ext(name))
	}
	g := pass.Graph
	gm, _ := g.GeneticMap(org, mapName)
	gm.Unit = "cM"
	var qtls, markers int
	for _, row := range rows {
		f, err := cmap.Parse(row)
		if err != nil {
			pass.Skip(row.Line, row.FeatureName, err.Error())
			continue
		}
		lg, _ := g.LinkageGroup(gm, f.MapAcc)
		if f.MapStop > lg.Length {
			lg.Length = f.MapStop
		}
		if f.IsQTL() {
			q, _ := g.QTL(org, f.Name)
			if q.SecondaryIdentifier == "" && f.Acc != f.Name {
				q.SecondaryIdentifier = f.Acc
			}
			r, _ := g.QTLRange(lg, q)
			r.Include(f.Start)
			r.Include(f.Stop)
			qtls++
			continue
		}
		m, _ := g.Marker(org, f.Name)
		if m.MarkerType == "" {
			m.MarkerType = f.Type
		}
		if m.SecondaryIdentifier == "" && len(f.Aliases) > 0 {
			m.SecondaryIdentifier = f.Aliases[0]
		}
		g.Position(lg, m, f.Start)
		markers++
	}
	pass.Logger.Info("cmap file read", "source", pass.Source.Name, "file", name, "qtls", qtls, "markers", markers)
	return nil
}
