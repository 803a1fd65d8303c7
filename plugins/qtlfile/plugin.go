// Package qtlfile loads tab-delimited QTL/marker tables. A file starts with
// "key<TAB>value" header lines (TaxonID, Strain or Variety, PMID, Parents)
// followed by rows of
//
//	Marker  Type  LinkageGroup  Position  QTL  Traits
//
// Each file becomes one genetic map.
package qtlfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"legfed/internal/core"
	"legfed/internal/formats/tabfile"
	"legfed/internal/geneticmap"
	"legfed/pkg/domain"
)

// Type is the processor type name.
const Type = "qtl-file"

const (
	colMarker = iota
	colMarkerType
	colLinkageGroup
	colPosition
	colQTL
	colTraits
)

var headerKeys = []string{"TaxonID", "Strain", "Variety", "PMID", "Parents", "MapName"}

// Plugin registers the processor.
type Plugin struct{}

// New constructs the plugin.
func New() Plugin { return Plugin{} }

// Name returns the plugin identifier.
func (Plugin) Name() string { return "qtlfile" }

// Version returns the plugin semantic version.
func (Plugin) Version() string { return "1.0.0" }

// Register wires the processor.
func (Plugin) Register(registry *core.PluginRegistry) error {
	return registry.RegisterProcessor(Type, NewProcessor)
}

// Processor converts QTL files into maps, markers and QTLs.
type Processor struct {
	unit    geneticmap.Unit
	mapName string
}

// NewProcessor builds a processor. The position_unit property selects cM
// (default) or cMx100; map_name overrides the file-derived map name.
func NewProcessor(src core.Source) (core.Processor, error) {
	unit, err := geneticmap.ParseUnit(src.Property("position_unit", ""))
	if err != nil {
		return nil, core.ConfigError{Source: src.Name, Msg: err.Error()}
	}
	if src.Property("map_name", "") != "" && len(src.Files) > 1 {
		return nil, core.ConfigError{Source: src.Name, Msg: "map_name requires a single file"}
	}
	return &Processor{unit: unit, mapName: src.Property("map_name", "")}, nil
}

// Process implements core.Processor.
func (p *Processor) Process(ctx context.Context, pass *core.Pass) error {
	if pass.Source.TaxonID != "" {
		if _, err := pass.Graph.SetOrganism(pass.Source.TaxonID); err != nil {
			return err
		}
	}
	for _, name := range pass.Source.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.processFile(ctx, pass, name); err != nil {
			return err
		}
	}
	return nil
}

// fileState holds the header values of the file being read.
type fileState struct {
	name    string
	mapName string
	strain  *domain.Strain
	pub     *domain.Publication
	parents string
	gmap    *domain.GeneticMap
	qtls    map[string]*domain.QTL
	rows    int
}

func (p *Processor) processFile(ctx context.Context, pass *core.Pass, name string) error {
	rc, err := pass.Open(ctx, name)
	if err != nil {
		return err
	}
	defer rc.Close()

	st := &fileState{name: name, mapName: p.mapName, qtls: make(map[string]*domain.QTL)}
	if st.mapName == "" {
		st.mapName = mapNameFromFile(name)
	}
	r := tabfile.NewReader(rc, headerKeys, tabfile.WithColumnHeader("Marker"))
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if rec.Header {
			if err := p.header(pass, st, rec); err != nil {
				return err
			}
			continue
		}
		if err := p.row(pass, st, rec); err != nil {
			return err
		}
	}
	p.finishFile(pass, st)
	pass.Logger.Info("qtl file read", "source", pass.Source.Name, "file", name, "rows", st.rows, "qtls", len(st.qtls))
	return nil
}

func (p *Processor) header(pass *core.Pass, st *fileState, rec tabfile.Record) error {
	switch rec.Key {
	case "TaxonID":
		if _, err := pass.Graph.SetOrganism(rec.Value); err != nil {
			return err
		}
	case "Strain", "Variety":
		org, err := pass.Graph.RequireOrganism(rec.Line)
		if err != nil {
			return err
		}
		if rec.Value != "" {
			st.strain, _ = pass.Graph.Strain(org, rec.Value)
		}
	case "PMID":
		if rec.Value != "" {
			st.pub, _ = pass.Graph.Publication(rec.Value)
		}
	case "Parents":
		st.parents = rec.Value
	case "MapName":
		if rec.Value != "" && st.gmap == nil {
			st.mapName = rec.Value
		}
	}
	return nil
}

func (p *Processor) row(pass *core.Pass, st *fileState, rec tabfile.Record) error {
	org, err := pass.Graph.RequireOrganism(rec.Line)
	if err != nil {
		return err
	}
	markerName := rec.Field(colMarker)
	groupName := rec.Field(colLinkageGroup)
	if markerName == "" || groupName == "" {
		pass.Skip(rec.Line, markerName, "missing marker or linkage group")
		return nil
	}
	pos, err := geneticmap.ParsePosition(rec.Field(colPosition), p.unit)
	if err != nil {
		pass.Skip(rec.Line, markerName, err.Error())
		return nil
	}
	st.rows++
	g := pass.Graph
	if st.gmap == nil {
		st.gmap, _ = g.GeneticMap(org, st.mapName)
	}
	lg, _ := g.LinkageGroup(st.gmap, groupName)
	marker, created := g.Marker(org, markerName)
	if created || marker.MarkerType == "" {
		marker.MarkerType = rec.Field(colMarkerType)
	}
	g.Position(lg, marker, pos)

	qtlName := rec.Field(colQTL)
	if qtlName == "" {
		return nil
	}
	q, _ := g.QTL(org, qtlName)
	if q.TraitName == "" {
		q.TraitName = rec.Field(colTraits)
	}
	if st.strain != nil && q.StrainID == "" {
		q.StrainID = st.strain.ID
	}
	g.LinkQTLMarker(q, marker)
	r, _ := g.QTLRange(lg, q)
	r.Include(pos)
	st.qtls[q.ID] = q
	return nil
}

// finishFile applies header values that describe the whole map.
func (p *Processor) finishFile(pass *core.Pass, st *fileState) {
	if st.gmap == nil {
		pass.Logger.Warn("qtl file has no data rows", "source", pass.Source.Name, "file", st.name)
		return
	}
	if st.parents != "" {
		st.gmap.Parents = st.parents
	}
	st.gmap.Unit = string(geneticmap.Centimorgan)
	if st.pub == nil {
		return
	}
	pass.Graph.LinkPublication(st.gmap, st.pub)
	for _, q := range st.qtls {
		pass.Graph.LinkPublication(q, st.pub)
	}
}

// mapNameFromFile strips directories and extensions from a file key.
func mapNameFromFile(name string) string {
	base := path.Base(name)
	for _, ext := range []string{".gz", ".bgz", ".tsv", ".txt", ".tab"} {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
