package gfffile

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"

	"legfed/internal/core"
	"legfed/internal/formats/gff"
	"legfed/pkg/domain"
)

var markerTypes = map[string]struct{}{
	"genetic_marker": {},
	"marker":         {},
	"snp":            {},
}

// FeatureProcessor loads genes and genetic markers with their locations.
type FeatureProcessor struct {
	seqs seqClassifier
}

// NewFeatureProcessor builds the gff-file processor. The source must name
// its organism; supercontig_pattern overrides DefaultSupercontigPattern.
func NewFeatureProcessor(src core.Source) (core.Processor, error) {
	if src.TaxonID == "" {
		return nil, core.ConfigError{Source: src.Name, Msg: "gff-file requires taxon_id"}
	}
	seqs, err := newSeqClassifier(src)
	if err != nil {
		return nil, err
	}
	return &FeatureProcessor{seqs: seqs}, nil
}

type featureStats struct {
	genes    int
	markers  int
	children int
	ignored  map[string]int
}

// Process implements core.Processor.
func (p *FeatureProcessor) Process(ctx context.Context, pass *core.Pass) error {
	org, err := pass.Graph.SetOrganism(pass.Source.TaxonID)
	if err != nil {
		return err
	}
	for _, name := range pass.Source.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats := featureStats{ignored: make(map[string]int)}
		if err := p.processFile(ctx, pass, org, name, &stats); err != nil {
			return err
		}
		pass.Logger.Info("gff file read", "source", pass.Source.Name, "file", name,
			"genes", stats.genes, "markers", stats.markers, "child_features", stats.children)
		for _, typ := range sortedKeys(stats.ignored) {
			pass.Logger.Debug("gff feature type ignored", "source", pass.Source.Name, "type", typ, "count", stats.ignored[typ])
		}
	}
	return nil
}

func (p *FeatureProcessor) processFile(ctx context.Context, pass *core.Pass, org *domain.Organism, name string, stats *featureStats) error {
	rc, err := pass.Open(ctx, name)
	if err != nil {
		return err
	}
	defer rc.Close()
	r := gff.NewReader(rc)
	g := pass.Graph
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		typ := strings.ToLower(rec.Type)
		switch {
		case typ == "chromosome" || typ == "supercontig" || typ == "scaffold" || typ == "contig":
			seq := p.seqs.sequence(g, org, rec.SeqID)
			if rec.End > seq.Length {
				seq.Length = rec.End
			}
		case typ == "gene":
			err := p.gene(pass, org, rec)
			if err == nil {
				stats.genes++
			}
			if err := pass.Recover(rec.Line, err); err != nil {
				return err
			}
		case isMarker(typ):
			err := p.marker(pass, org, rec)
			if err == nil {
				stats.markers++
			}
			if err := pass.Recover(rec.Line, err); err != nil {
				return err
			}
		case rec.Attributes.Get("Parent") != "":
			stats.children++
		default:
			stats.ignored[rec.Type]++
		}
	}
}

func isMarker(typ string) bool {
	_, ok := markerTypes[typ]
	return ok
}

func (p *FeatureProcessor) gene(pass *core.Pass, org *domain.Organism, rec gff.Record) error {
	id := rec.ID()
	if id == "" {
		return core.SkipError{Key: rec.SeqID, Reason: "gene without ID or Name"}
	}
	g := pass.Graph
	gene, _ := g.Gene(org, id)
	if name := rec.Name(); name != id && gene.SecondaryIdentifier == "" {
		gene.SecondaryIdentifier = name
	}
	if note := rec.Attributes.Get("Note"); note != "" && gene.Description == "" {
		gene.Description = note
	}
	_, err := g.LocateGene(gene, p.seqs.sequence(g, org, rec.SeqID), rec.Start, rec.End, rec.Strand)
	return err
}

func (p *FeatureProcessor) marker(pass *core.Pass, org *domain.Organism, rec gff.Record) error {
	name := rec.Name()
	if name == "" {
		return core.SkipError{Key: rec.SeqID, Reason: "marker without ID or Name"}
	}
	g := pass.Graph
	m, _ := g.Marker(org, name)
	if m.MarkerType == "" {
		m.MarkerType = rec.Type
		if t := rec.Attributes.Get("Type"); t != "" {
			m.MarkerType = t
		}
	}
	if id := rec.ID(); id != name && m.SecondaryIdentifier == "" {
		m.SecondaryIdentifier = id
	}
	_, err := g.LocateMarker(m, p.seqs.sequence(g, org, rec.SeqID), rec.Start, rec.End, rec.Strand)
	return err
}

func sortedKeys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
