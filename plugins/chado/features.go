package chado

import (
	"context"

	chadodb "legfed/internal/chado"
	"legfed/internal/core"
	"legfed/pkg/domain"
)

// FeatureProcessor loads chromosomes, supercontigs, genes and genetic
// markers with their locations.
type FeatureProcessor struct{}

// NewFeatureProcessor builds the chado-features processor.
func NewFeatureProcessor(src core.Source) (core.Processor, error) {
	if err := requireTaxon(src); err != nil {
		return nil, err
	}
	return FeatureProcessor{}, nil
}

// Process implements core.Processor.
func (FeatureProcessor) Process(ctx context.Context, pass *core.Pass) error {
	s, err := openSession(ctx, pass, TermGene, TermMarker, TermChromosome, TermSupercontig)
	if err != nil {
		return err
	}
	org, orgID, err := s.organism(ctx, pass)
	if err != nil {
		return err
	}
	g := pass.Graph
	seqKeys := []string{TermChromosome, TermSupercontig}
	sequence := func(key, name string) *domain.Chromosome {
		if key == TermSupercontig {
			sc, _ := g.Supercontig(org, name)
			return sc
		}
		chr, _ := g.Chromosome(org, name)
		return chr
	}
	for _, key := range seqKeys {
		typeID, ok := s.term(key)
		if !ok {
			continue
		}
		feats, err := s.reader.Features(ctx, orgID, typeID)
		if err != nil {
			return err
		}
		for _, f := range feats {
			sequence(key, f.Label())
		}
	}

	counts := map[string]int{}
	for _, featKey := range []string{TermGene, TermMarker} {
		featType, ok := s.term(featKey)
		if !ok {
			continue
		}
		feats, err := s.reader.Features(ctx, orgID, featType)
		if err != nil {
			return err
		}
		for _, f := range feats {
			if featKey == TermGene {
				g.Gene(org, f.Label())
			} else {
				g.Marker(org, f.Label())
			}
			counts[featKey]++
		}
		for _, seqKey := range seqKeys {
			seqType, ok := s.term(seqKey)
			if !ok {
				continue
			}
			locs, err := s.reader.Locations(ctx, orgID, featType, seqType)
			if err != nil {
				return err
			}
			for _, loc := range locs {
				if err := locate(pass, org, featKey, sequence(seqKey, loc.Source()), loc); err != nil {
					return err
				}
			}
		}
	}
	pass.Logger.Info("chado features read", "source", pass.Source.Name, "genes", counts[TermGene], "markers", counts[TermMarker])
	return nil
}

func locate(pass *core.Pass, org *domain.Organism, featKey string, on *domain.Chromosome, loc chadodb.Location) error {
	if !loc.Valid() || loc.Start() > loc.End() {
		pass.Skip(0, loc.Feature(), "location without usable coordinates")
		return nil
	}
	if loc.SrcLength.Valid && int(loc.SrcLength.Int64) > on.Length {
		on.Length = int(loc.SrcLength.Int64)
	}
	g := pass.Graph
	strand := int(loc.Strand.Int64)
	var err error
	if featKey == TermGene {
		gene, _ := g.Gene(org, loc.Feature())
		_, err = g.LocateGene(gene, on, loc.Start(), loc.End(), strand)
	} else {
		m, _ := g.Marker(org, loc.Feature())
		_, err = g.LocateMarker(m, on, loc.Start(), loc.End(), strand)
	}
	return err
}
