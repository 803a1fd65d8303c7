package gfffile

import (
	"context"
	"errors"
	"io"
	"strings"

	"legfed/internal/core"
	"legfed/internal/formats/gff"
	"legfed/pkg/domain"
)

// SyntenyProcessor loads syntenic_region lines. Each line is one synteny
// block: the line itself is the region on the source genome and its Target
// attribute the region on the target genome.
type SyntenyProcessor struct {
	targetTaxon string
	seqs        seqClassifier
}

// NewSyntenyProcessor builds the synteny-gff processor. It needs the source
// taxon_id and a target_taxon_id property.
func NewSyntenyProcessor(src core.Source) (core.Processor, error) {
	if src.TaxonID == "" {
		return nil, core.ConfigError{Source: src.Name, Msg: "synteny-gff requires taxon_id"}
	}
	target := src.Property("target_taxon_id", "")
	if target == "" {
		return nil, core.ConfigError{Source: src.Name, Msg: "synteny-gff requires the target_taxon_id property"}
	}
	seqs, err := newSeqClassifier(src)
	if err != nil {
		return nil, err
	}
	return &SyntenyProcessor{targetTaxon: target, seqs: seqs}, nil
}

// Process implements core.Processor.
func (p *SyntenyProcessor) Process(ctx context.Context, pass *core.Pass) error {
	srcOrg, err := pass.Graph.SetOrganism(pass.Source.TaxonID)
	if err != nil {
		return err
	}
	targetOrg := pass.Graph.Organism(p.targetTaxon)
	for _, name := range pass.Source.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		blocks, err := p.processFile(ctx, pass, srcOrg, targetOrg, name)
		if err != nil {
			return err
		}
		pass.Logger.Info("synteny file read", "source", pass.Source.Name, "file", name, "blocks", blocks)
	}
	return nil
}

func (p *SyntenyProcessor) processFile(ctx context.Context, pass *core.Pass, srcOrg, targetOrg *domain.Organism, name string) (int, error) {
	rc, err := pass.Open(ctx, name)
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	r := gff.NewReader(rc)
	g := pass.Graph
	blocks := 0
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return blocks, nil
		}
		if err != nil {
			return blocks, err
		}
		if !strings.EqualFold(rec.Type, "syntenic_region") {
			continue
		}
		placed, err := p.region(g, srcOrg, targetOrg, rec)
		if err := pass.Recover(rec.Line, err); err != nil {
			return blocks, err
		}
		if !placed {
			continue
		}
		blocks++
	}
}

// region places one syntenic_region line. It reports false when the line
// was skipped with a SkipError.
func (p *SyntenyProcessor) region(g *core.Graph, srcOrg, targetOrg *domain.Organism, rec gff.Record) (bool, error) {
	id := rec.ID()
	if id == "" {
		return false, core.SkipError{Key: rec.SeqID, Reason: "syntenic region without ID"}
	}
	target, err := gff.ParseTarget(rec.Attributes.Get("Target"))
	if err != nil {
		return false, core.SkipError{Key: id, Reason: err.Error()}
	}
	ks, err := rec.MedianKs()
	if err != nil {
		return false, core.SkipError{Key: id, Reason: err.Error()}
	}
	block, _ := g.SyntenyBlock(srcOrg, targetOrg, id)
	if ks != nil {
		block.MedianKs = ks
	}
	srcSeq := p.seqs.sequence(g, srcOrg, rec.SeqID)
	srcRegion, _ := g.SyntenicRegion(block, domain.RoleSource, srcSeq)
	if _, err := g.LocateRegion(srcRegion, srcSeq, rec.Start, rec.End, rec.Strand); err != nil {
		return false, err
	}
	targetSeq := p.seqs.sequence(g, targetOrg, target.SeqID)
	targetRegion, _ := g.SyntenicRegion(block, domain.RoleTarget, targetSeq)
	if _, err := g.LocateRegion(targetRegion, targetSeq, target.Start, target.End, target.Strand); err != nil {
		return false, err
	}
	return true, nil
}
