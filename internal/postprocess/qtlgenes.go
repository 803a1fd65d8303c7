// Package postprocess derives relations that are computed from committed
// data rather than loaded from any single source.
package postprocess

import (
	"context"
	"fmt"
	"sort"

	"legfed/internal/core"
	"legfed/internal/overlap"
	"legfed/internal/span"
	"legfed/pkg/domain"
)

// QTLGenesName is the registered name of the QTL/gene overlap step.
const QTLGenesName = "qtl-genes"

// QTLGenes computes the genomic span of every QTL from its markers and links
// each QTL to the genes its spans overlap, in both directions.
type QTLGenes struct {
	// MinMarkers is the number of located markers a QTL needs on a
	// chromosome before it is given a span there.
	MinMarkers int
	// ChromosomeOnly ignores locations on supercontigs.
	ChromosomeOnly bool
	// Naive selects the reference join instead of the interval index.
	Naive bool
}

// NewQTLGenes returns the step with the default marker threshold.
func NewQTLGenes() *QTLGenes {
	return &QTLGenes{MinMarkers: span.DefaultMinMarkers, ChromosomeOnly: true}
}

// Name implements core.PostProcessor.
func (p *QTLGenes) Name() string { return QTLGenesName }

// PostProcess implements core.PostProcessor. Links from earlier runs are
// cleared first so the relation always reflects the current data.
func (p *QTLGenes) PostProcess(ctx context.Context, store core.PersistentStore, logger core.Logger) (core.Result, error) {
	if logger == nil {
		logger = core.NoopLogger()
	}
	var stats qtlGeneStats
	res, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		view := tx.Snapshot()
		genes := make(map[string]*domain.Gene)
		qtls := make(map[string]*domain.QTL)

		for _, item := range view.List(domain.TypeQTL) {
			q := item.(*domain.QTL)
			if len(q.GeneIDs) > 0 || len(q.Spans) > 0 {
				q.GeneIDs, q.Spans = nil, nil
				qtls[q.ID] = q
			}
		}
		for _, item := range view.List(domain.TypeGene) {
			g := item.(*domain.Gene)
			if len(g.QTLIDs) > 0 {
				g.QTLIDs = nil
				genes[g.ID] = g
			}
		}

		acc := span.NewAccumulator(p.MinMarkers)
		for _, item := range view.List(domain.TypeQTL) {
			if err := ctx.Err(); err != nil {
				return err
			}
			q := item.(*domain.QTL)
			for _, markerID := range q.MarkerIDs {
				loc, ok := p.markerLocation(view, markerID)
				if !ok {
					stats.unlocated++
					continue
				}
				if err := acc.Accumulate(q.ID, loc.LocatedOnID, loc.Start, loc.End); err != nil {
					return err
				}
			}
		}
		spans := acc.Finalize()
		stats.spans = len(spans)

		intervals := make([]overlap.Interval, 0, len(spans))
		for _, s := range spans {
			intervals = append(intervals, overlap.Interval{ID: s.QTL, Chromosome: s.Chromosome, Start: s.Start, End: s.End})
		}
		geneIntervals := p.geneIntervals(view)
		pairs, err := p.join(intervals, geneIntervals)
		if err != nil {
			return err
		}
		stats.pairs = len(pairs)

		for _, s := range spans {
			q, err := loadQTL(view, qtls, s.QTL)
			if err != nil {
				return err
			}
			q.Spans = append(q.Spans, domain.GenomicSpan{ChromosomeID: s.Chromosome, Start: s.Start, End: s.End, MarkerCount: s.MarkerCount})
		}
		for _, pair := range pairs {
			g, err := loadGene(view, genes, pair.Gene)
			if err != nil {
				return err
			}
			q, err := loadQTL(view, qtls, pair.QTL)
			if err != nil {
				return err
			}
			core.LinkGeneQTL(g, q)
		}

		for _, id := range sortedIDs(qtls) {
			if err := tx.Replace(qtls[id]); err != nil {
				return err
			}
		}
		for _, id := range sortedIDs(genes) {
			if err := tx.Replace(genes[id]); err != nil {
				return err
			}
		}
		stats.genes, stats.qtls = len(genes), len(qtls)
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("%s: %w", QTLGenesName, err)
	}
	logger.Info("qtl genes linked", "spans", stats.spans, "pairs", stats.pairs, "genes", stats.genes, "qtls", stats.qtls, "unlocated_markers", stats.unlocated)
	return res, nil
}

type qtlGeneStats struct {
	spans     int
	pairs     int
	genes     int
	qtls      int
	unlocated int
}

func (p *QTLGenes) join(spans, genes []overlap.Interval) ([]overlap.Pair, error) {
	if p.Naive {
		return overlap.FindOverlaps(spans, genes), nil
	}
	return overlap.FindOverlapsIndexed(spans, genes)
}

func (p *QTLGenes) markerLocation(view domain.TransactionView, markerID string) (*domain.Location, bool) {
	item, ok := view.Find(markerID)
	if !ok {
		return nil, false
	}
	m, ok := item.(*domain.GeneticMarker)
	if !ok || m.ChromosomeLocationID == "" {
		return nil, false
	}
	return p.location(view, m.ChromosomeLocationID)
}

func (p *QTLGenes) location(view domain.TransactionView, id string) (*domain.Location, bool) {
	item, ok := view.Find(id)
	if !ok {
		return nil, false
	}
	loc, ok := item.(*domain.Location)
	if !ok {
		return nil, false
	}
	if p.ChromosomeOnly {
		if on, ok := view.Find(loc.LocatedOnID); !ok || on.Type() != domain.TypeChromosome {
			return nil, false
		}
	}
	return loc, true
}

func (p *QTLGenes) geneIntervals(view domain.TransactionView) []overlap.Interval {
	var out []overlap.Interval
	for _, item := range view.List(domain.TypeGene) {
		g := item.(*domain.Gene)
		ids := []string{g.ChromosomeLocationID}
		if !p.ChromosomeOnly {
			ids = append(ids, g.SupercontigLocationID)
		}
		for _, id := range ids {
			if id == "" {
				continue
			}
			if loc, ok := p.location(view, id); ok {
				out = append(out, overlap.Interval{ID: g.ID, Chromosome: loc.LocatedOnID, Start: loc.Start, End: loc.End})
			}
		}
	}
	return out
}

func loadGene(view domain.TransactionView, cache map[string]*domain.Gene, id string) (*domain.Gene, error) {
	if g, ok := cache[id]; ok {
		return g, nil
	}
	item, ok := view.Find(id)
	if !ok {
		return nil, core.ErrNotFound{Type: domain.TypeGene, ID: id}
	}
	g, ok := item.(*domain.Gene)
	if !ok {
		return nil, fmt.Errorf("item %s is %s, not gene", id, item.Type())
	}
	cache[id] = g
	return g, nil
}

func loadQTL(view domain.TransactionView, cache map[string]*domain.QTL, id string) (*domain.QTL, error) {
	if q, ok := cache[id]; ok {
		return q, nil
	}
	item, ok := view.Find(id)
	if !ok {
		return nil, core.ErrNotFound{Type: domain.TypeQTL, ID: id}
	}
	q, ok := item.(*domain.QTL)
	if !ok {
		return nil, fmt.Errorf("item %s is %s, not QTL", id, item.Type())
	}
	cache[id] = q
	return q, nil
}

func sortedIDs[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
