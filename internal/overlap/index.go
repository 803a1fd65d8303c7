package overlap

import (
	"fmt"

	"github.com/biogo/store/interval"
)

// spanNode stores a closed span as the half-open range [Start, End+1).
type spanNode struct {
	iv Interval
	id uintptr
}

func (n spanNode) ID() uintptr { return n.id }
func (n spanNode) Range() interval.IntRange {
	return interval.IntRange{Start: n.iv.Start, End: n.iv.End + 1}
}
func (n spanNode) Overlap(b interval.IntRange) bool {
	return n.iv.Start < b.End && n.iv.End >= b.Start
}

// query matches stored half-open ranges against a closed gene interval.
type query struct {
	start, end int
}

func (q query) Overlap(b interval.IntRange) bool {
	return q.start < b.End && q.end >= b.Start
}

// Index holds one interval tree of spans per chromosome.
type Index struct {
	trees map[string]*interval.IntTree
	n     int
}

// NewIndex builds an index over spans.
func NewIndex(spans []Interval) (*Index, error) {
	idx := &Index{trees: make(map[string]*interval.IntTree)}
	for _, s := range spans {
		if s.Start > s.End {
			return nil, fmt.Errorf("overlap: span %s on %s has start %d after end %d", s.ID, s.Chromosome, s.Start, s.End)
		}
		t, ok := idx.trees[s.Chromosome]
		if !ok {
			t = &interval.IntTree{}
			idx.trees[s.Chromosome] = t
		}
		idx.n++
		if err := t.Insert(spanNode{iv: s, id: uintptr(idx.n)}, true); err != nil {
			return nil, fmt.Errorf("overlap: index span %s: %w", s.ID, err)
		}
	}
	for _, t := range idx.trees {
		t.AdjustRanges()
	}
	return idx, nil
}

// Len returns the number of indexed spans.
func (x *Index) Len() int { return x.n }

// Query returns the spans overlapping gene.
func (x *Index) Query(gene Interval) []Interval {
	t, ok := x.trees[gene.Chromosome]
	if !ok || gene.Start > gene.End {
		return nil
	}
	hits := t.Get(query{start: gene.Start, end: gene.End})
	out := make([]Interval, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.(spanNode).iv)
	}
	return out
}

// FindOverlapsIndexed returns the same pairs as FindOverlaps using a
// per-chromosome interval tree.
func FindOverlapsIndexed(spans, genes []Interval) ([]Pair, error) {
	idx, err := NewIndex(spans)
	if err != nil {
		return nil, err
	}
	var out []Pair
	for _, g := range genes {
		for _, s := range idx.Query(g) {
			out = append(out, Pair{Gene: g.ID, QTL: s.ID})
		}
	}
	return out, nil
}
