// Package span computes the genomic span of each QTL from the chromosome
// locations of its associated markers.
package span

import (
	"fmt"
	"sort"
)

// DefaultMinMarkers is the number of markers a QTL needs on a chromosome
// before it is given a span there.
const DefaultMinMarkers = 2

// Span is the bounding interval of the markers of one QTL on one chromosome.
// Coordinates are 1-based and inclusive.
type Span struct {
	QTL         string
	Chromosome  string
	Start       int
	End         int
	MarkerCount int
}

type groupKey struct {
	qtl string
	chr string
}

// Accumulator folds marker locations into per (QTL, chromosome) spans.
// Grouping is by key, so the order of Accumulate calls never matters.
type Accumulator struct {
	minMarkers int
	groups     map[groupKey]*Span
}

// NewAccumulator returns an accumulator that drops groups with fewer than
// minMarkers markers. Values below one select DefaultMinMarkers.
func NewAccumulator(minMarkers int) *Accumulator {
	if minMarkers < 1 {
		minMarkers = DefaultMinMarkers
	}
	return &Accumulator{minMarkers: minMarkers, groups: make(map[groupKey]*Span)}
}

// MinMarkers returns the threshold in effect.
func (a *Accumulator) MinMarkers() int { return a.minMarkers }

// Accumulate folds one marker location of qtl on chromosome.
func (a *Accumulator) Accumulate(qtl, chromosome string, start, end int) error {
	if qtl == "" || chromosome == "" {
		return fmt.Errorf("span: qtl and chromosome are required")
	}
	if start > end {
		return fmt.Errorf("span: marker of %s on %s has start %d after end %d", qtl, chromosome, start, end)
	}
	k := groupKey{qtl, chromosome}
	s, ok := a.groups[k]
	if !ok {
		a.groups[k] = &Span{QTL: qtl, Chromosome: chromosome, Start: start, End: end, MarkerCount: 1}
		return nil
	}
	s.Start = min(s.Start, start)
	s.End = max(s.End, end)
	s.MarkerCount++
	return nil
}

// Len returns the number of (QTL, chromosome) groups seen so far.
func (a *Accumulator) Len() int { return len(a.groups) }

// Finalize returns one span per group meeting the marker threshold, ordered
// by QTL, chromosome.
func (a *Accumulator) Finalize() []Span {
	out := make([]Span, 0, len(a.groups))
	for _, s := range a.groups {
		if s.MarkerCount < a.minMarkers {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].QTL != out[j].QTL {
			return out[i].QTL < out[j].QTL
		}
		return out[i].Chromosome < out[j].Chromosome
	})
	return out
}
