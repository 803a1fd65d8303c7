// Package overlap joins gene locations against QTL spans. Both sides use
// closed 1-based intervals: touching endpoints overlap.
package overlap

import "sort"

// Interval is a closed interval on a named chromosome.
type Interval struct {
	ID         string
	Chromosome string
	Start      int
	End        int
}

// Overlaps reports whether a and b share at least one base.
func (a Interval) Overlaps(b Interval) bool {
	return a.Chromosome == b.Chromosome && a.Start <= b.End && a.End >= b.Start
}

// Pair links a gene to a QTL whose span it overlaps.
type Pair struct {
	Gene string
	QTL  string
}

// FindOverlaps compares every gene against every span. Each overlapping
// combination is reported once per span, so a gene inside two spans yields
// two pairs. The result order is unspecified.
func FindOverlaps(spans, genes []Interval) []Pair {
	var out []Pair
	for _, g := range genes {
		for _, s := range spans {
			if g.Overlaps(s) {
				out = append(out, Pair{Gene: g.ID, QTL: s.ID})
			}
		}
	}
	return out
}

// SortPairs orders pairs by gene then QTL.
func SortPairs(pairs []Pair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Gene != pairs[j].Gene {
			return pairs[i].Gene < pairs[j].Gene
		}
		return pairs[i].QTL < pairs[j].QTL
	})
}
