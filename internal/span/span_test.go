package span

import "testing"

func TestSpanIgnoresAccumulationOrder(t *testing.T) {
	orders := [][]int{{10, 40, 25}, {40, 25, 10}, {25, 10, 40}}
	for _, order := range orders {
		acc := NewAccumulator(2)
		for _, pos := range order {
			if err := acc.Accumulate("QTL1", "Chr1", pos, pos); err != nil {
				t.Fatalf("accumulate: %v", err)
			}
		}
		spans := acc.Finalize()
		if len(spans) != 1 {
			t.Fatalf("order %v: expected one span, got %d", order, len(spans))
		}
		if spans[0].Start != 10 || spans[0].End != 40 || spans[0].MarkerCount != 3 {
			t.Fatalf("order %v: unexpected span %+v", order, spans[0])
		}
	}
}

func TestSpanThresholdPerChromosome(t *testing.T) {
	acc := NewAccumulator(0)
	if acc.MinMarkers() != DefaultMinMarkers {
		t.Fatalf("expected default threshold, got %d", acc.MinMarkers())
	}
	mustAccumulate(t, acc, "single", "Chr1", 100, 100)
	mustAccumulate(t, acc, "pair", "Chr1", 100, 110)
	mustAccumulate(t, acc, "pair", "Chr1", 500, 520)
	mustAccumulate(t, acc, "pair", "Chr2", 10, 20)
	mustAccumulate(t, acc, "pair", "Chr2", 30, 40)
	mustAccumulate(t, acc, "pair", "Chr3", 1, 1)

	spans := acc.Finalize()
	if len(spans) != 2 {
		t.Fatalf("expected two spans, got %+v", spans)
	}
	if spans[0].Chromosome != "Chr1" || spans[0].Start != 100 || spans[0].End != 520 {
		t.Fatalf("unexpected Chr1 span %+v", spans[0])
	}
	if spans[1].Chromosome != "Chr2" || spans[1].Start != 10 || spans[1].End != 40 {
		t.Fatalf("unexpected Chr2 span %+v", spans[1])
	}
	for _, s := range spans {
		if s.QTL == "single" {
			t.Fatalf("single marker QTL must not produce a span")
		}
	}
	if acc.Len() != 4 {
		t.Fatalf("expected four groups, got %d", acc.Len())
	}
}

func TestSpanSingleMarkerThresholdOne(t *testing.T) {
	acc := NewAccumulator(1)
	mustAccumulate(t, acc, "single", "Chr1", 7, 9)
	spans := acc.Finalize()
	if len(spans) != 1 || spans[0].Start != 7 || spans[0].End != 9 {
		t.Fatalf("unexpected spans %+v", spans)
	}
}

func TestAccumulateRejectsInvalidInput(t *testing.T) {
	acc := NewAccumulator(2)
	if err := acc.Accumulate("q", "Chr1", 10, 5); err == nil {
		t.Fatalf("expected error for reversed coordinates")
	}
	if err := acc.Accumulate("", "Chr1", 1, 2); err == nil {
		t.Fatalf("expected error for missing qtl")
	}
	if acc.Len() != 0 {
		t.Fatalf("invalid input must not create groups")
	}
}

func mustAccumulate(t *testing.T, acc *Accumulator, qtl, chr string, start, end int) {
	t.Helper()
	if err := acc.Accumulate(qtl, chr, start, end); err != nil {
		t.Fatalf("accumulate %s %s: %v", qtl, chr, err)
	}
}
