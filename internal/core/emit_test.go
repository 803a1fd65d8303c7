package core

import (
	"context"
	"errors"
	"testing"

	"legfed/internal/infra/persistence/memory"
	"legfed/pkg/domain"
)

func sampleGraph(t *testing.T, source string) *Graph {
	t.Helper()
	g := NewGraph(source, nil)
	org, err := g.SetOrganism("3847")
	if err != nil {
		t.Fatalf("set organism: %v", err)
	}
	gm, _ := g.GeneticMap(org, "map")
	lg, _ := g.LinkageGroup(gm, "A1")
	q, _ := g.QTL(org, "q1")
	for i, name := range []string{"m1", "m2"} {
		m, _ := g.Marker(org, name)
		g.Position(lg, m, float64(10*(i+1)))
		g.LinkQTLMarker(q, m)
		r, _ := g.QTLRange(lg, q)
		r.Include(float64(10 * (i + 1)))
	}
	return g
}

func TestEmitWritesEveryItemOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(NewDefaultRulesEngine())
	g := sampleGraph(t, "src")
	if _, err := Emit(ctx, store, g); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if !g.Emitted() {
		t.Fatalf("graph not marked emitted")
	}
	_ = store.View(ctx, func(v TransactionView) error {
		total := 0
		for _, typ := range domain.ItemTypes {
			total += v.Count(typ)
		}
		if total != g.Len() {
			t.Fatalf("expected %d stored items, got %d", g.Len(), total)
		}
		return nil
	})
	if _, err := Emit(ctx, store, g); !errors.Is(err, ErrGraphEmitted) {
		t.Fatalf("expected ErrGraphEmitted on second emit, got %v", err)
	}
}

func TestEmitMergesAcrossPasses(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(NewDefaultRulesEngine())
	if _, err := Emit(ctx, store, sampleGraph(t, "a")); err != nil {
		t.Fatalf("first emit: %v", err)
	}
	second := NewGraph("b", nil)
	org := second.Organism("3847")
	q, _ := second.QTL(org, "q1")
	m, _ := second.Marker(org, "m3")
	second.LinkQTLMarker(q, m)
	if _, err := Emit(ctx, store, second); err != nil {
		t.Fatalf("second emit: %v", err)
	}
	_ = store.View(ctx, func(v TransactionView) error {
		item, _ := v.Find(q.ID)
		if got := len(item.(*domain.QTL).MarkerIDs); got != 3 {
			t.Fatalf("expected markers from both passes, got %d", got)
		}
		return nil
	})
}

func rangeGraph(t *testing.T, source string, positions ...float64) (*Graph, *domain.LinkageGroupRange) {
	t.Helper()
	g := NewGraph(source, nil)
	org, err := g.SetOrganism("3847")
	if err != nil {
		t.Fatalf("set organism: %v", err)
	}
	gm, _ := g.GeneticMap(org, "GmComposite2003")
	lg, _ := g.LinkageGroup(gm, "A1")
	q, _ := g.QTL(org, "Seed protein 1-1")
	r, _ := g.QTLRange(lg, q)
	for _, pos := range positions {
		r.Include(pos)
	}
	return g, r
}

func TestEmitFoldsRangeStartingAtZeroAcrossPasses(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(NewDefaultRulesEngine())
	first, r := rangeGraph(t, "a", 0, 3)
	if _, err := Emit(ctx, store, first); err != nil {
		t.Fatalf("first emit: %v", err)
	}
	second, _ := rangeGraph(t, "b", 5, 10)
	if _, err := Emit(ctx, store, second); err != nil {
		t.Fatalf("second emit: %v", err)
	}
	_ = store.View(ctx, func(v TransactionView) error {
		item, ok := v.Find(r.ID)
		if !ok {
			t.Fatalf("range not stored")
		}
		if got := item.(*domain.LinkageGroupRange); got.Begin != 0 || got.End != 10 {
			t.Fatalf("expected range [0,10], got [%v,%v]", got.Begin, got.End)
		}
		return nil
	})
}

func TestEmitFailsFastOnMissingOrganism(t *testing.T) {
	g := NewGraph("src", nil)
	gene, _ := g.Gene(g.Organism("3847"), "g1")
	gene.OrganismID = ""
	store := memory.NewStore(nil)
	_, err := Emit(context.Background(), store, g)
	var pre PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("expected PreconditionError, got %v", err)
	}
	if g.Emitted() {
		t.Fatalf("failed emit must not mark graph emitted")
	}
}

func TestEmitBlockedByRule(t *testing.T) {
	g := NewGraph("src", nil)
	org := g.Organism("3847")
	gene, _ := g.Gene(org, "g1")
	gene.GeneFamilyID = "gene_family:missing"
	store := memory.NewStore(NewDefaultRulesEngine())
	res, err := Emit(context.Background(), store, g)
	var violation RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	if !res.HasBlocking() || res.Violations[0].Rule != "reference_integrity" {
		t.Fatalf("expected reference_integrity violation, got %+v", res.Violations)
	}
}
