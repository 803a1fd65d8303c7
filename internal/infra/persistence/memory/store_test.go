package memory

import (
	"context"
	"errors"
	"testing"

	"legfed/pkg/domain"
)

type blockRule struct{ id string }

func (r blockRule) Name() string { return "block_test" }

func (r blockRule) Evaluate(_ context.Context, view domain.TransactionView, _ []domain.Change) (domain.Result, error) {
	if _, ok := view.Find(r.id); ok {
		return domain.Result{Violations: []domain.Violation{{Rule: r.Name(), Severity: domain.SeverityBlock, ItemID: r.id}}}, nil
	}
	return domain.Result{}, nil
}

func organism(id string) *domain.Organism {
	return &domain.Organism{Base: domain.Base{ID: id}, TaxonID: "3847"}
}

func TestPutRejectsDuplicateWithinTransaction(t *testing.T) {
	store := NewStore(nil)
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		if err := tx.Put(organism("organism:3847")); err != nil {
			return err
		}
		return tx.Put(organism("organism:3847"))
	})
	var dup domain.ErrAlreadyEmitted
	if !errors.As(err, &dup) {
		t.Fatalf("expected ErrAlreadyEmitted, got %v", err)
	}
	if err := store.View(context.Background(), func(v TransactionView) error {
		if v.Count(domain.TypeOrganism) != 0 {
			t.Fatalf("failed transaction must not commit")
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestPutMergesAcrossTransactions(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)
	first := &domain.GeneticMarker{Base: domain.Base{ID: "marker:1"}, PrimaryIdentifier: "m1", QTLIDs: []string{"qtl:a"}}
	second := &domain.GeneticMarker{Base: domain.Base{ID: "marker:1"}, PrimaryIdentifier: "m1", MarkerType: "SNP", QTLIDs: []string{"qtl:b"}}
	for _, m := range []*domain.GeneticMarker{first, second} {
		m := m
		if _, err := store.RunInTransaction(ctx, func(tx Transaction) error { return tx.Put(m) }); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	_ = store.View(ctx, func(v TransactionView) error {
		item, ok := v.Find("marker:1")
		if !ok {
			t.Fatalf("marker missing")
		}
		m := item.(*domain.GeneticMarker)
		if m.MarkerType != "SNP" || len(m.QTLIDs) != 2 {
			t.Fatalf("expected merged marker, got %+v", m)
		}
		return nil
	})
}

func TestBlockingRuleDiscardsTransaction(t *testing.T) {
	engine := domain.NewRulesEngine()
	engine.Register(blockRule{id: "organism:bad"})
	store := NewStore(engine)
	res, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		return tx.Put(organism("organism:bad"))
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) || !res.HasBlocking() {
		t.Fatalf("expected blocking violation, got %v", err)
	}
	_ = store.View(context.Background(), func(v TransactionView) error {
		if _, ok := v.Find("organism:bad"); ok {
			t.Fatalf("blocked item must not be committed")
		}
		return nil
	})
}

func TestReplaceRequiresExistingItem(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		return tx.Replace(organism("organism:1"))
	}); err == nil {
		t.Fatalf("expected replace of missing item to fail")
	}
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		return tx.Put(&domain.Gene{Base: domain.Base{ID: "gene:1"}, QTLIDs: []string{"qtl:1"}})
	}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		return tx.Replace(&domain.Gene{Base: domain.Base{ID: "gene:1"}})
	}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	_ = store.View(ctx, func(v TransactionView) error {
		item, _ := v.Find("gene:1")
		if len(item.(*domain.Gene).QTLIDs) != 0 {
			t.Fatalf("replace must overwrite collections")
		}
		return nil
	})
}

func TestViewReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		return tx.Put(organism("organism:1"))
	}); err != nil {
		t.Fatalf("put: %v", err)
	}
	_ = store.View(ctx, func(v TransactionView) error {
		item, _ := v.Find("organism:1")
		item.(*domain.Organism).TaxonID = "mutated"
		again, _ := v.Find("organism:1")
		if again.(*domain.Organism).TaxonID != "3847" {
			t.Fatalf("view must not expose stored item")
		}
		return nil
	})
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		if err := tx.Put(organism("organism:1")); err != nil {
			return err
		}
		return tx.Put(&domain.Chromosome{Base: domain.Base{ID: "sc:1"}, Kind: domain.TypeSupercontig, PrimaryIdentifier: "sc1"})
	}); err != nil {
		t.Fatalf("put: %v", err)
	}
	snapshot, err := store.ExportState()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	restored := NewStore(nil)
	if err := restored.ImportState(snapshot); err != nil {
		t.Fatalf("import: %v", err)
	}
	_ = restored.View(ctx, func(v TransactionView) error {
		if v.Count(domain.TypeSupercontig) != 1 || v.Count(domain.TypeOrganism) != 1 {
			t.Fatalf("unexpected restored counts")
		}
		return nil
	})
}
