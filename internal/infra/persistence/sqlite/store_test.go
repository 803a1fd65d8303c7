package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"legfed/pkg/domain"
)

func TestSQLiteStorePersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if err := tx.Put(&domain.Organism{Base: domain.Base{ID: "organism:3847"}, TaxonID: "3847"}); err != nil {
			return err
		}
		return tx.Put(&domain.Gene{Base: domain.Base{ID: "gene:3847:g1"}, PrimaryIdentifier: "g1", OrganismID: "organism:3847"})
	}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	_ = reloaded.View(context.Background(), func(v domain.TransactionView) error {
		item, ok := v.Find("gene:3847:g1")
		if !ok {
			t.Fatalf("expected gene after reload")
		}
		if item.(*domain.Gene).OrganismID != "organism:3847" {
			t.Fatalf("unexpected gene %+v", item)
		}
		return nil
	})
}

func TestSQLiteStoreLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if _, err := store.DB().Exec(`INSERT INTO state(bucket,payload) VALUES('gene', ?)`, []byte("{not json")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_ = store.Close()
	if _, err := NewStore(path, nil); err == nil {
		t.Fatalf("expected decode error for corrupt payload")
	}
}
