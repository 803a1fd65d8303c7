package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"legfed/internal/infra/persistence/postgres/testutil"
	"legfed/pkg/domain"
)

func TestNewStoreCreatesStateTable(t *testing.T) {
	db, conn := testutil.NewStateDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	if _, err := NewStore("", domain.NewRulesEngine()); err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if !conn.Executed("CREATE TABLE IF NOT EXISTS state") {
		t.Fatalf("expected state table DDL, got %v", conn.Statements)
	}
}

func TestRunInTransactionPersistsAndReloads(t *testing.T) {
	db, conn := testutil.NewStateDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("ignored", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		return tx.Put(&domain.QTL{Base: domain.Base{ID: "qtl:3847:q1"}, PrimaryIdentifier: "q1", OrganismID: "organism:3847"})
	}); err != nil {
		t.Fatalf("RunInTransaction: %v", err)
	}
	if len(conn.Buckets) != 1 || conn.Buckets["qtl"] == nil {
		t.Fatalf("expected one qtl bucket, got %v", conn.Buckets)
	}

	reloaded, err := NewStore("ignored", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	_ = reloaded.View(context.Background(), func(v domain.TransactionView) error {
		if v.Count(domain.TypeQTL) != 1 {
			t.Fatalf("expected qtl after reload")
		}
		return nil
	})
}

func TestPersistCommitError(t *testing.T) {
	db, conn := testutil.NewStateDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("ignored", nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	conn.FailCommit = true
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		return tx.Put(&domain.Organism{Base: domain.Base{ID: "organism:1"}, TaxonID: "1"})
	})
	if err == nil || !strings.Contains(err.Error(), "commit") {
		t.Fatalf("expected commit error, got %v", err)
	}
}

func TestNewStoreOpenError(t *testing.T) {
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return nil, errors.New("boom") })
	defer restore()
	if _, err := NewStore("dsn", nil); err == nil {
		t.Fatalf("expected open error")
	}
}

func TestLoadSnapshotDecodeError(t *testing.T) {
	db, conn := testutil.NewStateDB()
	conn.Buckets["gene"] = []byte("{bad")
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore("dsn", nil); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestPersistUpsertErrorLeavesStateUntouched(t *testing.T) {
	db, conn := testutil.NewStateDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("ignored", nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	conn.FailBuckets = map[string]bool{"gene": true}
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if err := tx.Put(&domain.Organism{Base: domain.Base{ID: "organism:3847"}, TaxonID: "3847"}); err != nil {
			return err
		}
		return tx.Put(&domain.Gene{Base: domain.Base{ID: "gene:3847:g1"}, PrimaryIdentifier: "g1", OrganismID: "organism:3847"})
	})
	if err == nil || !strings.Contains(err.Error(), "upsert gene") {
		t.Fatalf("expected upsert error, got %v", err)
	}
	if len(conn.Buckets) != 0 {
		t.Fatalf("rolled back snapshot must not be stored: %v", conn.Buckets)
	}
}

func TestNewStorePingError(t *testing.T) {
	db, conn := testutil.NewStateDB()
	conn.FailPing = true
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore("dsn", nil); err == nil || !strings.Contains(err.Error(), "ping") {
		t.Fatalf("expected ping error, got %v", err)
	}
}
