package domain

import (
	"context"
	"fmt"
)

// Transaction exposes the mutations a persistence implementation must support
// within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	// Put stores an item. An item already put in the same transaction yields
	// ErrAlreadyEmitted; one committed by an earlier transaction is merged
	// with the incoming version (see MergeItems).
	Put(item Item) error
	// Replace swaps a committed item for an updated version of itself.
	Replace(item Item) error
}

// TransactionView provides read-only access to snapshot data for rules and
// post-processing.
type TransactionView interface {
	Find(id string) (Item, bool)
	List(t ItemType) []Item
	Count(t ItemType) int
}

// PersistentStore is a minimal abstraction over durable backends.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
}

// ErrAlreadyEmitted is returned when a transaction stores the same item twice.
type ErrAlreadyEmitted struct {
	ID string
}

func (e ErrAlreadyEmitted) Error() string {
	return fmt.Sprintf("item %s already emitted in this transaction", e.ID)
}
