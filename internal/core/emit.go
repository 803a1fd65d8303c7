package core

import (
	"context"
	"fmt"

	"legfed/pkg/domain"
)

// Emit writes every entity of g to store in a single transaction. The graph
// is validated first so a partially initialised entity is never written, and
// a graph can only be emitted once.
func Emit(ctx context.Context, store PersistentStore, g *Graph) (Result, error) {
	if g.emitted {
		return Result{}, ErrGraphEmitted
	}
	if err := g.Validate(); err != nil {
		return Result{}, err
	}
	items := g.Items()
	res, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		for _, item := range items {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := tx.Put(item); err != nil {
				return fmt.Errorf("emit %s: %w", item.ItemID(), err)
			}
		}
		return nil
	})
	if err != nil {
		return res, err
	}
	g.emitted = true
	return res, nil
}

// Emitted reports whether the graph has been written to a store.
func (g *Graph) Emitted() bool { return g.emitted }
