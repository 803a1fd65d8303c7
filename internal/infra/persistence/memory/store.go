// Package memory provides an in-memory implementation of the item store used
// for tests, ephemeral runs, and as the transactional core of the durable
// backends.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"legfed/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Item aliases domain.Item.
	Item = domain.Item
	// ItemType aliases domain.ItemType.
	ItemType = domain.ItemType
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

// Snapshot is the serialisable form of the store: one bucket per item type,
// each mapping item ID to its JSON encoding.
type Snapshot map[ItemType]map[string]json.RawMessage

type memoryState struct {
	items map[ItemType]map[string]Item
	index map[string]ItemType
}

func newMemoryState() memoryState {
	return memoryState{
		items: make(map[ItemType]map[string]Item),
		index: make(map[string]ItemType),
	}
}

// clone copies the bucket maps. Items are treated as immutable once stored,
// so sharing them between states is safe.
func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for t, bucket := range s.items {
		cp := make(map[string]Item, len(bucket))
		for id, item := range bucket {
			cp[id] = item
		}
		cloned.items[t] = cp
	}
	for id, t := range s.index {
		cloned.index[id] = t
	}
	return cloned
}

func (s memoryState) put(item Item) {
	t := item.Type()
	if prev, ok := s.index[item.ItemID()]; ok && prev != t {
		delete(s.items[prev], item.ItemID())
	}
	bucket, ok := s.items[t]
	if !ok {
		bucket = make(map[string]Item)
		s.items[t] = bucket
	}
	bucket[item.ItemID()] = item
	s.index[item.ItemID()] = t
}

func (s memoryState) find(id string) (Item, bool) {
	t, ok := s.index[id]
	if !ok {
		return nil, false
	}
	item, ok := s.items[t][id]
	return item, ok
}

func snapshotFromMemoryState(state memoryState) (Snapshot, error) {
	snapshot := make(Snapshot, len(state.items))
	for t, bucket := range state.items {
		out := make(map[string]json.RawMessage, len(bucket))
		for id, item := range bucket {
			raw, err := json.Marshal(item)
			if err != nil {
				return nil, fmt.Errorf("encode %s %s: %w", t, id, err)
			}
			out[id] = raw
		}
		snapshot[t] = out
	}
	return snapshot, nil
}

func memoryStateFromSnapshot(snapshot Snapshot) (memoryState, error) {
	state := newMemoryState()
	for t, bucket := range snapshot {
		for id, raw := range bucket {
			item, err := domain.DecodeItem(t, raw)
			if err != nil {
				return memoryState{}, fmt.Errorf("restore %s: %w", id, err)
			}
			state.put(item)
		}
	}
	return state, nil
}

// Store is an in-memory transactional item store.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
	}
}

// ExportState encodes the current store state for external persistence.
func (s *Store) ExportState() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) error {
	state, err := memoryStateFromSnapshot(snapshot)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	return nil
}

// RulesEngine exposes the currently configured engine for integration points like plugins.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

type transaction struct {
	state   memoryState
	written map[string]struct{}
	changes []Change
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// Find retrieves a copy of the item with the given ID.
func (v transactionView) Find(id string) (Item, bool) {
	item, ok := v.state.find(id)
	if !ok {
		return nil, false
	}
	cp, err := domain.CloneItem(item)
	if err != nil {
		return nil, false
	}
	return cp, true
}

// List returns copies of every item of type t ordered by ID.
func (v transactionView) List(t ItemType) []Item {
	bucket := v.state.items[t]
	ids := make([]string, 0, len(bucket))
	for id := range bucket {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]Item, 0, len(ids))
	for _, id := range ids {
		cp, err := domain.CloneItem(bucket[id])
		if err != nil {
			continue
		}
		out = append(out, cp)
	}
	return out
}

// Count returns the number of items of type t.
func (v transactionView) Count(t ItemType) int {
	return len(v.state.items[t])
}

// RunInTransaction executes fn within a transactional copy of the store state.
// Rules run against the resulting state; blocking violations discard it.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		state:   s.state.clone(),
		written: make(map[string]struct{}),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()

	return fn(newTransactionView(&snapshot))
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// Put stores item, merging it into a version committed by an earlier transaction.
func (tx *transaction) Put(item Item) error {
	if item == nil {
		return errors.New("put: nil item")
	}
	id := item.ItemID()
	if id == "" {
		return fmt.Errorf("put %s: empty id", item.Type())
	}
	if _, ok := tx.written[id]; ok {
		return domain.ErrAlreadyEmitted{ID: id}
	}
	stored, err := domain.CloneItem(item)
	if err != nil {
		return fmt.Errorf("put %s: %w", id, err)
	}
	action := domain.ActionCreate
	if existing, ok := tx.state.find(id); ok {
		stored, err = domain.MergeItems(existing, stored)
		if err != nil {
			return fmt.Errorf("put %s: %w", id, err)
		}
		action = domain.ActionUpdate
	}
	tx.state.put(stored)
	tx.written[id] = struct{}{}
	tx.recordChange(Change{Action: action, Type: stored.Type(), ID: id})
	return nil
}

// Replace overwrites the stored version of item without merging.
func (tx *transaction) Replace(item Item) error {
	if item == nil {
		return errors.New("replace: nil item")
	}
	id := item.ItemID()
	existing, ok := tx.state.find(id)
	if !ok {
		return fmt.Errorf("replace %s: not found", id)
	}
	if existing.Type() != item.Type() {
		return fmt.Errorf("replace %s: type mismatch %s vs %s", id, existing.Type(), item.Type())
	}
	stored, err := domain.CloneItem(item)
	if err != nil {
		return fmt.Errorf("replace %s: %w", id, err)
	}
	tx.state.put(stored)
	tx.written[id] = struct{}{}
	tx.recordChange(Change{Action: domain.ActionUpdate, Type: stored.Type(), ID: id})
	return nil
}
