package core

// Registry deduplicates entities by natural key while a pass scans its input.
// The same key always yields the same value; values are kept in first-seen
// order so emission is deterministic.
type Registry[K comparable, V any] struct {
	init  func(K) V
	items map[K]V
	order []K
}

// NewRegistry constructs a registry whose entries are built by init on first
// reference. init applies required defaults such as IDs and organism
// references.
func NewRegistry[K comparable, V any](init func(K) V) *Registry[K, V] {
	return &Registry[K, V]{init: init, items: make(map[K]V)}
}

// GetOrCreate returns the entry for key, creating it on first use.
func (r *Registry[K, V]) GetOrCreate(key K) (V, bool) {
	if v, ok := r.items[key]; ok {
		return v, false
	}
	v := r.init(key)
	r.items[key] = v
	r.order = append(r.order, key)
	return v, true
}

// Get returns the entry for key without creating one.
func (r *Registry[K, V]) Get(key K) (V, bool) {
	v, ok := r.items[key]
	return v, ok
}

// Len returns the number of registered entries.
func (r *Registry[K, V]) Len() int { return len(r.order) }

// Keys returns registered keys in first-seen order.
func (r *Registry[K, V]) Keys() []K {
	out := make([]K, len(r.order))
	copy(out, r.order)
	return out
}

// Values returns registered values in first-seen order.
func (r *Registry[K, V]) Values() []V {
	out := make([]V, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.items[k])
	}
	return out
}
