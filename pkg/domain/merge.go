package domain

import (
	"encoding/json"
	"fmt"
)

// MergeItems folds incoming onto existing and returns the combined item.
// Fields already set on existing are kept; empty fields take the incoming
// value; ID collections become the sorted union of both sides. A number is
// set when its key is present, so a stored 0 is kept. Linkage group ranges
// take the min begin and max end of both sides, and sequence and linkage
// group lengths take the larger value.
func MergeItems(existing, incoming Item) (Item, error) {
	if existing.Type() != incoming.Type() {
		return nil, fmt.Errorf("merge %s: type mismatch %s vs %s", existing.ItemID(), existing.Type(), incoming.Type())
	}
	base, err := toFields(existing)
	if err != nil {
		return nil, err
	}
	next, err := toFields(incoming)
	if err != nil {
		return nil, err
	}
	for key, value := range next {
		current, ok := base[key]
		if !ok || isEmptyField(current) {
			base[key] = value
			continue
		}
		cur, curIsList := current.([]any)
		add, addIsList := value.([]any)
		if curIsList && addIsList {
			base[key] = unionFields(cur, add)
		}
	}
	raw, err := json.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("merge %s: %w", existing.ItemID(), err)
	}
	merged, err := DecodeItem(existing.Type(), raw)
	if err != nil {
		return nil, err
	}
	foldExtents(merged, incoming)
	return merged, nil
}

func foldExtents(merged, incoming Item) {
	switch m := merged.(type) {
	case *LinkageGroupRange:
		in := asRange(incoming)
		if in.Begin < m.Begin {
			m.Begin = in.Begin
		}
		if in.End > m.End {
			m.End = in.End
		}
	case *Chromosome:
		if in := asChromosome(incoming); in.Length > m.Length {
			m.Length = in.Length
		}
	case *LinkageGroup:
		if in := asLinkageGroup(incoming); in.Length > m.Length {
			m.Length = in.Length
		}
	}
}

func asRange(item Item) LinkageGroupRange {
	switch v := item.(type) {
	case *LinkageGroupRange:
		return *v
	case LinkageGroupRange:
		return v
	}
	return LinkageGroupRange{}
}

func asChromosome(item Item) Chromosome {
	switch v := item.(type) {
	case *Chromosome:
		return *v
	case Chromosome:
		return v
	}
	return Chromosome{}
}

func asLinkageGroup(item Item) LinkageGroup {
	switch v := item.(type) {
	case *LinkageGroup:
		return *v
	case LinkageGroup:
		return v
	}
	return LinkageGroup{}
}

func toFields(item Item) (map[string]any, error) {
	raw, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", item.ItemID(), err)
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode %s: %w", item.ItemID(), err)
	}
	return fields, nil
}

func isEmptyField(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	}
	return false
}

func unionFields(a, b []any) []any {
	var ids []string
	allStrings := true
	for _, v := range append(append([]any(nil), a...), b...) {
		s, ok := v.(string)
		if !ok {
			allStrings = false
			break
		}
		ids, _ = AddID(ids, s)
	}
	if allStrings {
		out := make([]any, len(ids))
		for i, id := range ids {
			out[i] = id
		}
		return out
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]any, 0, len(a)+len(b))
	for _, v := range append(append([]any(nil), a...), b...) {
		raw, err := json.Marshal(v)
		if err != nil {
			continue
		}
		if _, ok := seen[string(raw)]; ok {
			continue
		}
		seen[string(raw)] = struct{}{}
		out = append(out, v)
	}
	return out
}
