package core

import (
	"strconv"
	"testing"
)

type entity struct {
	key    string
	fields map[string]string
}

func TestRegistryGetOrCreateIsIdempotent(t *testing.T) {
	inits := 0
	reg := NewRegistry(func(k string) *entity {
		inits++
		return &entity{key: k, fields: map[string]string{"organism": "3847"}}
	})

	first, created := reg.GetOrCreate("Glyma01g00100")
	if !created {
		t.Fatalf("expected first call to create")
	}
	first.fields["symbol"] = "ABC"

	for i := 0; i < 3; i++ {
		again, created := reg.GetOrCreate("Glyma01g00100")
		if created {
			t.Fatalf("call %d created a second entity", i)
		}
		if again != first {
			t.Fatalf("call %d returned a different instance", i)
		}
		again.fields["note"+strconv.Itoa(i)] = "x"
	}
	if inits != 1 {
		t.Fatalf("expected init once, got %d", inits)
	}
	if first.fields["organism"] != "3847" || first.fields["symbol"] != "ABC" || len(first.fields) != 5 {
		t.Fatalf("expected union of fields, got %v", first.fields)
	}
}

func TestRegistryPreservesFirstSeenOrder(t *testing.T) {
	reg := NewRegistry(func(k int) string { return "v" + strconv.Itoa(k) })
	for _, k := range []int{3, 1, 3, 2, 1} {
		reg.GetOrCreate(k)
	}
	keys := reg.Keys()
	want := []int{3, 1, 2}
	if reg.Len() != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), reg.Len())
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("expected keys %v, got %v", want, keys)
		}
	}
	if vals := reg.Values(); vals[0] != "v3" || vals[2] != "v2" {
		t.Fatalf("unexpected values %v", vals)
	}
	if _, ok := reg.Get(4); ok {
		t.Fatalf("Get must not create")
	}
	if reg.Len() != 3 {
		t.Fatalf("Get changed registry size")
	}
}
