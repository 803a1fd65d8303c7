package domain

import (
	"encoding/json"
	"testing"
)

func TestAddIDKeepsSortedSet(t *testing.T) {
	var ids []string
	for _, id := range []string{"qtl:3", "qtl:1", "qtl:2", "qtl:1", ""} {
		ids, _ = AddID(ids, id)
	}
	want := []string{"qtl:1", "qtl:2", "qtl:3"}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, ids)
		}
	}
	if _, added := AddID(ids, "qtl:2"); added {
		t.Fatalf("duplicate id reported as added")
	}
	if !HasID(ids, "qtl:3") || HasID(ids, "qtl:4") {
		t.Fatalf("HasID mismatch for %v", ids)
	}
}

func TestItemReferencesSkipEmpty(t *testing.T) {
	gene := Gene{
		Base:       Base{ID: "gene:1"},
		OrganismID: "organism:1",
		QTLIDs:     []string{"qtl:1", "qtl:2"},
	}
	refs := gene.References()
	if len(refs) != 3 {
		t.Fatalf("expected organism and two QTL references, got %+v", refs)
	}
	if refs[0].Name != "organism" || refs[1].Name != "spanningQTLs" {
		t.Fatalf("unexpected reference names: %+v", refs)
	}
}

func TestDecodeItemRoundTripsSupercontig(t *testing.T) {
	contig := &Chromosome{Base: Base{ID: "sc:1"}, Kind: TypeSupercontig, PrimaryIdentifier: "scaffold_12", OrganismID: "organism:1"}
	raw, err := json.Marshal(contig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	item, err := DecodeItem(TypeSupercontig, raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if item.Type() != TypeSupercontig || item.ItemID() != "sc:1" {
		t.Fatalf("unexpected decoded item %+v", item)
	}
	if _, err := DecodeItem("nope", raw); err == nil {
		t.Fatalf("expected unknown type error")
	}
}

func TestLinkageGroupRangeIncludeFoldsMinMax(t *testing.T) {
	var r LinkageGroupRange
	for _, pos := range []float64{12.5, 0, 40.25, 7} {
		r.Include(pos)
	}
	if r.Begin != 0 || r.End != 40.25 {
		t.Fatalf("expected [0, 40.25], got [%v, %v]", r.Begin, r.End)
	}
	if r.Length() != 40.25 {
		t.Fatalf("unexpected length %v", r.Length())
	}
}

func TestNewItemCoversAllTypes(t *testing.T) {
	for _, typ := range ItemTypes {
		item, err := NewItem(typ)
		if err != nil {
			t.Fatalf("new %s: %v", typ, err)
		}
		if item.Type() != typ {
			t.Fatalf("expected %s, got %s", typ, item.Type())
		}
	}
}
