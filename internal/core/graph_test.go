package core

import (
	"errors"
	"testing"

	"legfed/pkg/domain"
)

func TestGraphRequireOrganismBeforeData(t *testing.T) {
	g := NewGraph("qtl.txt", nil)
	_, err := g.RequireOrganism(4)
	var pre PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("expected PreconditionError, got %v", err)
	}
	if pre.Line != 4 || pre.Source != "qtl.txt" {
		t.Fatalf("unexpected error detail %+v", pre)
	}
	if !IsFatal(err) {
		t.Fatalf("precondition errors must be fatal")
	}
}

func TestGraphSetOrganismConflict(t *testing.T) {
	g := NewGraph("qtl.txt", []OrganismInfo{{TaxonID: "3847", Genus: "Glycine", Species: "max"}})
	org, err := g.SetOrganism("3847")
	if err != nil {
		t.Fatalf("set organism: %v", err)
	}
	if org.Genus != "Glycine" || org.ID != "organism:3847" {
		t.Fatalf("expected configured organism, got %+v", org)
	}
	if again, err := g.SetOrganism(" 3847 "); err != nil || again != org {
		t.Fatalf("repeating the same taxon must be accepted")
	}
	_, err = g.SetOrganism("3885")
	var cfg ConfigError
	if !errors.As(err, &cfg) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestGraphLinksAreBidirectional(t *testing.T) {
	g := NewGraph("src", nil)
	org := g.Organism("3847")
	q, _ := g.QTL(org, "Seed weight 1-1")
	m, _ := g.Marker(org, "Satt100")
	g.LinkQTLMarker(q, m)
	g.LinkQTLMarker(q, m)
	if len(q.MarkerIDs) != 1 || q.MarkerIDs[0] != m.ID || len(m.QTLIDs) != 1 || m.QTLIDs[0] != q.ID {
		t.Fatalf("expected single bidirectional link, got %v / %v", q.MarkerIDs, m.QTLIDs)
	}
	gene, _ := g.Gene(org, "Glyma01g00100")
	g.LinkGeneQTL(gene, q)
	if !domain.HasID(gene.QTLIDs, q.ID) || !domain.HasID(q.GeneIDs, gene.ID) {
		t.Fatalf("expected gene/QTL link on both sides")
	}
}

func TestGraphLinkageGroupRangeFolding(t *testing.T) {
	g := NewGraph("src", nil)
	org := g.Organism("3847")
	gm, _ := g.GeneticMap(org, "GmComposite2003")
	lg, _ := g.LinkageGroup(gm, "A1")
	q, _ := g.QTL(org, "q1")
	for _, pos := range []float64{25.5, 10, 40.25} {
		r, _ := g.QTLRange(lg, q)
		r.Include(pos)
	}
	r, created := g.QTLRange(lg, q)
	if created {
		t.Fatalf("range must be reused")
	}
	if r.Begin != 10 || r.End != 40.25 {
		t.Fatalf("expected [10, 40.25], got [%g, %g]", r.Begin, r.End)
	}
	if !domain.HasID(lg.RangeIDs, r.ID) || !domain.HasID(q.RangeIDs, r.ID) || !domain.HasID(gm.LinkageGroupIDs, lg.ID) {
		t.Fatalf("expected range and group wired to owners")
	}
	if lg.OrganismID != org.ID {
		t.Fatalf("linkage group must inherit organism")
	}
}

func TestGraphPositionKeepsFirstValue(t *testing.T) {
	g := NewGraph("src", nil)
	org := g.Organism("3847")
	gm, _ := g.GeneticMap(org, "map")
	lg, _ := g.LinkageGroup(gm, "A1")
	m, _ := g.Marker(org, "Satt100")
	g.Position(lg, m, 12.5)
	p, created := g.Position(lg, m, 99)
	if created || p.Position != 12.5 {
		t.Fatalf("expected first position kept, got %+v", p)
	}
	if !domain.HasID(m.GeneticMapIDs, gm.ID) {
		t.Fatalf("marker must reference its genetic map")
	}
}

func TestGraphLocateRejectsInvertedCoordinates(t *testing.T) {
	g := NewGraph("src", nil)
	org := g.Organism("3847")
	chr, _ := g.Chromosome(org, "Gm01")
	gene, _ := g.Gene(org, "g1")
	if _, err := g.LocateGene(gene, chr, 200, 100, 1); err == nil {
		t.Fatalf("expected start > end to fail")
	}
	loc, err := g.LocateGene(gene, chr, 100, 200, -1)
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if gene.ChromosomeID != chr.ID || gene.ChromosomeLocationID != loc.ID {
		t.Fatalf("gene not wired to chromosome location")
	}
	sc, _ := g.Supercontig(org, "scaffold_21")
	if _, err := g.LocateGene(gene, sc, 5, 9, 1); err != nil {
		t.Fatalf("locate on supercontig: %v", err)
	}
	if gene.SupercontigID != sc.ID || gene.ChromosomeID != chr.ID {
		t.Fatalf("supercontig location must not replace chromosome location")
	}
}

func TestGraphItemsEmitsEachEntityOnce(t *testing.T) {
	g := NewGraph("src", nil)
	org := g.Organism("3847")
	for i := 0; i < 3; i++ {
		q, _ := g.QTL(org, "q1")
		m, _ := g.Marker(org, "m1")
		g.LinkQTLMarker(q, m)
	}
	seen := make(map[string]int)
	for _, item := range g.Items() {
		seen[item.ItemID()]++
	}
	if len(seen) != 3 {
		t.Fatalf("expected organism, QTL and marker, got %v", seen)
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("%s listed %d times", id, n)
		}
	}
	if counts := g.Counts(); counts[domain.TypeQTL] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestGraphHomologueAndFamily(t *testing.T) {
	g := NewGraph("src", nil)
	gm := g.Organism("3847")
	pv := g.Organism("3885")
	a, _ := g.Gene(gm, "a")
	b, _ := g.Gene(pv, "b")
	f, _ := g.GeneFamily("phytozome_10_2.59088092")
	g.LinkGeneFamily(f, a)
	g.LinkGeneFamily(f, b)
	h, _ := g.Homologue(f, a, b, domain.HomologueOrthologue)
	if h.GeneFamilyID != f.ID || !domain.HasID(a.HomologueIDs, h.ID) || f.Size() != 2 {
		t.Fatalf("unexpected homologue wiring %+v", h)
	}
}

func TestItemIDIsDeterministic(t *testing.T) {
	a := NewGraph("one", nil)
	b := NewGraph("two", nil)
	ga, _ := a.Gene(a.Organism("3847"), "g1")
	gb, _ := b.Gene(b.Organism("3847"), "g1")
	if ga.ID != gb.ID || ga.ID != "gene:3847:g1" {
		t.Fatalf("expected matching deterministic ids, got %s and %s", ga.ID, gb.ID)
	}
}

func TestGraphOrganismByName(t *testing.T) {
	g := NewGraph("families", []OrganismInfo{
		{TaxonID: "3847", Genus: "Glycine", Species: "max"},
		{TaxonID: "3885", Genus: "Phaseolus", Species: "vulgaris"},
	})
	org, ok := g.OrganismByName("phaseolus", "Vulgaris")
	if !ok || org.TaxonID != "3885" || org.Genus != "Phaseolus" {
		t.Fatalf("expected configured bean organism, got %+v", org)
	}
	if _, ok := g.OrganismByName("Arachis", "hypogaea"); ok {
		t.Fatalf("unconfigured organism must not resolve")
	}
}
