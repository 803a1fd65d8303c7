package chado

import (
	"context"
	"errors"
	"testing"

	"legfed/internal/chado/chadotest"
	"legfed/internal/core"
	"legfed/pkg/domain"
	"legfed/plugins/testhelper"
)

func run(t *testing.T, factory core.ProcessorFactory, src core.Source) (*core.Pass, error) {
	t.Helper()
	pass := testhelper.NewPass(t, src, nil)
	pass.Chado = chadotest.Open(t)
	proc, err := factory(src)
	if err != nil {
		return pass, err
	}
	return pass, proc.Process(context.Background(), pass)
}

func TestChadoFeatures(t *testing.T) {
	pass, err := run(t, NewFeatureProcessor, core.Source{Name: "soy-chado", Type: FeaturesType, TaxonID: chadotest.SoyTaxon})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	chr := testhelper.Find[*domain.Chromosome](t, pass, core.ItemID(domain.TypeChromosome, "3847", "Gm01"))
	if chr.Length != 56831624 {
		t.Fatalf("chromosome length %d", chr.Length)
	}
	gene := testhelper.Find[*domain.Gene](t, pass, core.ItemID(domain.TypeGene, "3847", "Glyma.01G000100"))
	loc := testhelper.Find[*domain.Location](t, pass, gene.ChromosomeLocationID)
	if loc.Start != 27355 || loc.End != 28320 || loc.Strand != -1 {
		t.Fatalf("interbase fmin must become a 1-based start: %+v", loc)
	}
	scaf := testhelper.Find[*domain.Gene](t, pass, core.ItemID(domain.TypeGene, "3847", "Glyma.U000100"))
	if scaf.SupercontigID != core.ItemID(domain.TypeSupercontig, "3847", "scaffold_21") {
		t.Fatalf("expected supercontig placement: %+v", scaf)
	}
	m := testhelper.Find[*domain.GeneticMarker](t, pass, core.ItemID(domain.TypeGeneticMarker, "3847", "Satt239"))
	if m.ChromosomeID != chr.ID {
		t.Fatalf("marker not located: %+v", m)
	}
	if unplaced := testhelper.Find[*domain.GeneticMarker](t, pass, core.ItemID(domain.TypeGeneticMarker, "3847", "Sat_999")); unplaced.ChromosomeLocationID != "" {
		t.Fatalf("marker with null coordinates must stay unplaced")
	}
	if pass.Skipped() != 1 {
		t.Fatalf("expected one skipped location, got %d", pass.Skipped())
	}
	if testhelper.Has(pass, core.ItemID(domain.TypeGene, "3847", "Phvul.001G000100")) {
		t.Fatalf("other organisms must not be loaded")
	}
	if err := pass.Graph.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestChadoGeneticMaps(t *testing.T) {
	pass, err := run(t, NewMapProcessor, core.Source{Name: "soy-maps", Type: MapsType, TaxonID: chadotest.SoyTaxon})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	gm := testhelper.Find[*domain.GeneticMap](t, pass, core.ItemID(domain.TypeGeneticMap, "3847", "GmComposite2003"))
	pub := core.ItemID(domain.TypePublication, "15026871")
	if gm.Description != "Soybean composite genetic map" || !domain.HasID(gm.PublicationIDs, pub) {
		t.Fatalf("unexpected map %+v", gm)
	}
	if title := testhelper.Find[*domain.Publication](t, pass, pub).Title; title == "" {
		t.Fatalf("publication title missing")
	}
	lgID := core.ItemID(domain.TypeLinkageGroup, "3847:GmComposite2003", "A1")
	lg := testhelper.Find[*domain.LinkageGroup](t, pass, lgID)
	if lg.Length != 92 || len(lg.PositionIDs) != 3 || len(lg.RangeIDs) != 1 {
		t.Fatalf("unexpected linkage group %+v", lg)
	}
	q := testhelper.Find[*domain.QTL](t, pass, core.ItemID(domain.TypeQTL, "3847", "Seed protein 1-1"))
	if q.TraitName != "seed protein" || len(q.MarkerIDs) != 2 {
		t.Fatalf("unexpected qtl %+v", q)
	}
	r := testhelper.Find[*domain.LinkageGroupRange](t, pass, core.ItemID(domain.TypeLinkageGroupRange, lgID, q.ID))
	if r.Begin != 15 || r.End != 18.5 {
		t.Fatalf("expected range [15, 18.5], got [%g, %g]", r.Begin, r.End)
	}
	marker := testhelper.Find[*domain.GeneticMarker](t, pass, core.ItemID(domain.TypeGeneticMarker, "3847", "Satt684"))
	if !domain.HasID(marker.QTLIDs, q.ID) {
		t.Fatalf("marker must reference its QTL")
	}
	p := testhelper.Find[*domain.LinkageGroupPosition](t, pass, core.ItemID(domain.TypeLinkageGroupPosition, lgID, marker.ID))
	if p.Position != 20.1 {
		t.Fatalf("unexpected position %g", p.Position)
	}
}

func TestChadoGeneticMapsScaled(t *testing.T) {
	src := core.Source{Name: "soy-maps", Type: MapsType, TaxonID: chadotest.SoyTaxon, Properties: map[string]string{"scaled_positions": "true"}}
	pass, err := run(t, NewMapProcessor, src)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	lgID := core.ItemID(domain.TypeLinkageGroup, "3847:GmComposite2003", "A1")
	marker := core.ItemID(domain.TypeGeneticMarker, "3847", "Satt239")
	p := testhelper.Find[*domain.LinkageGroupPosition](t, pass, core.ItemID(domain.TypeLinkageGroupPosition, lgID, marker))
	if p.Position != 0.125 {
		t.Fatalf("expected scaled position 0.125, got %g", p.Position)
	}
	if _, err := NewMapProcessor(core.Source{Name: "x", TaxonID: "3847", Properties: map[string]string{"scaled_positions": "maybe"}}); err == nil {
		t.Fatalf("expected error for invalid scaled_positions")
	}
}

func TestChadoGeneFamilies(t *testing.T) {
	src := core.Source{Name: "families", Type: FamiliesType, Properties: map[string]string{"families": "phytozome_10_2.59028020, absent"}}
	pass, err := run(t, NewFamilyProcessor, src)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	fam := testhelper.Find[*domain.GeneFamily](t, pass, core.ItemID(domain.TypeGeneFamily, "phytozome_10_2.59028020"))
	if fam.Size() != 3 || fam.Description != "NAC transcription factor" {
		t.Fatalf("unexpected family %+v", fam)
	}
	soyA := core.ItemID(domain.TypeGene, "3847", "Glyma.01G000100")
	soyB := core.ItemID(domain.TypeGene, "3847", "Glyma.01G000200")
	bean := core.ItemID(domain.TypeGene, "3885", "Phvul.001G000100")
	para := testhelper.Find[*domain.Homologue](t, pass, core.ItemID(domain.TypeHomologue, soyA, soyB))
	if para.Relation != domain.HomologueParalogue || para.GeneFamilyID != fam.ID {
		t.Fatalf("same organism pair must be paralogues: %+v", para)
	}
	ortho := testhelper.Find[*domain.Homologue](t, pass, core.ItemID(domain.TypeHomologue, bean, soyA))
	if ortho.Relation != domain.HomologueOrthologue {
		t.Fatalf("cross organism pair must be orthologues: %+v", ortho)
	}
	if got := pass.Graph.Counts()[domain.TypeHomologue]; got != 6 {
		t.Fatalf("expected 6 ordered homologue pairs, got %d", got)
	}
	if g := testhelper.Find[*domain.Gene](t, pass, bean); g.GeneFamilyID != fam.ID || len(g.HomologueIDs) != 2 {
		t.Fatalf("unexpected member %+v", g)
	}
}

func TestChadoAllFamilies(t *testing.T) {
	pass, err := run(t, NewFamilyProcessor, core.Source{Name: "families", Type: FamiliesType})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if got := pass.Graph.Counts()[domain.TypeGeneFamily]; got != 2 {
		t.Fatalf("expected every phylotree loaded, got %d", got)
	}
}

func TestChadoConfigErrors(t *testing.T) {
	var cfg core.ConfigError
	if _, err := NewFeatureProcessor(core.Source{Name: "x", Type: FeaturesType}); !errors.As(err, &cfg) {
		t.Fatalf("missing taxon: %v", err)
	}
	src := core.Source{Name: "x", Type: FeaturesType, TaxonID: "3847"}
	pass := testhelper.NewPass(t, src, nil)
	if err := (FeatureProcessor{}).Process(context.Background(), pass); !errors.As(err, &cfg) || !core.IsFatal(err) {
		t.Fatalf("missing connection must be a fatal config error: %v", err)
	}
	unknown := core.Source{Name: "x", Type: FeaturesType, TaxonID: "3702"}
	if _, err := run(t, NewFeatureProcessor, unknown); !errors.As(err, &cfg) {
		t.Fatalf("unconfigured organism must be a config error: %v", err)
	}
}

func TestChadoRenamedTerm(t *testing.T) {
	src := core.Source{Name: "soy-chado", Type: FeaturesType, TaxonID: chadotest.SoyTaxon}
	pass := testhelper.NewPass(t, src, nil)
	pass.Chado = chadotest.Open(t)
	pass.CVTerms = map[string]string{TermGene: "gene_model"}
	if err := (FeatureProcessor{}).Process(context.Background(), pass); err != nil {
		t.Fatalf("process: %v", err)
	}
	if got := pass.Graph.Counts()[domain.TypeGene]; got != 0 {
		t.Fatalf("unresolved gene term must skip gene queries, got %d genes", got)
	}
	if got := pass.Graph.Counts()[domain.TypeGeneticMarker]; got != 3 {
		t.Fatalf("markers still load, got %d", got)
	}
}
