package cmapfile

import (
	"errors"
	"testing"

	"legfed/internal/core"
	"legfed/pkg/domain"
	"legfed/plugins/testhelper"
)

const cmapData = "map_acc\tmap_name\tmap_start\tmap_stop\tfeature_acc\tfeature_name\tfeature_aliases\tfeature_start\tfeature_stop\tfeature_type_acc\tis_landmark\n" +
	"PvCookUCDavis2009_Pv01\tPv01\t0\t105.3\tf1\tBng040\tBng040,PvBng040\t12.1\t12.1\tSSR\t1\n" +
	"PvCookUCDavis2009_Pv01\tPv01\t0\t105.3\tf2\tCommon bacterial blight 1-1\t\t30.2\t20.4\tQTL\t0\n" +
	"PvCookUCDavis2009_Pv02\tPv02\t0\t98\tf3\t\t\t5\t\tSNP\t0\n" +
	"PvCookUCDavis2009_Pv02\tPv02\t0\t98\tf4\tBroken\t\tx\t\tSNP\t0\n"

func TestCMapBuildsGroupsRangesAndPositions(t *testing.T) {
	src := core.Source{Name: "bean-cmap", Type: Type, TaxonID: "3885", Files: []string{"maps/PvCookUCDavis2009.cmap"}}
	pass, err := testhelper.Run(t, NewProcessor, src, map[string]string{"maps/PvCookUCDavis2009.cmap": cmapData})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	gm := testhelper.Find[*domain.GeneticMap](t, pass, core.ItemID(domain.TypeGeneticMap, "3885", "PvCookUCDavis2009"))
	if len(gm.LinkageGroupIDs) != 2 {
		t.Fatalf("expected two linkage groups, got %v", gm.LinkageGroupIDs)
	}
	lgID := core.ItemID(domain.TypeLinkageGroup, "3885:PvCookUCDavis2009", "PvCookUCDavis2009_Pv01")
	lg := testhelper.Find[*domain.LinkageGroup](t, pass, lgID)
	if lg.Length != 105.3 || len(lg.PositionIDs) != 1 || len(lg.RangeIDs) != 1 {
		t.Fatalf("unexpected linkage group %+v", lg)
	}
	q := testhelper.Find[*domain.QTL](t, pass, core.ItemID(domain.TypeQTL, "3885", "Common bacterial blight 1-1"))
	r := testhelper.Find[*domain.LinkageGroupRange](t, pass, core.ItemID(domain.TypeLinkageGroupRange, lgID, q.ID))
	if r.Begin != 20.4 || r.End != 30.2 {
		t.Fatalf("reversed feature coordinates must be ordered, got [%g, %g]", r.Begin, r.End)
	}
	m := testhelper.Find[*domain.GeneticMarker](t, pass, core.ItemID(domain.TypeGeneticMarker, "3885", "Bng040"))
	if m.SecondaryIdentifier != "PvBng040" || m.MarkerType != "SSR" {
		t.Fatalf("unexpected marker %+v", m)
	}
	if !testhelper.Has(pass, core.ItemID(domain.TypeGeneticMarker, "3885", "f3")) {
		t.Fatalf("unnamed feature must fall back to its accession")
	}
	if pass.Skipped() != 1 {
		t.Fatalf("expected one skipped row, got %d", pass.Skipped())
	}
}

func TestCMapRequiresTaxon(t *testing.T) {
	_, err := NewProcessor(core.Source{Name: "cmap"})
	var cfg core.ConfigError
	if !errors.As(err, &cfg) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}
