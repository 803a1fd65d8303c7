package germplasm

import (
	"errors"
	"testing"

	"legfed/internal/core"
	"legfed/pkg/domain"
	"legfed/plugins/testhelper"
)

const beans = `TaxonID	3885
Identifier	Name	Origin	Description
G19833	Chaucha Chuga	Peru	Andean landrace, reference genome
BAT93	BAT 93	CIAT	Mesoamerican breeding line
G19833	G19833 duplicate	Colombia
`

func TestGermplasmStrains(t *testing.T) {
	src := core.Source{Name: "bean-germplasm", Type: Type, Files: []string{"germplasm.tsv"}}
	pass, err := testhelper.Run(t, NewProcessor, src, map[string]string{"germplasm.tsv": beans})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	s := testhelper.Find[*domain.Strain](t, pass, core.ItemID(domain.TypeStrain, "3885", "G19833"))
	if s.Name != "Chaucha Chuga" || s.Origin != "Peru" || s.OrganismID != core.ItemID(domain.TypeOrganism, "3885") {
		t.Fatalf("first row values must be kept: %+v", s)
	}
	if got := pass.Graph.Counts()[domain.TypeStrain]; got != 2 {
		t.Fatalf("expected two strains, got %d", got)
	}
}

func TestGermplasmNeedsTaxon(t *testing.T) {
	_, err := testhelper.Run(t, NewProcessor, core.Source{Name: "g", Files: []string{"g.tsv"}}, map[string]string{"g.tsv": "BAT93\tBAT 93\n"})
	var pre core.PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("expected PreconditionError, got %v", err)
	}
}
