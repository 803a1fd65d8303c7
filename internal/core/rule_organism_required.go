package core

import (
	"context"
	"fmt"

	"legfed/pkg/domain"
)

// OrganismRequiredRule blocks features stored without an organism reference.
func OrganismRequiredRule() domain.Rule {
	return organismRequiredRule{}
}

type organismRequiredRule struct{}

func (organismRequiredRule) Name() string { return "organism_required" }

func (r organismRequiredRule) Evaluate(_ context.Context, view domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, item := range changedItems(view, changes) {
		var organismID string
		switch v := item.(type) {
		case *domain.Gene:
			organismID = v.OrganismID
		case *domain.GeneticMarker:
			organismID = v.OrganismID
		case *domain.QTL:
			organismID = v.OrganismID
		case *domain.Chromosome:
			organismID = v.OrganismID
		case *domain.Strain:
			organismID = v.OrganismID
		case *domain.GeneticMap:
			organismID = v.OrganismID
		case *domain.LinkageGroup:
			organismID = v.OrganismID
		case *domain.SyntenicRegion:
			organismID = v.OrganismID
		default:
			continue
		}
		if organismID == "" {
			res.Violations = append(res.Violations, violation(r.Name(), domain.SeverityBlock, item,
				fmt.Sprintf("%s %s has no organism", item.Type(), item.ItemID())))
		}
	}
	return res, nil
}
