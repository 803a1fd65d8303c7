package core

import (
	"context"
	"fmt"

	"legfed/pkg/domain"
)

// SingleMarkerQTLRule warns about QTLs linked to genes while carrying fewer
// than two markers, which cannot define a genomic span.
func SingleMarkerQTLRule() domain.Rule {
	return singleMarkerQTLRule{}
}

type singleMarkerQTLRule struct{}

func (singleMarkerQTLRule) Name() string { return "single_marker_qtl" }

func (r singleMarkerQTLRule) Evaluate(_ context.Context, view domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, item := range changedItems(view, changes, domain.TypeQTL) {
		q, ok := item.(*domain.QTL)
		if !ok || len(q.GeneIDs) == 0 || len(q.MarkerIDs) >= 2 {
			continue
		}
		res.Violations = append(res.Violations, violation(r.Name(), domain.SeverityWarn, q,
			fmt.Sprintf("QTL %s has %d overlapping genes but only %d markers", q.ID, len(q.GeneIDs), len(q.MarkerIDs))))
	}
	return res, nil
}
