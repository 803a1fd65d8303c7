package core

import (
	"context"
	"fmt"

	"legfed/pkg/domain"
)

// CoordinateOrderRule blocks locations with start after end and linkage group
// ranges with begin after end.
func CoordinateOrderRule() domain.Rule {
	return coordinateOrderRule{}
}

type coordinateOrderRule struct{}

func (coordinateOrderRule) Name() string { return "coordinate_order" }

func (r coordinateOrderRule) Evaluate(_ context.Context, view domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, item := range changedItems(view, changes, domain.TypeLocation, domain.TypeLinkageGroupRange) {
		switch v := item.(type) {
		case *domain.Location:
			if v.Start > v.End {
				res.Violations = append(res.Violations, violation(r.Name(), domain.SeverityBlock, v,
					fmt.Sprintf("location %s start %d after end %d", v.ID, v.Start, v.End)))
			}
		case *domain.LinkageGroupRange:
			if v.Begin > v.End {
				res.Violations = append(res.Violations, violation(r.Name(), domain.SeverityBlock, v,
					fmt.Sprintf("range %s begin %g after end %g", v.ID, v.Begin, v.End)))
			}
		}
	}
	return res, nil
}
