package core

import (
	"context"
	"fmt"

	"legfed/pkg/domain"
)

// ReferenceIntegrityRule blocks commits that leave a reference dangling.
func ReferenceIntegrityRule() domain.Rule {
	return referenceIntegrityRule{}
}

type referenceIntegrityRule struct{}

func (referenceIntegrityRule) Name() string { return "reference_integrity" }

func (r referenceIntegrityRule) Evaluate(_ context.Context, view domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	known := make(map[string]bool)
	for _, item := range changedItems(view, changes) {
		for _, ref := range item.References() {
			ok, checked := known[ref.TargetID]
			if !checked {
				_, ok = view.Find(ref.TargetID)
				known[ref.TargetID] = ok
			}
			if !ok {
				res.Violations = append(res.Violations, violation(r.Name(), domain.SeverityBlock, item,
					fmt.Sprintf("%s %s references missing %s %s", item.Type(), item.ItemID(), ref.Name, ref.TargetID)))
			}
		}
	}
	return res, nil
}
