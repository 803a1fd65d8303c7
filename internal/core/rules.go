package core

import (
	"legfed/pkg/domain"
)

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(ReferenceIntegrityRule())
	engine.Register(CoordinateOrderRule())
	engine.Register(QTLGeneReciprocityRule())
	engine.Register(OrganismRequiredRule())
	engine.Register(SingleMarkerQTLRule())
	return engine
}

// changedItems resolves the items written by a transaction against view.
func changedItems(view domain.TransactionView, changes []domain.Change, types ...domain.ItemType) []domain.Item {
	want := make(map[domain.ItemType]struct{}, len(types))
	for _, t := range types {
		want[t] = struct{}{}
	}
	seen := make(map[string]struct{}, len(changes))
	var out []domain.Item
	for _, change := range changes {
		if len(want) > 0 {
			if _, ok := want[change.Type]; !ok {
				continue
			}
		}
		if _, dup := seen[change.ID]; dup {
			continue
		}
		seen[change.ID] = struct{}{}
		if item, ok := view.Find(change.ID); ok {
			out = append(out, item)
		}
	}
	return out
}

func violation(rule string, severity domain.Severity, item domain.Item, message string) domain.Violation {
	return domain.Violation{
		Rule:     rule,
		Severity: severity,
		Message:  message,
		Type:     item.Type(),
		ItemID:   item.ItemID(),
	}
}
