package core

import (
	"context"
	"fmt"

	"legfed/pkg/domain"
)

// QTLGeneReciprocityRule requires the gene/QTL overlap relation to be
// recorded on both sides.
func QTLGeneReciprocityRule() domain.Rule {
	return qtlGeneReciprocityRule{}
}

type qtlGeneReciprocityRule struct{}

func (qtlGeneReciprocityRule) Name() string { return "qtl_gene_reciprocity" }

func (r qtlGeneReciprocityRule) Evaluate(_ context.Context, view domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, item := range changedItems(view, changes, domain.TypeGene, domain.TypeQTL) {
		switch v := item.(type) {
		case *domain.Gene:
			for _, qtlID := range v.QTLIDs {
				other, ok := view.Find(qtlID)
				q, isQTL := other.(*domain.QTL)
				if !ok || !isQTL || !domain.HasID(q.GeneIDs, v.ID) {
					res.Violations = append(res.Violations, violation(r.Name(), domain.SeverityBlock, v,
						fmt.Sprintf("gene %s lists QTL %s which does not list it back", v.ID, qtlID)))
				}
			}
		case *domain.QTL:
			for _, geneID := range v.GeneIDs {
				other, ok := view.Find(geneID)
				g, isGene := other.(*domain.Gene)
				if !ok || !isGene || !domain.HasID(g.QTLIDs, v.ID) {
					res.Violations = append(res.Violations, violation(r.Name(), domain.SeverityBlock, v,
						fmt.Sprintf("QTL %s lists gene %s which does not list it back", v.ID, geneID)))
				}
			}
		}
	}
	return res, nil
}
