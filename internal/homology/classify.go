// Package homology classifies pairs of genes that share a gene family.
package homology

import "legfed/pkg/domain"

// Classify returns the relationship between two genes of the same family
// given their organism references. When either organism is unknown the
// relationship cannot be determined and sameGeneFamily is returned.
func Classify(organismA, organismB string) domain.HomologueType {
	switch {
	case organismA == "" || organismB == "":
		return domain.HomologueSameGeneFamily
	case organismA == organismB:
		return domain.HomologueParalogue
	default:
		return domain.HomologueOrthologue
	}
}

// ClassifyGenes classifies a and b by their organisms.
func ClassifyGenes(a, b *domain.Gene) domain.HomologueType {
	return Classify(a.OrganismID, b.OrganismID)
}

// Pairs returns every ordered pair of distinct members, so each gene lists
// every other member as a homologue.
func Pairs[T any](members []T) [][2]T {
	var out [][2]T
	for i := range members {
		for j := range members {
			if i != j {
				out = append(out, [2]T{members[i], members[j]})
			}
		}
	}
	return out
}
