package chado

import (
	"context"

	"legfed/internal/core"
	"legfed/internal/homology"
	"legfed/pkg/domain"
)

// FamilyProcessor loads gene families from phylotrees and records a
// homologue for every ordered pair of member genes.
type FamilyProcessor struct {
	families []string
}

// NewFamilyProcessor builds the chado-gene-families processor. The families
// property restricts loading to a comma separated list of phylotree names.
func NewFamilyProcessor(src core.Source) (core.Processor, error) {
	return FamilyProcessor{families: splitList(src.Property("families", ""))}, nil
}

// Process implements core.Processor.
func (p FamilyProcessor) Process(ctx context.Context, pass *core.Pass) error {
	s, err := openSession(ctx, pass)
	if err != nil {
		return err
	}
	names := p.families
	if len(names) == 0 {
		if names, err = s.reader.Families(ctx); err != nil {
			return err
		}
	}
	members, err := s.reader.FamilyMembers(ctx, names)
	if err != nil {
		return err
	}

	g := pass.Graph
	genes := make(map[string][]*domain.Gene, len(names))
	for _, m := range members {
		org, ok := g.OrganismByName(m.Genus, m.Species)
		if !ok {
			pass.Skip(0, m.Gene(), "organism "+m.Genus+" "+m.Species+" not configured")
			continue
		}
		family, _ := g.GeneFamily(m.Family)
		if family.Description == "" {
			family.Description = m.Description.String
		}
		gene, _ := g.Gene(org, m.Gene())
		g.LinkGeneFamily(family, gene)
		if !containsGene(genes[m.Family], gene) {
			genes[m.Family] = append(genes[m.Family], gene)
		}
	}

	homologues := 0
	for _, name := range names {
		list, ok := genes[name]
		if !ok {
			pass.Logger.Warn("gene family not found", "source", pass.Source.Name, "family", name)
			continue
		}
		family, _ := g.GeneFamily(name)
		for _, pair := range homology.Pairs(list) {
			if _, created := g.Homologue(family, pair[0], pair[1], homology.ClassifyGenes(pair[0], pair[1])); created {
				homologues++
			}
		}
	}
	pass.Logger.Info("chado gene families read", "source", pass.Source.Name, "families", len(genes), "homologues", homologues)
	return nil
}

func containsGene(list []*domain.Gene, gene *domain.Gene) bool {
	for _, g := range list {
		if g == gene {
			return true
		}
	}
	return false
}
