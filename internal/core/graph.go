package core

import (
	"fmt"
	"strings"

	"legfed/pkg/domain"
)

// OrganismInfo describes an organism known from configuration.
type OrganismInfo struct {
	TaxonID string
	Genus   string
	Species string
	Name    string
}

// ItemID builds a deterministic identifier from natural key parts so that
// independent passes referring to the same entity agree on its ID.
func ItemID(t domain.ItemType, parts ...string) string {
	return string(t) + ":" + strings.Join(parts, ":")
}

type taxonKey struct {
	taxon string
	name  string
}

type blockKey struct {
	source string
	target string
	name   string
}

type pairKey struct {
	a string
	b string
}

// Graph holds the entities built by one processing pass. Every entity is
// created through a registry, so a natural key seen twice yields the same
// instance, and emitted once by Emit after all mutations are complete.
type Graph struct {
	source    string
	directory map[string]OrganismInfo
	organism  *domain.Organism
	emitted   bool

	organisms    *Registry[string, *domain.Organism]
	strains      *Registry[taxonKey, *domain.Strain]
	publications *Registry[string, *domain.Publication]
	chromosomes  *Registry[taxonKey, *domain.Chromosome]
	supercontigs *Registry[taxonKey, *domain.Chromosome]
	genes        *Registry[taxonKey, *domain.Gene]
	markers      *Registry[taxonKey, *domain.GeneticMarker]
	qtls         *Registry[taxonKey, *domain.QTL]
	maps         *Registry[taxonKey, *domain.GeneticMap]
	groups       *Registry[pairKey, *domain.LinkageGroup]
	positions    *Registry[pairKey, *domain.LinkageGroupPosition]
	ranges       *Registry[pairKey, *domain.LinkageGroupRange]
	locations    *Registry[pairKey, *domain.Location]
	families     *Registry[string, *domain.GeneFamily]
	homologues   *Registry[pairKey, *domain.Homologue]
	blocks       *Registry[blockKey, *domain.SyntenyBlock]
	regions      *Registry[pairKey, *domain.SyntenicRegion]
}

// NewGraph constructs an empty graph for the named source. Organisms listed
// in directory are filled in from configuration when first referenced.
func NewGraph(source string, directory []OrganismInfo) *Graph {
	g := &Graph{source: source, directory: make(map[string]OrganismInfo, len(directory))}
	for _, info := range directory {
		g.directory[info.TaxonID] = info
	}
	g.organisms = NewRegistry(func(taxon string) *domain.Organism {
		o := &domain.Organism{Base: domain.Base{ID: ItemID(domain.TypeOrganism, taxon)}, TaxonID: taxon}
		if info, ok := g.directory[taxon]; ok {
			o.Genus, o.Species, o.Name = info.Genus, info.Species, info.Name
		}
		return o
	})
	g.strains = NewRegistry(func(k taxonKey) *domain.Strain {
		return &domain.Strain{
			Base:       domain.Base{ID: ItemID(domain.TypeStrain, k.taxon, k.name)},
			Identifier: k.name,
			OrganismID: ItemID(domain.TypeOrganism, k.taxon),
		}
	})
	g.publications = NewRegistry(func(pmid string) *domain.Publication {
		return &domain.Publication{Base: domain.Base{ID: ItemID(domain.TypePublication, pmid)}, PubMedID: pmid}
	})
	g.chromosomes = NewRegistry(func(k taxonKey) *domain.Chromosome {
		return newChromosome(domain.TypeChromosome, k)
	})
	g.supercontigs = NewRegistry(func(k taxonKey) *domain.Chromosome {
		return newChromosome(domain.TypeSupercontig, k)
	})
	g.genes = NewRegistry(func(k taxonKey) *domain.Gene {
		return &domain.Gene{
			Base:              domain.Base{ID: ItemID(domain.TypeGene, k.taxon, k.name)},
			PrimaryIdentifier: k.name,
			OrganismID:        ItemID(domain.TypeOrganism, k.taxon),
		}
	})
	g.markers = NewRegistry(func(k taxonKey) *domain.GeneticMarker {
		return &domain.GeneticMarker{
			Base:              domain.Base{ID: ItemID(domain.TypeGeneticMarker, k.taxon, k.name)},
			PrimaryIdentifier: k.name,
			OrganismID:        ItemID(domain.TypeOrganism, k.taxon),
		}
	})
	g.qtls = NewRegistry(func(k taxonKey) *domain.QTL {
		return &domain.QTL{
			Base:              domain.Base{ID: ItemID(domain.TypeQTL, k.taxon, k.name)},
			PrimaryIdentifier: k.name,
			OrganismID:        ItemID(domain.TypeOrganism, k.taxon),
		}
	})
	g.maps = NewRegistry(func(k taxonKey) *domain.GeneticMap {
		return &domain.GeneticMap{
			Base:              domain.Base{ID: ItemID(domain.TypeGeneticMap, k.taxon, k.name)},
			PrimaryIdentifier: k.name,
			OrganismID:        ItemID(domain.TypeOrganism, k.taxon),
		}
	})
	g.groups = NewRegistry(func(k pairKey) *domain.LinkageGroup {
		return &domain.LinkageGroup{
			Base:              domain.Base{ID: ItemID(domain.TypeLinkageGroup, strings.TrimPrefix(k.a, string(domain.TypeGeneticMap)+":"), k.b)},
			PrimaryIdentifier: k.b,
			GeneticMapID:      k.a,
		}
	})
	g.positions = NewRegistry(func(k pairKey) *domain.LinkageGroupPosition {
		return &domain.LinkageGroupPosition{
			Base:           domain.Base{ID: ItemID(domain.TypeLinkageGroupPosition, k.a, k.b)},
			LinkageGroupID: k.a,
			MarkerID:       k.b,
		}
	})
	g.ranges = NewRegistry(func(k pairKey) *domain.LinkageGroupRange {
		return &domain.LinkageGroupRange{
			Base:           domain.Base{ID: ItemID(domain.TypeLinkageGroupRange, k.a, k.b)},
			LinkageGroupID: k.a,
			QTLID:          k.b,
		}
	})
	g.locations = NewRegistry(func(k pairKey) *domain.Location {
		return &domain.Location{
			Base:        domain.Base{ID: ItemID(domain.TypeLocation, k.a, k.b)},
			FeatureID:   k.a,
			LocatedOnID: k.b,
		}
	})
	g.families = NewRegistry(func(name string) *domain.GeneFamily {
		return &domain.GeneFamily{Base: domain.Base{ID: ItemID(domain.TypeGeneFamily, name)}, PrimaryIdentifier: name}
	})
	g.homologues = NewRegistry(func(k pairKey) *domain.Homologue {
		return &domain.Homologue{
			Base:        domain.Base{ID: ItemID(domain.TypeHomologue, k.a, k.b)},
			GeneID:      k.a,
			HomologueID: k.b,
		}
	})
	g.blocks = NewRegistry(func(k blockKey) *domain.SyntenyBlock {
		return &domain.SyntenyBlock{
			Base:              domain.Base{ID: ItemID(domain.TypeSyntenyBlock, k.source, k.target, k.name)},
			PrimaryIdentifier: k.name,
		}
	})
	g.regions = NewRegistry(func(k pairKey) *domain.SyntenicRegion {
		return &domain.SyntenicRegion{
			Base:              domain.Base{ID: ItemID(domain.TypeSyntenicRegion, k.a, k.b)},
			PrimaryIdentifier: k.a + ":" + k.b,
			Role:              domain.RegionRole(k.b),
			SyntenyBlockID:    k.a,
		}
	})
	return g
}

func newChromosome(kind domain.ItemType, k taxonKey) *domain.Chromosome {
	return &domain.Chromosome{
		Base:              domain.Base{ID: ItemID(kind, k.taxon, k.name)},
		Kind:              kind,
		PrimaryIdentifier: k.name,
		OrganismID:        ItemID(domain.TypeOrganism, k.taxon),
	}
}

// Source returns the name of the source the graph is built from.
func (g *Graph) Source() string { return g.source }

// SetOrganism establishes the pass organism. Setting a different taxon once
// one is established is a configuration error.
func (g *Graph) SetOrganism(taxonID string) (*domain.Organism, error) {
	taxonID = strings.TrimSpace(taxonID)
	if taxonID == "" {
		return nil, ConfigError{Source: g.source, Msg: "empty taxon id"}
	}
	if g.organism != nil {
		if g.organism.TaxonID != taxonID {
			return nil, ConfigError{Source: g.source, Msg: fmt.Sprintf("taxon id %s conflicts with %s", taxonID, g.organism.TaxonID)}
		}
		return g.organism, nil
	}
	g.organism, _ = g.organisms.GetOrCreate(taxonID)
	return g.organism, nil
}

// RequireOrganism returns the pass organism, failing when no TaxonID has been
// established yet.
func (g *Graph) RequireOrganism(line int) (*domain.Organism, error) {
	if g.organism == nil {
		return nil, PreconditionError{Source: g.source, Line: line, Missing: "TaxonID"}
	}
	return g.organism, nil
}

// Organism returns the organism for taxonID, creating it on first use.
func (g *Graph) Organism(taxonID string) *domain.Organism {
	o, _ := g.organisms.GetOrCreate(taxonID)
	return o
}

// OrganismInfo returns the configured description of taxonID.
func (g *Graph) OrganismInfo(taxonID string) (OrganismInfo, bool) {
	info, ok := g.directory[taxonID]
	return info, ok
}

// OrganismByName returns the configured organism with the given genus and
// species, creating it on first use.
func (g *Graph) OrganismByName(genus, species string) (*domain.Organism, bool) {
	for taxon, info := range g.directory {
		if strings.EqualFold(info.Genus, genus) && strings.EqualFold(info.Species, species) {
			return g.Organism(taxon), true
		}
	}
	return nil, false
}

// Strain returns the strain with the given identifier.
func (g *Graph) Strain(org *domain.Organism, identifier string) (*domain.Strain, bool) {
	return g.strains.GetOrCreate(taxonKey{org.TaxonID, identifier})
}

// Publication returns the publication with the given PubMed id.
func (g *Graph) Publication(pmid string) (*domain.Publication, bool) {
	return g.publications.GetOrCreate(pmid)
}

// Chromosome returns the named chromosome of org.
func (g *Graph) Chromosome(org *domain.Organism, name string) (*domain.Chromosome, bool) {
	return g.chromosomes.GetOrCreate(taxonKey{org.TaxonID, name})
}

// Supercontig returns the named supercontig of org.
func (g *Graph) Supercontig(org *domain.Organism, name string) (*domain.Chromosome, bool) {
	return g.supercontigs.GetOrCreate(taxonKey{org.TaxonID, name})
}

// Gene returns the gene with the given primary identifier.
func (g *Graph) Gene(org *domain.Organism, primary string) (*domain.Gene, bool) {
	return g.genes.GetOrCreate(taxonKey{org.TaxonID, primary})
}

// Marker returns the genetic marker with the given primary identifier.
func (g *Graph) Marker(org *domain.Organism, primary string) (*domain.GeneticMarker, bool) {
	return g.markers.GetOrCreate(taxonKey{org.TaxonID, primary})
}

// LookupMarker returns an already registered marker.
func (g *Graph) LookupMarker(org *domain.Organism, primary string) (*domain.GeneticMarker, bool) {
	return g.markers.Get(taxonKey{org.TaxonID, primary})
}

// QTL returns the QTL with the given primary identifier.
func (g *Graph) QTL(org *domain.Organism, primary string) (*domain.QTL, bool) {
	return g.qtls.GetOrCreate(taxonKey{org.TaxonID, primary})
}

// GeneticMap returns the named genetic map.
func (g *Graph) GeneticMap(org *domain.Organism, name string) (*domain.GeneticMap, bool) {
	return g.maps.GetOrCreate(taxonKey{org.TaxonID, name})
}

// LinkageGroup returns the named linkage group of m and links it to the map.
func (g *Graph) LinkageGroup(m *domain.GeneticMap, name string) (*domain.LinkageGroup, bool) {
	lg, created := g.groups.GetOrCreate(pairKey{m.ID, name})
	if created {
		lg.OrganismID = m.OrganismID
		m.LinkageGroupIDs, _ = domain.AddID(m.LinkageGroupIDs, lg.ID)
	}
	return lg, created
}

// Position places marker on lg. A position already recorded is kept.
func (g *Graph) Position(lg *domain.LinkageGroup, marker *domain.GeneticMarker, pos float64) (*domain.LinkageGroupPosition, bool) {
	p, created := g.positions.GetOrCreate(pairKey{lg.ID, marker.ID})
	if created {
		p.Position = pos
		lg.PositionIDs, _ = domain.AddID(lg.PositionIDs, p.ID)
		marker.PositionIDs, _ = domain.AddID(marker.PositionIDs, p.ID)
		if lg.GeneticMapID != "" {
			marker.GeneticMapIDs, _ = domain.AddID(marker.GeneticMapIDs, lg.GeneticMapID)
		}
	}
	return p, created
}

// QTLRange returns the range of q on lg. Callers widen it with Include.
func (g *Graph) QTLRange(lg *domain.LinkageGroup, q *domain.QTL) (*domain.LinkageGroupRange, bool) {
	r, created := g.ranges.GetOrCreate(pairKey{lg.ID, q.ID})
	if created {
		lg.RangeIDs, _ = domain.AddID(lg.RangeIDs, r.ID)
		q.RangeIDs, _ = domain.AddID(q.RangeIDs, r.ID)
	}
	return r, created
}

// GeneFamily returns the named gene family.
func (g *Graph) GeneFamily(name string) (*domain.GeneFamily, bool) {
	return g.families.GetOrCreate(name)
}

// Homologue records that b is a homologue of a within family f.
func (g *Graph) Homologue(f *domain.GeneFamily, a, b *domain.Gene, typ domain.HomologueType) (*domain.Homologue, bool) {
	h, created := g.homologues.GetOrCreate(pairKey{a.ID, b.ID})
	if created {
		h.GeneFamilyID = f.ID
		h.Relation = typ
		a.HomologueIDs, _ = domain.AddID(a.HomologueIDs, h.ID)
	}
	return h, created
}

// SyntenyBlock returns the named block between the source and target
// organisms. Block names are only unique within one organism pair.
func (g *Graph) SyntenyBlock(source, target *domain.Organism, name string) (*domain.SyntenyBlock, bool) {
	return g.blocks.GetOrCreate(blockKey{source: source.TaxonID, target: target.TaxonID, name: name})
}

// SyntenicRegion returns the region of block playing role, placed on chr.
func (g *Graph) SyntenicRegion(block *domain.SyntenyBlock, role domain.RegionRole, chr *domain.Chromosome) (*domain.SyntenicRegion, bool) {
	r, created := g.regions.GetOrCreate(pairKey{block.ID, string(role)})
	if created {
		r.OrganismID = chr.OrganismID
		r.ChromosomeID = chr.ID
		block.RegionIDs, _ = domain.AddID(block.RegionIDs, r.ID)
	}
	return r, created
}

func (g *Graph) locate(featureID string, on *domain.Chromosome, start, end, strand int) (*domain.Location, error) {
	if start > end {
		return nil, fmt.Errorf("%s: location of %s on %s has start %d after end %d", g.source, featureID, on.PrimaryIdentifier, start, end)
	}
	loc, created := g.locations.GetOrCreate(pairKey{featureID, on.ID})
	if created {
		loc.Start, loc.End, loc.Strand = start, end, strand
	}
	return loc, nil
}

// LocateGene places gene on a chromosome or supercontig.
func (g *Graph) LocateGene(gene *domain.Gene, on *domain.Chromosome, start, end, strand int) (*domain.Location, error) {
	loc, err := g.locate(gene.ID, on, start, end, strand)
	if err != nil {
		return nil, err
	}
	if on.Kind == domain.TypeSupercontig {
		gene.SupercontigID, gene.SupercontigLocationID = on.ID, loc.ID
	} else {
		gene.ChromosomeID, gene.ChromosomeLocationID = on.ID, loc.ID
	}
	return loc, nil
}

// LocateMarker places marker on a chromosome.
func (g *Graph) LocateMarker(marker *domain.GeneticMarker, on *domain.Chromosome, start, end, strand int) (*domain.Location, error) {
	loc, err := g.locate(marker.ID, on, start, end, strand)
	if err != nil {
		return nil, err
	}
	if marker.ChromosomeID == "" || on.Kind != domain.TypeSupercontig {
		marker.ChromosomeID, marker.ChromosomeLocationID = on.ID, loc.ID
	}
	return loc, nil
}

// LocateRegion places a syntenic region on its chromosome.
func (g *Graph) LocateRegion(region *domain.SyntenicRegion, on *domain.Chromosome, start, end, strand int) (*domain.Location, error) {
	loc, err := g.locate(region.ID, on, start, end, strand)
	if err != nil {
		return nil, err
	}
	region.LocationID = loc.ID
	return loc, nil
}

// LinkQTLMarker associates q and marker in both directions.
func (g *Graph) LinkQTLMarker(q *domain.QTL, marker *domain.GeneticMarker) {
	q.MarkerIDs, _ = domain.AddID(q.MarkerIDs, marker.ID)
	marker.QTLIDs, _ = domain.AddID(marker.QTLIDs, q.ID)
}

// LinkGeneQTL records an overlap between gene and q in both directions.
func (g *Graph) LinkGeneQTL(gene *domain.Gene, q *domain.QTL) {
	LinkGeneQTL(gene, q)
}

// LinkGeneQTL sets both sides of a gene/QTL overlap. It is the only way the
// relation is written.
func LinkGeneQTL(gene *domain.Gene, q *domain.QTL) {
	gene.QTLIDs, _ = domain.AddID(gene.QTLIDs, q.ID)
	q.GeneIDs, _ = domain.AddID(q.GeneIDs, gene.ID)
}

// LinkGeneFamily adds gene to family f.
func (g *Graph) LinkGeneFamily(f *domain.GeneFamily, gene *domain.Gene) {
	f.GeneIDs, _ = domain.AddID(f.GeneIDs, gene.ID)
	gene.GeneFamilyID = f.ID
}

// LinkPublication cites pub from a QTL or genetic map.
func (g *Graph) LinkPublication(item domain.Item, pub *domain.Publication) {
	switch v := item.(type) {
	case *domain.QTL:
		v.PublicationIDs, _ = domain.AddID(v.PublicationIDs, pub.ID)
	case *domain.GeneticMap:
		v.PublicationIDs, _ = domain.AddID(v.PublicationIDs, pub.ID)
	}
}

// Counts reports the number of registered entities per type.
func (g *Graph) Counts() map[domain.ItemType]int {
	out := make(map[domain.ItemType]int)
	for _, item := range g.Items() {
		out[item.Type()]++
	}
	return out
}

// Len returns the total number of registered entities.
func (g *Graph) Len() int { return len(g.Items()) }

// Items returns every registered entity exactly once, referenced types first.
func (g *Graph) Items() []domain.Item {
	var out []domain.Item
	out = appendItems(out, g.organisms.Values())
	out = appendItems(out, g.strains.Values())
	out = appendItems(out, g.publications.Values())
	out = appendItems(out, g.chromosomes.Values())
	out = appendItems(out, g.supercontigs.Values())
	out = appendItems(out, g.maps.Values())
	out = appendItems(out, g.groups.Values())
	out = appendItems(out, g.families.Values())
	out = appendItems(out, g.genes.Values())
	out = appendItems(out, g.markers.Values())
	out = appendItems(out, g.qtls.Values())
	out = appendItems(out, g.locations.Values())
	out = appendItems(out, g.positions.Values())
	out = appendItems(out, g.ranges.Values())
	out = appendItems(out, g.homologues.Values())
	out = appendItems(out, g.blocks.Values())
	return appendItems(out, g.regions.Values())
}

func appendItems[T domain.Item](out []domain.Item, values []T) []domain.Item {
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

// Validate checks that no partially initialised entity would be emitted.
func (g *Graph) Validate() error {
	for _, item := range g.Items() {
		switch v := item.(type) {
		case *domain.Organism:
			if v.TaxonID == "" {
				return PreconditionError{Source: g.source, Missing: "organism taxon id for " + v.ID}
			}
		case *domain.Gene:
			if v.OrganismID == "" {
				return PreconditionError{Source: g.source, Missing: "organism for gene " + v.PrimaryIdentifier}
			}
		case *domain.GeneticMarker:
			if v.OrganismID == "" {
				return PreconditionError{Source: g.source, Missing: "organism for marker " + v.PrimaryIdentifier}
			}
		case *domain.QTL:
			if v.OrganismID == "" {
				return PreconditionError{Source: g.source, Missing: "organism for QTL " + v.PrimaryIdentifier}
			}
		case *domain.Location:
			if v.Start > v.End {
				return fmt.Errorf("%s: location %s has start %d after end %d", g.source, v.ID, v.Start, v.End)
			}
		case *domain.LinkageGroupRange:
			if v.Begin > v.End {
				return fmt.Errorf("%s: range %s has begin %g after end %g", g.source, v.ID, v.Begin, v.End)
			}
		}
	}
	return nil
}
