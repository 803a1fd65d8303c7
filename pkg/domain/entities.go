// Package domain defines the genomic entities emitted by the loaders, the
// item contract the object store persists, and the rule evaluation
// primitives applied when a pass commits.
package domain

// ItemType identifies the class of an item stored in the object store.
type ItemType string

// Supported item types. The values double as persistence bucket names.
const (
	TypeOrganism             ItemType = "organism"
	TypeStrain               ItemType = "strain"
	TypePublication          ItemType = "publication"
	TypeChromosome           ItemType = "chromosome"
	TypeSupercontig          ItemType = "supercontig"
	TypeLocation             ItemType = "location"
	TypeGene                 ItemType = "gene"
	TypeGeneticMarker        ItemType = "genetic_marker"
	TypeQTL                  ItemType = "qtl"
	TypeGeneticMap           ItemType = "genetic_map"
	TypeLinkageGroup         ItemType = "linkage_group"
	TypeLinkageGroupPosition ItemType = "linkage_group_position"
	TypeLinkageGroupRange    ItemType = "linkage_group_range"
	TypeGeneFamily           ItemType = "gene_family"
	TypeHomologue            ItemType = "homologue"
	TypeSyntenyBlock         ItemType = "synteny_block"
	TypeSyntenicRegion       ItemType = "syntenic_region"
)

// ItemTypes lists every item type in emission order: referenced types first.
var ItemTypes = []ItemType{
	TypeOrganism,
	TypeStrain,
	TypePublication,
	TypeChromosome,
	TypeSupercontig,
	TypeGeneticMap,
	TypeLinkageGroup,
	TypeGeneFamily,
	TypeGene,
	TypeGeneticMarker,
	TypeQTL,
	TypeLocation,
	TypeLinkageGroupPosition,
	TypeLinkageGroupRange,
	TypeHomologue,
	TypeSyntenyBlock,
	TypeSyntenicRegion,
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// HomologueType classifies the relationship between two genes of a family.
type HomologueType string

const (
	HomologueOrthologue     HomologueType = "orthologue"
	HomologueParalogue      HomologueType = "paralogue"
	HomologueSameGeneFamily HomologueType = "sameGeneFamily"
)

// RegionRole distinguishes the two halves of a synteny block.
type RegionRole string

const (
	RoleSource RegionRole = "source"
	RoleTarget RegionRole = "target"
)

// Base contains the identifier shared by all items.
type Base struct {
	ID string `json:"id"`
}

// ItemID returns the store identifier.
func (b Base) ItemID() string { return b.ID }

// Organism is identified by its NCBI taxon id.
type Organism struct {
	Base
	TaxonID string `json:"taxon_id"`
	Genus   string `json:"genus,omitempty"`
	Species string `json:"species,omitempty"`
	Name    string `json:"name,omitempty"`
}

// Strain is a germplasm accession, variety or cultivar of an organism.
type Strain struct {
	Base
	Identifier  string `json:"identifier"`
	Name        string `json:"name,omitempty"`
	Origin      string `json:"origin,omitempty"`
	Description string `json:"description,omitempty"`
	OrganismID  string `json:"organism_id"`
}

// Publication is referenced by maps and QTLs.
type Publication struct {
	Base
	PubMedID string `json:"pubmed_id,omitempty"`
	Title    string `json:"title,omitempty"`
	DOI      string `json:"doi,omitempty"`
}

// Chromosome is a reference sequence; Kind separates chromosomes from supercontigs.
type Chromosome struct {
	Base
	Kind              ItemType `json:"kind"`
	PrimaryIdentifier string   `json:"primary_identifier"`
	Length            int      `json:"length,omitempty"`
	OrganismID        string   `json:"organism_id"`
}

// Location places a feature on a chromosome or supercontig. Coordinates are
// 1-based and inclusive with Start <= End.
type Location struct {
	Base
	FeatureID   string `json:"feature_id"`
	LocatedOnID string `json:"located_on_id"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
	Strand      int    `json:"strand"`
}

// Gene is a protein coding or other gene model.
type Gene struct {
	Base
	PrimaryIdentifier     string   `json:"primary_identifier"`
	SecondaryIdentifier   string   `json:"secondary_identifier,omitempty"`
	Symbol                string   `json:"symbol,omitempty"`
	Description           string   `json:"description,omitempty"`
	OrganismID            string   `json:"organism_id"`
	StrainID              string   `json:"strain_id,omitempty"`
	ChromosomeID          string   `json:"chromosome_id,omitempty"`
	ChromosomeLocationID  string   `json:"chromosome_location_id,omitempty"`
	SupercontigID         string   `json:"supercontig_id,omitempty"`
	SupercontigLocationID string   `json:"supercontig_location_id,omitempty"`
	GeneFamilyID          string   `json:"gene_family_id,omitempty"`
	HomologueIDs          []string `json:"homologue_ids,omitempty"`
	QTLIDs                []string `json:"qtl_ids,omitempty"`
}

// GeneticMarker is a mapped marker (SNP, SSR, ...).
type GeneticMarker struct {
	Base
	PrimaryIdentifier    string   `json:"primary_identifier"`
	SecondaryIdentifier  string   `json:"secondary_identifier,omitempty"`
	MarkerType           string   `json:"marker_type,omitempty"`
	OrganismID           string   `json:"organism_id"`
	ChromosomeID         string   `json:"chromosome_id,omitempty"`
	ChromosomeLocationID string   `json:"chromosome_location_id,omitempty"`
	PositionIDs          []string `json:"position_ids,omitempty"`
	QTLIDs               []string `json:"qtl_ids,omitempty"`
	GeneticMapIDs        []string `json:"genetic_map_ids,omitempty"`
}

// GenomicSpan is the bounding chromosome interval of the markers associated
// with a QTL, as computed by post-processing.
type GenomicSpan struct {
	ChromosomeID string `json:"chromosome_id"`
	Start        int    `json:"start"`
	End          int    `json:"end"`
	MarkerCount  int    `json:"marker_count"`
}

// QTL is a quantitative trait locus.
type QTL struct {
	Base
	PrimaryIdentifier   string        `json:"primary_identifier"`
	SecondaryIdentifier string        `json:"secondary_identifier,omitempty"`
	TraitName           string        `json:"trait_name,omitempty"`
	OrganismID          string        `json:"organism_id"`
	StrainID            string        `json:"strain_id,omitempty"`
	RangeIDs            []string      `json:"range_ids,omitempty"`
	MarkerIDs           []string      `json:"marker_ids,omitempty"`
	GeneIDs             []string      `json:"gene_ids,omitempty"`
	PublicationIDs      []string      `json:"publication_ids,omitempty"`
	Spans               []GenomicSpan `json:"spans,omitempty"`
}

// GeneticMap groups linkage groups produced by one mapping study.
type GeneticMap struct {
	Base
	PrimaryIdentifier string   `json:"primary_identifier"`
	Description       string   `json:"description,omitempty"`
	Unit              string   `json:"unit,omitempty"`
	Parents           string   `json:"parents,omitempty"`
	OrganismID        string   `json:"organism_id"`
	LinkageGroupIDs   []string `json:"linkage_group_ids,omitempty"`
	PublicationIDs    []string `json:"publication_ids,omitempty"`
}

// LinkageGroup is the genetic-map analogue of a chromosome, measured in cM.
type LinkageGroup struct {
	Base
	PrimaryIdentifier string   `json:"primary_identifier"`
	Number            int      `json:"number,omitempty"`
	Length            float64  `json:"length,omitempty"`
	GeneticMapID      string   `json:"genetic_map_id,omitempty"`
	OrganismID        string   `json:"organism_id"`
	PositionIDs       []string `json:"position_ids,omitempty"`
	RangeIDs          []string `json:"range_ids,omitempty"`
}

// LinkageGroupPosition marks where a marker sits on a linkage group.
type LinkageGroupPosition struct {
	Base
	LinkageGroupID string  `json:"linkage_group_id"`
	MarkerID       string  `json:"marker_id,omitempty"`
	Position       float64 `json:"position"`
}

// LinkageGroupRange is the span of a QTL on a linkage group. Begin <= End.
type LinkageGroupRange struct {
	Base
	LinkageGroupID string  `json:"linkage_group_id"`
	QTLID          string  `json:"qtl_id,omitempty"`
	Begin          float64 `json:"begin"`
	End            float64 `json:"end"`
	set            bool
}

// Include folds pos into the range, widening it as needed.
func (r *LinkageGroupRange) Include(pos float64) {
	if !r.set && r.Begin == 0 && r.End == 0 {
		r.Begin, r.End, r.set = pos, pos, true
		return
	}
	r.set = true
	if pos < r.Begin {
		r.Begin = pos
	}
	if pos > r.End {
		r.End = pos
	}
}

// Length is End - Begin.
func (r LinkageGroupRange) Length() float64 { return r.End - r.Begin }

// GeneFamily groups genes across organisms.
type GeneFamily struct {
	Base
	PrimaryIdentifier string   `json:"primary_identifier"`
	Description       string   `json:"description,omitempty"`
	GeneIDs           []string `json:"gene_ids,omitempty"`
}

// Size is the number of member genes.
func (f GeneFamily) Size() int { return len(f.GeneIDs) }

// Homologue links exactly two genes of the same family.
type Homologue struct {
	Base
	GeneID       string        `json:"gene_id"`
	HomologueID  string        `json:"homologue_id"`
	GeneFamilyID string        `json:"gene_family_id,omitempty"`
	Relation     HomologueType `json:"type"`
}

// SyntenyBlock is a region of conserved gene order between two genomes.
type SyntenyBlock struct {
	Base
	PrimaryIdentifier string   `json:"primary_identifier"`
	MedianKs          *float64 `json:"median_ks,omitempty"`
	RegionIDs         []string `json:"region_ids,omitempty"`
}

// SyntenicRegion is one side of a synteny block.
type SyntenicRegion struct {
	Base
	PrimaryIdentifier string     `json:"primary_identifier"`
	Role              RegionRole `json:"role"`
	OrganismID        string     `json:"organism_id"`
	ChromosomeID      string     `json:"chromosome_id"`
	LocationID        string     `json:"location_id,omitempty"`
	SyntenyBlockID    string     `json:"synteny_block_id"`
}

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Type     ItemType
	ItemID   string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking reports whether any violation blocks commit.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			return "transaction blocked by rules: " + v.Rule + ": " + v.Message
		}
	}
	return "transaction blocked by rules"
}
