package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Item is a typed entity the object store can persist.
type Item interface {
	ItemID() string
	Type() ItemType
	References() []Reference
}

// Reference is a named pointer from one item to another. Collections are
// flattened into one Reference per member.
type Reference struct {
	Name     string
	TargetID string
}

func refs(pairs ...string) []Reference {
	var out []Reference
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			continue
		}
		out = append(out, Reference{Name: pairs[i], TargetID: pairs[i+1]})
	}
	return out
}

func collection(out []Reference, name string, ids []string) []Reference {
	for _, id := range ids {
		out = append(out, Reference{Name: name, TargetID: id})
	}
	return out
}

func (Organism) Type() ItemType          { return TypeOrganism }
func (Organism) References() []Reference { return nil }

func (Strain) Type() ItemType { return TypeStrain }
func (s Strain) References() []Reference {
	return refs("organism", s.OrganismID)
}

func (Publication) Type() ItemType          { return TypePublication }
func (Publication) References() []Reference { return nil }

func (c Chromosome) Type() ItemType {
	if c.Kind == TypeSupercontig {
		return TypeSupercontig
	}
	return TypeChromosome
}
func (c Chromosome) References() []Reference {
	return refs("organism", c.OrganismID)
}

func (Location) Type() ItemType { return TypeLocation }
func (l Location) References() []Reference {
	return refs("feature", l.FeatureID, "locatedOn", l.LocatedOnID)
}

func (Gene) Type() ItemType { return TypeGene }
func (g Gene) References() []Reference {
	out := refs(
		"organism", g.OrganismID,
		"strain", g.StrainID,
		"chromosome", g.ChromosomeID,
		"chromosomeLocation", g.ChromosomeLocationID,
		"supercontig", g.SupercontigID,
		"supercontigLocation", g.SupercontigLocationID,
		"geneFamily", g.GeneFamilyID,
	)
	out = collection(out, "homologues", g.HomologueIDs)
	return collection(out, "spanningQTLs", g.QTLIDs)
}

func (GeneticMarker) Type() ItemType { return TypeGeneticMarker }
func (m GeneticMarker) References() []Reference {
	out := refs(
		"organism", m.OrganismID,
		"chromosome", m.ChromosomeID,
		"chromosomeLocation", m.ChromosomeLocationID,
	)
	out = collection(out, "linkageGroupPositions", m.PositionIDs)
	out = collection(out, "QTLs", m.QTLIDs)
	return collection(out, "geneticMaps", m.GeneticMapIDs)
}

func (QTL) Type() ItemType { return TypeQTL }
func (q QTL) References() []Reference {
	out := refs("organism", q.OrganismID, "strain", q.StrainID)
	out = collection(out, "linkageGroupRanges", q.RangeIDs)
	out = collection(out, "associatedGeneticMarkers", q.MarkerIDs)
	out = collection(out, "overlappingGenes", q.GeneIDs)
	for _, s := range q.Spans {
		out = append(out, Reference{Name: "spanChromosome", TargetID: s.ChromosomeID})
	}
	return collection(out, "publications", q.PublicationIDs)
}

func (GeneticMap) Type() ItemType { return TypeGeneticMap }
func (m GeneticMap) References() []Reference {
	out := refs("organism", m.OrganismID)
	out = collection(out, "linkageGroups", m.LinkageGroupIDs)
	return collection(out, "publications", m.PublicationIDs)
}

func (LinkageGroup) Type() ItemType { return TypeLinkageGroup }
func (g LinkageGroup) References() []Reference {
	out := refs("organism", g.OrganismID, "geneticMap", g.GeneticMapID)
	out = collection(out, "markerPositions", g.PositionIDs)
	return collection(out, "QTLRanges", g.RangeIDs)
}

func (LinkageGroupPosition) Type() ItemType { return TypeLinkageGroupPosition }
func (p LinkageGroupPosition) References() []Reference {
	return refs("linkageGroup", p.LinkageGroupID, "marker", p.MarkerID)
}

func (LinkageGroupRange) Type() ItemType { return TypeLinkageGroupRange }
func (r LinkageGroupRange) References() []Reference {
	return refs("linkageGroup", r.LinkageGroupID, "QTL", r.QTLID)
}

func (GeneFamily) Type() ItemType { return TypeGeneFamily }
func (f GeneFamily) References() []Reference {
	return collection(nil, "genes", f.GeneIDs)
}

func (Homologue) Type() ItemType { return TypeHomologue }
func (h Homologue) References() []Reference {
	return refs("gene", h.GeneID, "homologue", h.HomologueID, "geneFamily", h.GeneFamilyID)
}

func (SyntenyBlock) Type() ItemType { return TypeSyntenyBlock }
func (b SyntenyBlock) References() []Reference {
	return collection(nil, "syntenicRegions", b.RegionIDs)
}

func (SyntenicRegion) Type() ItemType { return TypeSyntenicRegion }
func (r SyntenicRegion) References() []Reference {
	return refs(
		"organism", r.OrganismID,
		"chromosome", r.ChromosomeID,
		"chromosomeLocation", r.LocationID,
		"syntenyBlock", r.SyntenyBlockID,
	)
}

// NewItem returns a zero value pointer for the given type, suitable for JSON decoding.
func NewItem(t ItemType) (Item, error) {
	switch t {
	case TypeOrganism:
		return &Organism{}, nil
	case TypeStrain:
		return &Strain{}, nil
	case TypePublication:
		return &Publication{}, nil
	case TypeChromosome:
		return &Chromosome{Kind: TypeChromosome}, nil
	case TypeSupercontig:
		return &Chromosome{Kind: TypeSupercontig}, nil
	case TypeLocation:
		return &Location{}, nil
	case TypeGene:
		return &Gene{}, nil
	case TypeGeneticMarker:
		return &GeneticMarker{}, nil
	case TypeQTL:
		return &QTL{}, nil
	case TypeGeneticMap:
		return &GeneticMap{}, nil
	case TypeLinkageGroup:
		return &LinkageGroup{}, nil
	case TypeLinkageGroupPosition:
		return &LinkageGroupPosition{}, nil
	case TypeLinkageGroupRange:
		return &LinkageGroupRange{}, nil
	case TypeGeneFamily:
		return &GeneFamily{}, nil
	case TypeHomologue:
		return &Homologue{}, nil
	case TypeSyntenyBlock:
		return &SyntenyBlock{}, nil
	case TypeSyntenicRegion:
		return &SyntenicRegion{}, nil
	default:
		return nil, fmt.Errorf("unknown item type %q", t)
	}
}

// DecodeItem unmarshals raw JSON into a new item of type t.
func DecodeItem(t ItemType, raw json.RawMessage) (Item, error) {
	item, err := NewItem(t)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, item); err != nil {
		return nil, fmt.Errorf("decode %s: %w", t, err)
	}
	return item, nil
}

// CloneItem returns a deep copy of item via its JSON form.
func CloneItem(item Item) (Item, error) {
	raw, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}
	return DecodeItem(item.Type(), raw)
}

// AddID inserts id into the sorted set ids, returning the updated set and
// whether it was newly added.
func AddID(ids []string, id string) ([]string, bool) {
	if id == "" {
		return ids, false
	}
	i := sort.SearchStrings(ids, id)
	if i < len(ids) && ids[i] == id {
		return ids, false
	}
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids, true
}

// HasID reports whether the sorted set ids contains id.
func HasID(ids []string, id string) bool {
	i := sort.SearchStrings(ids, id)
	return i < len(ids) && ids[i] == id
}
