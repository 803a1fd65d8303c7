package chado

import (
	"context"
	"strconv"

	"legfed/internal/core"
	"legfed/internal/geneticmap"
	"legfed/pkg/domain"
)

// MapProcessor loads genetic maps: linkage groups, marker positions, QTL
// ranges, QTL/marker associations, QTL traits and map publications.
type MapProcessor struct {
	unit geneticmap.Unit
}

// NewMapProcessor builds the chado-genetic-maps processor. Setting the
// scaled_positions property reads mappos values as cM×100.
func NewMapProcessor(src core.Source) (core.Processor, error) {
	if err := requireTaxon(src); err != nil {
		return nil, err
	}
	p := MapProcessor{unit: geneticmap.Centimorgan}
	if v := src.Property("scaled_positions", ""); v != "" {
		scaled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, core.ConfigError{Source: src.Name, Msg: "scaled_positions: " + err.Error()}
		}
		if scaled {
			p.unit = geneticmap.ScaledCentimorgan
		}
	}
	return p, nil
}

// Process implements core.Processor.
func (p MapProcessor) Process(ctx context.Context, pass *core.Pass) error {
	s, err := openSession(ctx, pass, TermMarker, TermQTL, TermQTLMarker, TermTrait)
	if err != nil {
		return err
	}
	org, orgID, err := s.organism(ctx, pass)
	if err != nil {
		return err
	}
	markerType, hasMarker := s.term(TermMarker)
	qtlType, hasQTL := s.term(TermQTL)

	maps, err := s.reader.FeatureMaps(ctx, orgID)
	if err != nil {
		return err
	}
	g := pass.Graph
	byID := make(map[int64]*domain.GeneticMap, len(maps))
	ids := make([]int64, 0, len(maps))
	positions := 0
	for _, m := range maps {
		gm, _ := g.GeneticMap(org, m.Name)
		gm.Description = m.Description.String
		gm.Unit = string(geneticmap.Centimorgan)
		byID[m.ID] = gm
		ids = append(ids, m.ID)

		rows, err := s.reader.Positions(ctx, m.ID)
		if err != nil {
			return err
		}
		for _, row := range rows {
			lg, _ := g.LinkageGroup(gm, row.Group())
			if row.GroupLength.Valid {
				if l := geneticmap.Position(float64(row.GroupLength.Int64), p.unit); l > lg.Length {
					lg.Length = l
				}
			}
			if !row.MapPos.Valid {
				pass.Skip(0, row.Feature(), "position without mappos")
				continue
			}
			pos := geneticmap.Position(row.MapPos.Float64, p.unit)
			switch {
			case hasQTL && row.FeatureType == qtlType:
				q, _ := g.QTL(org, row.Feature())
				r, _ := g.QTLRange(lg, q)
				r.Include(pos)
			case hasMarker && row.FeatureType == markerType:
				marker, _ := g.Marker(org, row.Feature())
				g.Position(lg, marker, pos)
			default:
				continue
			}
			positions++
		}
	}

	pubs, err := s.reader.MapPublications(ctx, ids)
	if err != nil {
		return err
	}
	for _, pub := range pubs {
		if !pub.PubMedID.Valid || pub.PubMedID.String == "" {
			pass.Logger.Debug("map publication without PubMed id", "source", pass.Source.Name, "pub", pub.UniqueName)
			continue
		}
		item, _ := g.Publication(pub.PubMedID.String)
		if item.Title == "" {
			item.Title = pub.Title.String
		}
		g.LinkPublication(byID[pub.MapID], item)
	}

	if relType, ok := s.term(TermQTLMarker); ok && hasQTL && hasMarker {
		rels, err := s.reader.Relationships(ctx, orgID, relType, qtlType, markerType)
		if err != nil {
			return err
		}
		for _, rel := range rels {
			q, _ := g.QTL(org, rel.Subject())
			marker, _ := g.Marker(org, rel.Object())
			g.LinkQTLMarker(q, marker)
		}
	}
	if traitType, ok := s.term(TermTrait); ok && hasQTL {
		props, err := s.reader.FeatureProps(ctx, orgID, qtlType, traitType)
		if err != nil {
			return err
		}
		for _, prop := range props {
			q, _ := g.QTL(org, prop.Feature())
			if q.TraitName == "" {
				q.TraitName = prop.Value.String
			}
		}
	}
	pass.Logger.Info("chado genetic maps read", "source", pass.Source.Name, "maps", len(maps), "positions", positions)
	return nil
}
