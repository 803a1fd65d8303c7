package chado

import (
	"context"
)

// Features lists features of one type for an organism.
func (r *Reader) Features(ctx context.Context, organismID, typeID int64) ([]Feature, error) {
	var rows []Feature
	err := r.selectRows(ctx, &rows, `
SELECT feature_id, name, uniquename, type_id
FROM feature
WHERE organism_id = ? AND type_id = ?
ORDER BY feature_id`, organismID, typeID)
	return rows, err
}

// Locations lists the locations of features of featureTypeID placed on
// sources of srcTypeID, both belonging to the organism.
func (r *Reader) Locations(ctx context.Context, organismID, featureTypeID, srcTypeID int64) ([]Location, error) {
	var rows []Location
	err := r.selectRows(ctx, &rows, `
SELECT f.feature_id, f.name AS feature_name, f.uniquename AS feature_uniquename,
       s.name AS src_name, s.uniquename AS src_uniquename, s.type_id AS src_type_id, s.seqlen AS src_seqlen,
       l.fmin, l.fmax, l.strand
FROM featureloc l
JOIN feature f ON f.feature_id = l.feature_id
JOIN feature s ON s.feature_id = l.srcfeature_id
WHERE f.organism_id = ? AND f.type_id = ? AND s.type_id = ?
ORDER BY f.feature_id, l.rank`, organismID, featureTypeID, srcTypeID)
	return rows, err
}

// FeatureMaps lists the maps that position features of the organism.
func (r *Reader) FeatureMaps(ctx context.Context, organismID int64) ([]FeatureMap, error) {
	var rows []FeatureMap
	err := r.selectRows(ctx, &rows, `
SELECT m.featuremap_id, m.name, m.description, u.name AS unit
FROM featuremap m
LEFT JOIN cvterm u ON u.cvterm_id = m.unittype_id
WHERE EXISTS (
  SELECT 1 FROM featurepos p JOIN feature f ON f.feature_id = p.feature_id
  WHERE p.featuremap_id = m.featuremap_id AND f.organism_id = ?)
ORDER BY m.featuremap_id`, organismID)
	return rows, err
}

// MapPublications lists the publications cited by the given maps.
func (r *Reader) MapPublications(ctx context.Context, mapIDs []int64) ([]Publication, error) {
	if len(mapIDs) == 0 {
		return nil, nil
	}
	args := make([]any, len(mapIDs))
	for i, id := range mapIDs {
		args[i] = id
	}
	var rows []Publication
	err := r.selectRows(ctx, &rows, `
SELECT mp.featuremap_id, p.uniquename, p.title,
       (SELECT x.accession FROM pub_dbxref px JOIN dbxref x ON x.dbxref_id = px.dbxref_id
        JOIN db ON db.db_id = x.db_id WHERE px.pub_id = p.pub_id AND db.name = 'PMID' LIMIT 1) AS pmid
FROM featuremap_pub mp
JOIN pub p ON p.pub_id = mp.pub_id
WHERE mp.featuremap_id IN (`+placeholders(len(args))+`)
ORDER BY mp.featuremap_id, p.pub_id`, args...)
	return rows, err
}

// Positions lists feature positions on linkage groups of the map.
func (r *Reader) Positions(ctx context.Context, mapID int64) ([]Position, error) {
	var rows []Position
	err := r.selectRows(ctx, &rows, `
SELECT p.featuremap_id, f.name AS feature_name, f.uniquename AS feature_uniquename, f.type_id AS feature_type_id,
       g.name AS group_name, g.uniquename AS group_uniquename, g.seqlen AS group_seqlen, p.mappos
FROM featurepos p
JOIN feature f ON f.feature_id = p.feature_id
JOIN feature g ON g.feature_id = p.map_feature_id
WHERE p.featuremap_id = ?
ORDER BY g.uniquename, p.mappos, f.uniquename`, mapID)
	return rows, err
}

// Relationships lists feature_relationship rows of relTypeID between
// subjects of subjectTypeID and objects of objectTypeID of the organism.
func (r *Reader) Relationships(ctx context.Context, organismID, relTypeID, subjectTypeID, objectTypeID int64) ([]Relationship, error) {
	var rows []Relationship
	err := r.selectRows(ctx, &rows, `
SELECT s.name AS subject_name, s.uniquename AS subject_uniquename,
       o.name AS object_name, o.uniquename AS object_uniquename
FROM feature_relationship fr
JOIN feature s ON s.feature_id = fr.subject_id
JOIN feature o ON o.feature_id = fr.object_id
WHERE fr.type_id = ? AND s.type_id = ? AND o.type_id = ? AND s.organism_id = ?
ORDER BY s.uniquename, o.uniquename`, relTypeID, subjectTypeID, objectTypeID, organismID)
	return rows, err
}

// FeatureProps lists property values of propTypeID on features of typeID.
func (r *Reader) FeatureProps(ctx context.Context, organismID, typeID, propTypeID int64) ([]FeatureProp, error) {
	var rows []FeatureProp
	err := r.selectRows(ctx, &rows, `
SELECT f.name AS feature_name, f.uniquename AS feature_uniquename, fp.value
FROM featureprop fp
JOIN feature f ON f.feature_id = fp.feature_id
WHERE f.organism_id = ? AND f.type_id = ? AND fp.type_id = ?
ORDER BY f.uniquename, fp.rank`, organismID, typeID, propTypeID)
	return rows, err
}

// FamilyMembers lists the features attached to the nodes of the named
// phylotrees.
func (r *Reader) FamilyMembers(ctx context.Context, families []string) ([]FamilyMember, error) {
	if len(families) == 0 {
		return nil, nil
	}
	args := make([]any, len(families))
	for i, f := range families {
		args[i] = f
	}
	var rows []FamilyMember
	err := r.selectRows(ctx, &rows, `
SELECT t.name AS family, t.comment AS description,
       f.name AS gene_name, f.uniquename AS gene_uniquename, o.genus, o.species
FROM phylotree t
JOIN phylonode n ON n.phylotree_id = t.phylotree_id
JOIN feature f ON f.feature_id = n.feature_id
JOIN organism o ON o.organism_id = f.organism_id
WHERE t.name IN (`+placeholders(len(args))+`)
ORDER BY t.name, f.uniquename`, args...)
	return rows, err
}

// Families lists every phylotree name.
func (r *Reader) Families(ctx context.Context) ([]string, error) {
	var names []string
	err := r.selectRows(ctx, &names, `SELECT name FROM phylotree ORDER BY name`)
	return names, err
}
