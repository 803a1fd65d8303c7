package chado

import (
	"gopkg.in/guregu/null.v3"
)

// Feature is a row of feature.
type Feature struct {
	ID         int64       `db:"feature_id"`
	Name       null.String `db:"name"`
	UniqueName string      `db:"uniquename"`
	TypeID     int64       `db:"type_id"`
}

// Label returns the feature name, falling back to its unique name.
func (f Feature) Label() string {
	if f.Name.Valid && f.Name.String != "" {
		return f.Name.String
	}
	return f.UniqueName
}

// Location is a featureloc row joined to its feature and source feature.
// Fmin is interbase (0-based); Start converts it.
type Location struct {
	FeatureID     int64       `db:"feature_id"`
	FeatureName   null.String `db:"feature_name"`
	FeatureUnique string      `db:"feature_uniquename"`
	SrcName       null.String `db:"src_name"`
	SrcUnique     string      `db:"src_uniquename"`
	SrcTypeID     int64       `db:"src_type_id"`
	SrcLength     null.Int    `db:"src_seqlen"`
	Fmin          null.Int    `db:"fmin"`
	Fmax          null.Int    `db:"fmax"`
	Strand        null.Int    `db:"strand"`
}

// Feature returns the located feature's label.
func (l Location) Feature() string {
	return Feature{Name: l.FeatureName, UniqueName: l.FeatureUnique}.Label()
}

// Source returns the label of the sequence the feature is located on.
func (l Location) Source() string {
	return Feature{Name: l.SrcName, UniqueName: l.SrcUnique}.Label()
}

// Valid reports whether both coordinates are present.
func (l Location) Valid() bool { return l.Fmin.Valid && l.Fmax.Valid }

// Start is the 1-based start.
func (l Location) Start() int { return int(l.Fmin.Int64) + 1 }

// End is the 1-based inclusive end.
func (l Location) End() int { return int(l.Fmax.Int64) }

// FeatureMap is a featuremap row.
type FeatureMap struct {
	ID          int64       `db:"featuremap_id"`
	Name        string      `db:"name"`
	Description null.String `db:"description"`
	Unit        null.String `db:"unit"`
}

// Publication is a pub row linked to a map.
type Publication struct {
	MapID      int64       `db:"featuremap_id"`
	UniqueName string      `db:"uniquename"`
	Title      null.String `db:"title"`
	PubMedID   null.String `db:"pmid"`
}

// Position is a featurepos row joined to the marker and its linkage group.
// MapPos is stored in the unit of the map.
type Position struct {
	MapID       int64       `db:"featuremap_id"`
	FeatureName null.String `db:"feature_name"`
	FeatureUniq string      `db:"feature_uniquename"`
	FeatureType int64       `db:"feature_type_id"`
	GroupName   null.String `db:"group_name"`
	GroupUniq   string      `db:"group_uniquename"`
	GroupLength null.Int    `db:"group_seqlen"`
	MapPos      null.Float  `db:"mappos"`
}

// Feature returns the positioned feature's label.
func (p Position) Feature() string {
	return Feature{Name: p.FeatureName, UniqueName: p.FeatureUniq}.Label()
}

// Group returns the linkage group label.
func (p Position) Group() string {
	return Feature{Name: p.GroupName, UniqueName: p.GroupUniq}.Label()
}

// Relationship is a feature_relationship row resolved to labels.
type Relationship struct {
	SubjectName   null.String `db:"subject_name"`
	SubjectUnique string      `db:"subject_uniquename"`
	ObjectName    null.String `db:"object_name"`
	ObjectUnique  string      `db:"object_uniquename"`
}

// Subject returns the subject label.
func (r Relationship) Subject() string {
	return Feature{Name: r.SubjectName, UniqueName: r.SubjectUnique}.Label()
}

// Object returns the object label.
func (r Relationship) Object() string {
	return Feature{Name: r.ObjectName, UniqueName: r.ObjectUnique}.Label()
}

// FeatureProp is a featureprop value of a feature.
type FeatureProp struct {
	FeatureName   null.String `db:"feature_name"`
	FeatureUnique string      `db:"feature_uniquename"`
	Value         null.String `db:"value"`
}

// Feature returns the owning feature's label.
func (p FeatureProp) Feature() string {
	return Feature{Name: p.FeatureName, UniqueName: p.FeatureUnique}.Label()
}

// FamilyMember is a gene placed in a phylotree.
type FamilyMember struct {
	Family      string      `db:"family"`
	Description null.String `db:"description"`
	GeneName    null.String `db:"gene_name"`
	GeneUnique  string      `db:"gene_uniquename"`
	Genus       string      `db:"genus"`
	Species     string      `db:"species"`
}

// Gene returns the member gene's label.
func (m FamilyMember) Gene() string {
	return Feature{Name: m.GeneName, UniqueName: m.GeneUnique}.Label()
}
