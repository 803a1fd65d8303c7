// Package chadotest provides a miniature Chado database on in-memory SQLite
// for reader and processor tests.
package chadotest

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // register sqlite driver
)

// Taxon ids and organism rows seeded by Open.
const (
	SoyTaxon  = "3847"
	BeanTaxon = "3885"
)

const schema = `
CREATE TABLE cv (cv_id INTEGER PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE cvterm (cvterm_id INTEGER PRIMARY KEY, cv_id INTEGER NOT NULL, name TEXT NOT NULL);
CREATE TABLE organism (organism_id INTEGER PRIMARY KEY, genus TEXT NOT NULL, species TEXT NOT NULL, abbreviation TEXT);
CREATE TABLE feature (feature_id INTEGER PRIMARY KEY, organism_id INTEGER NOT NULL, name TEXT, uniquename TEXT NOT NULL, type_id INTEGER NOT NULL, seqlen INTEGER);
CREATE TABLE featureloc (featureloc_id INTEGER PRIMARY KEY, feature_id INTEGER NOT NULL, srcfeature_id INTEGER, fmin INTEGER, fmax INTEGER, strand INTEGER, rank INTEGER NOT NULL DEFAULT 0);
CREATE TABLE featureprop (featureprop_id INTEGER PRIMARY KEY, feature_id INTEGER NOT NULL, type_id INTEGER NOT NULL, value TEXT, rank INTEGER NOT NULL DEFAULT 0);
CREATE TABLE feature_relationship (feature_relationship_id INTEGER PRIMARY KEY, subject_id INTEGER NOT NULL, object_id INTEGER NOT NULL, type_id INTEGER NOT NULL);
CREATE TABLE featuremap (featuremap_id INTEGER PRIMARY KEY, name TEXT NOT NULL, description TEXT, unittype_id INTEGER);
CREATE TABLE featurepos (featurepos_id INTEGER PRIMARY KEY, featuremap_id INTEGER NOT NULL, feature_id INTEGER NOT NULL, map_feature_id INTEGER NOT NULL, mappos REAL);
CREATE TABLE pub (pub_id INTEGER PRIMARY KEY, uniquename TEXT NOT NULL, title TEXT);
CREATE TABLE featuremap_pub (featuremap_pub_id INTEGER PRIMARY KEY, featuremap_id INTEGER NOT NULL, pub_id INTEGER NOT NULL);
CREATE TABLE db (db_id INTEGER PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE dbxref (dbxref_id INTEGER PRIMARY KEY, db_id INTEGER NOT NULL, accession TEXT NOT NULL);
CREATE TABLE pub_dbxref (pub_dbxref_id INTEGER PRIMARY KEY, pub_id INTEGER NOT NULL, dbxref_id INTEGER NOT NULL);
CREATE TABLE phylotree (phylotree_id INTEGER PRIMARY KEY, name TEXT NOT NULL, comment TEXT);
CREATE TABLE phylonode (phylonode_id INTEGER PRIMARY KEY, phylotree_id INTEGER NOT NULL, feature_id INTEGER);
`

const seed = `
INSERT INTO cv VALUES (1, 'sequence'), (2, 'unit'), (3, 'relationship'), (4, 'feature_property');
INSERT INTO cvterm VALUES
  (1, 1, 'gene'), (2, 1, 'chromosome'), (3, 1, 'supercontig'), (4, 1, 'genetic_marker'),
  (5, 1, 'QTL'), (6, 1, 'linkage_group'), (7, 1, 'polypeptide'), (8, 2, 'cM'),
  (9, 3, 'associated_with'), (10, 4, 'Experiment Trait Name');
INSERT INTO organism VALUES (1, 'Glycine', 'max', 'G. max'), (2, 'Phaseolus', 'vulgaris', 'P. vulgaris');
INSERT INTO feature VALUES
  (10, 1, 'Gm01', 'glyma.Wm82.gnm2.Gm01', 2, 56831624),
  (11, 1, NULL, 'scaffold_21', 3, 150000),
  (20, 1, 'Glyma.01G000100', 'glyma.Glyma.01G000100', 1, NULL),
  (21, 1, 'Glyma.01G000200', 'glyma.Glyma.01G000200', 1, NULL),
  (22, 1, 'Glyma.U000100', 'glyma.Glyma.U000100', 1, NULL),
  (23, 2, 'Phvul.001G000100', 'phavu.Phvul.001G000100', 1, NULL),
  (30, 1, 'Satt239', 'Satt239', 4, NULL),
  (31, 1, 'Satt684', 'Satt684', 4, NULL),
  (32, 1, 'Sat_999', 'Sat_999', 4, NULL),
  (40, 1, 'Seed protein 1-1', 'Seed protein 1-1', 5, NULL),
  (50, 1, 'A1', 'GmComposite2003_A1', 6, 92);
INSERT INTO featureloc (feature_id, srcfeature_id, fmin, fmax, strand) VALUES
  (20, 10, 27354, 28320, -1),
  (21, 10, 58974, 67527, -1),
  (22, 11, 99, 900, 1),
  (30, 10, 26999, 27000, 1),
  (31, 10, 59999, 60000, NULL),
  (32, 10, NULL, NULL, NULL);
INSERT INTO featureprop (feature_id, type_id, value) VALUES (40, 10, 'seed protein');
INSERT INTO feature_relationship (subject_id, object_id, type_id) VALUES (40, 30, 9), (40, 31, 9);
INSERT INTO featuremap VALUES (1, 'GmComposite2003', 'Soybean composite genetic map', 8);
INSERT INTO featurepos (featuremap_id, feature_id, map_feature_id, mappos) VALUES
  (1, 30, 50, 12.5), (1, 31, 50, 20.1), (1, 32, 50, 2.0), (1, 40, 50, 18.5), (1, 40, 50, 15.0);
INSERT INTO pub VALUES (1, 'Song 2004', 'A new integrated genetic linkage map of the soybean');
INSERT INTO featuremap_pub (featuremap_id, pub_id) VALUES (1, 1);
INSERT INTO db VALUES (1, 'PMID');
INSERT INTO dbxref VALUES (1, 1, '15026871');
INSERT INTO pub_dbxref (pub_id, dbxref_id) VALUES (1, 1);
INSERT INTO phylotree VALUES (1, 'phytozome_10_2.59028020', 'NAC transcription factor'), (2, 'phytozome_10_2.59000001', NULL);
INSERT INTO phylonode (phylotree_id, feature_id) VALUES (1, 20), (1, 21), (1, 23), (1, NULL), (2, 22);
`

// Open returns a seeded in-memory Chado database closed when t ends.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	for _, stmt := range []string{schema, seed} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed chado fixture: %v", err)
		}
	}
	return db
}
