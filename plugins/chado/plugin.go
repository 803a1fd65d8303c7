// Package chado loads genes, genetic maps and gene families from a Chado
// database. Controlled vocabulary terms are looked up by configured name
// once per pass; organisms are resolved by the genus and species configured
// for the source taxon.
package chado

import (
	"context"
	"fmt"
	"strings"

	chadodb "legfed/internal/chado"
	"legfed/internal/core"
	"legfed/pkg/domain"
)

// Processor type names.
const (
	FeaturesType = "chado-features"
	MapsType     = "chado-genetic-maps"
	FamiliesType = "chado-gene-families"
)

// Term keys and the Chado term names they default to. Any of them can be
// renamed through the cvterms configuration.
const (
	TermGene         = "gene"
	TermMarker       = "genetic_marker"
	TermChromosome   = "chromosome"
	TermSupercontig  = "supercontig"
	TermQTL          = "QTL"
	TermQTLMarker    = "qtl_marker"
	TermTrait        = "qtl_trait"
	defaultQTLMarker = "associated_with"
	defaultTrait     = "Experiment Trait Name"
)

var termDefaults = map[string]string{
	TermQTLMarker: defaultQTLMarker,
	TermTrait:     defaultTrait,
}

// Plugin registers the Chado processors.
type Plugin struct{}

// New constructs the plugin.
func New() Plugin { return Plugin{} }

// Name returns the plugin identifier.
func (Plugin) Name() string { return "chado" }

// Version returns the plugin semantic version.
func (Plugin) Version() string { return "1.0.0" }

// Register wires the processors.
func (Plugin) Register(registry *core.PluginRegistry) error {
	for kind, factory := range map[string]core.ProcessorFactory{
		FeaturesType: NewFeatureProcessor,
		MapsType:     NewMapProcessor,
		FamiliesType: NewFamilyProcessor,
	} {
		if err := registry.RegisterProcessor(kind, factory); err != nil {
			return err
		}
	}
	return nil
}

func requireTaxon(src core.Source) error {
	if src.TaxonID == "" {
		return core.ConfigError{Source: src.Name, Msg: src.Type + " requires taxon_id"}
	}
	return nil
}

// session is the per-pass Chado state shared by the processors.
type session struct {
	reader *chadodb.Reader
	terms  map[string]int64
}

func openSession(ctx context.Context, pass *core.Pass, keys ...string) (*session, error) {
	if pass.Chado == nil {
		return nil, core.ConfigError{Source: pass.Source.Name, Msg: "no chado connection configured"}
	}
	s := &session{reader: chadodb.NewReader(pass.Chado), terms: make(map[string]int64, len(keys))}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, termName(pass, k))
	}
	ids, err := s.reader.CVTermIDs(ctx, names)
	if err != nil {
		return nil, err
	}
	for _, missing := range chadodb.MissingTerms(names, ids) {
		pass.Logger.Warn("cvterm not found", "source", pass.Source.Name, "term", missing)
	}
	for i, k := range keys {
		if id, ok := ids[names[i]]; ok {
			s.terms[k] = id
		}
	}
	return s, nil
}

// termName returns the configured Chado name of a term key.
func termName(pass *core.Pass, key string) string {
	return pass.CVTerm(key, termDefaults[key])
}

// term returns the resolved id of key. A missing term is logged by
// openSession; callers skip the queries that depend on it.
func (s *session) term(key string) (int64, bool) {
	id, ok := s.terms[key]
	return id, ok
}

// organism establishes the pass organism and finds its Chado row.
func (s *session) organism(ctx context.Context, pass *core.Pass) (*domain.Organism, int64, error) {
	org, err := pass.Graph.SetOrganism(pass.Source.TaxonID)
	if err != nil {
		return nil, 0, err
	}
	info, ok := pass.Graph.OrganismInfo(org.TaxonID)
	if !ok || info.Genus == "" || info.Species == "" {
		return nil, 0, core.ConfigError{Source: pass.Source.Name, Msg: fmt.Sprintf("organism %s needs genus and species", org.TaxonID)}
	}
	id, err := s.reader.OrganismID(ctx, info.Genus, info.Species)
	if err != nil {
		return nil, 0, err
	}
	return org, id, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
