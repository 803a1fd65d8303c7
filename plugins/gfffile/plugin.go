// Package gfffile loads GFF3 files: gene and marker annotations, and
// syntenic regions between two genomes.
package gfffile

import (
	"fmt"
	"regexp"

	"legfed/internal/core"
	"legfed/pkg/domain"
)

// Processor type names.
const (
	FeaturesType = "gff-file"
	SyntenyType  = "synteny-gff"
)

// DefaultSupercontigPattern matches sequence ids that name scaffolds rather
// than assembled chromosomes.
const DefaultSupercontigPattern = `(?i)(scaffold|contig|super|^sc\d)`

// Plugin registers both processors.
type Plugin struct{}

// New constructs the plugin.
func New() Plugin { return Plugin{} }

// Name returns the plugin identifier.
func (Plugin) Name() string { return "gfffile" }

// Version returns the plugin semantic version.
func (Plugin) Version() string { return "1.0.0" }

// Register wires the processors.
func (Plugin) Register(registry *core.PluginRegistry) error {
	if err := registry.RegisterProcessor(FeaturesType, NewFeatureProcessor); err != nil {
		return err
	}
	return registry.RegisterProcessor(SyntenyType, NewSyntenyProcessor)
}

// seqClassifier decides whether a sequence id is a chromosome or a
// supercontig.
type seqClassifier struct {
	supercontig *regexp.Regexp
}

func newSeqClassifier(src core.Source) (seqClassifier, error) {
	re, err := regexp.Compile(src.Property("supercontig_pattern", DefaultSupercontigPattern))
	if err != nil {
		return seqClassifier{}, core.ConfigError{Source: src.Name, Msg: fmt.Sprintf("supercontig_pattern: %v", err)}
	}
	return seqClassifier{supercontig: re}, nil
}

// sequence returns the chromosome or supercontig of org named seqID.
func (c seqClassifier) sequence(g *core.Graph, org *domain.Organism, seqID string) *domain.Chromosome {
	if c.supercontig.MatchString(seqID) {
		sc, _ := g.Supercontig(org, seqID)
		return sc
	}
	chr, _ := g.Chromosome(org, seqID)
	return chr
}
