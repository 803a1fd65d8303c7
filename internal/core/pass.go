package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/jmoiron/sqlx"
)

// Source is one configured input of a load run.
type Source struct {
	Name       string
	Type       string
	Files      []string
	TaxonID    string
	Properties map[string]string
}

// Property returns a source property or def when unset.
func (s Source) Property(key, def string) string {
	if v, ok := s.Properties[key]; ok && v != "" {
		return v
	}
	return def
}

// InputOpener opens named input files.
type InputOpener interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Pass carries the state of one processing pass: its own graph and the
// collaborators a processor may use. Passes never share graphs.
type Pass struct {
	Source  Source
	Graph   *Graph
	Logger  Logger
	Inputs  InputOpener
	Chado   *sqlx.DB
	CVTerms map[string]string

	skipped atomic.Int64
}

// Skip records a row-level lookup miss and logs it.
func (p *Pass) Skip(line int, key, reason string) {
	p.skipped.Add(1)
	p.Logger.Warn("row skipped", "source", p.Source.Name, "line", line, "key", key, "reason", reason)
}

// Recover turns a SkipError into a logged skip of line and returns nil.
// Any other error is returned unchanged.
func (p *Pass) Recover(line int, err error) error {
	var skip SkipError
	if errors.As(err, &skip) {
		p.Skip(line, skip.Key, skip.Reason)
		return nil
	}
	return err
}

// Skipped returns the number of rows skipped so far.
func (p *Pass) Skipped() int { return int(p.skipped.Load()) }

// Open opens one of the source's input files.
func (p *Pass) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if p.Inputs == nil {
		return nil, ConfigError{Source: p.Source.Name, Msg: "no input store configured"}
	}
	rc, err := p.Inputs.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%s: open %s: %w", p.Source.Name, name, err)
	}
	return rc, nil
}

// CVTerm returns the configured controlled vocabulary term name for key,
// falling back to def and then to key itself.
func (p *Pass) CVTerm(key, def string) string {
	if v, ok := p.CVTerms[key]; ok && v != "" {
		return v
	}
	if def != "" {
		return def
	}
	return key
}
