package core

import (
	"errors"
	"fmt"

	"legfed/pkg/domain"
)

// ErrAlreadyEmitted is returned when a transaction stores the same item twice.
type ErrAlreadyEmitted = domain.ErrAlreadyEmitted

// ErrGraphEmitted is returned when a graph is handed to Emit a second time.
var ErrGraphEmitted = errors.New("graph already emitted")

// ConfigError reports an invalid or contradictory configuration. It is fatal.
type ConfigError struct {
	Source string
	Msg    string
}

func (e ConfigError) Error() string {
	if e.Source == "" {
		return "config: " + e.Msg
	}
	return fmt.Sprintf("config: source %s: %s", e.Source, e.Msg)
}

// PreconditionError reports a data row reached before the context it depends
// on, such as a QTL row read before the TaxonID header. It is fatal.
type PreconditionError struct {
	Source  string
	Line    int
	Missing string
}

func (e PreconditionError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s line %d: %s must be set before data rows", e.Source, e.Line, e.Missing)
	}
	return fmt.Sprintf("%s: %s must be set before data rows", e.Source, e.Missing)
}

// ErrNotFound is returned when a referenced item does not exist.
type ErrNotFound struct {
	Type domain.ItemType
	ID   string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Type, e.ID)
}

// SkipError marks a row-level lookup miss. Pass.Recover logs it and the
// processor moves on to the next row.
type SkipError struct {
	Key    string
	Reason string
}

func (e SkipError) Error() string {
	return fmt.Sprintf("skip %s: %s", e.Key, e.Reason)
}

// IsFatal reports whether err must abort the whole run rather than only the
// pass that produced it.
func IsFatal(err error) bool {
	var cfg ConfigError
	var pre PreconditionError
	return errors.As(err, &cfg) || errors.As(err, &pre)
}
