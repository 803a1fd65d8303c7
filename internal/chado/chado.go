// Package chado reads genomic features, genetic maps and gene families from
// a Chado schema. Queries are written with '?' placeholders and rebound for
// the connected driver.
package chado

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/jmoiron/sqlx"
)

// DefaultDriver is the database/sql driver used for Chado connections.
const DefaultDriver = "pgx"

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("chado: not found")

// Open connects to a Chado database and verifies the connection.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	if driver == "" {
		driver = DefaultDriver
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("chado open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("chado ping: %w", err)
	}
	return db, nil
}

// Reader runs the loader queries against one Chado database.
type Reader struct {
	db *sqlx.DB
}

// NewReader wraps an open connection.
func NewReader(db *sqlx.DB) *Reader {
	return &Reader{db: db}
}

func (r *Reader) selectRows(ctx context.Context, dest any, query string, args ...any) error {
	if err := r.db.SelectContext(ctx, dest, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("chado query: %w", err)
	}
	return nil
}

// OrganismID resolves an organism by genus and species.
func (r *Reader) OrganismID(ctx context.Context, genus, species string) (int64, error) {
	var id int64
	err := r.db.GetContext(ctx, &id, r.db.Rebind(`SELECT organism_id FROM organism WHERE genus = ? AND species = ?`), genus, species)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("organism %s %s: %w", genus, species, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("chado organism: %w", err)
	}
	return id, nil
}

// CVTermIDs resolves controlled vocabulary term names to ids. Names absent
// from the database are missing from the result.
func (r *Reader) CVTermIDs(ctx context.Context, names []string) (map[string]int64, error) {
	out := make(map[string]int64, len(names))
	if len(names) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT cvterm_id, name FROM cvterm WHERE name IN (?) ORDER BY cvterm_id`, names)
	if err != nil {
		return nil, fmt.Errorf("chado cvterm: %w", err)
	}
	var rows []struct {
		ID   int64  `db:"cvterm_id"`
		Name string `db:"name"`
	}
	if err := r.selectRows(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if _, dup := out[row.Name]; !dup {
			out[row.Name] = row.ID
		}
	}
	return out, nil
}

// MissingTerms lists the names that did not resolve.
func MissingTerms(names []string, resolved map[string]int64) []string {
	var out []string
	for _, n := range names {
		if _, ok := resolved[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}

// placeholders returns n comma separated '?' markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
