// Package testutil fakes the postgres state table for store tests.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// StateConn is a database/sql connection holding the state table in memory:
// one payload per item-type bucket, upserted by bucket name.
type StateConn struct {
	mu         sync.Mutex
	Statements []string
	Buckets    map[string][]byte
	pending    map[string][]byte

	FailPing   bool
	FailBegin  bool
	FailCommit bool
	// FailBuckets makes the upsert of the named buckets fail.
	FailBuckets map[string]bool
}

var registered atomic.Int64

// NewStateDB registers a driver over a fresh StateConn and opens it.
func NewStateDB() (*sql.DB, *StateConn) {
	conn := &StateConn{Buckets: make(map[string][]byte)}
	name := fmt.Sprintf("legfed-state-%d", registered.Add(1))
	sql.Register(name, stateDriver{conn: conn})
	db, err := sql.Open(name, "")
	if err != nil {
		panic(err)
	}
	return db, conn
}

type stateDriver struct{ conn *StateConn }

func (d stateDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

// Executed reports whether a statement containing fragment (case
// insensitive) was run.
func (c *StateConn) Executed(fragment string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	fragment = strings.ToUpper(fragment)
	for _, s := range c.Statements {
		if strings.Contains(strings.ToUpper(s), fragment) {
			return true
		}
	}
	return false
}

// Prepare implements driver.Conn.
func (c *StateConn) Prepare(string) (driver.Stmt, error) {
	return nil, fmt.Errorf("prepared statements not supported")
}

// Close implements driver.Conn.
func (c *StateConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StateConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// Ping implements driver.Pinger.
func (c *StateConn) Ping(context.Context) error {
	if c.FailPing {
		return fmt.Errorf("connection refused")
	}
	return nil
}

// BeginTx implements driver.ConnBeginTx. Upserts inside the transaction are
// staged and applied on commit.
func (c *StateConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	if c.FailBegin {
		return nil, fmt.Errorf("begin refused")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		return nil, fmt.Errorf("transaction already open")
	}
	c.pending = make(map[string][]byte)
	return stateTx{conn: c}, nil
}

// ExecContext implements driver.ExecerContext for the DDL and the bucket
// upsert.
func (c *StateConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Statements = append(c.Statements, query)
	upper := strings.ToUpper(strings.TrimSpace(query))
	switch {
	case strings.HasPrefix(upper, "CREATE TABLE"):
		return driver.RowsAffected(0), nil
	case strings.HasPrefix(upper, "INSERT INTO STATE"):
		if len(args) != 2 {
			return nil, fmt.Errorf("state upsert takes 2 args, got %d", len(args))
		}
		bucket, ok := args[0].Value.(string)
		if !ok {
			return nil, fmt.Errorf("bucket must be a string, got %T", args[0].Value)
		}
		payload, ok := args[1].Value.([]byte)
		if !ok {
			return nil, fmt.Errorf("payload must be bytes, got %T", args[1].Value)
		}
		if c.FailBuckets[bucket] {
			return nil, fmt.Errorf("upsert %s refused", bucket)
		}
		target := c.Buckets
		if c.pending != nil {
			target = c.pending
		}
		target[bucket] = append([]byte(nil), payload...)
		return driver.RowsAffected(1), nil
	default:
		return nil, fmt.Errorf("unexpected statement: %s", query)
	}
}

// QueryContext implements driver.QueryerContext for the snapshot read.
func (c *StateConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Statements = append(c.Statements, query)
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT BUCKET, PAYLOAD FROM STATE") {
		return nil, fmt.Errorf("unexpected query: %s", query)
	}
	names := make([]string, 0, len(c.Buckets))
	for name := range c.Buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := &stateRows{}
	for _, name := range names {
		rows.rows = append(rows.rows, []driver.Value{name, c.Buckets[name]})
	}
	return rows, nil
}

type stateTx struct{ conn *StateConn }

func (t stateTx) Commit() error {
	c := t.conn
	c.mu.Lock()
	defer c.mu.Unlock()
	pending := c.pending
	c.pending = nil
	if c.FailCommit {
		return fmt.Errorf("commit refused")
	}
	for bucket, payload := range pending {
		c.Buckets[bucket] = payload
	}
	return nil
}

func (t stateTx) Rollback() error {
	t.conn.mu.Lock()
	t.conn.pending = nil
	t.conn.mu.Unlock()
	return nil
}

type stateRows struct {
	rows [][]driver.Value
	idx  int
}

func (r *stateRows) Columns() []string { return []string{"bucket", "payload"} }
func (r *stateRows) Close() error      { return nil }

func (r *stateRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}
