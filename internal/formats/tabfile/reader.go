// Package tabfile reads tab-delimited loader files made of "key<TAB>value"
// header lines followed by fixed-column data rows.
package tabfile

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// Record is one meaningful line of a tab file.
type Record struct {
	Line   int
	Header bool
	// Key and Value are set on header lines. Key is the canonical spelling
	// passed to NewReader.
	Key   string
	Value string
	// Fields holds the trimmed columns of a data row.
	Fields []string
}

// Field returns column i of a data row, or "" when the row is short.
func (r Record) Field(i int) string {
	if i < len(r.Fields) {
		return r.Fields[i]
	}
	return ""
}

// Option configures a Reader.
type Option func(*Reader)

// WithColumnHeader skips rows whose first column equals name, which is how
// files label their data columns.
func WithColumnHeader(name string) Option {
	return func(r *Reader) { r.columnHeaders[strings.ToLower(name)] = struct{}{} }
}

// Reader yields header and data records. Blank lines, lines starting with
// '#' and lines naming a README file are skipped.
type Reader struct {
	r             *csv.Reader
	keys          map[string]string
	columnHeaders map[string]struct{}
}

// NewReader reads from in, treating lines whose first column matches one of
// headerKeys (case-insensitively, with an optional trailing ':') as header
// lines.
func NewReader(in io.Reader, headerKeys []string, opts ...Option) *Reader {
	cr := csv.NewReader(in)
	cr.Comma = '\t'
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false
	r := &Reader{r: cr, keys: make(map[string]string, len(headerKeys)), columnHeaders: make(map[string]struct{})}
	for _, k := range headerKeys {
		r.keys[strings.ToLower(k)] = k
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read returns the next record, or io.EOF.
func (r *Reader) Read() (Record, error) {
	for {
		fields, err := r.r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Record{}, io.EOF
			}
			return Record{}, err
		}
		line, _ := r.r.FieldPos(0)
		fields = trim(fields)
		if len(fields) == 0 {
			continue
		}
		first := fields[0]
		if strings.HasPrefix(strings.ToUpper(first), "README") {
			continue
		}
		if _, ok := r.columnHeaders[strings.ToLower(first)]; ok {
			continue
		}
		if key, ok := r.keys[strings.ToLower(strings.TrimSuffix(first, ":"))]; ok {
			value := ""
			if len(fields) > 1 {
				value = fields[1]
			}
			return Record{Line: line, Header: true, Key: key, Value: value}, nil
		}
		return Record{Line: line, Fields: fields}, nil
	}
}

// trim strips whitespace from every column and drops trailing empty ones.
func trim(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.TrimSpace(f)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}
