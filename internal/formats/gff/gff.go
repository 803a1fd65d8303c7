// Package gff reads GFF3 feature lines into records with decoded
// key=value attributes. biogo parses the first eight columns; its attribute
// grammar is GFF2, so column 9 is split off before biogo sees the line and
// decoded here.
package gff

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/biogo/biogo/io/featio"
	"github.com/biogo/biogo/io/featio/gff"
)

// Record is one GFF3 feature. Start and End are 1-based and inclusive.
type Record struct {
	// Line is the 1-based line number in the input.
	Line       int
	SeqID      string
	Source     string
	Type       string
	Start      int
	End        int
	Score      *float64
	Strand     int
	Attributes Attributes
}

// ID returns the ID attribute, falling back to Name.
func (r Record) ID() string {
	if id := r.Attributes.Get("ID"); id != "" {
		return id
	}
	return r.Attributes.Get("Name")
}

// Name returns the Name attribute, falling back to ID.
func (r Record) Name() string {
	if name := r.Attributes.Get("Name"); name != "" {
		return name
	}
	return r.Attributes.Get("ID")
}

// Attributes are the decoded column 9 pairs in file order.
type Attributes []Attribute

// Attribute is one decoded key=value pair.
type Attribute struct {
	Key   string
	Value string
}

// Get returns the value of key, or "".
func (a Attributes) Get(key string) string {
	for _, attr := range a {
		if attr.Key == key {
			return attr.Value
		}
	}
	return ""
}

// Values splits a multi-valued attribute on commas.
func (a Attributes) Values(key string) []string {
	v := a.Get(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Reader yields records from a GFF3 stream. Directive and comment lines are
// dropped and reading stops at a ##FASTA section.
type Reader struct {
	sc    *featio.Scanner
	lines *featureLines
}

// NewReader returns a reader over in.
func NewReader(in io.Reader) *Reader {
	lines := &featureLines{r: bufio.NewReader(in)}
	return &Reader{sc: featio.NewScanner(gff.NewReader(lines)), lines: lines}
}

// Read returns the next record, or io.EOF.
func (r *Reader) Read() (Record, error) {
	if !r.sc.Next() {
		if err := r.sc.Error(); err != nil {
			return Record{}, fmt.Errorf("gff: line %d: %w", r.lines.failedLine(), err)
		}
		return Record{}, io.EOF
	}
	f, ok := r.sc.Feat().(*gff.Feature)
	if !ok {
		return Record{}, fmt.Errorf("gff: unexpected feature type %T", r.sc.Feat())
	}
	col9 := r.lines.pop()
	return Record{
		Line:       col9.line,
		SeqID:      f.SeqName,
		Source:     f.Source,
		Type:       f.Feature,
		Start:      f.FeatStart + 1,
		End:        f.FeatEnd,
		Score:      f.FeatScore,
		Strand:     int(f.FeatStrand),
		Attributes: decodeAttributes(col9.attributes),
	}, nil
}

// decodeAttributes splits "key=value;key=value" and percent-decodes the
// values. A pair without "=" is kept as a key with an empty value.
func decodeAttributes(raw string) Attributes {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "." {
		return nil
	}
	var out Attributes
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		if dec, err := url.PathUnescape(value); err == nil {
			value = dec
		}
		out = append(out, Attribute{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)})
	}
	return out
}

// column9 is the attribute text of one feature line.
type column9 struct {
	line       int
	attributes string
}

// featureLines passes through feature lines only, cut to eight columns.
// The cut attribute columns queue up in input order; biogo reads ahead, so
// the queue may hold several lines.
type featureLines struct {
	r     *bufio.Reader
	buf   []byte
	done  bool
	n     int
	queue []column9
}

func (f *featureLines) Read(p []byte) (int, error) {
	for len(f.buf) == 0 {
		if f.done {
			return 0, io.EOF
		}
		line, err := f.r.ReadBytes('\n')
		if err != nil {
			if err != io.EOF {
				return 0, err
			}
			f.done = true
		}
		if len(line) == 0 {
			continue
		}
		f.n++
		trimmed := bytes.TrimSpace(line)
		switch {
		case bytes.HasPrefix(trimmed, []byte("##FASTA")):
			f.done = true
			continue
		case len(trimmed) == 0, trimmed[0] == '#', trimmed[0] == '>':
			continue
		}
		fields := bytes.SplitN(trimmed, []byte{'\t'}, 9)
		col := column9{line: f.n}
		if len(fields) == 9 {
			col.attributes = string(fields[8])
			fields = fields[:8]
		}
		f.queue = append(f.queue, col)
		f.buf = append(bytes.Join(fields, []byte{'\t'}), '\n')
	}
	n := copy(p, f.buf)
	f.buf = f.buf[n:]
	return n, nil
}

func (f *featureLines) pop() column9 {
	if len(f.queue) == 0 {
		return column9{}
	}
	c := f.queue[0]
	f.queue = f.queue[1:]
	return c
}

// failedLine is the line biogo rejected: the oldest one not yet returned.
func (f *featureLines) failedLine() int {
	if len(f.queue) == 0 {
		return f.n
	}
	return f.queue[0].line
}

// Target is the decoded value of a GFF3 Target attribute.
type Target struct {
	SeqID  string
	Start  int
	End    int
	Strand int
}

// ParseTarget decodes "seqid start end [strand]".
func ParseTarget(v string) (Target, error) {
	fields := strings.Fields(v)
	if len(fields) != 3 && len(fields) != 4 {
		return Target{}, fmt.Errorf("target %q: want seqid start end [strand]", v)
	}
	start, err := strconv.Atoi(fields[1])
	if err != nil {
		return Target{}, fmt.Errorf("target %q: start: %w", v, err)
	}
	end, err := strconv.Atoi(fields[2])
	if err != nil {
		return Target{}, fmt.Errorf("target %q: end: %w", v, err)
	}
	if start > end {
		start, end = end, start
	}
	t := Target{SeqID: fields[0], Start: start, End: end}
	if len(fields) == 4 {
		switch fields[3] {
		case "+":
			t.Strand = 1
		case "-":
			t.Strand = -1
		}
	}
	return t, nil
}

// MedianKs parses the median_Ks attribute when present.
func (r Record) MedianKs() (*float64, error) {
	v := r.Attributes.Get("median_Ks")
	if v == "" {
		return nil, nil
	}
	ks, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("median_Ks %q: %w", v, err)
	}
	return &ks, nil
}
