// Package cmap reads CMap genetic map exports: one tab-separated row per
// feature with the map it sits on.
package cmap

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
)

// Row is one raw CMap line.
type Row struct {
	MapAcc         string `csv:"map_acc"`
	MapName        string `csv:"map_name"`
	MapStart       string `csv:"map_start"`
	MapStop        string `csv:"map_stop"`
	FeatureAcc     string `csv:"feature_acc"`
	FeatureName    string `csv:"feature_name"`
	FeatureAliases string `csv:"feature_aliases"`
	FeatureStart   string `csv:"feature_start"`
	FeatureStop    string `csv:"feature_stop"`
	FeatureTypeAcc string `csv:"feature_type_acc"`
	IsLandmark     string `csv:"is_landmark"`
	// Line is the 1-based input line of the row.
	Line int `csv:"-"`
}

// Feature is a parsed CMap row.
type Feature struct {
	Line       int
	MapAcc     string
	MapName    string
	MapStart   float64
	MapStop    float64
	Acc        string
	Name       string
	Aliases    []string
	Start      float64
	Stop       float64
	Type       string
	IsLandmark bool
}

// IsQTL reports whether the feature is a QTL rather than a marker.
func (f Feature) IsQTL() bool { return strings.EqualFold(f.Type, "QTL") }

// ReadRows decodes every row of a CMap file. The first line must be the
// column header. Comment lines are skipped and do not shift Row.Line.
func ReadRows(in io.Reader) ([]Row, error) {
	r := csv.NewReader(in)
	r.Comma = '\t'
	r.Comment = '#'
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	lr := &lineReader{r: r}
	var rows []Row
	if err := gocsv.UnmarshalCSV(lr, &rows); err != nil {
		return nil, fmt.Errorf("cmap: %w", err)
	}
	// lines[0] is the header.
	for i := range rows {
		if i+1 < len(lr.lines) {
			rows[i].Line = lr.lines[i+1]
		}
	}
	return rows, nil
}

// lineReader records the starting line of each record it hands to gocsv.
type lineReader struct {
	r     *csv.Reader
	lines []int
}

func (l *lineReader) Read() ([]string, error) {
	rec, err := l.r.Read()
	if err == nil {
		line, _ := l.r.FieldPos(0)
		l.lines = append(l.lines, line)
	}
	return rec, err
}

func (l *lineReader) ReadAll() ([][]string, error) {
	var out [][]string
	for {
		rec, err := l.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

// Parse converts a raw row.
func Parse(row Row) (Feature, error) {
	line := row.Line
	f := Feature{
		Line:       line,
		MapAcc:     strings.TrimSpace(row.MapAcc),
		MapName:    strings.TrimSpace(row.MapName),
		Acc:        strings.TrimSpace(row.FeatureAcc),
		Name:       strings.TrimSpace(row.FeatureName),
		Type:       strings.TrimSpace(row.FeatureTypeAcc),
		IsLandmark: strings.TrimSpace(row.IsLandmark) == "1",
	}
	if f.MapAcc == "" {
		return f, fmt.Errorf("line %d: empty map_acc", line)
	}
	if f.Name == "" {
		f.Name = f.Acc
	}
	if f.Name == "" {
		return f, fmt.Errorf("line %d: feature has neither name nor accession", line)
	}
	var err error
	if f.MapStart, err = number(row.MapStart, "map_start", line); err != nil {
		return f, err
	}
	if f.MapStop, err = number(row.MapStop, "map_stop", line); err != nil {
		return f, err
	}
	if f.Start, err = number(row.FeatureStart, "feature_start", line); err != nil {
		return f, err
	}
	if strings.TrimSpace(row.FeatureStop) == "" {
		f.Stop = f.Start
	} else if f.Stop, err = number(row.FeatureStop, "feature_stop", line); err != nil {
		return f, err
	}
	if f.Stop < f.Start {
		f.Start, f.Stop = f.Stop, f.Start
	}
	for _, a := range strings.Split(row.FeatureAliases, ",") {
		if a = strings.TrimSpace(a); a != "" && a != f.Name {
			f.Aliases = append(f.Aliases, a)
		}
	}
	return f, nil
}

func number(s, column string, line int) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: %s %q: %w", line, column, s, err)
	}
	return v, nil
}
