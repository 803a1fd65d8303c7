// Package config loads the YAML project file that lists the organisms,
// controlled vocabulary names and sources of a load run, and applies
// LEGFED_* environment overrides on top of it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"

	"legfed/internal/blob"
	"legfed/internal/core"
)

// Project is the parsed project file.
type Project struct {
	Storage     Storage           `yaml:"storage"`
	Blob        Blob              `yaml:"blob"`
	Chado       Chado             `yaml:"chado"`
	Parallelism int               `yaml:"parallelism"`
	Organisms   []Organism        `yaml:"organisms"`
	CVTerms     map[string]string `yaml:"cvterms"`
	Sources     []Source          `yaml:"sources"`
	PostProcess PostProcess       `yaml:"postprocess"`
	Metrics     Metrics           `yaml:"metrics"`
}

// Storage selects the object store backend.
type Storage struct {
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// Blob selects where input files are read from.
type Blob struct {
	Driver string `yaml:"driver"`
	FSRoot string `yaml:"fs_root"`
	S3     struct {
		Bucket    string `yaml:"bucket"`
		Region    string `yaml:"region"`
		Endpoint  string `yaml:"endpoint"`
		PathStyle bool   `yaml:"path_style"`
	} `yaml:"s3"`
	GS struct {
		Bucket   string `yaml:"bucket"`
		Endpoint string `yaml:"endpoint"`
	} `yaml:"gs"`
}

// Chado is the optional Chado connection.
type Chado struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Organism maps a taxon id to its names.
type Organism struct {
	TaxonID string `yaml:"taxon_id"`
	Genus   string `yaml:"genus"`
	Species string `yaml:"species"`
	Name    string `yaml:"name"`
}

// Source is one input of the run.
type Source struct {
	Name       string            `yaml:"name"`
	Type       string            `yaml:"type"`
	TaxonID    string            `yaml:"taxon_id"`
	Files      []string          `yaml:"files"`
	Properties map[string]string `yaml:"properties"`
}

// PostProcess is the QTL/gene overlap policy.
type PostProcess struct {
	MinMarkers          int  `yaml:"min_markers"`
	IncludeSupercontigs bool `yaml:"include_supercontigs"`
}

// Metrics configures the optional observability outputs.
type Metrics struct {
	Addr      string `yaml:"addr"`
	TraceFile string `yaml:"trace_file"`
}

// Load reads, parses, overrides from the environment and validates path.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := p.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Parse decodes a project file. Unknown keys are rejected.
func Parse(data []byte) (*Project, error) {
	var p Project
	if err := yaml.UnmarshalStrict(data, &p); err != nil {
		return nil, core.ConfigError{Msg: fmt.Sprintf("parse project: %v", err)}
	}
	return &p, nil
}

// ApplyEnv overlays LEGFED_* environment variables.
//
//	LEGFED_STORAGE_DRIVER, LEGFED_SQLITE_PATH, LEGFED_POSTGRES_DSN: object store
//	LEGFED_BLOB_*: input file store, see blob.ConfigFromEnv
//	LEGFED_CHADO_DSN: Chado connection
//	LEGFED_PARALLELISM: independent passes run at once
func (p *Project) ApplyEnv() error {
	st := core.StorageConfigFromEnv(p.StorageConfig())
	p.Storage = Storage{Driver: string(st.Driver), SQLitePath: st.SQLitePath, PostgresDSN: st.PostgresDSN}

	bc := blob.ConfigFromEnv(p.BlobConfig())
	p.Blob.Driver, p.Blob.FSRoot = string(bc.Driver), bc.FSRoot
	p.Blob.S3.Bucket, p.Blob.S3.Region, p.Blob.S3.Endpoint, p.Blob.S3.PathStyle = bc.S3.Bucket, bc.S3.Region, bc.S3.Endpoint, bc.S3.PathStyle
	p.Blob.GS.Bucket, p.Blob.GS.Endpoint = bc.GCS.Bucket, bc.GCS.Endpoint

	if v := os.Getenv("LEGFED_CHADO_DSN"); v != "" {
		p.Chado.DSN = v
	}
	if v := os.Getenv("LEGFED_PARALLELISM"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return core.ConfigError{Msg: fmt.Sprintf("LEGFED_PARALLELISM: %v", err)}
		}
		p.Parallelism = n
	}
	return nil
}

// Validate checks the project for contradictions.
func (p *Project) Validate() error {
	if p.Parallelism < 0 {
		return core.ConfigError{Msg: "parallelism must not be negative"}
	}
	if p.PostProcess.MinMarkers < 0 {
		return core.ConfigError{Msg: "postprocess.min_markers must not be negative"}
	}
	taxa := make(map[string]struct{}, len(p.Organisms))
	for _, o := range p.Organisms {
		if strings.TrimSpace(o.TaxonID) == "" {
			return core.ConfigError{Msg: fmt.Sprintf("organism %s %s has no taxon_id", o.Genus, o.Species)}
		}
		if _, dup := taxa[o.TaxonID]; dup {
			return core.ConfigError{Msg: fmt.Sprintf("organism %s listed twice", o.TaxonID)}
		}
		taxa[o.TaxonID] = struct{}{}
	}
	names := make(map[string]struct{}, len(p.Sources))
	for _, s := range p.Sources {
		if s.Name == "" {
			return core.ConfigError{Msg: "source without a name"}
		}
		if _, dup := names[s.Name]; dup {
			return core.ConfigError{Source: s.Name, Msg: "duplicate source name"}
		}
		names[s.Name] = struct{}{}
		if s.Type == "" {
			return core.ConfigError{Source: s.Name, Msg: "source without a type"}
		}
		if s.TaxonID != "" && len(p.Organisms) > 0 {
			if _, ok := taxa[s.TaxonID]; !ok {
				return core.ConfigError{Source: s.Name, Msg: fmt.Sprintf("taxon_id %s is not a configured organism", s.TaxonID)}
			}
		}
	}
	return nil
}

// ValidateTypes reports sources whose type is not among known.
func (p *Project) ValidateTypes(known []string) error {
	set := make(map[string]struct{}, len(known))
	for _, k := range known {
		set[k] = struct{}{}
	}
	for _, s := range p.Sources {
		if _, ok := set[s.Type]; !ok {
			return core.ConfigError{Source: s.Name, Msg: fmt.Sprintf("unknown processor type %q", s.Type)}
		}
	}
	return nil
}

// Select returns the named sources in project order, or every source when
// names is empty.
func (p *Project) Select(names []string) ([]Source, error) {
	if len(names) == 0 {
		return append([]Source(nil), p.Sources...), nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = false
	}
	var out []Source
	for _, s := range p.Sources {
		if _, ok := want[s.Name]; ok {
			want[s.Name] = true
			out = append(out, s)
		}
	}
	for _, n := range names {
		if !want[n] {
			return nil, core.ConfigError{Source: n, Msg: "no such source"}
		}
	}
	return out, nil
}

// CoreSource converts s for the service.
func (s Source) CoreSource() core.Source {
	props := make(map[string]string, len(s.Properties))
	for k, v := range s.Properties {
		props[k] = v
	}
	return core.Source{
		Name:       s.Name,
		Type:       s.Type,
		TaxonID:    s.TaxonID,
		Files:      append([]string(nil), s.Files...),
		Properties: props,
	}
}

// OrganismInfos converts the organism list for the service.
func (p *Project) OrganismInfos() []core.OrganismInfo {
	out := make([]core.OrganismInfo, 0, len(p.Organisms))
	for _, o := range p.Organisms {
		out = append(out, core.OrganismInfo{TaxonID: o.TaxonID, Genus: o.Genus, Species: o.Species, Name: o.Name})
	}
	return out
}

// StorageConfig converts the storage section.
func (p *Project) StorageConfig() core.StorageConfig {
	return core.StorageConfig{
		Driver:      core.StorageDriver(p.Storage.Driver),
		SQLitePath:  p.Storage.SQLitePath,
		PostgresDSN: p.Storage.PostgresDSN,
	}
}

// BlobConfig converts the blob section.
func (p *Project) BlobConfig() blob.Config {
	cfg := blob.Config{Driver: blob.Driver(p.Blob.Driver), FSRoot: p.Blob.FSRoot}
	cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Endpoint, cfg.S3.PathStyle = p.Blob.S3.Bucket, p.Blob.S3.Region, p.Blob.S3.Endpoint, p.Blob.S3.PathStyle
	cfg.GCS.Bucket, cfg.GCS.Endpoint = p.Blob.GS.Bucket, p.Blob.GS.Endpoint
	return cfg
}
