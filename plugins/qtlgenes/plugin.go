// Package qtlgenes registers the post-processing step that links QTLs to the
// genes their marker spans overlap.
package qtlgenes

import (
	"legfed/internal/core"
	"legfed/internal/postprocess"
	"legfed/internal/span"
)

// Config is the overlap policy.
type Config struct {
	// MinMarkers is the number of located markers a QTL needs on a
	// chromosome to get a span there. Values below 1 select the default.
	MinMarkers int
	// IncludeSupercontigs also uses marker and gene locations on
	// supercontigs.
	IncludeSupercontigs bool
}

// Plugin contributes the qtl-genes post-processor.
type Plugin struct {
	cfg Config
}

// New constructs the plugin with the given policy.
func New(cfg Config) Plugin {
	if cfg.MinMarkers < 1 {
		cfg.MinMarkers = span.DefaultMinMarkers
	}
	return Plugin{cfg: cfg}
}

// Name returns the plugin identifier.
func (Plugin) Name() string { return "qtlgenes" }

// Version returns the plugin semantic version.
func (Plugin) Version() string { return "1.0.0" }

// Register wires the post-processor.
func (p Plugin) Register(registry *core.PluginRegistry) error {
	return registry.RegisterPostProcessor(&postprocess.QTLGenes{
		MinMarkers:     p.cfg.MinMarkers,
		ChromosomeOnly: !p.cfg.IncludeSupercontigs,
	})
}
