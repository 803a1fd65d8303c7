package core

import (
	"context"
	"fmt"
	"sort"
)

// Processor turns one configured source into entities on the pass graph.
type Processor interface {
	Process(ctx context.Context, pass *Pass) error
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, pass *Pass) error

// Process implements Processor.
func (f ProcessorFunc) Process(ctx context.Context, pass *Pass) error { return f(ctx, pass) }

// ProcessorFactory builds a processor for a configured source. It returns a
// ConfigError when the source lacks required properties.
type ProcessorFactory func(src Source) (Processor, error)

// PostProcessor runs over the committed store after loading.
type PostProcessor interface {
	Name() string
	PostProcess(ctx context.Context, store PersistentStore, logger Logger) (Result, error)
}

// Plugin describes a processor bundle that contributes processors, rules and
// post-processing steps.
type Plugin interface {
	Name() string
	Version() string
	Register(registry *PluginRegistry) error
}

// PluginRegistry accumulates plugin contributions during registration.
type PluginRegistry struct {
	rules          []Rule
	processors     map[string]ProcessorFactory
	postProcessors map[string]PostProcessor
}

// NewPluginRegistry constructs a plugin registry.
func NewPluginRegistry() *PluginRegistry {
	return &PluginRegistry{
		processors:     make(map[string]ProcessorFactory),
		postProcessors: make(map[string]PostProcessor),
	}
}

// RegisterRule adds an in-transaction rule contributed by the plugin.
func (r *PluginRegistry) RegisterRule(rule Rule) {
	if rule == nil {
		return
	}
	r.rules = append(r.rules, rule)
}

// RegisterProcessor binds a processor type name to its factory.
func (r *PluginRegistry) RegisterProcessor(kind string, factory ProcessorFactory) error {
	if kind == "" || factory == nil {
		return fmt.Errorf("processor registration requires a type and factory")
	}
	if _, exists := r.processors[kind]; exists {
		return fmt.Errorf("processor %s already registered", kind)
	}
	r.processors[kind] = factory
	return nil
}

// RegisterPostProcessor adds a named post-processing step.
func (r *PluginRegistry) RegisterPostProcessor(pp PostProcessor) error {
	if pp == nil || pp.Name() == "" {
		return fmt.Errorf("post-processor registration requires a name")
	}
	if _, exists := r.postProcessors[pp.Name()]; exists {
		return fmt.Errorf("post-processor %s already registered", pp.Name())
	}
	r.postProcessors[pp.Name()] = pp
	return nil
}

// Rules returns a copy of registered rules.
func (r *PluginRegistry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Processors returns the registered processor type names in sorted order.
func (r *PluginRegistry) Processors() []string {
	return sortedKeys(r.processors)
}

// PostProcessors returns the registered post-processor names in sorted order.
func (r *PluginRegistry) PostProcessors() []string {
	return sortedKeys(r.postProcessors)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// PluginMetadata stores metadata describing an installed plugin.
type PluginMetadata struct {
	Name           string
	Version        string
	Processors     []string
	PostProcessors []string
}
