package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

// Service runs processing passes against a persistent store.
type Service struct {
	store          PersistentStore
	plugins        map[string]PluginMetadata
	processors     map[string]ProcessorFactory
	postProcessors map[string]PostProcessor

	logger      Logger
	metrics     MetricsRecorder
	tracer      Tracer
	now         Clock
	parallelism int
	inputs      InputOpener
	chado       *sqlx.DB
	organisms   []OrganismInfo
	cvterms     map[string]string
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	svc := &Service{
		store:          store,
		plugins:        make(map[string]PluginMetadata),
		processors:     make(map[string]ProcessorFactory),
		postProcessors: make(map[string]PostProcessor),
		logger:         noopLogger{},
		metrics:        noopMetricsRecorder{},
		tracer:         noopTracer{},
		now:            ClockFunc(func() time.Time { return time.Now().UTC() }),
		parallelism:    1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// rulesEngine returns the engine of stores that expose one.
func (s *Service) rulesEngine() *RulesEngine {
	if es, ok := s.store.(interface{ RulesEngine() *RulesEngine }); ok {
		return es.RulesEngine()
	}
	return nil
}

// InstallPlugin registers a plugin, wiring its rules into the active engine
// and its processors into the service.
func (s *Service) InstallPlugin(plugin Plugin) (PluginMetadata, error) {
	if plugin == nil {
		return PluginMetadata{}, fmt.Errorf("plugin cannot be nil")
	}
	if _, ok := s.plugins[plugin.Name()]; ok {
		return PluginMetadata{}, fmt.Errorf("plugin %s already registered", plugin.Name())
	}

	registry := NewPluginRegistry()
	if err := plugin.Register(registry); err != nil {
		return PluginMetadata{}, err
	}
	for kind := range registry.processors {
		if _, exists := s.processors[kind]; exists {
			return PluginMetadata{}, fmt.Errorf("plugin %s: processor %s already registered", plugin.Name(), kind)
		}
	}
	for name := range registry.postProcessors {
		if _, exists := s.postProcessors[name]; exists {
			return PluginMetadata{}, fmt.Errorf("plugin %s: post-processor %s already registered", plugin.Name(), name)
		}
	}

	if engine := s.rulesEngine(); engine != nil {
		for _, rule := range registry.Rules() {
			engine.Register(rule)
		}
	}
	for kind, factory := range registry.processors {
		s.processors[kind] = factory
	}
	for name, pp := range registry.postProcessors {
		s.postProcessors[name] = pp
	}

	meta := PluginMetadata{
		Name:           plugin.Name(),
		Version:        plugin.Version(),
		Processors:     registry.Processors(),
		PostProcessors: registry.PostProcessors(),
	}
	s.plugins[plugin.Name()] = meta
	s.logger.Debug("plugin installed", "plugin", meta.Name, "version", meta.Version, "processors", meta.Processors)
	return meta, nil
}

// RegisteredPlugins returns metadata describing installed plugins.
func (s *Service) RegisteredPlugins() []PluginMetadata {
	out := make([]PluginMetadata, 0, len(s.plugins))
	for _, meta := range s.plugins {
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Processors returns the registered processor types in sorted order.
func (s *Service) Processors() []string {
	return sortedKeys(s.processors)
}

// SourceReport describes the outcome of one pass.
type SourceReport struct {
	Source   string
	Type     string
	Items    int
	Skipped  int
	Result   Result
	Duration time.Duration
	Err      error
}

// RunReport collects per-source outcomes of a load run.
type RunReport struct {
	Sources    []SourceReport
	StartedAt  time.Time
	FinishedAt time.Time
}

// Err joins the errors of every failed source.
func (r RunReport) Err() error {
	var errs []error
	for _, src := range r.Sources {
		if src.Err != nil {
			errs = append(errs, src.Err)
		}
	}
	return errors.Join(errs...)
}

// Failed returns the names of sources whose pass did not commit.
func (r RunReport) Failed() []string {
	var out []string
	for _, src := range r.Sources {
		if src.Err != nil {
			out = append(out, src.Source)
		}
	}
	return out
}

// Load runs one pass per source. Each pass builds its own graph and emits it
// in its own transaction. Configuration and precondition errors abort the
// run; other failures abandon only their pass and are reported in the
// returned report and joined error.
func (s *Service) Load(ctx context.Context, sources []Source) (RunReport, error) {
	report := RunReport{StartedAt: s.now.Now()}
	procs := make([]Processor, len(sources))
	names := make(map[string]struct{}, len(sources))
	for i, src := range sources {
		if _, dup := names[src.Name]; dup {
			return report, ConfigError{Source: src.Name, Msg: "duplicate source name"}
		}
		names[src.Name] = struct{}{}
		factory, ok := s.processors[src.Type]
		if !ok {
			return report, ConfigError{Source: src.Name, Msg: fmt.Sprintf("unknown processor type %q", src.Type)}
		}
		proc, err := factory(src)
		if err != nil {
			return report, err
		}
		procs[i] = proc
	}

	reports := make([]SourceReport, len(sources))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(s.parallelism)
	for i := range sources {
		i := i
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				reports[i] = SourceReport{Source: sources[i].Name, Type: sources[i].Type, Err: err}
				return nil
			}
			rep, err := s.loadSource(gctx, sources[i], procs[i])
			reports[i] = rep
			if err != nil && IsFatal(err) {
				return err
			}
			return nil
		})
	}
	fatal := group.Wait()
	report.Sources = reports
	report.FinishedAt = s.now.Now()
	if fatal != nil {
		return report, fatal
	}
	return report, report.Err()
}

func (s *Service) loadSource(ctx context.Context, src Source, proc Processor) (SourceReport, error) {
	rep := SourceReport{Source: src.Name, Type: src.Type}
	start := s.now.Now()
	pass := &Pass{
		Source:  src,
		Graph:   NewGraph(src.Name, s.organisms),
		Logger:  s.logger,
		Inputs:  s.inputs,
		Chado:   s.chado,
		CVTerms: s.cvterms,
	}
	err := s.run(ctx, "load."+src.Type, func(ctx context.Context) error {
		if err := proc.Process(ctx, pass); err != nil {
			return fmt.Errorf("process %s: %w", src.Name, err)
		}
		res, err := Emit(ctx, s.store, pass.Graph)
		rep.Result = res
		if err != nil {
			return fmt.Errorf("emit %s: %w", src.Name, err)
		}
		return nil
	})
	rep.Items = pass.Graph.Len()
	rep.Skipped = pass.Skipped()
	rep.Duration = s.now.Now().Sub(start)
	rep.Err = err
	s.logViolations(src.Name, rep.Result)
	if pr, ok := s.metrics.(PassRecorder); ok {
		pr.RecordPass(ctx, rep)
	}
	if err == nil {
		s.logger.Info("source loaded", "source", src.Name, "type", src.Type, "items", rep.Items, "skipped", rep.Skipped, "duration", rep.Duration)
	}
	return rep, err
}

// PostProcess runs the named post-processing step over the committed store.
func (s *Service) PostProcess(ctx context.Context, name string) (Result, error) {
	pp, ok := s.postProcessors[name]
	if !ok {
		return Result{}, ConfigError{Msg: fmt.Sprintf("unknown post-processor %q", name)}
	}
	var res Result
	err := s.run(ctx, "postprocess."+name, func(ctx context.Context) error {
		var err error
		res, err = pp.PostProcess(ctx, s.store, s.logger)
		return err
	})
	s.logViolations(name, res)
	return res, err
}

// PostProcessors returns the registered post-processing step names.
func (s *Service) PostProcessors() []string {
	return sortedKeys(s.postProcessors)
}

func (s *Service) logViolations(source string, res Result) {
	for _, v := range res.Violations {
		switch v.Severity {
		case SeverityBlock:
			s.logger.Error("rule violation", "source", source, "rule", v.Rule, "item", v.ItemID, "message", v.Message)
		case SeverityWarn:
			s.logger.Warn("rule violation", "source", source, "rule", v.Rule, "item", v.ItemID, "message", v.Message)
		default:
			s.logger.Debug("rule violation", "source", source, "rule", v.Rule, "item", v.ItemID, "message", v.Message)
		}
	}
}

func (s *Service) run(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, op)
	start := s.now.Now()
	err := fn(ctx)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, s.now.Now().Sub(start))
	if err != nil {
		s.logger.Error("operation failed", "operation", op, "error", err)
	}
	return err
}
