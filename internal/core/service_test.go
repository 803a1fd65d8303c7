package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"legfed/internal/infra/persistence/memory"
	"legfed/pkg/domain"
)

type logEntry struct {
	level string
	msg   string
	args  []any
}

type captureLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *captureLogger) log(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *captureLogger) Debug(msg string, args ...any) { l.log("debug", msg, args) }
func (l *captureLogger) Info(msg string, args ...any)  { l.log("info", msg, args) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.log("warn", msg, args) }
func (l *captureLogger) Error(msg string, args ...any) { l.log("error", msg, args) }

func (l *captureLogger) has(level, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.level == level && e.msg == msg {
			return true
		}
	}
	return false
}

type metricsCall struct {
	op      string
	success bool
}

type captureMetricsRecorder struct {
	mu    sync.Mutex
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, metricsCall{op: op, success: success})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

type captureTracer struct {
	mu    sync.Mutex
	ended map[string]error
}

type captureSpan struct {
	tracer *captureTracer
	op     string
}

func (c *captureTracer) Start(ctx context.Context, op string) (context.Context, TraceSpan) {
	return ctx, &captureSpan{tracer: c, op: op}
}

func (s *captureSpan) End(err error) {
	s.tracer.mu.Lock()
	defer s.tracer.mu.Unlock()
	if s.tracer.ended == nil {
		s.tracer.ended = make(map[string]error)
	}
	s.tracer.ended[s.op] = err
}

// markerPlugin registers a processor that builds n markers for the source
// taxon, and one that fails according to the source name.
type markerPlugin struct{}

func (markerPlugin) Name() string    { return "markers" }
func (markerPlugin) Version() string { return "test" }

func (markerPlugin) Register(r *PluginRegistry) error {
	if err := r.RegisterProcessor("markers", func(src Source) (Processor, error) {
		if src.TaxonID == "" {
			return nil, ConfigError{Source: src.Name, Msg: "taxon_id required"}
		}
		return ProcessorFunc(func(_ context.Context, pass *Pass) error {
			org, err := pass.Graph.SetOrganism(src.TaxonID)
			if err != nil {
				return err
			}
			for _, f := range src.Files {
				pass.Graph.Marker(org, f)
			}
			pass.Skip(7, "bogus", "unknown marker")
			return nil
		}), nil
	}); err != nil {
		return err
	}
	return r.RegisterProcessor("broken", func(src Source) (Processor, error) {
		return ProcessorFunc(func(_ context.Context, pass *Pass) error {
			if src.Property("fatal", "") == "true" {
				_, err := pass.Graph.RequireOrganism(1)
				return err
			}
			return fmt.Errorf("open %s: file not found", src.Name)
		}), nil
	})
}

func newTestService(t *testing.T, opts ...ServiceOption) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore(NewDefaultRulesEngine())
	svc := NewService(store, opts...)
	if _, err := svc.InstallPlugin(markerPlugin{}); err != nil {
		t.Fatalf("install plugin: %v", err)
	}
	return svc, store
}

func TestServiceLoadEmitsEachSource(t *testing.T) {
	logger := &captureLogger{}
	metrics := &captureMetricsRecorder{}
	tracer := &captureTracer{}
	svc, store := newTestService(t, WithLogger(logger), WithMetricsRecorder(metrics), WithTracer(tracer))
	report, err := svc.Load(context.Background(), []Source{
		{Name: "a", Type: "markers", TaxonID: "3847", Files: []string{"m1", "m2"}},
		{Name: "b", Type: "markers", TaxonID: "3847", Files: []string{"m2", "m3"}},
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(report.Sources) != 2 || report.Sources[0].Items != 3 || report.Sources[0].Skipped != 1 {
		t.Fatalf("unexpected report %+v", report.Sources)
	}
	_ = store.View(context.Background(), func(v TransactionView) error {
		if v.Count(domain.TypeGeneticMarker) != 3 || v.Count(domain.TypeOrganism) != 1 {
			t.Fatalf("expected 3 markers and one organism")
		}
		return nil
	})
	if !metrics.has("load.markers", true) {
		t.Fatalf("expected metrics for load.markers")
	}
	if err, ok := tracer.ended["load.markers"]; !ok || err != nil {
		t.Fatalf("expected successful trace span")
	}
	if !logger.has("warn", "row skipped") || !logger.has("info", "source loaded") {
		t.Fatalf("expected skip and summary log lines")
	}
}

func TestServiceLoadReportsPartialFailure(t *testing.T) {
	logger := &captureLogger{}
	svc, store := newTestService(t, WithLogger(logger))
	report, err := svc.Load(context.Background(), []Source{
		{Name: "missing", Type: "broken"},
		{Name: "good", Type: "markers", TaxonID: "3847", Files: []string{"m1"}},
	})
	if err == nil || !strings.Contains(err.Error(), "file not found") {
		t.Fatalf("expected joined I/O error, got %v", err)
	}
	if failed := report.Failed(); len(failed) != 1 || failed[0] != "missing" {
		t.Fatalf("expected only 'missing' failed, got %v", failed)
	}
	if report.Sources[1].Err != nil {
		t.Fatalf("good source must succeed")
	}
	_ = store.View(context.Background(), func(v TransactionView) error {
		if v.Count(domain.TypeGeneticMarker) != 1 {
			t.Fatalf("good source must be committed")
		}
		return nil
	})
	if !logger.has("error", "operation failed") {
		t.Fatalf("expected failure to be logged")
	}
}

func TestServiceLoadAbortsOnFatalError(t *testing.T) {
	svc, store := newTestService(t)
	_, err := svc.Load(context.Background(), []Source{
		{Name: "fatal", Type: "broken", Properties: map[string]string{"fatal": "true"}},
		{Name: "good", Type: "markers", TaxonID: "3847", Files: []string{"m1"}},
	})
	var pre PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("expected PreconditionError, got %v", err)
	}
	_ = store.View(context.Background(), func(v TransactionView) error {
		if v.Count(domain.TypeGeneticMarker) != 0 {
			t.Fatalf("run must abort before later sources")
		}
		return nil
	})
}

func TestServiceLoadConfigErrors(t *testing.T) {
	svc, _ := newTestService(t)
	cases := map[string][]Source{
		"unknown type":   {{Name: "x", Type: "nope"}},
		"duplicate name": {{Name: "x", Type: "markers", TaxonID: "1"}, {Name: "x", Type: "markers", TaxonID: "1"}},
		"missing taxon":  {{Name: "x", Type: "markers"}},
	}
	for name, sources := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Load(context.Background(), sources)
			var cfg ConfigError
			if !errors.As(err, &cfg) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
		})
	}
}

func TestServiceLoadParallelPassesAreIndependent(t *testing.T) {
	svc, store := newTestService(t, WithParallelism(4))
	var sources []Source
	for i := 0; i < 8; i++ {
		sources = append(sources, Source{
			Name:    fmt.Sprintf("s%d", i),
			Type:    "markers",
			TaxonID: "3847",
			Files:   []string{fmt.Sprintf("m%d", i), "shared"},
		})
	}
	report, err := svc.Load(context.Background(), sources)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for i, rep := range report.Sources {
		if rep.Source != sources[i].Name || rep.Items != 3 {
			t.Fatalf("report %d out of order or wrong: %+v", i, rep)
		}
	}
	_ = store.View(context.Background(), func(v TransactionView) error {
		if v.Count(domain.TypeGeneticMarker) != 9 {
			t.Fatalf("expected 9 distinct markers, got %d", v.Count(domain.TypeGeneticMarker))
		}
		return nil
	})
}

type countingPostProcessor struct{ runs int }

func (p *countingPostProcessor) Name() string { return "count" }

func (p *countingPostProcessor) PostProcess(ctx context.Context, store PersistentStore, _ Logger) (Result, error) {
	p.runs++
	return Result{}, store.View(ctx, func(TransactionView) error { return nil })
}

type postPlugin struct{ pp PostProcessor }

func (postPlugin) Name() string                       { return "post" }
func (postPlugin) Version() string                    { return "test" }
func (p postPlugin) Register(r *PluginRegistry) error { return r.RegisterPostProcessor(p.pp) }

func TestServicePostProcess(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	svc, _ := newTestService(t, WithMetricsRecorder(metrics))
	pp := &countingPostProcessor{}
	meta, err := svc.InstallPlugin(postPlugin{pp: pp})
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if len(meta.PostProcessors) != 1 || meta.PostProcessors[0] != "count" {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	if _, err := svc.PostProcess(context.Background(), "count"); err != nil {
		t.Fatalf("post-process: %v", err)
	}
	if pp.runs != 1 || !metrics.has("postprocess.count", true) {
		t.Fatalf("expected one observed run")
	}
	var cfg ConfigError
	if _, err := svc.PostProcess(context.Background(), "missing"); !errors.As(err, &cfg) {
		t.Fatalf("expected ConfigError for unknown step, got %v", err)
	}
}

func TestServiceInstallPluginGuards(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.InstallPlugin(nil); err == nil {
		t.Fatalf("expected nil plugin error")
	}
	if _, err := svc.InstallPlugin(markerPlugin{}); err == nil {
		t.Fatalf("expected duplicate plugin error")
	}
	if got := svc.Processors(); len(got) != 2 || got[0] != "broken" || got[1] != "markers" {
		t.Fatalf("unexpected processors %v", got)
	}
	if plugins := svc.RegisteredPlugins(); len(plugins) != 1 || plugins[0].Name != "markers" {
		t.Fatalf("unexpected plugins %+v", plugins)
	}
}

func TestServiceClockDrivesReport(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	svc, _ := newTestService(t, WithClock(ClockFunc(func() time.Time { return fixed })))
	report, err := svc.Load(context.Background(), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !report.StartedAt.Equal(fixed) || !report.FinishedAt.Equal(fixed) {
		t.Fatalf("expected fixed clock timestamps, got %v/%v", report.StartedAt, report.FinishedAt)
	}
}

func TestNoopLogger(t *testing.T) {
	logger := NoopLogger()
	logger.Debug("debug", "k", "v")
	logger.Info("info", "k", "v")
	logger.Warn("warn", "k", "v")
	logger.Error("error", "k", "v")
}
