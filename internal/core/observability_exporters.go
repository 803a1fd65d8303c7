package core

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// PassRecorder is implemented by metrics recorders that also count what a
// committed pass produced. The service calls it once per source.
type PassRecorder interface {
	RecordPass(ctx context.Context, rep SourceReport)
}

// MultiMetricsRecorder fans observations out to several recorders.
type MultiMetricsRecorder []MetricsRecorder

// Observe implements MetricsRecorder.
func (m MultiMetricsRecorder) Observe(ctx context.Context, operation string, success bool, duration time.Duration) {
	for _, r := range m {
		r.Observe(ctx, operation, success, duration)
	}
}

// RecordPass forwards to every member that implements PassRecorder.
func (m MultiMetricsRecorder) RecordPass(ctx context.Context, rep SourceReport) {
	for _, r := range m {
		if pr, ok := r.(PassRecorder); ok {
			pr.RecordPass(ctx, rep)
		}
	}
}

var expvarSeq uint64

// ExpvarMetricsRecorder publishes load statistics via expvar: per-operation
// outcome counts and total milliseconds, and per-source item, skip and rule
// violation counts.
type ExpvarMetricsRecorder struct {
	name string

	mu         sync.Mutex
	operations map[string]*OperationStats
	sources    map[string]PassStats
}

// OperationStats aggregates one "<phase>.<target>" operation.
type OperationStats struct {
	Phase     string  `json:"phase"`
	Target    string  `json:"target"`
	Successes int64   `json:"successes"`
	Failures  int64   `json:"failures"`
	TotalMS   float64 `json:"total_ms"`
}

// PassStats is the latest outcome of one source.
type PassStats struct {
	Type       string           `json:"type"`
	Items      int              `json:"items"`
	Skipped    int              `json:"skipped"`
	Violations map[string]int64 `json:"violations,omitempty"`
	Failed     bool             `json:"failed"`
}

// ExpvarMetricsSnapshot is a copy of the recorded metrics.
type ExpvarMetricsSnapshot struct {
	Operations map[string]OperationStats `json:"operations"`
	Sources    map[string]PassStats      `json:"sources"`
	RecordedAt time.Time                 `json:"recorded_at"`
}

// NewExpvarMetricsRecorder constructs a recorder published under name, or
// under a generated unique name when name is empty.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		name = fmt.Sprintf("legfed_metrics_%d", atomic.AddUint64(&expvarSeq, 1))
	}
	rec := &ExpvarMetricsRecorder{
		name:       name,
		operations: make(map[string]*OperationStats),
		sources:    make(map[string]PassStats),
	}
	expvar.Publish(name, expvar.Func(func() any { return rec.Snapshot() }))
	return rec
}

// Name returns the expvar export name.
func (r *ExpvarMetricsRecorder) Name() string { return r.name }

// Observe implements MetricsRecorder.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stats, ok := r.operations[operation]
	if !ok {
		phase, target, _ := strings.Cut(operation, ".")
		stats = &OperationStats{Phase: phase, Target: target}
		r.operations[operation] = stats
	}
	if success {
		stats.Successes++
	} else {
		stats.Failures++
	}
	stats.TotalMS += float64(duration) / float64(time.Millisecond)
}

// RecordPass implements PassRecorder. A later pass of the same source
// replaces the earlier entry.
func (r *ExpvarMetricsRecorder) RecordPass(_ context.Context, rep SourceReport) {
	stats := PassStats{Type: rep.Type, Items: rep.Items, Skipped: rep.Skipped, Failed: rep.Err != nil}
	for rule, n := range violationCounts(rep.Result) {
		if stats.Violations == nil {
			stats.Violations = make(map[string]int64)
		}
		stats.Violations[rule] = n
	}
	r.mu.Lock()
	r.sources[rep.Source] = stats
	r.mu.Unlock()
}

// Snapshot returns a copy of the aggregated metrics.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := ExpvarMetricsSnapshot{
		Operations: make(map[string]OperationStats, len(r.operations)),
		Sources:    make(map[string]PassStats, len(r.sources)),
		RecordedAt: time.Now().UTC(),
	}
	for op, stats := range r.operations {
		snap.Operations[op] = *stats
	}
	for src, stats := range r.sources {
		cpy := stats
		if stats.Violations != nil {
			cpy.Violations = make(map[string]int64, len(stats.Violations))
			for k, v := range stats.Violations {
				cpy.Violations[k] = v
			}
		}
		snap.Sources[src] = cpy
	}
	return snap
}

func violationCounts(res Result) map[string]int64 {
	out := make(map[string]int64)
	for _, v := range res.Violations {
		out[v.Rule]++
	}
	return out
}

// JSONTraceEntry is one finished span. Operations are named
// "<phase>.<target>" (load.qtl-file, postprocess.qtl-genes).
type JSONTraceEntry struct {
	Operation  string    `json:"operation"`
	Phase      string    `json:"phase,omitempty"`
	Target     string    `json:"target,omitempty"`
	Status     string    `json:"status"`
	DurationMS float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

// JSONTraceTracer writes one JSON line per finished span and keeps the
// entries for inspection.
type JSONTraceTracer struct {
	mu      sync.Mutex
	entries []JSONTraceEntry
	enc     *json.Encoder
}

// NewJSONTracer returns a tracer writing to w; a nil w only retains entries.
func NewJSONTracer(w io.Writer) *JSONTraceTracer {
	t := &JSONTraceTracer{}
	if w != nil {
		t.enc = json.NewEncoder(w)
	}
	return t
}

// Entries returns the finished spans ordered by start time.
func (t *JSONTraceTracer) Entries() []JSONTraceEntry {
	t.mu.Lock()
	out := append([]JSONTraceEntry(nil), t.entries...)
	t.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// Start implements Tracer.
func (t *JSONTraceTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &jsonTraceSpan{tracer: t, operation: operation, started: time.Now().UTC()}
}

type jsonTraceSpan struct {
	tracer    *JSONTraceTracer
	operation string
	started   time.Time
}

func (s *jsonTraceSpan) End(err error) {
	ended := time.Now().UTC()
	phase, target, _ := strings.Cut(s.operation, ".")
	entry := JSONTraceEntry{
		Operation:  s.operation,
		Phase:      phase,
		Target:     target,
		Status:     "success",
		DurationMS: float64(ended.Sub(s.started)) / float64(time.Millisecond),
		StartedAt:  s.started,
		EndedAt:    ended,
	}
	if err != nil {
		entry.Status, entry.Error = "error", err.Error()
	}

	s.tracer.mu.Lock()
	defer s.tracer.mu.Unlock()
	s.tracer.entries = append(s.tracer.entries, entry)
	if s.tracer.enc != nil {
		_ = s.tracer.enc.Encode(entry)
	}
}
