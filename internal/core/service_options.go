package core

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// Logger is the structured logging surface used by the service and
// processors. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// NoopLogger returns a logger that discards everything.
func NoopLogger() Logger { return noopLogger{} }

// MetricsRecorder observes the outcome and duration of service operations.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

// Tracer starts spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan is ended with the operation error, if any.
type TraceSpan interface {
	End(err error)
}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRecorder sets the metrics sink.
func WithMetricsRecorder(recorder MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(tracer Tracer) ServiceOption {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithClock sets the time source.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithParallelism sets how many independent passes may run at once.
func WithParallelism(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// WithInputs sets the opener processors use for input files.
func WithInputs(inputs InputOpener) ServiceOption {
	return func(s *Service) { s.inputs = inputs }
}

// WithChado sets the Chado database handle.
func WithChado(db *sqlx.DB) ServiceOption {
	return func(s *Service) { s.chado = db }
}

// WithOrganisms sets the organisms known from configuration.
func WithOrganisms(organisms []OrganismInfo) ServiceOption {
	return func(s *Service) {
		s.organisms = append([]OrganismInfo(nil), organisms...)
	}
}

// WithCVTerms sets the controlled vocabulary term names used by processors.
func WithCVTerms(terms map[string]string) ServiceOption {
	return func(s *Service) {
		s.cvterms = make(map[string]string, len(terms))
		for k, v := range terms {
			s.cvterms[k] = v
		}
	}
}
