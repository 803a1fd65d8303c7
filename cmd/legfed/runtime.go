package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"legfed/internal/blob"
	chadodb "legfed/internal/chado"
	"legfed/internal/config"
	"legfed/internal/core"
	"legfed/internal/formats/input"
	"legfed/plugins/chado"
	"legfed/plugins/cmapfile"
	"legfed/plugins/germplasm"
	"legfed/plugins/gfffile"
	"legfed/plugins/qtlfile"
	"legfed/plugins/qtlgenes"
)

// runtime is the service of one command invocation plus the resources it
// holds open.
type runtime struct {
	svc     *core.Service
	blobs   blob.Store
	logger  *slog.Logger
	closers []func() error
}

func newRuntime(c *cli.Context, project *config.Project) (env *runtime, err error) {
	ctx := c.Context
	level := slog.LevelInfo
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	env = &runtime{logger: slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level}))}
	defer func() {
		if err != nil {
			env.Close()
			env = nil
		}
	}()

	opts := []core.ServiceOption{
		core.WithLogger(env.logger),
		core.WithParallelism(project.Parallelism),
		core.WithOrganisms(project.OrganismInfos()),
		core.WithCVTerms(project.CVTerms),
	}

	store, err := core.OpenStore(project.StorageConfig(), core.NewDefaultRulesEngine())
	if err != nil {
		return env, fmt.Errorf("open store: %w", err)
	}
	if closer, ok := store.(io.Closer); ok {
		env.closers = append(env.closers, closer.Close)
	}

	env.blobs, err = blob.Open(ctx, project.BlobConfig())
	if err != nil {
		return env, fmt.Errorf("open inputs: %w", err)
	}
	opts = append(opts, core.WithInputs(input.NewOpener(env.blobs)))

	if project.Chado.DSN != "" {
		db, err := chadodb.Open(ctx, project.Chado.Driver, project.Chado.DSN)
		if err != nil {
			return env, err
		}
		env.closers = append(env.closers, db.Close)
		opts = append(opts, core.WithChado(db))
	}

	addr := firstNonEmpty(c.String("metrics-addr"), project.Metrics.Addr)
	if addr != "" {
		recorder, err := env.serveMetrics(addr)
		if err != nil {
			return env, err
		}
		opts = append(opts, core.WithMetricsRecorder(recorder))
	}

	if path := firstNonEmpty(c.String("trace-file"), project.Metrics.TraceFile); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return env, fmt.Errorf("trace file: %w", err)
		}
		env.closers = append(env.closers, f.Close)
		opts = append(opts, core.WithTracer(core.NewJSONTracer(f)))
	}

	env.svc = core.NewService(store, opts...)
	plugins := []core.Plugin{
		qtlfile.New(),
		cmapfile.New(),
		gfffile.New(),
		germplasm.New(),
		chado.New(),
		qtlgenes.New(qtlgenes.Config{
			MinMarkers:          project.PostProcess.MinMarkers,
			IncludeSupercontigs: project.PostProcess.IncludeSupercontigs,
		}),
	}
	for _, p := range plugins {
		meta, err := env.svc.InstallPlugin(p)
		if err != nil {
			return env, fmt.Errorf("install plugin %s: %w", p.Name(), err)
		}
		env.logger.Debug("plugin installed", "plugin", meta.Name, "version", meta.Version)
	}
	return env, nil
}

func (env *runtime) serveMetrics(addr string) (core.MetricsRecorder, error) {
	registry := prometheus.NewRegistry()
	prom, err := core.NewPrometheusMetricsRecorder(registry)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	vars := core.NewExpvarMetricsRecorder("")
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/debug/vars", expvar.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			env.logger.Error("metrics server stopped", "addr", addr, "error", err)
		}
	}()
	env.closers = append(env.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})
	env.logger.Info("serving metrics", "addr", addr, "expvar", vars.Name())
	return core.MultiMetricsRecorder{prom, vars}, nil
}

// sources converts the selected project sources, expanding directory and
// glob file entries against the input store.
func (env *runtime) sources(ctx context.Context, selected []config.Source) ([]core.Source, error) {
	out := make([]core.Source, 0, len(selected))
	for _, s := range selected {
		src := s.CoreSource()
		files, err := input.Expand(ctx, env.blobs, src.Files)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.Name, err)
		}
		src.Files = files
		out = append(out, src)
	}
	return out, nil
}

// Close releases resources in reverse order of acquisition.
func (env *runtime) Close() {
	for i := len(env.closers) - 1; i >= 0; i-- {
		if err := env.closers[i](); err != nil {
			env.logger.Warn("close failed", "error", err)
		}
	}
	env.closers = nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
