package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"legfed/internal/blob"
	"legfed/internal/config"
	"legfed/internal/core"
	"legfed/internal/postprocess"
)

const version = "1.0.0"

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:            "legfed",
		Usage:           "Load Chado, GFF3, CMap and tab-file genomics sources into the object store",
		HideHelpCommand: true,
		Version:         version,
		Writer:          stdout,
		ErrWriter:       stderr,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log at debug level",
			},
			&cli.StringFlag{
				Name:     "metrics-addr",
				Usage:    "Serve Prometheus metrics on this address while running",
				Category: "Observability",
			},
			&cli.StringFlag{
				Name:     "trace-file",
				Usage:    "Write one JSON trace entry per operation to this file",
				Category: "Observability",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "load",
				Usage: "Run one pass per configured source",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringSliceFlag{
						Name:    "source",
						Aliases: []string{"s"},
						Usage:   "Only load the named source (repeatable)",
					},
					&cli.IntFlag{
						Name:    "parallel",
						Aliases: []string{"p"},
						Usage:   "Number of passes run concurrently",
					},
					&cli.BoolFlag{
						Name:  "postprocess",
						Usage: "Run the QTL/gene overlap step after a successful load",
					},
				},
				Action: func(c *cli.Context) error { return runLoad(c, stdout) },
			},
			{
				Name:  "postprocess",
				Usage: "Link QTLs to the genes their marker spans overlap",
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:  "min-markers",
						Usage: "Located markers a QTL needs on a chromosome",
					},
					&cli.BoolFlag{
						Name:  "include-supercontigs",
						Usage: "Also use locations on supercontigs",
					},
				},
				Action: func(c *cli.Context) error { return runPostProcess(c, stdout) },
			},
			{
				Name:  "processors",
				Usage: "List the registered processor types and post-processing steps",
				Action: func(c *cli.Context) error {
					env, err := newRuntime(c, &config.Project{
						Storage: config.Storage{Driver: string(core.StorageMemory)},
						Blob:    config.Blob{Driver: string(blob.DriverMemory)},
					})
					if err != nil {
						return err
					}
					defer env.Close()
					for _, p := range env.svc.Processors() {
						fmt.Fprintf(stdout, "processor\t%s\n", p)
					}
					for _, p := range env.svc.PostProcessors() {
						fmt.Fprintf(stdout, "postprocess\t%s\n", p)
					}
					return nil
				},
			},
		},
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "config",
		Aliases:  []string{"c"},
		Usage:    "Project file (YAML)",
		Required: true,
	}
}

func runLoad(c *cli.Context, out io.Writer) error {
	project, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("parallel") {
		project.Parallelism = c.Int("parallel")
	}
	selected, err := project.Select(c.StringSlice("source"))
	if err != nil {
		return err
	}
	env, err := newRuntime(c, project)
	if err != nil {
		return err
	}
	defer env.Close()
	if err := project.ValidateTypes(env.svc.Processors()); err != nil {
		return err
	}
	sources, err := env.sources(c.Context, selected)
	if err != nil {
		return err
	}

	report, loadErr := env.svc.Load(c.Context, sources)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tTYPE\tITEMS\tSKIPPED\tDURATION\tSTATUS")
	for _, rep := range report.Sources {
		status := "ok"
		if rep.Err != nil {
			status = rep.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n", rep.Source, rep.Type, rep.Items, rep.Skipped, rep.Duration, status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if loadErr != nil {
		return loadErr
	}
	if !c.Bool("postprocess") {
		return nil
	}
	return postProcess(c, env, out)
}

func runPostProcess(c *cli.Context, out io.Writer) error {
	project, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("min-markers") {
		project.PostProcess.MinMarkers = c.Int("min-markers")
	}
	if c.IsSet("include-supercontigs") {
		project.PostProcess.IncludeSupercontigs = c.Bool("include-supercontigs")
	}
	env, err := newRuntime(c, project)
	if err != nil {
		return err
	}
	defer env.Close()
	return postProcess(c, env, out)
}

func postProcess(c *cli.Context, env *runtime, out io.Writer) error {
	res, err := env.svc.PostProcess(c.Context, postprocess.QTLGenesName)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %d rule violations\n", postprocess.QTLGenesName, len(res.Violations))
	return nil
}
