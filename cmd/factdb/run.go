package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"github.com/wbrown/janus-factdb/datalog"
	"github.com/wbrown/janus-factdb/datalog/factdb"
	"github.com/wbrown/janus-factdb/datalog/metrics"
	"github.com/wbrown/janus-factdb/datalog/workload"
)

// RunOptions holds flags for the run command
type RunOptions struct {
	*RootOptions
	Dump    bool
	Indices bool
	Metrics bool
}

// NewRunCommand creates the run command
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <workload.yaml>",
		Short: "Load a workload and run its lookups",
		Long: `Run builds a database from the relations and patterns of a workload
file, loads its facts in parallel batches and prints the result of
every query.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts.Config)
			if err != nil {
				return err
			}
			return runWorkload(cmd, cfg, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Dump, "dump", false, "print every relation after loading")
	cmd.Flags().BoolVar(&opts.Indices, "indices", false, "with --dump, print every index rather than only the master")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print prometheus metrics after the run")

	return cmd
}

func runWorkload(cmd *cobra.Command, cfg *Config, opts *RunOptions, path string) error {
	out := cmd.OutOrStdout()

	w, err := workload.Load(path)
	if err != nil {
		return err
	}

	terms := datalog.NewTermTable()
	collector := metrics.NewCollector()
	b := factdb.NewBuilder(nil, cfg.Options(terms, cmd.ErrOrStderr(), collector.Handler()))

	queries, err := w.Register(b, terms)
	if err != nil {
		return err
	}
	db, err := b.Build()
	if err != nil {
		return err
	}
	defer db.Close()
	collector.Observe(db)

	batches, err := w.Batches(terms, cfg.BatchSize)
	if err != nil {
		return err
	}

	start := time.Now()
	added, err := factdb.LoadParallel(cmd.Context(), db, batches, cfg.Workers)
	if err != nil {
		return err
	}
	heading := color.New(color.Bold)
	heading.Fprintf(out, "Loaded %d facts into %d relations", added, len(db.Symbols()))
	fmt.Fprintf(out, " (%s backend, %s)\n", db.Backend(), time.Since(start).Round(time.Microsecond))

	tf := factdb.NewTableFormatter()
	for _, q := range queries {
		results, err := q.Run(db)
		if err != nil {
			return fmt.Errorf("query %s %s %s: %w", q.Symbol, q.Pattern, q.Source, err)
		}
		fmt.Fprintln(out)
		heading.Fprintf(out, "%s %s %s", q.Symbol, q.Pattern, q.Source)
		fmt.Fprintf(out, " => %d results\n\n", len(results))
		fmt.Fprint(out, tf.FormatTuples(factdb.ColumnHeaders(q.Symbol.Arity), results))
	}

	if opts.Dump {
		dump, err := db.FormatRelations(!opts.Indices)
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		fmt.Fprint(out, dump)
	}

	if opts.Metrics {
		fmt.Fprintln(out)
		return writeMetrics(out, collector)
	}
	return nil
}

func writeMetrics(w io.Writer, c prometheus.Collector) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
