package main

import (
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/wbrown/janus-factdb/datalog"
	"github.com/wbrown/janus-factdb/datalog/factdb"
	"github.com/wbrown/janus-factdb/datalog/storage"
	"golang.org/x/sync/errgroup"
)

// BenchOptions holds flags for the bench command
type BenchOptions struct {
	*RootOptions
	Goroutines int
	Facts      int
	Lookups    int
	Seed       int64
}

// NewBenchCommand creates the bench command
func NewBenchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BenchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Insert and look up facts from many goroutines",
		Long: `Bench builds bench/2 with indices bf and fb, has every goroutine
insert its own facts twice while readers probe both indices, then checks
that the relation holds exactly goroutines*facts distinct facts.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts.Config)
			if err != nil {
				return err
			}
			return runBench(cmd, cfg, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Goroutines, "goroutines", "g", 8, "concurrent writers, and as many readers")
	cmd.Flags().IntVarP(&opts.Facts, "facts", "n", 10000, "distinct facts per writer")
	cmd.Flags().IntVar(&opts.Lookups, "lookups", 1000, "lookups per reader")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 1, "random seed for lookup keys")

	return cmd
}

type benchResult struct {
	phase    string
	ops      int64
	duration time.Duration
}

func runBench(cmd *cobra.Command, cfg *Config, opts *BenchOptions) error {
	if opts.Goroutines < 1 || opts.Facts < 1 {
		return errors.New("goroutines and facts must be positive")
	}
	out := cmd.OutOrStdout()

	terms := datalog.NewTermTable()
	sym := datalog.NewRelationSymbol("bench", 2)
	b := factdb.NewBuilder([]datalog.RelationSymbol{sym}, cfg.Options(terms, cmd.ErrOrStderr()))
	byWriter, err := b.RegisterPattern(sym, datalog.MustParsePattern("bf"))
	if err != nil {
		return err
	}
	bySeq, err := b.RegisterPattern(sym, datalog.MustParsePattern("fb"))
	if err != nil {
		return err
	}
	db, err := b.Build()
	if err != nil {
		return err
	}
	defer db.Close()

	// Terms are interned up front so writers only touch the database.
	writers := make([]datalog.Term, opts.Goroutines)
	for i := range writers {
		writers[i] = terms.Int(int64(i))
	}
	seqs := make([]datalog.Term, opts.Facts)
	for i := range seqs {
		seqs[i] = terms.Int(int64(i))
	}

	var inserted, lookups, found atomic.Int64
	g, ctx := errgroup.WithContext(cmd.Context())
	start := time.Now()

	for w := 0; w < opts.Goroutines; w++ {
		w := w
		g.Go(func() error {
			for pass := 0; pass < 2; pass++ {
				for _, seq := range seqs {
					if err := ctx.Err(); err != nil {
						return err
					}
					if _, err := db.Add(sym, datalog.Tuple{writers[w], seq}); err != nil {
						return err
					}
					inserted.Add(1)
				}
			}
			return nil
		})
	}

	for r := 0; r < opts.Goroutines; r++ {
		rng := rand.New(rand.NewSource(opts.Seed + int64(r)))
		g.Go(func() error {
			for i := 0; i < opts.Lookups; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				var key datalog.Tuple
				handle := byWriter
				if i%2 == 0 {
					key = datalog.Tuple{writers[rng.Intn(len(writers))], nil}
				} else {
					key = datalog.Tuple{nil, seqs[rng.Intn(len(seqs))]}
					handle = bySeq
				}
				it, err := db.Get(sym, key, handle)
				if err != nil {
					return err
				}
				results, err := storage.Collect(it)
				if err != nil {
					return err
				}
				lookups.Add(1)
				found.Add(int64(len(results)))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	distinct, err := db.CountDistinct(sym)
	if err != nil {
		return err
	}
	dups, err := db.CountDuplicates(sym)
	if err != nil {
		return err
	}
	want := int64(opts.Goroutines) * int64(opts.Facts)

	heading := color.New(color.Bold)
	heading.Fprintf(out, "bench/2 on %s backend: %d writers, %d readers\n\n", db.Backend(), opts.Goroutines, opts.Goroutines)
	for _, r := range []benchResult{
		{phase: "insert", ops: inserted.Load(), duration: elapsed},
		{phase: "lookup", ops: lookups.Load(), duration: elapsed},
	} {
		fmt.Fprintf(out, "  %-7s %10d ops  %12.0f ops/s\n", r.phase, r.ops, float64(r.ops)/r.duration.Seconds())
	}
	fmt.Fprintf(out, "  matched %d tuples, %d distinct, %d duplicates across indices\n\n", found.Load(), distinct, dups)

	if distinct != want {
		color.New(color.FgRed).Fprintf(out, "FAIL")
		fmt.Fprintf(out, " expected %d distinct facts\n", want)
		return fmt.Errorf("expected %d distinct facts, found %d", want, distinct)
	}
	color.New(color.FgGreen).Fprint(out, "OK")
	fmt.Fprintf(out, " %d distinct facts in %s\n", distinct, elapsed.Round(time.Millisecond))
	return nil
}
