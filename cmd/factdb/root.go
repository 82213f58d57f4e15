package main

import (
	"github.com/spf13/cobra"
)

// RootOptions holds the flags shared by every subcommand
type RootOptions struct {
	Config      string
	Backend     string
	KeyEncoding string
	Workers     int
	BatchSize   int
	Verbose     bool
	LogFormat   string
}

// NewRootCommand creates the factdb command tree
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "factdb",
		Short: "Indexed fact database for Datalog relations",
		Long: `factdb materializes one ordered index per binding pattern of each
relation and keeps them consistent under concurrent insertion.

Settings come from flags, then FACTDB_* environment variables, then an
optional config file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.Config, "config", "", "config file (yaml, json or toml)")
	flags.StringVar(&opts.Backend, "backend", "btree", "storage backend: btree or badger")
	flags.StringVar(&opts.KeyEncoding, "key-encoding", "binary", "badger key encoding: binary or l85")
	flags.IntVar(&opts.Workers, "workers", 0, "parallel insert workers (0 = one per CPU)")
	flags.IntVar(&opts.BatchSize, "batch-size", 100, "facts per insert batch")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "print database annotations")
	flags.StringVar(&opts.LogFormat, "log-format", "text", "annotation format when verbose: text or json")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewBenchCommand(opts))

	return cmd
}
