package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/wbrown/janus-factdb/datalog"
	"github.com/wbrown/janus-factdb/datalog/annotations"
	"github.com/wbrown/janus-factdb/datalog/factdb"
	"github.com/wbrown/janus-factdb/datalog/storage"
)

// EnvPrefix prefixes every environment override, e.g. FACTDB_BACKEND
const EnvPrefix = "FACTDB"

// Config is the resolved configuration of one command invocation
type Config struct {
	Backend       string `mapstructure:"backend"`
	KeyEncoding   string `mapstructure:"key-encoding"`
	Workers       int    `mapstructure:"workers"`
	BatchSize     int    `mapstructure:"batch-size"`
	BTreeDegree   int    `mapstructure:"btree-degree"`
	ScanBatchSize int    `mapstructure:"scan-batch-size"`
	Verbose       bool   `mapstructure:"verbose"`
	LogFormat     string `mapstructure:"log-format"`
}

// loadConfig layers explicit flags over FACTDB_* variables over the config
// file over flag defaults.
func loadConfig(cmd *cobra.Command, path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("btree-degree", storage.DefaultBTreeDegree)
	v.SetDefault("scan-batch-size", storage.DefaultScanBatchSize)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := storage.ParseBackend(c.Backend); err != nil {
		return err
	}
	if _, err := storage.ParseKeyEncoding(c.KeyEncoding); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (use text or json)", c.LogFormat)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("batch size must not be negative, got %d", c.BatchSize)
	}
	return nil
}

// Options builds database options. Annotations go to the verbose sink on
// errOut plus any extra handlers; with neither the collector stays nil.
func (c *Config) Options(terms datalog.TermResolver, errOut io.Writer, extra ...annotations.Handler) factdb.Options {
	backend, _ := storage.ParseBackend(c.Backend)
	encoding, _ := storage.ParseKeyEncoding(c.KeyEncoding)

	opts := factdb.DefaultOptions()
	opts.Backend = backend
	opts.KeyEncoding = encoding
	opts.BTreeDegree = c.BTreeDegree
	opts.ScanBatchSize = c.ScanBatchSize
	opts.Terms = terms

	var handlers []annotations.Handler
	if c.Verbose {
		handlers = append(handlers, c.verboseHandler(errOut))
	}
	for _, h := range extra {
		if h != nil {
			handlers = append(handlers, h)
		}
	}
	if len(handlers) > 0 {
		opts.Collector = annotations.NewStreamingCollector(annotations.Tee(handlers...))
	}
	return opts
}

func (c *Config) verboseHandler(w io.Writer) annotations.Handler {
	if c.LogFormat == "json" {
		logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
		return annotations.SlogHandler(logger)
	}
	return annotations.ConsoleHandler(w)
}
