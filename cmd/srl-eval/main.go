// Command srl-eval scores a semantic role labeling system against a gold
// dataset.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/go-srl/internal/config"
)

// Set by the linker.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "srl-eval: %v\n", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	logLevel   string
	nullTag    string
	workers    int
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "srl-eval",
		Short:         "Evaluate semantic role labeling predictions",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&opts.nullTag, "null-tag", "", `tag meaning "no predicate" and "no role"`)
	flags.IntVar(&opts.workers, "workers", 0, "goroutines used for scoring (0: config or CPU count)")

	cmd.AddCommand(
		newRunCmd(opts),
		newScoreCmd(opts),
		newConvertCmd(opts),
	)
	return cmd
}

// settings loads the configuration file and applies the flags the user set.
func (o *rootOptions) settings(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("null-tag") {
		cfg.NullTag = o.nullTag
	}
	if flags.Changed("workers") {
		cfg.Workers = o.workers
	}
	return cfg, nil
}

func newLogger(level string) (*slog.Logger, error) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}
