package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	srl "github.com/jamesainslie/go-srl"
	"github.com/jamesainslie/go-srl/dataset"
	"github.com/jamesainslie/go-srl/internal/config"
	"github.com/jamesainslie/go-srl/internal/telemetry"
	"github.com/jamesainslie/go-srl/predictor"
	"github.com/jamesainslie/go-srl/report"
	"github.com/jamesainslie/go-srl/snapshot"
)

type outputOptions struct {
	json    bool
	summary bool
}

func (o *outputOptions) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.json, "json", false, "write the report as JSON")
	cmd.Flags().BoolVar(&o.summary, "summary", false, "also print per-sentence macro summaries")
}

func (o *outputOptions) write(w io.Writer, rep *srl.Report) error {
	if o.json {
		return report.WriteJSON(w, rep)
	}
	if err := report.WriteTables(w, rep.Results); err != nil {
		return err
	}
	if o.summary {
		return report.WriteSummary(w, rep.Macro)
	}
	return nil
}

type runOptions struct {
	endpoint    string
	mode        string
	concurrency int
	timeout     time.Duration
	attempts    int
	delay       time.Duration
	progress    bool
	trace       bool
	noWait      bool
	save        string
	output      outputOptions
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run GOLD",
		Short: "Query a prediction service for every gold sentence and score the answers",
		Example: `  srl-eval run testdata/sample.json
  srl-eval run --endpoint http://localhost:9000 --predicate-mode given --save preds.pb dev.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.settings(cmd)
			if err != nil {
				return err
			}
			opts.apply(cmd, &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runEval(cmd, cfg, opts, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.endpoint, "endpoint", "", "prediction service URL")
	flags.StringVar(&opts.mode, "predicate-mode", "", "predict or given")
	flags.IntVar(&opts.concurrency, "concurrency", 0, "prediction requests in flight")
	flags.DurationVar(&opts.timeout, "timeout", 0, "per-request timeout")
	flags.IntVar(&opts.attempts, "retries", 0, "readiness probes before giving up")
	flags.DurationVar(&opts.delay, "retry-delay", 0, "pause between readiness probes")
	flags.BoolVar(&opts.progress, "progress", false, "show a progress bar on stderr")
	flags.BoolVar(&opts.trace, "trace", false, "export OpenTelemetry spans to stderr")
	flags.BoolVar(&opts.noWait, "no-wait", false, "skip the readiness probe")
	flags.StringVar(&opts.save, "save", "", "write the collected predictions to this snapshot file")
	opts.output.register(cmd)
	return cmd
}

func (o *runOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		cfg.Endpoint = o.endpoint
	}
	if flags.Changed("predicate-mode") {
		cfg.PredicateMode = o.mode
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = o.concurrency
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout = o.timeout
	}
	if flags.Changed("retries") {
		cfg.Retry.Attempts = o.attempts
	}
	if flags.Changed("retry-delay") {
		cfg.Retry.Delay = o.delay
	}
	if flags.Changed("progress") {
		cfg.Progress = o.progress
	}
	if flags.Changed("trace") {
		cfg.Trace = o.trace
	}
}

func runEval(cmd *cobra.Command, cfg config.Config, opts *runOptions, goldPath string) (err error) {
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Trace {
		shutdown, terr := telemetry.Init(os.Stderr, "srl-eval", version)
		if terr != nil {
			return fmt.Errorf("tracing: %w", terr)
		}
		defer func() {
			if serr := shutdown(context.Background()); serr != nil && err == nil {
				err = fmt.Errorf("flush spans: %w", serr)
			}
		}()
	}

	gold, err := dataset.Load(goldPath, cfg.NullTag)
	if err != nil {
		return err
	}
	logger.Info("gold dataset loaded", "path", goldPath, "sentences", len(gold))

	mode, err := srl.ParsePredicateMode(cfg.PredicateMode)
	if err != nil {
		return err
	}
	client := predictor.NewClient(cfg.Endpoint,
		predictor.WithTimeout(cfg.RequestTimeout),
		predictor.WithNullTag(cfg.NullTag),
		predictor.WithClientLogger(logger),
	)

	evalOpts := []srl.Option{
		srl.WithNullTag(cfg.NullTag),
		srl.WithWorkers(cfg.Workers),
		srl.WithConcurrency(cfg.Concurrency),
		srl.WithPredicateMode(mode),
		srl.WithLogger(logger),
	}
	var bar *progressBar
	if cfg.Progress {
		bar = newProgressBar(cmd.ErrOrStderr(), len(gold))
		evalOpts = append(evalOpts, srl.WithProgress(bar.tick))
	}

	ev, err := srl.New(client, evalOpts...)
	if err != nil {
		return err
	}

	if !opts.noWait {
		rc := predictor.RetryConfig{
			MaxAttempts: cfg.Retry.Attempts,
			Delay:       cfg.Retry.Delay,
			Logger:      logger,
		}
		if err := ev.WaitReady(ctx, gold, rc); err != nil {
			return fmt.Errorf("prediction service at %s: %w", cfg.Endpoint, err)
		}
	}

	bar.start()
	pred, err := ev.Predict(ctx, gold)
	bar.stop()
	if err != nil {
		return fmt.Errorf("collecting predictions: %w", err)
	}

	if opts.save != "" {
		if err := snapshot.Save(opts.save, pred); err != nil {
			return err
		}
		logger.Info("predictions saved", "path", opts.save)
	}

	rep, err := ev.Report(ctx, gold, pred)
	if err != nil {
		return err
	}
	return opts.output.write(cmd.OutOrStdout(), rep)
}
