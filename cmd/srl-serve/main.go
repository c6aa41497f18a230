// Command srl-serve exposes an SRL predictor over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/go-srl/dataset"
	"github.com/jamesainslie/go-srl/inference"
	"github.com/jamesainslie/go-srl/internal/config"
	"github.com/jamesainslie/go-srl/predictor"
	"github.com/jamesainslie/go-srl/server"
	"github.com/jamesainslie/go-srl/vocab"
)

// Set by the linker.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const shutdownTimeout = 10 * time.Second

var errNoSource = errors.New("set exactly one of --baseline or --model")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "srl-serve: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	addr      string
	baseline  string
	model     string
	vocab     string
	poolSize  int
	seed      uint64
	nullTag   string
	logLevel  string
	listening func(net.Addr)
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "srl-serve",
		Short: "Serve SRL predictions over HTTP",
		Long: `Serve SRL predictions over HTTP.

POST {"data": sentence} to any path and receive {"data", "predictions"}.
GET /healthz reports liveness and GET /metrics serves Prometheus metrics.`,
		Example: `  srl-serve --baseline testdata/baselines.json
  srl-serve --model srl.onnx --vocab vocab.json --pool-size 4`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level, err := config.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts, logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.addr, "addr", "127.0.0.1:12345", "listen address")
	flags.StringVar(&opts.baseline, "baseline", "", "baseline statistics file")
	flags.StringVar(&opts.model, "model", "", "ONNX model file")
	flags.StringVar(&opts.vocab, "vocab", "", "vocabulary file for --model")
	flags.IntVar(&opts.poolSize, "pool-size", runtime.NumCPU(), "ONNX sessions kept open")
	flags.Uint64Var(&opts.seed, "seed", 0, "baseline random seed (0: derive from the clock)")
	flags.StringVar(&opts.nullTag, "null-tag", dataset.DefaultNullTag, `tag meaning "no predicate" and "no role"`)
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	return cmd
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// openPredictor builds the configured predictor. The returned closer
// releases its resources.
func openPredictor(opts *options, logger *slog.Logger) (predictor.Predictor, io.Closer, error) {
	switch {
	case opts.baseline != "" && opts.model == "":
		stats, err := predictor.LoadBaselineStats(opts.baseline)
		if err != nil {
			return nil, nil, err
		}
		seed := opts.seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		logger.Info("serving baseline", "stats", opts.baseline, "seed", seed)
		return predictor.NewBaseline(stats, seed, opts.nullTag), closerFunc(func() error { return nil }), nil

	case opts.model != "" && opts.baseline == "":
		if opts.vocab == "" {
			return nil, nil, errors.New("--model needs --vocab")
		}
		v, err := vocab.Load(opts.vocab)
		if err != nil {
			return nil, nil, err
		}
		pool, err := inference.NewSessionPool(opts.model, opts.poolSize)
		if err != nil {
			return nil, nil, fmt.Errorf("open model: %w", err)
		}
		logger.Info("serving ONNX model", "model", opts.model, "pool_size", pool.Size())
		p := predictor.NewONNX(pool, v, opts.nullTag)
		return p, p, nil
	}
	return nil, nil, errNoSource
}

func serve(ctx context.Context, opts *options, logger *slog.Logger) (err error) {
	p, closer, err := openPredictor(opts, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closer.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("release predictor: %w", cerr)
		}
	}()

	ln, err := net.Listen("tcp", opts.addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	if opts.listening != nil {
		opts.listening(ln.Addr())
	}

	srv := &http.Server{
		Handler:           server.New(p, server.WithLogger(logger)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", ln.Addr().String(), "version", version)
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
