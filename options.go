package srl

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/jamesainslie/go-srl/dataset"
)

// PredicateMode selects whether predicates are predicted or given.
type PredicateMode int

const (
	// PredictPredicates sends sentences without predicates; the predictor
	// must find them.
	PredictPredicates PredicateMode = iota

	// GivenPredicates sends the gold predicates with every sentence.
	GivenPredicates
)

// String returns "predict" or "given".
func (m PredicateMode) String() string {
	switch m {
	case PredictPredicates:
		return "predict"
	case GivenPredicates:
		return "given"
	}
	return fmt.Sprintf("PredicateMode(%d)", int(m))
}

// ParsePredicateMode parses "predict" or "given".
func ParsePredicateMode(s string) (PredicateMode, error) {
	switch s {
	case "predict":
		return PredictPredicates, nil
	case "given":
		return GivenPredicates, nil
	}
	return 0, fmt.Errorf("unknown predicate mode %q", s)
}

// Option configures an Evaluator.
type Option func(*config)

type config struct {
	nullTag     string
	workers     int
	concurrency int
	mode        PredicateMode
	logger      *slog.Logger
	progress    func(done, total int)
}

func defaultConfig() config {
	return config{
		nullTag:     dataset.DefaultNullTag,
		workers:     runtime.NumCPU(),
		concurrency: 4,
		mode:        PredictPredicates,
		logger:      slog.Default(),
	}
}

func newConfig(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithNullTag sets the tag meaning "no predicate" and "no role" (default: "_").
func WithNullTag(tag string) Option {
	return func(c *config) {
		if tag != "" {
			c.nullTag = tag
		}
	}
}

// WithWorkers bounds the goroutines used to score sentences
// (default: runtime.NumCPU()).
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithConcurrency bounds the prediction requests in flight (default: 4).
func WithConcurrency(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithPredicateMode sets the predicate mode (default: PredictPredicates).
func WithPredicateMode(m PredicateMode) Option {
	return func(c *config) {
		c.mode = m
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithProgress registers fn to be called after each sentence is predicted.
// It may be called from several goroutines at once.
func WithProgress(fn func(done, total int)) Option {
	return func(c *config) {
		c.progress = fn
	}
}
