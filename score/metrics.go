// Package score implements the four cascaded SRL evaluators: predicate
// identification, predicate disambiguation, argument identification and
// argument classification.
//
// Every scorer is a pure fold over the gold dataset. Per-sentence counts are
// computed independently and summed, so sentences may be scored in parallel.
package score

import (
	"errors"
	"runtime"

	"github.com/jamesainslie/go-srl/dataset"
)

// ErrMissingPrediction indicates a gold sentence id with no prediction.
var ErrMissingPrediction = errors.New("score: missing prediction")

// Config holds scoring parameters.
type Config struct {
	NullTag string
	Workers int // sentences scored concurrently
}

// DefaultConfig returns default scoring configuration.
func DefaultConfig() Config {
	return Config{
		NullTag: dataset.DefaultNullTag,
		Workers: runtime.NumCPU(),
	}
}

func (c Config) nullTag() string {
	if c.NullTag == "" {
		return dataset.DefaultNullTag
	}
	return c.NullTag
}

func (c Config) workers() int {
	if c.Workers < 1 {
		return 1
	}
	return c.Workers
}

// Counts is the confusion accumulator for one metric.
type Counts struct {
	TruePositives  int
	FalsePositives int
	FalseNegatives int
}

// Add returns the element-wise sum of c and o.
func (c Counts) Add(o Counts) Counts {
	return Counts{
		TruePositives:  c.TruePositives + o.TruePositives,
		FalsePositives: c.FalsePositives + o.FalsePositives,
		FalseNegatives: c.FalseNegatives + o.FalseNegatives,
	}
}

// Empty reports whether nothing was counted.
func (c Counts) Empty() bool {
	return c.TruePositives == 0 && c.FalsePositives == 0 && c.FalseNegatives == 0
}

// Result holds aggregated counts and the rates derived from them.
type Result struct {
	TruePositives  int     `json:"true_positives"`
	FalsePositives int     `json:"false_positives"`
	FalseNegatives int     `json:"false_negatives"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1             float64 `json:"f1"`
}

// NewResult derives precision, recall and F1 from c.
// A rate whose denominator is zero is reported as 0.
func NewResult(c Counts) Result {
	r := Result{
		TruePositives:  c.TruePositives,
		FalsePositives: c.FalsePositives,
		FalseNegatives: c.FalseNegatives,
	}

	tp := c.TruePositives
	if tp+c.FalsePositives > 0 {
		r.Precision = float64(tp) / float64(tp+c.FalsePositives)
	}
	if tp+c.FalseNegatives > 0 {
		r.Recall = float64(tp) / float64(tp+c.FalseNegatives)
	}
	if r.Precision+r.Recall > 0 {
		r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
	}
	return r
}

// Counts returns the raw counts of r.
func (r Result) Counts() Counts {
	return Counts{
		TruePositives:  r.TruePositives,
		FalsePositives: r.FalsePositives,
		FalseNegatives: r.FalseNegatives,
	}
}
