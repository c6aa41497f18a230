// Package predictor collects SRL annotations from a prediction source: a
// remote HTTP service, the statistical baseline or a local ONNX model.
package predictor

import (
	"context"
	"errors"

	"github.com/jamesainslie/go-srl/dataset"
)

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrUnavailable indicates the prediction service could not be reached.
	// It is the only error WaitReady retries.
	ErrUnavailable = errors.New("predictor: service unavailable")

	// ErrMalformedResponse indicates a response without usable predictions.
	ErrMalformedResponse = errors.New("predictor: malformed response")

	// ErrStatus indicates a non-2xx HTTP response.
	ErrStatus = errors.New("predictor: unexpected status")
)

// Predictor annotates one sentence.
//
// When in.Predicates is set the predicates are given and only senses and
// roles are requested; implementations that cannot honour that may ignore
// it.
type Predictor interface {
	Predict(ctx context.Context, in dataset.Input) (dataset.Annotation, error)
}

// Func adapts a function to the Predictor interface.
type Func func(ctx context.Context, in dataset.Input) (dataset.Annotation, error)

// Predict calls f.
func (f Func) Predict(ctx context.Context, in dataset.Input) (dataset.Annotation, error) {
	return f(ctx, in)
}
