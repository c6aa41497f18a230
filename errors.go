package srl

import (
	"errors"

	"github.com/jamesainslie/go-srl/dataset"
	"github.com/jamesainslie/go-srl/score"
)

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrNoPredictor indicates New was called without a prediction source.
	ErrNoPredictor = errors.New("srl: no predictor")

	// ErrMissingPrediction indicates a gold sentence has no prediction.
	ErrMissingPrediction = score.ErrMissingPrediction

	// ErrSchema indicates a sentence or prediction violates the data schema.
	ErrSchema = dataset.ErrSchema
)
