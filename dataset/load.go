package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/samber/lo"
)

// Load reads a gold dataset file: one JSON object mapping sentence ids to
// sentence records. Every sentence is validated.
func Load(path, nullTag string) (Gold, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	gold, err := Decode(f, nullTag)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return gold, nil
}

// Decode reads and validates a gold dataset from r.
func Decode(r io.Reader, nullTag string) (Gold, error) {
	var gold Gold
	if err := json.NewDecoder(r).Decode(&gold); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if err := gold.Validate(nullTag); err != nil {
		return nil, err
	}
	return gold, nil
}

// LoadPredictions reads a predictions file: one JSON object mapping
// sentence ids to annotations. Roles may be dense or keyed by token index.
func LoadPredictions(path, nullTag string) (Predictions, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open predictions: %w", err)
	}
	defer func() { _ = f.Close() }()

	preds, err := DecodePredictions(f, nullTag)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return preds, nil
}

// DecodePredictions reads predictions from r and normalizes their roles.
func DecodePredictions(r io.Reader, nullTag string) (Predictions, error) {
	var raw map[string]RawAnnotation
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}

	preds := make(Predictions, len(raw))
	for _, id := range SortIDs(lo.Keys(raw)) {
		a, err := raw[id].Normalize(nullTag)
		if err != nil {
			return nil, fmt.Errorf("sentence %s: %w", id, err)
		}
		preds[id] = a
	}
	return preds, nil
}

// Encode writes gold as indented JSON.
func (g Gold) Encode(w io.Writer) error {
	return encode(w, g)
}

// Encode writes predictions as indented JSON with dense roles.
func (p Predictions) Encode(w io.Writer) error {
	return encode(w, p)
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
