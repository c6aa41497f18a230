package predictor

import (
	"context"
	"fmt"
	"slices"

	"github.com/jamesainslie/go-srl/dataset"
	"github.com/jamesainslie/go-srl/inference"
	"github.com/jamesainslie/go-srl/vocab"
)

// ONNX predicts with a local tagging model.
//
// A pass with an all-zero predicate mask yields sense logits for every
// token; a token whose best sense is not null is a predicate. Each predicate
// then gets its own pass with a one-hot mask to yield its role row.
type ONNX struct {
	pool    *inference.Pool
	vocab   *vocab.Vocabulary
	nullTag string
}

// NewONNX creates a predictor over pool. The predictor owns the pool.
func NewONNX(pool *inference.Pool, v *vocab.Vocabulary, nullTag string) *ONNX {
	if nullTag == "" {
		nullTag = dataset.DefaultNullTag
	}
	return &ONNX{pool: pool, vocab: v, nullTag: nullTag}
}

// Predict annotates one sentence. Given predicates skip the sense pass.
func (o *ONNX) Predict(ctx context.Context, in dataset.Input) (dataset.Annotation, error) {
	n := len(in.Words)
	if n == 0 {
		return dataset.Annotation{Predicates: []string{}, Roles: [][]string{}}, nil
	}
	if len(in.POSTags) != n {
		return dataset.Annotation{}, fmt.Errorf("%w: %d pos tags for %d words", dataset.ErrSchema, len(in.POSTags), n)
	}

	base := inference.Input{
		WordIDs: o.vocab.EncodeWords(in.Words),
		POSIDs:  o.vocab.EncodePOS(in.POSTags),
	}

	predicates := slices.Clone(in.Predicates)
	if predicates == nil {
		out, err := o.infer(ctx, base, make([]int64, n))
		if err != nil {
			return dataset.Annotation{}, fmt.Errorf("sense pass: %w", err)
		}
		predicates = make([]string, n)
		for i, logits := range out.Senses {
			predicates[i] = o.vocab.Sense(argmax(logits), o.nullTag)
		}
	} else if len(predicates) != n {
		return dataset.Annotation{}, fmt.Errorf("%w: %d given predicates for %d words", dataset.ErrSchema, len(predicates), n)
	}

	roles := make([][]string, 0, dataset.CountPredicates(predicates, o.nullTag))
	for i, p := range predicates {
		if p == o.nullTag {
			continue
		}
		mask := make([]int64, n)
		mask[i] = 1
		out, err := o.infer(ctx, base, mask)
		if err != nil {
			return dataset.Annotation{}, fmt.Errorf("role pass for token %d: %w", i, err)
		}
		row := make([]string, n)
		for j, logits := range out.Roles {
			row[j] = o.vocab.Role(argmax(logits), o.nullTag)
		}
		roles = append(roles, row)
	}

	return dataset.Annotation{Predicates: predicates, Roles: roles}, nil
}

func (o *ONNX) infer(ctx context.Context, base inference.Input, mask []int64) (inference.Output, error) {
	in := base
	in.PredicateMask = mask
	out, err := o.pool.Infer(ctx, in)
	if err != nil {
		return inference.Output{}, err
	}
	n := in.Len()
	if len(out.Senses) != n || len(out.Roles) != n {
		return inference.Output{}, fmt.Errorf("model returned %d sense and %d role rows for %d tokens", len(out.Senses), len(out.Roles), n)
	}
	return out, nil
}

// Close releases the inference pool.
func (o *ONNX) Close() error {
	return o.pool.Close()
}

// argmax returns the index of the largest logit, the first on ties.
func argmax(logits []float32) int {
	best := 0
	for i, v := range logits {
		if v > logits[best] {
			best = i
		}
	}
	return best
}
