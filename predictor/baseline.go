package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"slices"
	"sync"

	"github.com/jamesainslie/go-srl/dataset"
)

// Ratio counts how often a feature value was positive in training data.
type Ratio struct {
	Positive int `json:"positive"`
	Total    int `json:"total"`
}

// Probability returns Positive/Total, or 0 for an empty ratio.
func (r Ratio) Probability() float64 {
	if r.Total <= 0 {
		return 0
	}
	return float64(r.Positive) / float64(r.Total)
}

// BaselineStats holds the statistics the baseline samples from.
type BaselineStats struct {
	// PredicateIdentification is keyed by POS tag.
	PredicateIdentification map[string]Ratio `json:"predicate_identification"`
	// PredicateDisambiguation maps a lemma to its most frequent sense.
	PredicateDisambiguation map[string]string `json:"predicate_disambiguation"`
	// ArgumentIdentification is keyed by dependency relation.
	ArgumentIdentification map[string]Ratio `json:"argument_identification"`
	// ArgumentClassification maps a dependency relation to its most
	// frequent role.
	ArgumentClassification map[string]string `json:"argument_classification"`
}

// LoadBaselineStats reads baseline statistics from a JSON file.
func LoadBaselineStats(path string) (BaselineStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BaselineStats{}, fmt.Errorf("read baseline stats: %w", err)
	}
	var stats BaselineStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return BaselineStats{}, fmt.Errorf("decode baseline stats %s: %w", path, err)
	}
	if stats.PredicateIdentification == nil || stats.ArgumentIdentification == nil {
		return BaselineStats{}, errors.New("baseline stats need predicate_identification and argument_identification")
	}
	return stats, nil
}

// Baseline is the reference statistical predictor.
//
// A token becomes a predicate with the probability observed for its POS tag
// and takes the most frequent sense of its lemma; lemmas without a known
// sense are dropped. A token becomes an argument with the probability
// observed for its dependency relation and takes that relation's most
// frequent role. Every predicate receives the same role row.
type Baseline struct {
	stats   BaselineStats
	nullTag string

	mu  sync.Mutex
	rng *rand.Rand
}

// NewBaseline creates a baseline drawing from a generator seeded with seed.
func NewBaseline(stats BaselineStats, seed uint64, nullTag string) *Baseline {
	if nullTag == "" {
		nullTag = dataset.DefaultNullTag
	}
	return &Baseline{
		stats:   stats,
		nullTag: nullTag,
		rng:     rand.New(rand.NewPCG(seed, seed)),
	}
}

// Predict annotates one sentence. Given predicates are kept as they are.
func (b *Baseline) Predict(ctx context.Context, in dataset.Input) (dataset.Annotation, error) {
	if err := ctx.Err(); err != nil {
		return dataset.Annotation{}, err
	}
	n := len(in.Words)
	if len(in.POSTags) != n || len(in.Lemmas) != n || len(in.DependencyRelations) != n {
		return dataset.Annotation{}, fmt.Errorf("%w: token fields differ in length", dataset.ErrSchema)
	}
	if in.Predicates != nil && len(in.Predicates) != n {
		return dataset.Annotation{}, fmt.Errorf("%w: %d given predicates for %d tokens", dataset.ErrSchema, len(in.Predicates), n)
	}

	// One draw sequence per sentence keeps runs reproducible.
	b.mu.Lock()
	defer b.mu.Unlock()

	predicates := slices.Clone(in.Predicates)
	if predicates == nil {
		predicates = b.predicates(in)
	}
	row := b.roleRow(in)

	m := dataset.CountPredicates(predicates, b.nullTag)
	roles := make([][]string, m)
	for k := range roles {
		roles[k] = slices.Clone(row)
	}
	return dataset.Annotation{Predicates: predicates, Roles: roles}, nil
}

func (b *Baseline) predicates(in dataset.Input) []string {
	predicates := make([]string, len(in.Words))
	for i, pos := range in.POSTags {
		predicates[i] = b.nullTag
		if !b.draw(b.stats.PredicateIdentification[pos]) {
			continue
		}
		if sense, ok := b.stats.PredicateDisambiguation[in.Lemmas[i]]; ok {
			predicates[i] = sense
		}
	}
	return predicates
}

func (b *Baseline) roleRow(in dataset.Input) []string {
	row := make([]string, len(in.Words))
	for i, rel := range in.DependencyRelations {
		row[i] = b.nullTag
		if !b.draw(b.stats.ArgumentIdentification[rel]) {
			continue
		}
		if role, ok := b.stats.ArgumentClassification[rel]; ok {
			row[i] = role
		}
	}
	return row
}

// draw reports true with probability r.Probability(). Caller holds mu.
func (b *Baseline) draw(r Ratio) bool {
	return b.rng.Float64() < r.Probability()
}
