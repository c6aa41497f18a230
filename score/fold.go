package score

import (
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jamesainslie/go-srl/dataset"
)

// sentenceScorer counts one validated sentence.
type sentenceScorer func(gold dataset.Sentence, pred dataset.Annotation, nullTag string) (Counts, error)

// Metric identifies one of the four evaluators.
type Metric int

const (
	MetricPredicateIdentification Metric = iota
	MetricPredicateDisambiguation
	MetricArgumentIdentification
	MetricArgumentClassification
)

// Metrics lists every metric in cascade order.
var Metrics = []Metric{
	MetricPredicateIdentification,
	MetricPredicateDisambiguation,
	MetricArgumentIdentification,
	MetricArgumentClassification,
}

var metricNames = map[Metric]string{
	MetricPredicateIdentification: "predicate identification",
	MetricPredicateDisambiguation: "predicate disambiguation",
	MetricArgumentIdentification:  "argument identification",
	MetricArgumentClassification:  "argument classification",
}

// String returns the metric name, e.g. "argument classification".
func (m Metric) String() string {
	if name, ok := metricNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Metric(%d)", int(m))
}

// MarshalText encodes the metric as its snake_case name so that maps keyed
// by Metric read well in JSON.
func (m Metric) MarshalText() ([]byte, error) {
	name, ok := metricNames[m]
	if !ok {
		return nil, fmt.Errorf("unknown metric %d", int(m))
	}
	return []byte(strings.ReplaceAll(name, " ", "_")), nil
}

func (m Metric) scorer() sentenceScorer {
	switch m {
	case MetricPredicateIdentification:
		return predicateCounts(false)
	case MetricPredicateDisambiguation:
		return predicateCounts(true)
	case MetricArgumentIdentification:
		return argumentCounts(false)
	case MetricArgumentClassification:
		return argumentCounts(true)
	}
	return nil
}

// Score runs metric m over the whole dataset.
func (m Metric) Score(gold dataset.Gold, pred dataset.Predictions, cfg Config) (Result, error) {
	_, per, err := countSentences(gold, pred, cfg, m)
	if err != nil {
		return Result{}, err
	}

	var total Counts
	for _, c := range per {
		total = total.Add(c)
	}
	return NewResult(total), nil
}

// countSentences scores every gold sentence and returns the ids in natural
// order alongside their counts. A missing prediction or a schema violation
// in any sentence fails the whole run.
func countSentences(gold dataset.Gold, pred dataset.Predictions, cfg Config, m Metric) ([]string, []Counts, error) {
	fn := m.scorer()
	if fn == nil {
		return nil, nil, fmt.Errorf("unknown metric %d", int(m))
	}

	ids := gold.IDs()
	for _, id := range ids {
		if _, ok := pred[id]; !ok {
			return nil, nil, fmt.Errorf("%w: sentence %s", ErrMissingPrediction, id)
		}
	}

	nullTag := cfg.nullTag()
	per := make([]Counts, len(ids))

	var g errgroup.Group
	g.SetLimit(cfg.workers())
	for i, id := range ids {
		g.Go(func() error {
			c, err := scoreSentence(gold[id], pred[id], nullTag, fn)
			if err != nil {
				return fmt.Errorf("sentence %s: %w", id, err)
			}
			per[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("scoring %s: %w", m, err)
	}
	return ids, per, nil
}

func scoreSentence(gold dataset.Sentence, pred dataset.Annotation, nullTag string, fn sentenceScorer) (Counts, error) {
	if err := gold.Validate(nullTag); err != nil {
		return Counts{}, fmt.Errorf("gold: %w", err)
	}
	if err := pred.Validate(gold.Len(), nullTag); err != nil {
		return Counts{}, fmt.Errorf("prediction: %w", err)
	}
	return fn(gold, pred, nullTag)
}

// Results holds the outcome of all four metrics.
type Results struct {
	PredicateIdentification Result `json:"predicate_identification"`
	PredicateDisambiguation Result `json:"predicate_disambiguation"`
	ArgumentIdentification  Result `json:"argument_identification"`
	ArgumentClassification  Result `json:"argument_classification"`
}

// Get returns the result for metric m.
func (r Results) Get(m Metric) Result {
	switch m {
	case MetricPredicateIdentification:
		return r.PredicateIdentification
	case MetricPredicateDisambiguation:
		return r.PredicateDisambiguation
	case MetricArgumentIdentification:
		return r.ArgumentIdentification
	case MetricArgumentClassification:
		return r.ArgumentClassification
	}
	return Result{}
}

// Set stores res as the result for metric m.
func (r *Results) Set(m Metric, res Result) {
	switch m {
	case MetricPredicateIdentification:
		r.PredicateIdentification = res
	case MetricPredicateDisambiguation:
		r.PredicateDisambiguation = res
	case MetricArgumentIdentification:
		r.ArgumentIdentification = res
	case MetricArgumentClassification:
		r.ArgumentClassification = res
	}
}

// All runs the four metrics in cascade order.
func All(gold dataset.Gold, pred dataset.Predictions, cfg Config) (Results, error) {
	var r Results
	for _, m := range Metrics {
		res, err := m.Score(gold, pred, cfg)
		if err != nil {
			return Results{}, err
		}
		r.Set(m, res)
	}
	return r, nil
}
