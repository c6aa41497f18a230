package score

import "github.com/jamesainslie/go-srl/dataset"

// PredicateIdentification scores which tokens were marked as predicates,
// ignoring their sense labels.
func PredicateIdentification(gold dataset.Gold, pred dataset.Predictions, cfg Config) (Result, error) {
	return MetricPredicateIdentification.Score(gold, pred, cfg)
}

// PredicateDisambiguation scores predicate sense labels. A predicate found
// with the wrong sense counts as both a false positive and a false negative.
func PredicateDisambiguation(gold dataset.Gold, pred dataset.Predictions, cfg Config) (Result, error) {
	return MetricPredicateDisambiguation.Score(gold, pred, cfg)
}

func predicateCounts(labeled bool) sentenceScorer {
	return func(gold dataset.Sentence, pred dataset.Annotation, nullTag string) (Counts, error) {
		slots, err := Align(gold.Predicates, pred.Predicates, nullTag)
		if err != nil {
			return Counts{}, err
		}

		var c Counts
		for _, s := range slots {
			c = c.Add(compare(s.Gold, s.Pred, nullTag, labeled))
		}
		return c, nil
	}
}
