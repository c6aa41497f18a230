package score

import "github.com/jamesainslie/go-srl/dataset"

// ArgumentIdentification scores which tokens were marked as arguments of
// each predicate, ignoring role labels.
//
// Role rows are looked up by predicate occurrence, so a gold predicate the
// prediction missed turns all of its arguments into false negatives, and a
// spurious predicted predicate turns all of its arguments into false
// positives.
func ArgumentIdentification(gold dataset.Gold, pred dataset.Predictions, cfg Config) (Result, error) {
	return MetricArgumentIdentification.Score(gold, pred, cfg)
}

// ArgumentClassification scores role labels. Alignment is the same as for
// ArgumentIdentification; an argument found with the wrong role counts as
// both a false positive and a false negative.
func ArgumentClassification(gold dataset.Gold, pred dataset.Predictions, cfg Config) (Result, error) {
	return MetricArgumentClassification.Score(gold, pred, cfg)
}

func argumentCounts(labeled bool) sentenceScorer {
	return func(gold dataset.Sentence, pred dataset.Annotation, nullTag string) (Counts, error) {
		slots, err := Align(gold.Predicates, pred.Predicates, nullTag)
		if err != nil {
			return Counts{}, err
		}

		var c Counts
		for _, s := range slots {
			var goldRow, predRow []string
			if s.HasGold() {
				goldRow = gold.Roles[s.GoldIndex]
			}
			if s.HasPred() {
				predRow = pred.Roles[s.PredIndex]
			}
			c = c.Add(compareRows(goldRow, predRow, gold.Len(), nullTag, labeled))
		}
		return c, nil
	}
}

// compareRows compares two role rows token by token. A nil row stands for
// a predicate absent on that side: every label of the other row counts
// against it.
func compareRows(gold, pred []string, n int, nullTag string, labeled bool) Counts {
	var c Counts
	for i := 0; i < n; i++ {
		g, p := nullTag, nullTag
		if gold != nil {
			g = gold[i]
		}
		if pred != nil {
			p = pred[i]
		}
		c = c.Add(compare(g, p, nullTag, labeled))
	}
	return c
}
