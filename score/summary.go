package score

import (
	"gonum.org/v1/gonum/stat"

	"github.com/jamesainslie/go-srl/dataset"
)

// PerSentence scores metric m separately for every gold sentence.
func PerSentence(gold dataset.Gold, pred dataset.Predictions, cfg Config, m Metric) (map[string]Result, error) {
	ids, per, err := countSentences(gold, pred, cfg, m)
	if err != nil {
		return nil, err
	}

	out := make(map[string]Result, len(ids))
	for i, id := range ids {
		out[id] = NewResult(per[i])
	}
	return out, nil
}

// Summary is the macro view of per-sentence results.
type Summary struct {
	Sentences int     `json:"sentences"` // sentences with at least one gold or predicted item
	MeanF1    float64 `json:"mean_f1"`
	StdDevF1  float64 `json:"stddev_f1"`
	MinF1     float64 `json:"min_f1"`
	MaxF1     float64 `json:"max_f1"`
}

// Summarize reduces per-sentence results to the mean and sample standard
// deviation of F1. Sentences where nothing was counted are left out.
func Summarize(per map[string]Result) Summary {
	f1 := make([]float64, 0, len(per))
	for _, r := range per {
		if r.Counts().Empty() {
			continue
		}
		f1 = append(f1, r.F1)
	}

	s := Summary{Sentences: len(f1)}
	switch len(f1) {
	case 0:
		return s
	case 1:
		s.MeanF1 = f1[0]
	default:
		s.MeanF1, s.StdDevF1 = stat.MeanStdDev(f1, nil)
	}

	s.MinF1, s.MaxF1 = f1[0], f1[0]
	for _, v := range f1[1:] {
		s.MinF1 = min(s.MinF1, v)
		s.MaxF1 = max(s.MaxF1, v)
	}
	return s
}
