package score

import (
	"fmt"

	"github.com/jamesainslie/go-srl/dataset"
)

// Slot is one token position where gold, prediction or both carry a label.
//
// GoldIndex and PredIndex are occurrence cursors: the number of non-null
// labels seen on that side before this token. They index the dense role
// lists of an annotation. A cursor is -1 when that side is null here.
type Slot struct {
	Token     int
	Gold      string
	Pred      string
	GoldIndex int
	PredIndex int
}

// HasGold reports whether the gold side carries a label.
func (s Slot) HasGold() bool { return s.GoldIndex >= 0 }

// HasPred reports whether the predicted side carries a label.
func (s Slot) HasPred() bool { return s.PredIndex >= 0 }

// Align walks gold and pred position by position with two independent
// cursors. Positions where both sides are null are dropped.
func Align(gold, pred []string, nullTag string) ([]Slot, error) {
	if len(gold) != len(pred) {
		return nil, fmt.Errorf("%w: %d gold labels, %d predicted", dataset.ErrSchema, len(gold), len(pred))
	}

	var slots []Slot
	gIdx, pIdx := 0, 0
	for i := range gold {
		g, p := gold[i] != nullTag, pred[i] != nullTag
		if !g && !p {
			continue
		}

		s := Slot{Token: i, Gold: gold[i], Pred: pred[i], GoldIndex: -1, PredIndex: -1}
		if g {
			s.GoldIndex = gIdx
			gIdx++
		}
		if p {
			s.PredIndex = pIdx
			pIdx++
		}
		slots = append(slots, s)
	}
	return slots, nil
}

// compare classifies one pair of labels. With labeled set, two non-null
// labels that differ count as both a false positive and a false negative.
func compare(gold, pred, nullTag string, labeled bool) Counts {
	g, p := gold != nullTag, pred != nullTag
	switch {
	case g && p:
		if !labeled || gold == pred {
			return Counts{TruePositives: 1}
		}
		return Counts{FalsePositives: 1, FalseNegatives: 1}
	case p:
		return Counts{FalsePositives: 1}
	case g:
		return Counts{FalseNegatives: 1}
	}
	return Counts{}
}
