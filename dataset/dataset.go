// Package dataset defines the sentence records exchanged between the gold
// dataset, predictors and scorers.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/samber/lo"
)

// DefaultNullTag marks positions that carry no predicate or no role.
const DefaultNullTag = "_"

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrSchema indicates a record whose per-token fields disagree in length
	// or whose role rows do not line up with its predicates.
	ErrSchema = errors.New("dataset: schema violation")

	// ErrNotFound indicates the dataset file does not exist.
	ErrNotFound = errors.New("dataset: file not found")

	// ErrFormat indicates the file exists but could not be decoded.
	ErrFormat = errors.New("dataset: malformed content")
)

// Annotation holds the labels the scorers compare.
//
// Roles is dense and ordered by predicate occurrence: Roles[k] labels every
// token with respect to the k-th non-null entry of Predicates.
type Annotation struct {
	Predicates []string   `json:"predicates"`
	Roles      [][]string `json:"roles"`
}

// Sentence is one gold record.
type Sentence struct {
	Words               []string `json:"words"`
	Lemmas              []string `json:"lemmas"`
	POSTags             []string `json:"pos_tags"`
	DependencyRelations []string `json:"dependency_relations"`
	DependencyHeads     Heads    `json:"dependency_heads"`

	Annotation
}

// Len returns the token count of the sentence.
func (s Sentence) Len() int {
	return len(s.Words)
}

// Input returns the sentence stripped of gold roles. Gold predicates are
// kept only when withPredicates is set.
func (s Sentence) Input(withPredicates bool) Input {
	in := Input{
		Words:               s.Words,
		Lemmas:              s.Lemmas,
		POSTags:             s.POSTags,
		DependencyRelations: s.DependencyRelations,
		DependencyHeads:     s.DependencyHeads,
	}
	if withPredicates {
		in.Predicates = s.Predicates
	}
	return in
}

// Input is the request payload handed to a predictor.
type Input struct {
	Words               []string `json:"words"`
	Lemmas              []string `json:"lemmas"`
	POSTags             []string `json:"pos_tags"`
	DependencyRelations []string `json:"dependency_relations"`
	DependencyHeads     Heads    `json:"dependency_heads"`
	Predicates          []string `json:"predicates,omitempty"`
}

// Heads holds dependency head indices. Files in the wild encode them as
// strings or as integers; both decode, and they always encode as strings.
type Heads []string

// UnmarshalJSON accepts an array of strings or numbers.
func (h *Heads) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	if items == nil {
		*h = nil
		return nil
	}
	heads := make(Heads, len(items))
	for i, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			heads[i] = s
			continue
		}
		var n json.Number
		if err := json.Unmarshal(item, &n); err != nil {
			return fmt.Errorf("dependency head %d: %w", i, err)
		}
		heads[i] = n.String()
	}
	*h = heads
	return nil
}

// Gold maps sentence ids to gold records.
type Gold map[string]Sentence

// IDs returns the sentence ids in natural order.
func (g Gold) IDs() []string {
	return SortIDs(lo.Keys(g))
}

// Predictions maps sentence ids to predicted annotations.
type Predictions map[string]Annotation

// IDs returns the sentence ids in natural order.
func (p Predictions) IDs() []string {
	return SortIDs(lo.Keys(p))
}

// SortIDs sorts ids in place, numerically when both ids are integers and
// lexically otherwise, and returns the slice.
func SortIDs(ids []string) []string {
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return ids[i] < ids[j]
	})
	return ids
}

// CountPredicates returns the number of non-null entries in predicates.
func CountPredicates(predicates []string, nullTag string) int {
	return CountLabels(predicates, nullTag)
}

// CountLabels returns the number of non-null labels.
func CountLabels(labels []string, nullTag string) int {
	return lo.CountBy(labels, func(l string) bool { return l != nullTag })
}
