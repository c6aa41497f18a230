package dataset

import "fmt"

// Validate checks that every per-token field has the same length and that
// the role rows line up with the predicates.
func (s Sentence) Validate(nullTag string) error {
	n := len(s.Words)
	fields := []struct {
		name string
		len  int
	}{
		{"lemmas", len(s.Lemmas)},
		{"pos_tags", len(s.POSTags)},
		{"dependency_relations", len(s.DependencyRelations)},
		{"dependency_heads", len(s.DependencyHeads)},
	}
	for _, f := range fields {
		if f.len != n {
			return fmt.Errorf("%w: %s has %d entries, words has %d", ErrSchema, f.name, f.len, n)
		}
	}
	return s.Annotation.Validate(n, nullTag)
}

// Validate checks a to be scoreable against a sentence of n tokens.
func (a Annotation) Validate(n int, nullTag string) error {
	if len(a.Predicates) != n {
		return fmt.Errorf("%w: predicates has %d entries, want %d", ErrSchema, len(a.Predicates), n)
	}
	m := CountPredicates(a.Predicates, nullTag)
	if len(a.Roles) != m {
		return fmt.Errorf("%w: %d role rows for %d predicates", ErrSchema, len(a.Roles), m)
	}
	for i, row := range a.Roles {
		if len(row) != n {
			return fmt.Errorf("%w: role row %d has %d entries, want %d", ErrSchema, i, len(row), n)
		}
	}
	return nil
}

// Validate checks every sentence of g, reporting the first failure in id
// order.
func (g Gold) Validate(nullTag string) error {
	for _, id := range g.IDs() {
		if err := g[id].Validate(nullTag); err != nil {
			return fmt.Errorf("sentence %s: %w", id, err)
		}
	}
	return nil
}

// Validate checks every gold sentence against its prediction.
// Predictions without a gold counterpart are ignored.
func (p Predictions) Validate(gold Gold, nullTag string) error {
	for _, id := range gold.IDs() {
		a, ok := p[id]
		if !ok {
			continue
		}
		if err := a.Validate(gold[id].Len(), nullTag); err != nil {
			return fmt.Errorf("sentence %s: %w", id, err)
		}
	}
	return nil
}
