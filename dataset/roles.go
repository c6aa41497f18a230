package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// RawAnnotation is an annotation as received from a predictor or a
// predictions file, before its roles are put in canonical form.
//
// Roles may be a dense list ordered by predicate occurrence, or an object
// keyed by the token index of each predicate:
//
//	{"roles": [["Agent", "_"], ["_", "Theme"]]}
//	{"roles": {"1": ["Agent", "_"], "3": ["_", "Theme"]}}
type RawAnnotation struct {
	Predicates []string        `json:"predicates"`
	Roles      json.RawMessage `json:"roles"`
}

// Normalize converts r into an Annotation with dense, occurrence-ordered
// roles. Sparse roles need Predicates to resolve token indices.
func (r RawAnnotation) Normalize(nullTag string) (Annotation, error) {
	a := Annotation{Predicates: r.Predicates}

	raw := bytes.TrimSpace(r.Roles)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return a, nil
	}

	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &a.Roles); err != nil {
			return Annotation{}, fmt.Errorf("%w: roles: %w", ErrFormat, err)
		}
		return a, nil
	case '{':
		var byToken map[string][]string
		if err := json.Unmarshal(raw, &byToken); err != nil {
			return Annotation{}, fmt.Errorf("%w: roles: %w", ErrFormat, err)
		}
		roles, err := densify(byToken, r.Predicates, nullTag)
		if err != nil {
			return Annotation{}, err
		}
		a.Roles = roles
		return a, nil
	}

	return Annotation{}, fmt.Errorf("%w: roles must be a list or an object", ErrFormat)
}

// densify orders a token-keyed role map by predicate occurrence.
func densify(byToken map[string][]string, predicates []string, nullTag string) ([][]string, error) {
	if predicates == nil {
		return nil, fmt.Errorf("%w: roles keyed by token index need predicates", ErrSchema)
	}

	rows := make(map[int][]string, len(byToken))
	for key, row := range byToken {
		idx, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("%w: roles key %q is not a token index", ErrSchema, key)
		}
		if idx < 0 || idx >= len(predicates) || predicates[idx] == nullTag {
			return nil, fmt.Errorf("%w: roles key %d does not point at a predicate", ErrSchema, idx)
		}
		rows[idx] = row
	}

	roles := make([][]string, 0, len(rows))
	for idx, p := range predicates {
		if p == nullTag {
			continue
		}
		row, ok := rows[idx]
		if !ok {
			return nil, fmt.Errorf("%w: no roles for predicate at token %d", ErrSchema, idx)
		}
		roles = append(roles, row)
	}
	return roles, nil
}
