// Package vocab maps words, POS tags and SRL labels to the integer ids used
// by tagging models.
//
// Feature ids reserve 0 for padding and 1 for unknown items; known items
// start at 2. Label ids reserve 0 for the null tag; label k (1-based) is the
// k-th entry of the label list.
package vocab

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Reserved feature ids.
const (
	PadID     int64 = 0
	UnknownID int64 = 1
)

const firstFeatureID = 2

// ErrNotFound indicates the vocabulary file does not exist.
var ErrNotFound = errors.New("vocab: file not found")

// file is the on-disk vocabulary layout.
type file struct {
	Words     []string `json:"words"`
	POS       []string `json:"pos"`
	Senses    []string `json:"senses"`
	Roles     []string `json:"roles"`
	Lowercase bool     `json:"lowercase"`
}

// Vocabulary holds feature and label vocabularies for one model.
type Vocabulary struct {
	words     map[string]int64
	pos       map[string]int64
	senses    []string
	roles     []string
	lowercase bool
}

// New builds a vocabulary from item lists. Duplicate items keep their
// first id.
func New(words, pos, senses, roles []string, lowercase bool) *Vocabulary {
	v := &Vocabulary{
		words:     make(map[string]int64, len(words)),
		pos:       make(map[string]int64, len(pos)),
		senses:    senses,
		roles:     roles,
		lowercase: lowercase,
	}
	for _, w := range words {
		w = normalizeWord(w, lowercase)
		if _, ok := v.words[w]; !ok {
			v.words[w] = int64(len(v.words)) + firstFeatureID
		}
	}
	for _, p := range pos {
		if _, ok := v.pos[p]; !ok {
			v.pos[p] = int64(len(v.pos)) + firstFeatureID
		}
	}
	return v
}

// Load reads a JSON vocabulary file.
func Load(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open vocabulary: %w", err)
	}
	defer func() { _ = f.Close() }()

	v, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return v, nil
}

// Decode reads a JSON vocabulary from r.
func Decode(r io.Reader) (*Vocabulary, error) {
	var f file
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode vocabulary: %w", err)
	}
	if len(f.Senses) == 0 || len(f.Roles) == 0 {
		return nil, errors.New("vocabulary needs at least one sense and one role label")
	}
	return New(f.Words, f.POS, f.Senses, f.Roles, f.Lowercase), nil
}

// EncodeWords maps words to feature ids.
func (v *Vocabulary) EncodeWords(words []string) []int64 {
	ids := make([]int64, len(words))
	for i, w := range words {
		ids[i] = lookup(v.words, normalizeWord(w, v.lowercase))
	}
	return ids
}

// EncodePOS maps POS tags to feature ids.
func (v *Vocabulary) EncodePOS(tags []string) []int64 {
	ids := make([]int64, len(tags))
	for i, t := range tags {
		ids[i] = lookup(v.pos, t)
	}
	return ids
}

func lookup(m map[string]int64, key string) int64 {
	if id, ok := m[key]; ok {
		return id
	}
	return UnknownID
}

// Sense returns the sense label for id, or nullTag for id 0 and ids out of
// range.
func (v *Vocabulary) Sense(id int, nullTag string) string {
	return label(v.senses, id, nullTag)
}

// Role returns the role label for id, or nullTag for id 0 and ids out of
// range.
func (v *Vocabulary) Role(id int, nullTag string) string {
	return label(v.roles, id, nullTag)
}

func label(labels []string, id int, nullTag string) string {
	if id < 1 || id > len(labels) {
		return nullTag
	}
	return labels[id-1]
}

// NumSenses returns the width of a sense logit row, null included.
func (v *Vocabulary) NumSenses() int { return len(v.senses) + 1 }

// NumRoles returns the width of a role logit row, null included.
func (v *Vocabulary) NumRoles() int { return len(v.roles) + 1 }
