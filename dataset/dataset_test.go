package dataset

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const samplePath = "../testdata/sample.json"

func TestLoad(t *testing.T) {
	gold, err := Load(samplePath, DefaultNullTag)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(gold) != 3 {
		t.Fatalf("got %d sentences, want 3", len(gold))
	}

	s := gold["1"]
	if s.Len() != 5 {
		t.Errorf("Len() = %d, want 5", s.Len())
	}
	// Integer heads decode as strings.
	if diff := cmp.Diff(Heads{"2", "3", "0", "5", "3"}, s.DependencyHeads); diff != "" {
		t.Errorf("DependencyHeads mismatch (-want +got):\n%s", diff)
	}
	if got := CountPredicates(s.Predicates, DefaultNullTag); got != 2 {
		t.Errorf("CountPredicates() = %d, want 2", got)
	}
	if len(gold["2"].Roles) != 0 {
		t.Errorf("sentence 2 has %d role rows, want 0", len(gold["2"].Roles))
	}
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load("../testdata/nonexistent.json", DefaultNullTag)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode(strings.NewReader(`["not", "an", "object"]`), DefaultNullTag)
	if !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat, got %v", err)
	}
}

func TestDecode_SchemaViolation(t *testing.T) {
	data := `{
		"7": {
			"words": ["a", "b"],
			"lemmas": ["a"],
			"pos_tags": ["X", "X"],
			"dependency_relations": ["R", "R"],
			"dependency_heads": ["0", "1"],
			"predicates": ["_", "_"],
			"roles": []
		}
	}`
	_, err := Decode(strings.NewReader(data), DefaultNullTag)
	if !errors.Is(err, ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
	if !strings.Contains(err.Error(), "sentence 7") {
		t.Errorf("error %q does not name the sentence", err)
	}
}

func TestSentence_Validate(t *testing.T) {
	base := func() Sentence {
		return Sentence{
			Words:               []string{"a", "b", "c"},
			Lemmas:              []string{"a", "b", "c"},
			POSTags:             []string{"X", "V", "X"},
			DependencyRelations: []string{"SBJ", "ROOT", "OBJ"},
			DependencyHeads:     Heads{"2", "0", "2"},
			Annotation: Annotation{
				Predicates: []string{"_", "GO", "_"},
				Roles:      [][]string{{"Agent", "_", "_"}},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Sentence)
		wantErr bool
	}{
		{"valid", func(*Sentence) {}, false},
		{"short pos tags", func(s *Sentence) { s.POSTags = s.POSTags[:2] }, true},
		{"short heads", func(s *Sentence) { s.DependencyHeads = s.DependencyHeads[:1] }, true},
		{"short predicates", func(s *Sentence) { s.Predicates = s.Predicates[:2] }, true},
		{"missing role row", func(s *Sentence) { s.Roles = nil }, true},
		{"extra role row", func(s *Sentence) { s.Roles = append(s.Roles, []string{"_", "_", "_"}) }, true},
		{"short role row", func(s *Sentence) { s.Roles[0] = s.Roles[0][:2] }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base()
			tt.mutate(&s)
			err := s.Validate(DefaultNullTag)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrSchema) {
				t.Errorf("expected ErrSchema, got %v", err)
			}
		})
	}
}

func TestSentence_Input(t *testing.T) {
	gold, err := Load(samplePath, DefaultNullTag)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	s := gold["0"]

	in := s.Input(false)
	if in.Predicates != nil {
		t.Errorf("predict mode input carries predicates %v", in.Predicates)
	}
	if diff := cmp.Diff(s.Words, in.Words); diff != "" {
		t.Errorf("Words mismatch (-want +got):\n%s", diff)
	}

	in = s.Input(true)
	if diff := cmp.Diff(s.Predicates, in.Predicates); diff != "" {
		t.Errorf("Predicates mismatch (-want +got):\n%s", diff)
	}
}

func TestSortIDs(t *testing.T) {
	got := SortIDs([]string{"10", "b", "2", "a", "0"})
	want := []string{"0", "2", "10", "a", "b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SortIDs mismatch (-want +got):\n%s", diff)
	}
}

func TestGold_EncodeRoundTrip(t *testing.T) {
	gold, err := Load(samplePath, DefaultNullTag)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	var buf bytes.Buffer
	if err := gold.Encode(&buf); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	// Embedded annotation fields sit next to the token fields.
	if !strings.Contains(buf.String(), `"predicates"`) {
		t.Errorf("encoded gold lacks predicates:\n%s", buf.String())
	}

	back, err := Decode(&buf, DefaultNullTag)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if diff := cmp.Diff(gold, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
