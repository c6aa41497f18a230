package dataset

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CoNLL-2009 column positions.
const (
	colForm     = 1
	colLemma    = 2
	colPOS      = 4
	colHead     = 8
	colDeprel   = 10
	colFillPred = 12
	colPred     = 13
	colAPred    = 14
)

// conllEmpty is the placeholder CoNLL-2009 uses for an empty column.
const conllEmpty = "_"

// ReadCoNLL2009 reads sentences in CoNLL-2009 format (one token per line,
// tab-separated columns, blank line between sentences). Sentences get ids
// "0", "1", ... in file order. Empty PRED and APRED columns become nullTag.
func ReadCoNLL2009(r io.Reader, nullTag string) (Gold, error) {
	gold := make(Gold)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		rows      [][]string
		lineNo    int
		startLine int
	)

	flush := func() error {
		if len(rows) == 0 {
			return nil
		}
		s, err := sentenceFromRows(rows, nullTag)
		if err != nil {
			return fmt.Errorf("sentence at line %d: %w", startLine, err)
		}
		gold[strconv.Itoa(len(gold))] = s
		rows = rows[:0]
		return nil
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < colAPred {
			return nil, fmt.Errorf("%w: line %d has %d columns, want at least %d", ErrFormat, lineNo, len(fields), colAPred)
		}
		if len(rows) == 0 {
			startLine = lineNo
		}
		rows = append(rows, fields)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan conll: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return gold, nil
}

func sentenceFromRows(rows [][]string, nullTag string) (Sentence, error) {
	n := len(rows)
	s := Sentence{
		Words:               make([]string, n),
		Lemmas:              make([]string, n),
		POSTags:             make([]string, n),
		DependencyRelations: make([]string, n),
		DependencyHeads:     make(Heads, n),
		Annotation: Annotation{
			Predicates: make([]string, n),
		},
	}

	m := len(rows[0]) - colAPred
	for i, fields := range rows {
		if len(fields)-colAPred != m {
			return Sentence{}, fmt.Errorf("%w: token %d has %d argument columns, want %d", ErrFormat, i+1, len(fields)-colAPred, m)
		}
		s.Words[i] = fields[colForm]
		s.Lemmas[i] = fields[colLemma]
		s.POSTags[i] = fields[colPOS]
		s.DependencyHeads[i] = fields[colHead]
		s.DependencyRelations[i] = fields[colDeprel]

		s.Predicates[i] = nullTag
		if fields[colFillPred] == "Y" && fields[colPred] != conllEmpty {
			s.Predicates[i] = fields[colPred]
		}
	}

	if got := CountPredicates(s.Predicates, nullTag); got != m {
		return Sentence{}, fmt.Errorf("%w: %d predicates but %d argument columns", ErrSchema, got, m)
	}

	s.Roles = make([][]string, m)
	for k := range s.Roles {
		row := make([]string, n)
		for i, fields := range rows {
			row[i] = fields[colAPred+k]
			if row[i] == conllEmpty {
				row[i] = nullTag
			}
		}
		s.Roles[k] = row
	}
	return s, nil
}
