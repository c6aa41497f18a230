// Package report renders scoring results as text tables or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jamesainslie/go-srl/score"
)

const cellWidth = 20

// Table renders r as a titled 2x2 confusion grid followed by the rates:
//
//	                    |   Gold Positive    |   Gold Negative
//	==============================================================
//	   Pred Positive    |         3          |         1
//	   Pred Negative    |         0          |
func Table(title string, r score.Result) string {
	header := line("", "Gold Positive", "Gold Negative")

	var b strings.Builder
	b.WriteString(strings.ToUpper(title))
	b.WriteString("\n\n")
	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("=", len(header)) + "\n")
	b.WriteString(line("Pred Positive", fmt.Sprint(r.TruePositives), fmt.Sprint(r.FalsePositives)) + "\n")
	b.WriteString(line("Pred Negative", fmt.Sprint(r.FalseNegatives), "") + "\n")
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Precision = %.4f\n", r.Precision)
	fmt.Fprintf(&b, "Recall    = %.4f\n", r.Recall)
	fmt.Fprintf(&b, "F1 score  = %.4f\n", r.F1)
	b.WriteString("\n\n")
	return b.String()
}

func line(a, b, c string) string {
	return center(a) + "|" + center(b) + "|" + center(c)
}

// center pads s to cellWidth, putting the odd space on the right.
func center(s string) string {
	pad := cellWidth - len(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}

// WriteTables writes one table per metric in cascade order.
func WriteTables(w io.Writer, results score.Results) error {
	for _, m := range score.Metrics {
		if _, err := io.WriteString(w, Table(m.String(), results.Get(m))); err != nil {
			return fmt.Errorf("write %s table: %w", m, err)
		}
	}
	return nil
}

// WriteSummary writes one line per metric with the macro F1 statistics.
func WriteSummary(w io.Writer, summaries map[score.Metric]score.Summary) error {
	if _, err := fmt.Fprintln(w, "PER-SENTENCE F1"); err != nil {
		return err
	}
	for _, m := range score.Metrics {
		s, ok := summaries[m]
		if !ok {
			continue
		}
		_, err := fmt.Fprintf(w, "%-26s mean %.4f  std %.4f  min %.4f  max %.4f  (%d sentences)\n",
			m.String(), s.MeanF1, s.StdDevF1, s.MinF1, s.MaxF1, s.Sentences)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
