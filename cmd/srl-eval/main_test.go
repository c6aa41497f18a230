package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jamesainslie/go-srl/dataset"
	"github.com/jamesainslie/go-srl/predictor"
	"github.com/jamesainslie/go-srl/server"
	"github.com/jamesainslie/go-srl/snapshot"
)

const (
	goldPath     = "../../testdata/sample.json"
	conllPath    = "../../testdata/sample.conll"
	baselinePath = "../../testdata/baselines.json"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func baselineURL(t *testing.T) string {
	t.Helper()
	stats, err := predictor.LoadBaselineStats(baselinePath)
	if err != nil {
		t.Fatalf("LoadBaselineStats() error = %v", err)
	}
	b := predictor.NewBaseline(stats, 1, dataset.DefaultNullTag)
	srv := httptest.NewServer(server.New(b, server.WithRegistry(prometheus.NewRegistry())))
	t.Cleanup(srv.Close)
	return srv.URL
}

type jsonReport struct {
	Sentences int `json:"sentences"`
	Results   map[string]struct {
		TruePositives  int     `json:"true_positives"`
		FalsePositives int     `json:"false_positives"`
		FalseNegatives int     `json:"false_negatives"`
		F1             float64 `json:"f1"`
	} `json:"results"`
}

func TestRun_JSON(t *testing.T) {
	save := filepath.Join(t.TempDir(), "preds.pb")
	out, err := execute(t, "run",
		"--endpoint", baselineURL(t),
		"--no-wait",
		"--json",
		"--log-level", "error",
		"--save", save,
		goldPath,
	)
	if err != nil {
		t.Fatalf("run error = %v", err)
	}

	var rep jsonReport
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if rep.Sentences != 3 {
		t.Errorf("sentences = %d, want 3", rep.Sentences)
	}
	ac := rep.Results["argument_classification"]
	if ac.TruePositives != 3 || ac.FalsePositives != 6 || ac.FalseNegatives != 2 {
		t.Errorf("argument classification = %+v, want 3/6/2", ac)
	}

	preds, err := snapshot.Load(save, dataset.DefaultNullTag)
	if err != nil {
		t.Fatalf("snapshot.Load() error = %v", err)
	}
	if len(preds) != 3 {
		t.Errorf("snapshot has %d predictions, want 3", len(preds))
	}

	// The saved snapshot re-scores to the same numbers.
	out, err = execute(t, "score", "--json", "--log-level", "error", goldPath, save)
	if err != nil {
		t.Fatalf("score error = %v", err)
	}
	var rescored jsonReport
	if err := json.Unmarshal([]byte(out), &rescored); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if rescored.Results["argument_classification"] != ac {
		t.Errorf("rescored = %+v, want %+v", rescored.Results["argument_classification"], ac)
	}
}

func TestRun_Tables(t *testing.T) {
	out, err := execute(t, "run", "--endpoint", baselineURL(t), "--no-wait", "--summary", "--log-level", "error", goldPath)
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	for _, want := range []string{
		"PREDICATE IDENTIFICATION",
		"PREDICATE DISAMBIGUATION",
		"ARGUMENT IDENTIFICATION",
		"ARGUMENT CLASSIFICATION",
		"Precision = 0.7500",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRun_ServiceDown(t *testing.T) {
	srv := httptest.NewServer(nil)
	url := srv.URL
	srv.Close()

	_, err := execute(t, "run", "--endpoint", url, "--retries", "2", "--retry-delay", "1ms", "--log-level", "error", goldPath)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "not ready after 2 attempts") {
		t.Errorf("error = %v", err)
	}
}

func TestScore_JSONPredictions(t *testing.T) {
	gold, err := dataset.Load(goldPath, dataset.DefaultNullTag)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	pred := make(dataset.Predictions, len(gold))
	for id, s := range gold {
		pred[id] = s.Annotation
	}
	path := filepath.Join(t.TempDir(), "preds.json")
	if err := writeFile(path, pred.Encode); err != nil {
		t.Fatalf("writeFile() error = %v", err)
	}

	out, err := execute(t, "score", "--json", "--log-level", "error", goldPath, path)
	if err != nil {
		t.Fatalf("score error = %v", err)
	}
	var rep jsonReport
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	for name, r := range rep.Results {
		if r.F1 != 1 {
			t.Errorf("%s F1 = %v, want 1", name, r.F1)
		}
	}
}

func TestScore_MissingPrediction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preds.json")
	if err := os.WriteFile(path, []byte(`{"0": {"predicates": ["_", "_", "_", "_", "_"], "roles": []}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := execute(t, "score", "--log-level", "error", goldPath, path)
	if err == nil || !strings.Contains(err.Error(), "missing prediction") {
		t.Errorf("expected missing prediction error, got %v", err)
	}
}

func TestConvert(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gold.json")
	if _, err := execute(t, "convert", conllPath, path); err != nil {
		t.Fatalf("convert error = %v", err)
	}
	gold, err := dataset.Load(path, dataset.DefaultNullTag)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(gold) == 0 {
		t.Fatal("converted dataset is empty")
	}
	if got := gold["0"].Predicates[2]; got != "chase.01" {
		t.Errorf("predicate = %q, want chase.01", got)
	}
}

func TestConvert_Stdout(t *testing.T) {
	out, err := execute(t, "convert", conllPath)
	if err != nil {
		t.Fatalf("convert error = %v", err)
	}
	if !strings.Contains(out, `"chase.01"`) {
		t.Errorf("stdout missing predicate:\n%s", out)
	}
}

func TestConfigFlagOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "srl.yaml")
	if err := os.WriteFile(path, []byte("null_tag: \"O\"\nlog_level: warn\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	sub, _, err := newRootCmd().Find([]string{"score"})
	if err != nil {
		t.Fatal(err)
	}
	if err := sub.ParseFlags([]string{"--null-tag", "-"}); err != nil {
		t.Fatal(err)
	}

	opts := &rootOptions{configPath: path, nullTag: "-"}
	cfg, err := opts.settings(sub)
	if err != nil {
		t.Fatalf("settings() error = %v", err)
	}
	if cfg.NullTag != "-" {
		t.Errorf("NullTag = %q, want flag value", cfg.NullTag)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want file value", cfg.LogLevel)
	}
}
