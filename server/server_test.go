package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jamesainslie/go-srl/dataset"
	"github.com/jamesainslie/go-srl/predictor"
)

func newTestServer(t *testing.T, p predictor.Predictor) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(p, WithRegistry(prometheus.NewRegistry())))
	t.Cleanup(srv.Close)
	return srv
}

func baseline(t *testing.T) predictor.Predictor {
	t.Helper()
	stats, err := predictor.LoadBaselineStats("../testdata/baselines.json")
	if err != nil {
		t.Fatalf("LoadBaselineStats() error = %v", err)
	}
	return predictor.NewBaseline(stats, 1, dataset.DefaultNullTag)
}

func post(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func TestServer_ClientRoundTrip(t *testing.T) {
	gold, err := dataset.Load("../testdata/sample.json", dataset.DefaultNullTag)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	srv := newTestServer(t, baseline(t))

	a, err := predictor.NewClient(srv.URL).Predict(context.Background(), gold["0"].Input(false))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	want := dataset.Annotation{
		Predicates: []string{"_", "_", "CHASE", "_", "_"},
		Roles:      [][]string{{"_", "Agent", "_", "_", "Theme"}},
	}
	if diff := cmp.Diff(want, a); diff != "" {
		t.Errorf("annotation mismatch (-want +got):\n%s", diff)
	}
}

func TestServer_EchoesData(t *testing.T) {
	srv := newTestServer(t, baseline(t))

	body := `{"data": {"words": ["It", "rained"], "lemmas": ["it", "rain"], "pos_tags": ["PRP", "VBD"],
		"dependency_relations": ["SBJ", "ROOT"], "dependency_heads": ["2", "0"]}}`
	resp, data := post(t, srv.URL+"/any/path", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, data)
	}

	var got Response
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if diff := cmp.Diff([]string{"It", "rained"}, got.Data.Words); diff != "" {
		t.Errorf("data not echoed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"_", "WEATHER"}, got.Predictions.Predicates); diff != "" {
		t.Errorf("predicates mismatch (-want +got):\n%s", diff)
	}
	if resp.Header.Get(predictor.RequestIDHeader) == "" {
		t.Error("expected a request id header")
	}
}

func TestServer_RequestIDEcho(t *testing.T) {
	srv := newTestServer(t, baseline(t))

	req, err := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader(`{"data": {}}`))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set(predictor.RequestIDHeader, "req-42")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()

	if got := resp.Header.Get(predictor.RequestIDHeader); got != "req-42" {
		t.Errorf("request id = %q, want req-42", got)
	}
}

func TestServer_BadRequests(t *testing.T) {
	failing := predictor.Func(func(ctx context.Context, in dataset.Input) (dataset.Annotation, error) {
		return dataset.Annotation{}, errors.New("model exploded")
	})
	srv := newTestServer(t, failing)

	tests := []struct {
		name        string
		body        string
		wantMessage string
	}{
		{"not json", `{`, "not valid JSON"},
		{"no data", `{"sentence": {}}`, "no data field"},
		{"predictor error", `{"data": {"words": ["a"]}}`, "model exploded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := post(t, srv.URL, tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
			var got ErrorResponse
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if got.Error != "Bad request" {
				t.Errorf("error = %q, want %q", got.Error, "Bad request")
			}
			if !strings.Contains(got.Message, tt.wantMessage) {
				t.Errorf("message %q does not contain %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, baseline(t))

	req, err := http.NewRequest(http.MethodPut, srv.URL, strings.NewReader(`{"data": {}}`))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t, baseline(t))

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestServer_Metrics(t *testing.T) {
	srv := newTestServer(t, baseline(t))

	post(t, srv.URL, `{"data": {}}`)
	post(t, srv.URL, `{`)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		`srl_predict_requests_total{code="200"} 1`,
		`srl_predict_requests_total{code="400"} 1`,
		`srl_predict_duration_seconds_count 2`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("metrics output lacks %q", want)
		}
	}
}
