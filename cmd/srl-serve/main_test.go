package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/jamesainslie/go-srl/dataset"
	"github.com/jamesainslie/go-srl/predictor"
)

const baselinePath = "../../testdata/baselines.json"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenPredictor_Errors(t *testing.T) {
	tests := []struct {
		name    string
		opts    options
		wantErr error
	}{
		{"no source", options{}, errNoSource},
		{"both sources", options{baseline: baselinePath, model: "m.onnx"}, errNoSource},
		{"model without vocab", options{model: "m.onnx"}, nil},
		{"missing baseline", options{baseline: "nonexistent.json"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := openPredictor(&tt.opts, discardLogger())
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestServe_Baseline(t *testing.T) {
	addrc := make(chan net.Addr, 1)
	opts := &options{
		addr:      "127.0.0.1:0",
		baseline:  baselinePath,
		seed:      1,
		nullTag:   dataset.DefaultNullTag,
		listening: func(a net.Addr) { addrc <- a },
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, opts, discardLogger()) }()

	var addr net.Addr
	select {
	case addr = <-addrc:
	case err := <-done:
		t.Fatalf("serve() returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}
	url := "http://" + addr.String()

	gold, err := dataset.Load("../../testdata/sample.json", dataset.DefaultNullTag)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	a, err := predictor.NewClient(url).Predict(ctx, gold["0"].Input(false))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if a.Predicates[2] != "CHASE" {
		t.Errorf("predicates = %v", a.Predicates)
	}

	resp, err := http.Get(url + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve() error = %v", err)
		}
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRootCmd_RejectsArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"extra"})
	if err := cmd.Execute(); err == nil {
		t.Error("expected error for positional argument")
	}
}
