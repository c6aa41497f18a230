package inference

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

const modelPath = "../testdata/srl.onnx"

func TestNewSession_FileNotFound(t *testing.T) {
	_, err := NewSession("../testdata/nonexistent.onnx")
	if err == nil {
		t.Error("expected error for non-existent file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got: %v", err)
	}
}

func TestInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		in      Input
		wantErr bool
	}{
		{"valid", Input{WordIDs: []int64{1, 2}, POSIDs: []int64{3, 4}, PredicateMask: []int64{0, 1}}, false},
		{"empty", Input{}, true},
		{"short pos", Input{WordIDs: []int64{1, 2}, POSIDs: []int64{3}, PredicateMask: []int64{0, 1}}, true},
		{"short mask", Input{WordIDs: []int64{1, 2}, POSIDs: []int64{3, 4}, PredicateMask: []int64{0}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func openTestSession(t *testing.T) *Session {
	t.Helper()

	if _, err := os.Stat(modelPath); err != nil {
		t.Skipf("Skipping: model not available at %s", modelPath)
	}

	session, err := NewSession(modelPath)
	if err != nil {
		if isORTUnavailableError(err) {
			t.Skipf("Skipping: ONNX runtime not available: %v", err)
		}
		t.Fatalf("NewSession failed: %v", err)
	}
	return session
}

func testInput() Input {
	return Input{
		WordIDs:       []int64{2, 17, 40, 2, 33},
		POSIDs:        []int64{3, 4, 5, 3, 4},
		PredicateMask: []int64{0, 0, 1, 0, 0},
	}
}

func TestSession_Infer(t *testing.T) {
	session := openTestSession(t)
	defer func() { _ = session.Close() }()

	out, err := session.Infer(context.Background(), testInput())
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}

	if len(out.Senses) != 5 || len(out.Roles) != 5 {
		t.Errorf("expected 5 rows, got %d senses and %d roles", len(out.Senses), len(out.Roles))
	}
}

func TestSession_Infer_ContextCancellation(t *testing.T) {
	session := openTestSession(t)
	defer func() { _ = session.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := session.Infer(ctx, testInput())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled error, got: %v", err)
	}
}

func TestSession_Infer_ContextTimeout(t *testing.T) {
	session := openTestSession(t)
	defer func() { _ = session.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), -time.Second)
	defer cancel()

	_, err := session.Infer(ctx, testInput())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded error, got: %v", err)
	}
}

func TestSession_Close_Idempotent(t *testing.T) {
	session := openTestSession(t)

	if err := session.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := session.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestSession_Infer_AfterClose(t *testing.T) {
	session := openTestSession(t)

	if err := session.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	_, err := session.Infer(context.Background(), testInput())
	if !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
}

// isORTUnavailableError checks if the error indicates ONNX runtime is not available.
func isORTUnavailableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "onnxruntime") ||
		strings.Contains(errStr, "shared library") ||
		strings.Contains(errStr, "dylib") ||
		strings.Contains(errStr, ".so") ||
		strings.Contains(errStr, ".dll") ||
		strings.Contains(errStr, "not found") ||
		strings.Contains(errStr, "cannot open") ||
		strings.Contains(errStr, "initializing ONNX runtime")
}
