package predictor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jamesainslie/go-srl/dataset"
)

// flaky fails with err for the first failures calls.
func flaky(failures int64, err error) (Predictor, *atomic.Int64) {
	var calls atomic.Int64
	p := Func(func(ctx context.Context, in dataset.Input) (dataset.Annotation, error) {
		if calls.Add(1) <= failures {
			return dataset.Annotation{}, err
		}
		return dataset.Annotation{}, nil
	})
	return p, &calls
}

func TestWaitReady(t *testing.T) {
	unavailable := errors.Join(ErrUnavailable, errors.New("connection refused"))

	tests := []struct {
		name      string
		failures  int64
		err       error
		attempts  int
		wantErr   error
		wantCalls int64
	}{
		{"ready at once", 0, nil, 3, nil, 1},
		{"ready after retries", 2, unavailable, 3, nil, 3},
		{"never ready", 10, unavailable, 3, ErrUnavailable, 3},
		{"malformed is not retried", 10, ErrMalformedResponse, 3, ErrMalformedResponse, 1},
		{"status is not retried", 10, ErrStatus, 3, ErrStatus, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, calls := flaky(tt.failures, tt.err)
			cfg := RetryConfig{MaxAttempts: tt.attempts, Delay: time.Millisecond}

			err := WaitReady(context.Background(), p, dataset.Input{}, cfg)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("WaitReady() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("WaitReady() error = %v, want %v", err, tt.wantErr)
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("probe sent %d times, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestWaitReady_ContextCancelled(t *testing.T) {
	p, calls := flaky(100, ErrUnavailable)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	cfg := RetryConfig{MaxAttempts: 10, Delay: time.Hour}
	err := WaitReady(ctx, p, dataset.Input{}, cfg)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("probe sent %d times, want 1", got)
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	if cfg.MaxAttempts != 10 || cfg.Delay != 10*time.Second {
		t.Errorf("DefaultRetryConfig() = %+v", cfg)
	}
}
