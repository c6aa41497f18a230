// Package inference provides ONNX Runtime integration for SRL tagging models.
//
// A tagging model takes one sentence of feature ids plus a predicate mask and
// returns per-token logits for predicate senses and semantic roles:
//
//	inputs:  word_ids, pos_ids, predicate_mask, attention_mask  int64 [1, N]
//	outputs: sense_logits                                       float32 [1, N, S]
//	         role_logits                                        float32 [1, N, R]
package inference

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ErrSessionClosed is returned by Infer after Close.
var ErrSessionClosed = errors.New("inference: session is closed")

var (
	ortEnvOnce sync.Once
	ortEnvErr  error
)

// initORT initializes ONNX Runtime environment once.
func initORT() error {
	ortEnvOnce.Do(func() {
		ortEnvErr = ort.InitializeEnvironment()
	})
	return ortEnvErr
}

// Input is one sentence encoded for the model. All slices have length N.
type Input struct {
	WordIDs []int64
	POSIDs  []int64
	// PredicateMask marks the predicate whose arguments are requested.
	// All zeros asks for sense logits only.
	PredicateMask []int64
}

// Len returns the token count.
func (in Input) Len() int {
	return len(in.WordIDs)
}

func (in Input) validate() error {
	n := in.Len()
	if n == 0 {
		return errors.New("empty input")
	}
	if len(in.POSIDs) != n || len(in.PredicateMask) != n {
		return fmt.Errorf("input lengths differ: words %d, pos %d, mask %d", n, len(in.POSIDs), len(in.PredicateMask))
	}
	return nil
}

// Output holds per-token logits.
type Output struct {
	Senses [][]float32 // [N][S]
	Roles  [][]float32 // [N][R]
}

// Runner runs one forward pass of a tagging model.
type Runner interface {
	Infer(ctx context.Context, in Input) (Output, error)
	Close() error
}

// Session wraps an ONNX Runtime session for SRL inference.
type Session struct {
	session *ort.DynamicAdvancedSession
	mu      sync.Mutex
	closed  bool
}

// NewSession creates a new ONNX session from a model file.
func NewSession(modelPath string) (*Session, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file: %w", err)
	}

	if err := initORT(); err != nil {
		return nil, fmt.Errorf("initializing ONNX runtime: %w", err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("creating session options: %w", err)
	}
	defer func() { _ = options.Destroy() }()

	inputNames := []string{"word_ids", "pos_ids", "predicate_mask", "attention_mask"}
	outputNames := []string{"sense_logits", "role_logits"}

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		inputNames,
		outputNames,
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	return &Session{session: session}, nil
}

// Infer runs the model on one encoded sentence.
func (s *Session) Infer(ctx context.Context, in Input) (Output, error) {
	select {
	case <-ctx.Done():
		return Output{}, ctx.Err()
	default:
	}

	if err := in.validate(); err != nil {
		return Output{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Output{}, ErrSessionClosed
	}

	seqLen := int64(in.Len())
	attentionMask := make([]int64, seqLen)
	for i := range attentionMask {
		attentionMask[i] = 1
	}

	columns := []struct {
		name string
		data []int64
	}{
		{"word_ids", in.WordIDs},
		{"pos_ids", in.POSIDs},
		{"predicate_mask", in.PredicateMask},
		{"attention_mask", attentionMask},
	}

	inputs := make([]ort.Value, 0, len(columns))
	for _, col := range columns {
		tensor, err := ort.NewTensor(ort.NewShape(1, seqLen), col.data)
		if err != nil {
			return Output{}, fmt.Errorf("creating %s tensor: %w", col.name, err)
		}
		defer func() { _ = tensor.Destroy() }()
		inputs = append(inputs, tensor)
	}

	// nil entries are allocated by Run
	outputs := []ort.Value{nil, nil}
	if err := s.session.Run(inputs, outputs); err != nil {
		return Output{}, fmt.Errorf("running inference: %w", err)
	}
	for _, v := range outputs {
		if v != nil {
			defer func() { _ = v.Destroy() }()
		}
	}

	senses, err := tokenRows(outputs[0], seqLen)
	if err != nil {
		return Output{}, fmt.Errorf("sense_logits: %w", err)
	}
	roles, err := tokenRows(outputs[1], seqLen)
	if err != nil {
		return Output{}, fmt.Errorf("role_logits: %w", err)
	}
	return Output{Senses: senses, Roles: roles}, nil
}

// tokenRows copies a [1, N, L] float tensor into N rows of L logits.
func tokenRows(v ort.Value, seqLen int64) ([][]float32, error) {
	if v == nil {
		return nil, errors.New("no output produced")
	}
	tensor, ok := v.(*ort.Tensor[float32])
	if !ok {
		return nil, errors.New("unexpected output tensor type")
	}

	shape := tensor.GetShape()
	if len(shape) != 3 || shape[0] != 1 || shape[1] != seqLen {
		return nil, fmt.Errorf("unexpected shape %v for %d tokens", shape, seqLen)
	}

	width := int(shape[2])
	data := tensor.GetData()
	rows := make([][]float32, seqLen)
	for i := range rows {
		row := make([]float32, width)
		copy(row, data[i*width:(i+1)*width])
		rows[i] = row
	}
	return rows, nil
}

// Close releases ONNX resources.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	if s.session != nil {
		return s.session.Destroy()
	}
	return nil
}
