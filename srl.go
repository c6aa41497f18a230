package srl

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/jamesainslie/go-srl/dataset"
	"github.com/jamesainslie/go-srl/predictor"
	"github.com/jamesainslie/go-srl/score"
)

var tracer = otel.Tracer("github.com/jamesainslie/go-srl")

// Evaluator collects predictions for a gold dataset and scores them.
// It is safe for concurrent use.
type Evaluator struct {
	predictor predictor.Predictor
	cfg       config
	logger    *slog.Logger
}

// New creates an Evaluator that queries p.
func New(p predictor.Predictor, opts ...Option) (*Evaluator, error) {
	if p == nil {
		return nil, ErrNoPredictor
	}
	cfg := newConfig(opts)
	return &Evaluator{
		predictor: p,
		cfg:       cfg,
		logger:    cfg.logger,
	}, nil
}

// Input returns the request sent for s under the configured predicate mode.
func (e *Evaluator) Input(s dataset.Sentence) dataset.Input {
	return s.Input(e.cfg.mode == GivenPredicates)
}

// WaitReady probes the predictor with the first sentence of gold until it
// answers. An empty dataset needs no probe.
func (e *Evaluator) WaitReady(ctx context.Context, gold dataset.Gold, rc predictor.RetryConfig) error {
	ids := gold.IDs()
	if len(ids) == 0 {
		return nil
	}
	if rc.Logger == nil {
		rc.Logger = e.logger
	}
	e.logger.Info("waiting for prediction service", "probe", ids[0])
	return predictor.WaitReady(ctx, e.predictor, e.Input(gold[ids[0]]), rc)
}

// Predict sends every gold sentence to the predictor. The first failure
// cancels the requests still in flight. Each prediction is validated against
// its gold sentence.
func (e *Evaluator) Predict(ctx context.Context, gold dataset.Gold) (dataset.Predictions, error) {
	ctx, span := tracer.Start(ctx, "srl.Evaluator.Predict",
		trace.WithAttributes(
			attribute.Int("srl.sentences", len(gold)),
			attribute.String("srl.predicate_mode", e.cfg.mode.String()),
		),
	)
	defer span.End()

	ids := gold.IDs()
	out := make([]dataset.Annotation, len(ids))
	start := time.Now()

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			s := gold[id]
			a, err := e.predictor.Predict(gctx, e.Input(s))
			if err != nil {
				return fmt.Errorf("sentence %s: %w", id, err)
			}
			if err := a.Validate(s.Len(), e.cfg.nullTag); err != nil {
				return fmt.Errorf("sentence %s: prediction: %w", id, err)
			}
			out[i] = a

			n := int(done.Add(1))
			e.logger.Debug("sentence predicted", "id", id, "done", n, "total", len(ids))
			if e.cfg.progress != nil {
				e.cfg.progress(n, len(ids))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	preds := make(dataset.Predictions, len(ids))
	for i, id := range ids {
		preds[id] = out[i]
	}
	e.logger.Info("predictions collected",
		"sentences", len(preds),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return preds, nil
}

// Score runs the four metrics over gold and pred.
func (e *Evaluator) Score(ctx context.Context, gold dataset.Gold, pred dataset.Predictions) (score.Results, error) {
	var results score.Results
	for _, m := range score.Metrics {
		res, err := e.scoreMetric(ctx, m, gold, pred)
		if err != nil {
			return score.Results{}, err
		}
		results.Set(m, res)
	}
	return results, nil
}

func (e *Evaluator) scoreMetric(ctx context.Context, m score.Metric, gold dataset.Gold, pred dataset.Predictions) (score.Result, error) {
	_, span := tracer.Start(ctx, "srl.score", trace.WithAttributes(attribute.String("srl.metric", m.String())))
	defer span.End()

	res, err := m.Score(gold, pred, e.scoreConfig())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return score.Result{}, err
	}
	span.SetAttributes(
		attribute.Int("srl.true_positives", res.TruePositives),
		attribute.Int("srl.false_positives", res.FalsePositives),
		attribute.Int("srl.false_negatives", res.FalseNegatives),
		attribute.Float64("srl.f1", res.F1),
	)
	e.logger.Debug("metric scored", "metric", m.String(), "f1", res.F1)
	return res, nil
}

// Summaries returns the per-sentence macro summary of every metric.
func (e *Evaluator) Summaries(gold dataset.Gold, pred dataset.Predictions) (map[score.Metric]score.Summary, error) {
	out := make(map[score.Metric]score.Summary, len(score.Metrics))
	for _, m := range score.Metrics {
		per, err := score.PerSentence(gold, pred, e.scoreConfig(), m)
		if err != nil {
			return nil, err
		}
		out[m] = score.Summarize(per)
	}
	return out, nil
}

func (e *Evaluator) scoreConfig() score.Config {
	return score.Config{NullTag: e.cfg.nullTag, Workers: e.cfg.workers}
}

// Report is the outcome of a full evaluation.
type Report struct {
	GeneratedAt time.Time                      `json:"generated_at"`
	Sentences   int                            `json:"sentences"`
	NullTag     string                         `json:"null_tag"`
	Mode        string                         `json:"predicate_mode"`
	Results     score.Results                  `json:"results"`
	Macro       map[score.Metric]score.Summary `json:"macro"`

	// Predictions is kept for callers that persist the run.
	Predictions dataset.Predictions `json:"-"`
}

// Evaluate predicts every gold sentence and scores the result.
func (e *Evaluator) Evaluate(ctx context.Context, gold dataset.Gold) (*Report, error) {
	pred, err := e.Predict(ctx, gold)
	if err != nil {
		return nil, fmt.Errorf("collecting predictions: %w", err)
	}
	return e.Report(ctx, gold, pred)
}

// Report scores pred against gold and assembles a Report.
func (e *Evaluator) Report(ctx context.Context, gold dataset.Gold, pred dataset.Predictions) (*Report, error) {
	results, err := e.Score(ctx, gold, pred)
	if err != nil {
		return nil, err
	}
	macro, err := e.Summaries(gold, pred)
	if err != nil {
		return nil, err
	}
	return &Report{
		GeneratedAt: time.Now().UTC(),
		Sentences:   len(gold),
		NullTag:     e.cfg.nullTag,
		Mode:        e.cfg.mode.String(),
		Results:     results,
		Macro:       macro,
		Predictions: pred,
	}, nil
}

// Score runs the four metrics over predictions already collected.
func Score(gold dataset.Gold, pred dataset.Predictions, opts ...Option) (score.Results, error) {
	cfg := newConfig(opts)
	return score.All(gold, pred, score.Config{NullTag: cfg.nullTag, Workers: cfg.workers})
}

// BuildReport scores predictions already collected and assembles a Report.
func BuildReport(ctx context.Context, gold dataset.Gold, pred dataset.Predictions, opts ...Option) (*Report, error) {
	cfg := newConfig(opts)
	e := &Evaluator{cfg: cfg, logger: cfg.logger}
	return e.Report(ctx, gold, pred)
}
