// Package server exposes a predictor as an HTTP prediction service.
//
// Any path accepts POST (and GET, for clients that send a body with it)
// with {"data": sentence} and answers {"data": sentence, "predictions":
// annotation}. Failures answer 400 with {"error": "Bad request", "message":
// detail}. GET /healthz and GET /metrics are reserved.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jamesainslie/go-srl/dataset"
	"github.com/jamesainslie/go-srl/predictor"
)

const maxRequestBytes = 8 << 20

// Response is the success body.
type Response struct {
	Data        dataset.Input      `json:"data"`
	Predictions dataset.Annotation `json:"predictions"`
}

// ErrorResponse is the failure body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type metrics struct {
	requests *prometheus.CounterVec
	duration prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "srl_predict_requests_total",
			Help: "Prediction requests by HTTP status code",
		}, []string{"code"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "srl_predict_duration_seconds",
			Help:    "Time spent answering prediction requests",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Server serves one predictor.
type Server struct {
	predictor predictor.Predictor
	logger    *slog.Logger
	registry  *prometheus.Registry
	metrics   *metrics
	mux       *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithRegistry sets the Prometheus registry metrics are registered with
// and served from. Default: a fresh registry with Go and process collectors.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// New creates a server for p.
func New(p predictor.Predictor, opts ...Option) *Server {
	s := &Server{
		predictor: p,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	s.metrics = newMetrics(s.registry)

	s.mux = http.NewServeMux()
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	s.mux.HandleFunc("/", s.handlePredict)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET, POST")
		s.fail(w, http.StatusMethodNotAllowed, "Method not allowed", "use POST")
		return
	}

	start := time.Now()
	requestID := r.Header.Get(predictor.RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(predictor.RequestIDHeader, requestID)
	logger := s.logger.With("request_id", requestID)

	status := s.predict(w, r, logger)

	s.metrics.requests.WithLabelValues(strconv.Itoa(status)).Inc()
	s.metrics.duration.Observe(time.Since(start).Seconds())
	logger.Debug("prediction request", "status", status, "elapsed", time.Since(start))
}

func (s *Server) predict(w http.ResponseWriter, r *http.Request, logger *slog.Logger) int {
	var req struct {
		Data *dataset.Input `json:"data"`
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		logger.Warn("bad prediction request", "error", err)
		return s.fail(w, http.StatusBadRequest, "Bad request", "body is not valid JSON: "+err.Error())
	}
	if req.Data == nil {
		return s.fail(w, http.StatusBadRequest, "Bad request", "body has no data field")
	}

	a, err := s.predictor.Predict(r.Context(), *req.Data)
	if err != nil {
		logger.Error("prediction failed", "error", err)
		return s.fail(w, http.StatusBadRequest, "Bad request", err.Error())
	}

	writeJSON(w, http.StatusOK, Response{Data: *req.Data, Predictions: a})
	return http.StatusOK
}

func (s *Server) fail(w http.ResponseWriter, status int, title, message string) int {
	writeJSON(w, status, ErrorResponse{Error: title, Message: message})
	return status
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
