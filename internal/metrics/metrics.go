// Package metrics records per-run counters for LLM requests, phase rounds
// and parser outcomes. Each run owns its registry; the result is written as a
// Prometheus textfile next to the run artifacts.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is safe to use as a nil pointer; every method is then a no-op.
type Recorder struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	tokensTotal     *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	roundsTotal     *prometheus.CounterVec
	sectionsTotal   *prometheus.CounterVec
	retriesTotal    *prometheus.CounterVec
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		registry: reg,
		requestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codegen_llm_requests_total",
				Help: "LLM requests by agent, provider, model and status",
			},
			[]string{"agent", "provider", "model", "status", "error_type"},
		),
		tokensTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codegen_llm_tokens_total",
				Help: "Tokens consumed by LLM requests",
			},
			[]string{"agent", "provider", "model", "type"},
		),
		requestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "codegen_llm_request_duration_seconds",
				Help:    "Duration of LLM requests in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
			},
			[]string{"agent", "provider"},
		),
		roundsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codegen_phase_rounds_total",
				Help: "Agent rounds executed per pipeline phase",
			},
			[]string{"phase"},
		),
		sectionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codegen_sections_total",
				Help: "Parsed response sections by outcome",
			},
			[]string{"outcome"},
		),
		retriesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codegen_llm_retries_total",
				Help: "Gateway retries after server errors",
			},
			[]string{"provider"},
		),
	}
}

// ObserveRequest records one finished LLM request.
func (r *Recorder) ObserveRequest(agent, provider, model string, inputTokens, outputTokens int, success bool, errorType string, d time.Duration) {
	if r == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	r.requestsTotal.WithLabelValues(agent, provider, model, status, errorType).Inc()
	if success {
		r.tokensTotal.WithLabelValues(agent, provider, model, "input").Add(float64(inputTokens))
		r.tokensTotal.WithLabelValues(agent, provider, model, "output").Add(float64(outputTokens))
	}
	r.requestDuration.WithLabelValues(agent, provider).Observe(d.Seconds())
}

// IncRound counts one agent round in phase.
func (r *Recorder) IncRound(phase string) {
	if r == nil {
		return
	}
	r.roundsTotal.WithLabelValues(phase).Inc()
}

// ObserveSections records how many sections were written and skipped.
func (r *Recorder) ObserveSections(written int, skipped map[string]int) {
	if r == nil {
		return
	}
	r.sectionsTotal.WithLabelValues("written").Add(float64(written))
	for reason, n := range skipped {
		r.sectionsTotal.WithLabelValues(reason).Add(float64(n))
	}
}

// IncRetry counts a gateway retry.
func (r *Recorder) IncRetry(provider string) {
	if r == nil {
		return
	}
	r.retriesTotal.WithLabelValues(provider).Inc()
}

// WriteTextfile dumps the registry in Prometheus text format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
