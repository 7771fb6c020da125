package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mind-engage/mindengage-quiz/internal/explain"
)

type Metrics struct {
	registry *prometheus.Registry

	AttemptsCreated prometheus.Counter
	Submissions     *prometheus.CounterVec // outcome=recorded|duplicate
	BackendCalls    *prometheus.CounterVec // result=ok|error
	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		AttemptsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_attempts_created_total",
			Help: "Quiz attempts started.",
		}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_submissions_total",
			Help: "Answer submissions by outcome.",
		}, []string{"outcome"}),
		BackendCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_explanation_backend_calls_total",
			Help: "Calls to the explanation generation backend.",
		}, []string{"result"}),
		RequestCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"method", "route"}),
	}
	m.registry.MustRegister(m.AttemptsCreated, m.Submissions, m.BackendCalls, m.RequestCounter, m.RequestDuration)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestCounter.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// InstrumentGenerator counts backend calls and failures.
func (m *Metrics) InstrumentGenerator(g explain.Generator) explain.Generator {
	return explain.GeneratorFunc(func(ctx context.Context, req explain.Request) (string, error) {
		text, err := g.Generate(ctx, req)
		if err != nil {
			m.BackendCalls.WithLabelValues("error").Inc()
		} else {
			m.BackendCalls.WithLabelValues("ok").Inc()
		}
		return text, err
	})
}
