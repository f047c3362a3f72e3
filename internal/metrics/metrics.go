// Package metrics - prometheus-метрики HTTP API и построения дерева ответов.
package metrics

import (
	"github.com/VitaminP8/alumni-forum/internal/thread"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ExcludedReplies *prometheus.CounterVec
	ThreadBuilds    prometheus.Counter
}

// New регистрирует метрики в reg. Для тестов удобно передавать
// свежий prometheus.NewRegistry(), иначе повторная регистрация падает.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_http_requests_total",
			Help: "number of handled http requests",
		}, []string{"method", "route", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "forum_http_request_duration_seconds",
			Help:    "histogram of http request durations",
			Buckets: prometheus.ExponentialBucketsRange(0.0005, 10, 16),
		}, []string{"method", "route"}),
		ExcludedReplies: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_thread_excluded_replies_total",
			Help: "replies left out of built threads, by reason",
		}, []string{"reason"}),
		ThreadBuilds: factory.NewCounter(prometheus.CounterOpts{
			Name: "forum_thread_builds_total",
			Help: "number of reply trees built",
		}),
	}
}

// ObserveForest учитывает одно построение дерева
func (m *Metrics) ObserveForest(forest *thread.Forest) {
	if m == nil {
		return
	}
	m.ThreadBuilds.Inc()
	for reason, n := range forest.ExcludedByReason() {
		m.ExcludedReplies.WithLabelValues(string(reason)).Add(float64(n))
	}
}
