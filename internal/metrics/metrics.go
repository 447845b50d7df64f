// Package metrics holds the prometheus collectors of the queue service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tocafy_requests_submitted_total",
			Help: "Song request submissions by moderation verdict",
		},
		[]string{"verdict"},
	)
	RequestTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tocafy_request_transitions_total",
			Help: "Song request status changes by target status",
		},
		[]string{"to"},
	)
	ShowTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tocafy_show_transitions_total",
			Help: "Show status changes by target status",
		},
		[]string{"to"},
	)
	OperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tocafy_operation_duration_seconds",
			Help:    "Time spent in show and queue operations, including lock waits",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

var registerOnce sync.Once

// Register adds the collectors to the default registry.  Safe to call more
// than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestsSubmitted, RequestTransitions, ShowTransitions, OperationDuration)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
