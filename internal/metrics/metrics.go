package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the process
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts management API requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// Deliveries counts terminal delivery outcomes by event type and status
	Deliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "webhook_deliveries_total", Help: "Webhook deliveries by event type and status."},
		[]string{"event_type", "status"},
	)
	// DeliveryAttempts counts individual HTTP attempts by outcome
	DeliveryAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "webhook_delivery_attempts_total", Help: "Webhook delivery attempts by outcome."},
		[]string{"event_type", "outcome"},
	)
	// DeliveryLatency tracks per-attempt HTTP latencies in milliseconds
	DeliveryLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "webhook_delivery_latency_ms", Help: "Webhook attempt latency in ms.", Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000}},
		[]string{"event_type", "status"},
	)
	// NotificationsDropped counts notifications lost to saturated subscribers
	NotificationsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "notifications_dropped_total", Help: "Notifications dropped on full subscriber buffers."},
	)
)

// RegisterDefault registers collectors to the dedicated registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(Deliveries)
		Registry.MustRegister(DeliveryAttempts)
		Registry.MustRegister(DeliveryLatency)
		Registry.MustRegister(NotificationsDropped)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
