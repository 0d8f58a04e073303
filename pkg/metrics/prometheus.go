// Package metrics provides Prometheus metrics for the rangeboard dashboard service.
package metrics

import (
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager owns every Prometheus collector exposed by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Remote GraphQL traffic
	graphqlRequests *prometheus.CounterVec
	graphqlLatency  *prometheus.HistogramVec
	graphqlErrors   *prometheus.CounterVec

	// Live updates
	notifications      *prometheus.CounterVec
	refetches          *prometheus.CounterVec
	staleDiscarded     *prometheus.CounterVec
	activeBinders      prometheus.Gauge
	liveWatchers       prometheus.Gauge
	subscriptionState  *prometheus.GaugeVec
	subscriptionResets *prometheus.CounterVec

	// Mutations
	mutations    *prometheus.CounterVec
	swapsSkipped *prometheus.CounterVec

	// Filters and caches
	filterDecodeErrors *prometheus.CounterVec
	catalogCache       *prometheus.CounterVec

	// Notification queue
	queueSize          prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // custom registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager. Without WithPrometheusRegistry the
// collectors are registered on prometheus.DefaultRegisterer.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rangeboard",
		subsystem:        "dashboard",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.graphqlRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("graphql_requests_total"),
		Help: "Remote GraphQL operations by operation name and outcome",
	}, []string{"operation", "outcome"})

	m.graphqlLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name:    m.name("graphql_latency_milliseconds"),
		Help:    "Remote GraphQL round-trip latency in milliseconds",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"operation"})

	m.graphqlErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("graphql_errors_total"),
		Help: "Remote GraphQL failures by operation and error kind",
	}, []string{"operation", "kind"})

	m.notifications = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("notifications_total"),
		Help: "Live-update notifications received per subscription topic",
	}, []string{"topic"})

	m.refetches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("refetches_total"),
		Help: "Binder re-reads by target and outcome",
	}, []string{"target", "outcome"})

	m.staleDiscarded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("stale_responses_discarded_total"),
		Help: "Responses discarded because a newer request had been issued",
	}, []string{"target"})

	m.activeBinders = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("active_binders"),
		Help: "Number of live scorelist binders",
	})

	m.liveWatchers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("live_watchers"),
		Help: "Number of connected live viewers",
	})

	m.subscriptionState = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("subscription_connected"),
		Help: "1 when the upstream subscription for a topic is acknowledged",
	}, []string{"topic"})

	m.subscriptionResets = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("subscription_reconnects_total"),
		Help: "Upstream subscription reconnect attempts per topic",
	}, []string{"topic"})

	m.mutations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("mutations_total"),
		Help: "Dispatched mutations by name and outcome",
	}, []string{"mutation", "outcome"})

	m.swapsSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("swaps_skipped_total"),
		Help: "Drag gestures that produced no swap request",
	}, []string{"reason"})

	m.filterDecodeErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("filter_decode_errors_total"),
		Help: "Malformed filter parameters ignored per dimension",
	}, []string{"dimension"})

	m.catalogCache = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("catalog_cache_total"),
		Help: "Catalog cache lookups by result",
	}, []string{"result"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("notification_queue_size"),
		Help: "Pending notifications across binder queues",
	})

	m.queueEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("notification_queue_enqueued_total"),
		Help: "Notifications accepted by binder queues",
	})

	m.queueDequeued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("notification_queue_dequeued_total"),
		Help: "Notifications consumed by refetch workers",
	})

	m.queueEnqueueErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("notification_queue_rejected_total"),
		Help: "Notifications rejected by binder queues",
	}, []string{"reason"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("http_requests_total"),
		Help: "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name:    m.name("http_request_duration_milliseconds"),
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("errors_by_endpoint_total"),
		Help: "HTTP errors by endpoint, method and error type",
	}, []string{"endpoint", "method", "error_type"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("errors_by_type_total"),
		Help: "Errors by type and severity",
	}, []string{"error_type", "severity"})

	m.errorLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name:    m.name("error_latency_milliseconds"),
		Help:    "Latency of operations that ended in an error",
		Buckets: m.histogramBuckets,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("system_memory_usage_bytes"),
		Help: "Allocated heap in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("system_goroutine_count"),
		Help: "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name:    m.name("system_gc_pause_time_milliseconds"),
		Help:    "Average GC pause time in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// GraphQL.

// RecordGraphQLRequest counts one remote operation.
func RecordGraphQLRequest(operation, outcome string) {
	if globalManager.enabled {
		globalManager.graphqlRequests.WithLabelValues(operation, outcome).Inc()
	}
}

// RecordGraphQLLatency records the round-trip time of a remote operation.
func RecordGraphQLLatency(operation string, latencyMs float64) {
	if globalManager.enabled {
		globalManager.graphqlLatency.WithLabelValues(operation).Observe(latencyMs)
	}
}

// RecordGraphQLError counts a failed remote operation by error kind.
func RecordGraphQLError(operation, kind string) {
	if globalManager.enabled {
		globalManager.graphqlErrors.WithLabelValues(operation, kind).Inc()
	}
}

// Live updates.

// RecordNotification counts a subscription notification.
func RecordNotification(topic string) {
	if !globalManager.enabled {
		return
	}
	globalManager.notifications.WithLabelValues(topic).Inc()
}

// RecordRefetch counts a binder re-read.
func RecordRefetch(target, outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.refetches.WithLabelValues(target, outcome).Inc()
}

// RecordStaleResponseDiscarded counts a response dropped by sequence check.
func RecordStaleResponseDiscarded(target string) {
	if !globalManager.enabled {
		return
	}
	globalManager.staleDiscarded.WithLabelValues(target).Inc()
}

// UpdateActiveBinders sets the number of live binders.
func UpdateActiveBinders(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.activeBinders.Set(float64(count))
}

// AddLiveWatchers adjusts the live viewer gauge by delta.
func AddLiveWatchers(delta int) {
	if !globalManager.enabled {
		return
	}
	globalManager.liveWatchers.Add(float64(delta))
}

// SetSubscriptionConnected flags whether a topic subscription is acknowledged.
func SetSubscriptionConnected(topic string, connected bool) {
	if !globalManager.enabled {
		return
	}
	v := 0.0
	if connected {
		v = 1
	}
	globalManager.subscriptionState.WithLabelValues(topic).Set(v)
}

// RecordSubscriptionReconnect counts a reconnect attempt.
func RecordSubscriptionReconnect(topic string) {
	if !globalManager.enabled {
		return
	}
	globalManager.subscriptionResets.WithLabelValues(topic).Inc()
}

// Mutations.

// RecordMutation counts a dispatched mutation.
func RecordMutation(mutation, outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.mutations.WithLabelValues(mutation, outcome).Inc()
}

// RecordSwapSkipped counts a drag gesture that did not produce a swap.
func RecordSwapSkipped(reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.swapsSkipped.WithLabelValues(reason).Inc()
}

// Filters and caches.

// RecordFilterDecodeError counts an ignored malformed URL filter parameter.
func RecordFilterDecodeError(dimension string) {
	if !globalManager.enabled {
		return
	}
	globalManager.filterDecodeErrors.WithLabelValues(dimension).Inc()
}

// RecordCatalogCacheHit counts a catalog served from cache.
func RecordCatalogCacheHit() {
	if !globalManager.enabled {
		return
	}
	globalManager.catalogCache.WithLabelValues("hit").Inc()
}

// RecordCatalogCacheMiss counts a catalog fetched from the remote service.
func RecordCatalogCacheMiss() {
	if !globalManager.enabled {
		return
	}
	globalManager.catalogCache.WithLabelValues("miss").Inc()
}

// Notification queue.

// AddQueueSize adds delta to the pending notification gauge, summed over
// every binder queue.
func AddQueueSize(delta int) {
	if !globalManager.enabled {
		return
	}
	globalManager.queueSize.Add(float64(delta))
}

// RecordQueueEnqueue counts an accepted notification.
func RecordQueueEnqueue() {
	if !globalManager.enabled {
		return
	}
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue counts a consumed notification.
func RecordQueueDequeue() {
	if !globalManager.enabled {
		return
	}
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError counts a rejected notification.
func RecordQueueEnqueueError(reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// Configure rebuilds the global manager on a fresh registry. Call it once
// at startup, before anything records or GetRegistry is read.
func Configure(opts ...Option) {
	customRegistry = prometheus.NewRegistry()
	globalManager = NewManager(append(slices.Clone(opts), WithPrometheusRegistry(customRegistry))...)
}

// RefreshInterval is how often sampled gauges, such as the system metrics,
// should be updated.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
