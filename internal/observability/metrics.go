package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "a11ybridge"

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total inspection HTTP requests.",
		},
		[]string{"bridge", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Inspection HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"bridge", "method", "path", "status"},
	)
	nodesDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "semantics",
			Name:      "nodes_decoded_total",
			Help:      "Semantics node records decoded into the registry.",
		},
		[]string{"bridge"},
	)
	unknownBits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "semantics",
			Name:      "unknown_bits_total",
			Help:      "Node records carrying flag or action bits outside the known enumeration.",
		},
		[]string{"bridge", "kind"},
	)
	recordErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "semantics",
			Name:      "record_errors_total",
			Help:      "Node records skipped because they could not be decoded.",
		},
		[]string{"bridge"},
	)
	batchesCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "semantics",
			Name:      "batches_completed_total",
			Help:      "Semantics update generations closed by a batch-end record.",
		},
		[]string{"bridge"},
	)
	registryNodes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "semantics",
			Name:      "registry_nodes",
			Help:      "Nodes currently held in the registry.",
		},
		[]string{"bridge"},
	)
	messagesRouted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "messages_total",
			Help:      "Accessibility channel messages by type and routing outcome.",
		},
		[]string{"bridge", "type", "outcome"},
	)
	responseFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "response_failures_total",
			Help:      "Message responses that could not be sent.",
		},
		[]string{"bridge"},
	)
	linkConnects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "link",
			Name:      "connects_total",
			Help:      "Engine connection attempts by result.",
		},
		[]string{"bridge", "success"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			nodesDecoded, unknownBits, recordErrors, batchesCompleted, registryNodes,
			messagesRouted, responseFailures,
			linkConnects,
		)
	})
}

func RecordHTTPRequest(bridge, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(bridge, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(bridge, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordNodeDecoded(bridge string) {
	RegisterMetrics()
	nodesDecoded.WithLabelValues(bridge).Inc()
}

// RecordUnknownBits counts one record with leftover bits; kind is "flag" or
// "action".
func RecordUnknownBits(bridge, kind string) {
	RegisterMetrics()
	unknownBits.WithLabelValues(bridge, kind).Inc()
}

func RecordRecordError(bridge string) {
	RegisterMetrics()
	recordErrors.WithLabelValues(bridge).Inc()
}

func RecordBatchCompleted(bridge string, registrySize int) {
	RegisterMetrics()
	batchesCompleted.WithLabelValues(bridge).Inc()
	registryNodes.WithLabelValues(bridge).Set(float64(registrySize))
}

func SetRegistryNodes(bridge string, n int) {
	RegisterMetrics()
	registryNodes.WithLabelValues(bridge).Set(float64(n))
}

func RecordMessage(bridge, typ, outcome string) {
	RegisterMetrics()
	messagesRouted.WithLabelValues(bridge, typ, outcome).Inc()
}

func RecordResponseFailure(bridge string) {
	RegisterMetrics()
	responseFailures.WithLabelValues(bridge).Inc()
}

func RecordLinkConnect(bridge string, success bool) {
	RegisterMetrics()
	linkConnects.WithLabelValues(bridge, strconv.FormatBool(success)).Inc()
}
