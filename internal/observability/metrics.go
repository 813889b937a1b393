package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	firmwareCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rvhal",
			Subsystem: "firmware",
			Name:      "calls_total",
			Help:      "Firmware calls handled, by call and outcome.",
		},
		[]string{"machine", "call", "fault"},
	)
	firmwareDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rvhal",
			Subsystem: "firmware",
			Name:      "call_duration_seconds",
			Help:      "Firmware call handling time in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"machine", "call"},
	)
	openDescriptors = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "rvhal",
			Subsystem: "firmware",
			Name:      "open_descriptors",
			Help:      "Occupied slots in the firmware descriptor table.",
		},
		[]string{"machine"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rvhal",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total inspector HTTP requests.",
		},
		[]string{"machine", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rvhal",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Inspector HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"machine", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(firmwareCalls, firmwareDuration, openDescriptors, httpRequests, httpDuration)
	})
}

func RecordFirmwareCall(machine, call string, fault bool, duration time.Duration) {
	RegisterMetrics()
	firmwareCalls.WithLabelValues(machine, call, strconv.FormatBool(fault)).Inc()
	firmwareDuration.WithLabelValues(machine, call).Observe(duration.Seconds())
}

func SetOpenDescriptors(machine string, n int) {
	RegisterMetrics()
	openDescriptors.WithLabelValues(machine).Set(float64(n))
}

func RecordHTTPRequest(machine, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(machine, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(machine, method, path, statusLabel).Observe(duration.Seconds())
}
