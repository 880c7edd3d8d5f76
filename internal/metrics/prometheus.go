// Package metrics provides Prometheus-based metrics collection for nmapxlsx.
// A conversion is a short-lived process, so instead of serving /metrics the
// collected counters are written once to a node_exporter textfile.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// Namespace for all nmapxlsx metrics
	namespace = "nmapxlsx"

	// Subsystems
	subsystemLoader   = "loader"
	subsystemWorkbook = "workbook"
	subsystemRun      = "run"
)

// Parse modes reported by the loader.
const (
	ModeStrict  = "strict"
	ModeLenient = "lenient"
)

// PrometheusMetrics holds all Prometheus metric collectors
type PrometheusMetrics struct {
	// Loader metrics
	reportsLoaded *prometheus.CounterVec
	loadErrors    *prometheus.CounterVec

	// Workbook metrics
	hostsProcessed prometheus.Counter
	rowsWritten    *prometheus.CounterVec
	notesWritten   prometheus.Counter
	writeErrors    *prometheus.CounterVec

	// Run metrics
	runDuration   prometheus.Histogram
	lastRunStatus *prometheus.GaugeVec

	registry *prometheus.Registry
}

// NewPrometheusMetrics creates a new Prometheus metrics instance with all collectors
func NewPrometheusMetrics() *PrometheusMetrics {
	pm := &PrometheusMetrics{
		registry: prometheus.NewRegistry(),
	}

	pm.initLoaderMetrics()
	pm.initWorkbookMetrics()
	pm.initRunMetrics()

	pm.registerMetrics()

	return pm
}

func (pm *PrometheusMetrics) initLoaderMetrics() {
	pm.reportsLoaded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemLoader,
			Name:      "reports_total",
			Help:      "Scan reports loaded, by parse mode",
		},
		[]string{"mode"},
	)

	pm.loadErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemLoader,
			Name:      "errors_total",
			Help:      "Scan report load failures, by parse mode",
		},
		[]string{"mode"},
	)
}

func (pm *PrometheusMetrics) initWorkbookMetrics() {
	pm.hostsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemWorkbook,
			Name:      "hosts_total",
			Help:      "Hosts walked while writing the Results sheet",
		},
	)

	pm.rowsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemWorkbook,
			Name:      "rows_total",
			Help:      "Data rows written, by sheet",
		},
		[]string{"sheet"},
	)

	pm.notesWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemWorkbook,
			Name:      "notes_total",
			Help:      "Script-output notes attached to Service cells",
		},
	)

	pm.writeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemWorkbook,
			Name:      "errors_total",
			Help:      "Workbook write failures, by operation",
		},
		[]string{"operation"},
	)
}

func (pm *PrometheusMetrics) initRunMetrics() {
	pm.runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemRun,
			Name:      "duration_seconds",
			Help:      "Duration of a complete conversion in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1.0, 5.0, 10.0, 30.0, 60.0},
		},
	)

	pm.lastRunStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemRun,
			Name:      "last_status",
			Help:      "1 for the status of the most recent conversion, 0 otherwise",
		},
		[]string{"status"},
	)
}

func (pm *PrometheusMetrics) registerMetrics() {
	pm.registry.MustRegister(pm.reportsLoaded)
	pm.registry.MustRegister(pm.loadErrors)

	pm.registry.MustRegister(pm.hostsProcessed)
	pm.registry.MustRegister(pm.rowsWritten)
	pm.registry.MustRegister(pm.notesWritten)
	pm.registry.MustRegister(pm.writeErrors)

	pm.registry.MustRegister(pm.runDuration)
	pm.registry.MustRegister(pm.lastRunStatus)
}

// GetRegistry returns the Prometheus registry
func (pm *PrometheusMetrics) GetRegistry() *prometheus.Registry {
	return pm.registry
}

// IncrementReportsLoaded counts a report loaded in the given parse mode
func (pm *PrometheusMetrics) IncrementReportsLoaded(mode string) {
	pm.reportsLoaded.WithLabelValues(mode).Inc()
}

// IncrementLoadErrors counts a load failure in the given parse mode
func (pm *PrometheusMetrics) IncrementLoadErrors(mode string) {
	pm.loadErrors.WithLabelValues(mode).Inc()
}

// IncrementHostsProcessed counts a host walked by the projector
func (pm *PrometheusMetrics) IncrementHostsProcessed() {
	pm.hostsProcessed.Inc()
}

// IncrementRowsWritten counts data rows written to a sheet
func (pm *PrometheusMetrics) IncrementRowsWritten(sheet string, count int) {
	pm.rowsWritten.WithLabelValues(sheet).Add(float64(count))
}

// IncrementNotesWritten counts a cell note
func (pm *PrometheusMetrics) IncrementNotesWritten() {
	pm.notesWritten.Inc()
}

// IncrementWriteErrors counts a failed workbook operation
func (pm *PrometheusMetrics) IncrementWriteErrors(operation string) {
	pm.writeErrors.WithLabelValues(operation).Inc()
}

// RecordRun records the duration and outcome of a conversion
func (pm *PrometheusMetrics) RecordRun(duration time.Duration, success bool) {
	pm.runDuration.Observe(duration.Seconds())

	status, other := "success", "error"
	if !success {
		status, other = other, status
	}
	pm.lastRunStatus.WithLabelValues(status).Set(1)
	pm.lastRunStatus.WithLabelValues(other).Set(0)
}

// WriteTextfile writes the current metric values in text exposition format.
// The file is written atomically so a collector never reads a partial file.
func (pm *PrometheusMetrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, pm.registry)
}

// Global instance for easy access
var globalMetrics *PrometheusMetrics
var metricsOnce sync.Once

// GetGlobalMetrics returns the global Prometheus metrics instance
func GetGlobalMetrics() *PrometheusMetrics {
	metricsOnce.Do(func() {
		globalMetrics = NewPrometheusMetrics()
	})
	return globalMetrics
}
