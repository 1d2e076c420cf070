package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Tenant / job metrics
	TenantsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "latticeflow_tenants_total",
			Help: "Total number of enabled tenants in the registry",
		},
	)

	JobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "latticeflow_jobs_total",
			Help: "Total number of job runs by job name and outcome",
		},
		[]string{"job", "outcome"},
	)

	JobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "latticeflow_job_duration_seconds",
			Help:    "Job run duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
		[]string{"job"},
	)

	// Blob fetch metrics
	BlobsDownloaded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "latticeflow_blobs_downloaded_total",
			Help: "Total number of source blobs downloaded by tenant and provider",
		},
		[]string{"tenant", "provider"},
	)

	BlobDownloadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "latticeflow_blob_download_duration_seconds",
			Help:    "Time taken to download a single blob in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	BlobDownloadRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "latticeflow_blob_download_retries_total",
			Help: "Total number of blob download retry attempts",
		},
	)

	// Conversion / transform metrics
	RowsConverted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "latticeflow_rows_converted_total",
			Help: "Total number of rows converted into columnar frames, by source format",
		},
		[]string{"format"},
	)

	RowsFilteredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "latticeflow_rows_filtered_total",
			Help: "Total number of rows dropped by transform-stage filter predicates",
		},
		[]string{"tenant", "table"},
	)

	TransformDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "latticeflow_transform_duration_seconds",
			Help:    "Time taken to apply mapping, coercion, computed columns and filters",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"table"},
	)

	// Validation / schema metrics
	SchemaWidensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "latticeflow_schema_widens_total",
			Help: "Total number of VARCHAR column widening ALTER statements issued",
		},
		[]string{"tenant", "table"},
	)

	// Bulk load metrics
	RowsLoaded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "latticeflow_rows_loaded_total",
			Help: "Total number of rows successfully loaded via stream load",
		},
		[]string{"tenant", "table"},
	)

	ChunksPosted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "latticeflow_chunks_posted_total",
			Help: "Total number of stream-load chunk requests posted, by result",
		},
		[]string{"tenant", "table", "result"},
	)

	ChunkLoadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "latticeflow_chunk_load_duration_seconds",
			Help:    "Time taken for a single stream-load chunk POST to complete",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"table"},
	)

	LoadRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "latticeflow_load_retries_total",
			Help: "Total number of stream-load retry attempts due to retryable failures",
		},
	)

	// Pipeline / tenant pool metrics
	TableRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "latticeflow_table_runs_total",
			Help: "Total number of table pipeline runs by final stage reached and outcome",
		},
		[]string{"stage", "outcome"},
	)

	TenantPoolInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "latticeflow_tenant_pool_in_flight",
			Help: "Number of tenants currently being processed concurrently",
		},
	)

	DBConnPoolOpen = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "latticeflow_db_conn_pool_open",
			Help: "Open database connections per tenant control-plane pool",
		},
		[]string{"tenant"},
	)
)

func init() {
	prometheus.MustRegister(TenantsTotal)
	prometheus.MustRegister(JobsTotal)
	prometheus.MustRegister(JobDuration)

	prometheus.MustRegister(BlobsDownloaded)
	prometheus.MustRegister(BlobDownloadDuration)
	prometheus.MustRegister(BlobDownloadRetries)

	prometheus.MustRegister(RowsConverted)
	prometheus.MustRegister(RowsFilteredTotal)
	prometheus.MustRegister(TransformDuration)

	prometheus.MustRegister(SchemaWidensTotal)

	prometheus.MustRegister(RowsLoaded)
	prometheus.MustRegister(ChunksPosted)
	prometheus.MustRegister(ChunkLoadDuration)
	prometheus.MustRegister(LoadRetriesTotal)

	prometheus.MustRegister(TableRunsTotal)
	prometheus.MustRegister(TenantPoolInFlight)
	prometheus.MustRegister(DBConnPoolOpen)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
