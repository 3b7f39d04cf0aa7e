package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	readingPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "biometrics",
		Subsystem: "persistence",
		Name:      "last_reading_persisted_timestamp_seconds",
		Help:      "Event timestamp of the most recent reading committed to Postgres.",
	})
	batchSizeCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "biometrics",
		Subsystem: "persistence",
		Name:      "batch_readings_ingested_total",
		Help:      "Number of readings ingested through the batch path.",
	})
	rollupDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "biometrics",
		Subsystem: "rollup",
		Name:      "daily_summary_recompute_seconds",
		Help:      "Time spent recomputing a daily summary row inside the sync transaction.",
		Buckets:   prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(readingPersistGauge, batchSizeCounter, rollupDuration)
}

// RecordReadingPersisted updates the persistence watermark gauge.
func RecordReadingPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	readingPersistGauge.Set(float64(ts.Unix()))
}

// RecordBatchIngested counts readings committed by a batch sync.
func RecordBatchIngested(n int) {
	batchSizeCounter.Add(float64(n))
}

// ObserveRollup records one summary recompute duration.
func ObserveRollup(d time.Duration) {
	rollupDuration.Observe(d.Seconds())
}
