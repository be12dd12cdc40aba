// Package metrics exports libload measurements to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder records linker outcomes and load/init durations.
type Recorder struct {
	linkerLoads  *prometheus.CounterVec
	loadDuration prometheus.Histogram
	initDuration prometheus.Histogram
}

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// New creates a Recorder and registers its collectors on reg.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		linkerLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "libload",
			Name:      "linker_loads_total",
			Help:      "Library set loads performed through the fixed-location linker, by outcome and device class.",
		}, []string{"fixed_address_failed", "low_end_device"}),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "libload",
			Name:      "load_duration_seconds",
			Help:      "Time spent loading the native library set.",
			Buckets:   durationBuckets,
		}),
		initDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "libload",
			Name:      "init_duration_seconds",
			Help:      "Time spent in native initialization.",
			Buckets:   durationBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{r.linkerLoads, r.loadDuration, r.initDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RecordLinkerHistogram counts one linker load outcome.
func (r *Recorder) RecordLinkerHistogram(fixedAddressFailed, lowEndDevice bool) {
	r.linkerLoads.WithLabelValues(strconv.FormatBool(fixedAddressFailed), strconv.FormatBool(lowEndDevice)).Inc()
}

// ObserveLoadDuration records one load attempt.
func (r *Recorder) ObserveLoadDuration(d time.Duration) {
	r.loadDuration.Observe(d.Seconds())
}

// ObserveInitDuration records one initialization attempt.
func (r *Recorder) ObserveInitDuration(d time.Duration) {
	r.initDuration.Observe(d.Seconds())
}
