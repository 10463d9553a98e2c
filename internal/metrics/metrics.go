// Package metrics defines the prometheus collectors of the estimator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Estimate outcomes
const (
	OutcomeOK      = "ok"
	OutcomeNoMatch = "no_match"
	OutcomeError   = "error"
)

type Metrics struct {
	EstimateCount    *prometheus.CounterVec
	EstimateDuration prometheus.Histogram
	DatasetRecords   prometheus.Gauge
	RecorderErrors   prometheus.Counter
}

// New creates unregistered collectors.
func New() *Metrics {
	return &Metrics{
		EstimateCount:    EstimateCount(),
		EstimateDuration: EstimateDuration(),
		DatasetRecords:   DatasetRecords(),
		RecorderErrors:   RecorderErrors(),
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.EstimateCount, m.EstimateDuration, m.DatasetRecords, m.RecorderErrors} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// EstimateCount provides metrics for total price estimates by outcome
func EstimateCount() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "landoracle_estimates_total",
			Help: "Total number of price estimates by outcome",
		},
		[]string{"outcome"},
	)
}

// EstimateDuration provides metrics for end-to-end estimate latency
func EstimateDuration() prometheus.Histogram {
	return prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "landoracle_estimate_duration_seconds",
			Help:    "Time spent computing one price estimate",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)
}

// DatasetRecords reports the size of the loaded reference dataset
func DatasetRecords() prometheus.Gauge {
	return prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "landoracle_dataset_records",
			Help: "Number of historical records in the loaded dataset",
		},
	)
}

// RecorderErrors counts estimates that could not be written to history
func RecorderErrors() prometheus.Counter {
	return prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "landoracle_recorder_errors_total",
			Help: "Total number of estimates that failed to be recorded",
		},
	)
}
