// Package metrics exposes the Prometheus collectors of the invoice parser.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/topsol/fatura-copel/dto"
)

const (
	metricPrefix = "fatura_"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	parseRequests *prometheus.CounterVec
	parseErrors   *prometheus.CounterVec
	parseLatency  *prometheus.HistogramVec

	bucketValue *prometheus.HistogramVec
	blockSource *prometheus.CounterVec
)

// Init registers the collectors on the default registry. Calling it more than once is a no-op.
func Init() {
	registerOnce.Do(func() {
		parseRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "parse_requests_total",
				Help: "Total parsed documents by text source and result",
			},
			[]string{"source", "result"},
		)
		parseErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "parse_errors_total",
				Help: "Total parse errors by reason",
			},
			[]string{"reason"},
		)
		parseLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "parse_latency_seconds",
				Help:    "Document parse latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source", "result"},
		)
		bucketValue = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "bucket_value_brl",
				Help:    "Classified value per invoice bucket in BRL",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"bucket"},
		)
		blockSource = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "block_source_total",
				Help: "Total located item blocks by locator rule",
			},
			[]string{"source"},
		)

		prometheus.MustRegister(
			parseRequests,
			parseErrors,
			parseLatency,
			bucketValue,
			blockSource,
		)
	})
}

// ObserveParse records parse duration and result.
func ObserveParse(source, result string, duration time.Duration) {
	if source == "" {
		source = "unknown"
	}
	if result == "" {
		result = ResultSuccess
	}
	if parseRequests != nil {
		parseRequests.WithLabelValues(source, result).Inc()
	}
	if parseLatency != nil {
		parseLatency.WithLabelValues(source, result).Observe(duration.Seconds())
	}
}

// IncParseError increments parse error counter.
func IncParseError(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if parseErrors != nil {
		parseErrors.WithLabelValues(reason).Inc()
	}
}

// ObserveBuckets records the bucket values and the locator rule of a classified invoice.
func ObserveBuckets(result *dto.InvoiceResult) {
	if result == nil || bucketValue == nil {
		return
	}
	bucketValue.WithLabelValues("consumo").Observe(result.ConsumedEnergy.Value)
	bucketValue.WithLabelValues("energia_injetada").Observe(result.InjectedEnergy.Value)
	bucketValue.WithLabelValues("bandeira_consumida").Observe(result.Flag.Consumed.Value)
	bucketValue.WithLabelValues("bandeira_compensada").Observe(result.Flag.Compensated.Value)
	bucketValue.WithLabelValues("outros").Observe(result.Other.Value)
	if blockSource != nil {
		blockSource.WithLabelValues(result.BlockSource).Inc()
	}
}
