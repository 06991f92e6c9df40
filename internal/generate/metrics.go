package generate

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("docextract.generate")
	meter  = otel.Meter("docextract.generate")
)

var (
	parseDuration metric.Float64Histogram
	recordsTotal  metric.Int64Counter
	failuresTotal metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics creates the instruments on first use. Safe to call repeatedly.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		parseDuration, err = meter.Float64Histogram(
			"docextract_parse_duration_seconds",
			metric.WithDescription("Time spent parsing one source file"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		recordsTotal, err = meter.Int64Counter(
			"docextract_records_total",
			metric.WithDescription("Documentation records extracted"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		failuresTotal, err = meter.Int64Counter(
			"docextract_file_failures_total",
			metric.WithDescription("Source files skipped because they could not be parsed or extracted"),
		)
		if err != nil {
			metricsErr = err
		}
	})
	return metricsErr
}
