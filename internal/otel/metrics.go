package otel

import "go.opentelemetry.io/otel/metric"

// Metrics holds the harness metric instruments.
type Metrics struct {
	RunDuration      metric.Float64Histogram
	RunsTotal        metric.Int64Counter
	DispatchDuration metric.Float64Histogram
	OutputBytes      metric.Int64Counter
}

// NewMetrics creates all metric instruments from the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.RunDuration, err = meter.Float64Histogram("routines.run.duration",
		metric.WithDescription("Routine run duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.RunsTotal, err = meter.Int64Counter("routines.runs",
		metric.WithDescription("Completed routine runs, tagged by status"),
	)
	if err != nil {
		return nil, err
	}

	m.DispatchDuration, err = meter.Float64Histogram("routines.dispatch.duration",
		metric.WithDescription("Agent dispatch duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.OutputBytes, err = meter.Int64Counter("routines.output.bytes",
		metric.WithDescription("Bytes of agent output collected"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}
