package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsAPI forwards every report to an inner API and additionally
// records counts and breakages as otel instruments.
type MetricsAPI struct {
	inner  API
	meter  metric.Meter
	broken metric.Int64Counter

	lock   *sync.Mutex
	gauges map[string]metric.Int64Gauge
}

func WithMetrics(inner API) MetricsAPI {
	meter := otel.Meter("playconsole.telemetry")
	broken, _ := meter.Int64Counter("broken_components")
	return MetricsAPI{
		inner:  inner,
		meter:  meter,
		broken: broken,
		lock:   &sync.Mutex{},
		gauges: map[string]metric.Int64Gauge{},
	}
}

func (m MetricsAPI) ReportBroken(id string, params ...any) {
	m.broken.Add(context.Background(), 1, metric.WithAttributes(attribute.String("id", id)))
	m.inner.ReportBroken(id, params...)
}

func (m MetricsAPI) ReportWarning(id string, params ...any) {
	m.inner.ReportWarning(id, params...)
}

func (m MetricsAPI) ReportDebug(msg string, params ...any) {
	m.inner.ReportDebug(msg, params...)
}

func (m MetricsAPI) ReportCount(id string, count int64) {
	m.lock.Lock()
	gauge, ok := m.gauges[id]
	if !ok {
		var err error
		gauge, err = m.meter.Int64Gauge(id)
		if err == nil {
			m.gauges[id] = gauge
		}
	}
	m.lock.Unlock()

	if gauge != nil {
		gauge.Record(context.Background(), count)
	}
	m.inner.ReportCount(id, count)
}
