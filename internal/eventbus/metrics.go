package eventbus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts bus activity per channel.
type Metrics struct {
	Published       *prometheus.CounterVec
	Delivered       *prometheus.CounterVec
	HandlerFailures *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Published: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bizhub_events_published_total",
			Help: "Messages accepted by the event bus, per channel.",
		}, []string{"channel"}),
		Delivered: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bizhub_events_delivered_total",
			Help: "Messages successfully processed by a handler, per channel.",
		}, []string{"channel"}),
		HandlerFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bizhub_event_handler_failures_total",
			Help: "Handler errors and panics, per channel.",
		}, []string{"channel"}),
	}
}
