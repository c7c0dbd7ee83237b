package app

import (
	"github.com/egaotan/solana-pricefeed/pricefeed"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
)

type readerMetrics struct {
	registry *prometheus.Registry
	readings *prometheus.CounterVec
	price    prometheus.Gauge
	slot     prometheus.Gauge
}

func newReaderMetrics() *readerMetrics {
	m := &readerMetrics{
		registry: prometheus.NewRegistry(),
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pricereader",
			Name:      "readings_total",
			Help:      "Price readings taken, by result.",
		}, []string{"result"}),
		price: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pricereader",
			Name:      "price",
			Help:      "Last price read from the feed, scaled by its decimals.",
		}),
		slot: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pricereader",
			Name:      "slot",
			Help:      "Slot of the last price reading.",
		}),
	}
	m.registry.MustRegister(m.readings, m.price, m.slot)
	return m
}

func (m *readerMetrics) observe(report *pricefeed.Report, err error) {
	if err != nil {
		m.readings.WithLabelValues("error").Inc()
		return
	}
	m.readings.WithLabelValues("ok").Inc()
	price, _ := report.Price.Float64()
	m.price.Set(price)
	m.slot.Set(float64(report.Slot))
}

func (m *readerMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
