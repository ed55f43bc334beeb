package status

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	postings *prometheus.CounterVec
	pages    *prometheus.CounterVec
	runs     *prometheus.CounterVec
	running  prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		postings: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easyapply_postings_total",
				Help: "Postings handled, by site and outcome",
			},
			[]string{"site", "outcome"},
		),
		pages: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easyapply_pages_total",
				Help: "Results pages worked through",
			},
			[]string{"site"},
		),
		runs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easyapply_runs_total",
				Help: "Finished campaign runs, by result",
			},
			[]string{"site", "result"},
		),
		running: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "easyapply_run_active",
				Help: "1 while a campaign run is in progress",
			},
		),
	}
}
