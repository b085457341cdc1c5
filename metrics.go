package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ratio1/RedMesh-demo-sub000/pkg/redmesh"
)

var (
	jobsGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "redmesh",
		Name:      "jobs",
		Help:      "Number of jobs by status.",
	}, []string{"status"})
	openPortsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "redmesh",
		Name:      "open_ports",
		Help:      "Open ports across all jobs at the last refresh.",
	})
	lastRefreshGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "redmesh",
		Name:      "last_refresh_seconds",
		Help:      "Unix time the job list was last refreshed from upstream.",
	})
)

func init() {
	prometheus.MustRegister(jobsGauge, openPortsGauge, lastRefreshGauge)
}

// updateJobMetrics refreshes the gauges from a full job listing.
func updateJobMetrics(jobs []*redmesh.Job, at float64) {
	jobsGauge.Reset()
	ports := 0
	for _, job := range jobs {
		jobsGauge.WithLabelValues(string(job.Status)).Inc()
		if job.Aggregate != nil {
			ports += len(job.Aggregate.OpenPorts)
		}
	}
	openPortsGauge.Set(float64(ports))
	lastRefreshGauge.Set(at)
}

// metrics serves the Prometheus registry. It runs on its own listener so
// the scrape endpoint is never exposed on the operator port.
func (app *App) metrics() http.Handler {
	return promhttp.Handler()
}
