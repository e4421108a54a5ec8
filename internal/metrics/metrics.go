package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors of one process on a private registry so
// they can be dumped to a textfile at the end of a CLI run.
type Metrics struct {
	registry *prometheus.Registry

	ProbesTotal        *prometheus.CounterVec
	CacheRequestsTotal *prometheus.CounterVec
	TokenChecksTotal   *prometheus.CounterVec
	DownloadsTotal     *prometheus.CounterVec
	DownloadedBytes    prometheus.Counter
	UnresolvedNodes    prometheus.Gauge
	ResolutionDuration prometheus.Histogram
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ProbesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "malaclypse_probes_total",
				Help: "Number of repository probes by repository and result.",
			},
			[]string{"repository", "result"},
		),
		CacheRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "malaclypse_cache_requests_total",
				Help: "Number of resolution cache lookups by result (hit, miss, shared).",
			},
			[]string{"result"},
		),
		TokenChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "malaclypse_ravenhurst_token_checks_total",
				Help: "Number of change-token checks by repository and outcome.",
			},
			[]string{"repository", "outcome"},
		),
		DownloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "malaclypse_part_downloads_total",
				Help: "Number of part materializations by outcome.",
			},
			[]string{"outcome"},
		),
		DownloadedBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "malaclypse_part_downloaded_bytes_total",
				Help: "Total number of bytes written to the local repository.",
			},
		),
		UnresolvedNodes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "malaclypse_unresolved_nodes",
				Help: "Number of unresolved nodes in the last resolution.",
			},
		),
		ResolutionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "malaclypse_resolution_duration_seconds",
				Help:    "Time taken by a full resolution.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	m.registry.MustRegister(
		m.ProbesTotal,
		m.CacheRequestsTotal,
		m.TokenChecksTotal,
		m.DownloadsTotal,
		m.DownloadedBytes,
		m.UnresolvedNodes,
		m.ResolutionDuration,
	)
	return m
}

// Registry exposes the registry, for tests and custom exporters.
func (it *Metrics) Registry() *prometheus.Registry { return it.registry }

// WriteToTextfile dumps the collectors in the text exposition format.
func (it *Metrics) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, it.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
