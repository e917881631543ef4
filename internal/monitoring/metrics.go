// Package monitoring carries the diagnostic surface shared by the
// whole daemon: a swappable package logger and the Prometheus
// collectors exported on /metrics.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ObservationsIngested counts plane observations accepted by the
	// bridge, by result.
	ObservationsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "anchord",
		Name:      "observations_ingested_total",
		Help:      "Plane observations received by the session bridge.",
	}, []string{"result"}) // applied | removed | dropped

	// TapsServed counts placement requests by outcome.
	TapsServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "anchord",
		Name:      "taps_served_total",
		Help:      "Tap placement requests resolved by the placement engine.",
	}, []string{"outcome"})

	// DeltasDrained counts scene deltas handed to the renderer side.
	DeltasDrained = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "anchord",
		Name:      "deltas_drained_total",
		Help:      "Scene deltas drained for renderer consumption.",
	})

	// FeedPackets counts datagrams seen by the observation feed.
	FeedPackets = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "anchord",
		Name:      "feed_packets_total",
		Help:      "Observation feed datagrams by parse result.",
	}, []string{"result"}) // ok | malformed
)
