// Package metrics holds the Prometheus collectors for IRC traffic and DCC
// transfers, registered on a private registry served at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the Prometheus registry used by this package
	Registry = prometheus.NewRegistry()

	// LinesReceived counts lines read from IRC servers
	LinesReceived = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "nebo_irc_lines_received_total",
			Help: "Lines received from the IRC server",
		},
	)

	// LinesSent counts lines written to IRC servers
	LinesSent = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "nebo_irc_lines_sent_total",
			Help: "Lines written to the IRC server",
		},
	)

	// LinesDropped counts lines that could not be parsed at all
	LinesDropped = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "nebo_irc_lines_dropped_total",
			Help: "Lines dropped because they could not be tokenized",
		},
	)

	// ParseFallbacks counts lines that only matched a generic recognizer
	ParseFallbacks = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "nebo_irc_parse_fallbacks_total",
			Help: "Lines parsed by a generic fallback, by fallback kind",
		},
		[]string{"kind"},
	)

	// SendRejected counts outbound messages refused by validation
	SendRejected = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "nebo_irc_send_rejected_total",
			Help: "Outbound messages refused before being written, by kind",
		},
		[]string{"kind"},
	)

	// DccBytes counts file bytes moved over DCC
	DccBytes = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "nebo_dcc_bytes_total",
			Help: "Bytes transferred over DCC by direction",
		},
		[]string{"direction"},
	)

	// DccTransfers counts finished DCC transfers by outcome
	DccTransfers = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "nebo_dcc_transfers_total",
			Help: "Finished DCC transfers by outcome",
		},
		[]string{"outcome"},
	)
)

// Handler serves the registry in the Prometheus exposition format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
