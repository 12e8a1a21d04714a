// Package metrics exposes Prometheus metrics of the controller.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultOK        = "ok"
	ResultError     = "error"
	ResultLinkError = "link_error"
	ResultCRCError  = "crc_error"
	ResultBlocked   = "would_block"
	ResultOffline   = "offline"
	ResultUnknown   = "unknown"
	ResultMismatch  = "mismatch"
	ResultAborted   = "aborted"
	ResultEmpty     = "empty"
)

var (
	// Registry holds all metrics of the process.
	Registry = NewRegistry()

	// BusExchanges counts frame exchanges by result.
	BusExchanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "negicon_bus_exchanges_total",
		Help: "Frame exchanges on the sensor bus.",
	}, []string{"result"})
	// Detections counts port detection attempts by result.
	Detections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "negicon_port_detections_total",
		Help: "Port detection attempts.",
	}, []string{"port", "result"})
	// PortResets counts ports dropped back to uninitialized.
	PortResets = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "negicon_port_resets_total",
		Help: "Ports reset after a driver error.",
	}, []string{"port"})
	// PortsReady is the number of initialized ports.
	PortsReady = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "negicon_ports_ready",
		Help: "Ports with an initialized device.",
	})
	// EventsProduced counts events produced by devices.
	EventsProduced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "negicon_events_produced_total",
		Help: "Events produced by devices.",
	})
	// QueueEvictions counts events dropped on queue overflow.
	QueueEvictions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "negicon_queue_evictions_total",
		Help: "Events evicted from a full queue.",
	})
	// QueueDepth is the number of pending events.
	QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "negicon_queue_depth",
		Help: "Events pending delivery.",
	})
	// SinkSends counts delivery attempts by sink and result.
	SinkSends = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "negicon_sink_sends_total",
		Help: "Event delivery attempts per sink.",
	}, []string{"sink", "result"})
	// InboundEvents counts inbound events by type and routing result.
	InboundEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "negicon_inbound_events_total",
		Help: "Inbound events routed.",
	}, []string{"type", "result"})
	// MemoryWrites counts authenticated memory writes by result.
	MemoryWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "negicon_memory_writes_total",
		Help: "Authenticated sensor memory writes.",
	}, []string{"result"})
)

func init() {
	Registry.MustRegister(
		BusExchanges,
		Detections,
		PortResets,
		PortsReady,
		EventsProduced,
		QueueEvictions,
		QueueDepth,
		SinkSends,
		InboundEvents,
		MemoryWrites,
	)
}

// NewRegistry creates a registry with process and runtime collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns the HTTP handler serving Registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
