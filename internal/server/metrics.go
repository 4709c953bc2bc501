package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics содержит все метрики сервера потоковой передачи.
type Metrics struct {
	registry *prometheus.Registry

	// Клиент
	ClientConnected prometheus.Gauge
	Handshakes      prometheus.Counter

	// Конвейер
	FramesSubmitted prometheus.Counter
	FramesEncoded   prometheus.Counter
	FramesDropped   *prometheus.CounterVec
	PacketsSent     prometheus.Counter
	BytesSent       prometheus.Counter

	// Производительность
	EncodingDuration prometheus.Histogram
	SendDuration     prometheus.Histogram
	LastDiffPercent  prometheus.Gauge

	// Запись
	RecordedFrames prometheus.Counter
}

// NewMetrics создает метрики на собственном реестре, чтобы несколько
// серверов могли жить в одном процессе.
func NewMetrics() *Metrics {
	metrics := &Metrics{
		registry: prometheus.NewRegistry(),

		ClientConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "avo_server_client_connected",
			Help: "Whether a receiver is currently registered (1 = yes)",
		}),

		Handshakes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "avo_server_handshakes_total",
			Help: "Total number of handshake datagrams received",
		}),

		FramesSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "avo_server_frames_submitted_total",
			Help: "Total frames accepted into the ingest buffer",
		}),

		FramesEncoded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "avo_server_frames_encoded_total",
			Help: "Total frames encoded by the worker pool",
		}),

		FramesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "avo_server_frames_dropped_total",
			Help: "Total frames dropped by stage",
		}, []string{"stage"}),

		PacketsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "avo_server_packets_sent_total",
			Help: "Total datagrams written to the socket",
		}),

		BytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "avo_server_bytes_sent_total",
			Help: "Total bytes written to the socket",
		}),

		EncodingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "avo_server_encoding_duration_seconds",
			Help:    "Time spent encoding one frame",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),

		SendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "avo_server_send_duration_seconds",
			Help:    "Time spent sending one encoded frame",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),

		LastDiffPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "avo_server_last_diff_percent",
			Help: "Changed-pixel percentage of the last encoded frame",
		}),

		RecordedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "avo_server_recorded_frames_total",
			Help: "Total frames written to archive recordings",
		}),
	}

	metrics.registry.MustRegister(
		metrics.ClientConnected,
		metrics.Handshakes,
		metrics.FramesSubmitted,
		metrics.FramesEncoded,
		metrics.FramesDropped,
		metrics.PacketsSent,
		metrics.BytesSent,
		metrics.EncodingDuration,
		metrics.SendDuration,
		metrics.LastDiffPercent,
		metrics.RecordedFrames,
	)

	return metrics
}

// Registry возвращает реестр для HTTP-обработчика метрик.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordDrop учитывает отброшенные кадры на одной из стадий конвейера.
func (m *Metrics) RecordDrop(stage string, count int) {
	m.FramesDropped.WithLabelValues(stage).Add(float64(count))
}
