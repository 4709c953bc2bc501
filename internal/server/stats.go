package server

import "sync/atomic"

// Stats — монотонные счетчики конвейера. Читаются без блокировок.
type Stats struct {
	FramesProcessed atomic.Uint64
	BytesSent       atomic.Uint64
	PacketsSent     atomic.Uint64
	EncodingTimeMs  atomic.Uint64
	NetworkTimeMs   atomic.Uint64
	BufferDropped   atomic.Uint64
}

// StatsSnapshot — снимок счетчиков для API и логов.
type StatsSnapshot struct {
	FramesProcessed uint64 `json:"frames_processed"`
	BytesSent       uint64 `json:"bytes_sent"`
	PacketsSent     uint64 `json:"packets_sent"`
	EncodingTimeMs  uint64 `json:"encoding_time_ms"`
	NetworkTimeMs   uint64 `json:"network_time_ms"`
	BufferDropped   uint64 `json:"buffer_dropped"`
}

// Snapshot снимает текущее состояние счетчиков.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		FramesProcessed: s.FramesProcessed.Load(),
		BytesSent:       s.BytesSent.Load(),
		PacketsSent:     s.PacketsSent.Load(),
		EncodingTimeMs:  s.EncodingTimeMs.Load(),
		NetworkTimeMs:   s.NetworkTimeMs.Load(),
		BufferDropped:   s.BufferDropped.Load(),
	}
}
