package server

import (
	"time"

	"github.com/VladKagaykin/avocodec/codec"
)

// sendLoop забирает закодированные кадры из очереди отправки, присваивает
// им идентификаторы и пишет фрагменты в сокет. Фрагменты одного кадра
// уходят подряд и по порядку; без зарегистрированного получателя кадр
// молча отбрасывается.
func (s *Server) sendLoop() {
	defer s.wg.Done()

	for s.running.Load() {
		packet, ok := s.sendQ.Pop(queuePollPeriod)
		if !ok {
			continue
		}

		addr := s.clientAddress()
		if addr == nil || !s.hasClient.Load() {
			continue
		}

		frameID := s.frameID.Add(1)
		fragments := codec.FragmentFrame(packet.payload, frameID, packet.width, packet.height)

		start := time.Now()
		for i, fragment := range fragments {
			if i > 0 {
				time.Sleep(interChunkDelay)
			}
			n, err := s.conn.WriteToUDP(fragment, addr)
			if err != nil {
				s.log.Warnw("send failed",
					"frame_id", frameID,
					"fragment", i,
					"total", len(fragments),
					"error", err,
				)
				break
			}
			s.stats.BytesSent.Add(uint64(n))
			s.stats.PacketsSent.Add(1)
			s.metrics.PacketsSent.Inc()
			s.metrics.BytesSent.Add(float64(n))
		}
		elapsed := time.Since(start)

		s.stats.NetworkTimeMs.Add(uint64(elapsed.Milliseconds()))
		s.metrics.SendDuration.Observe(elapsed.Seconds())
	}
}
