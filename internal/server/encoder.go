package server

import (
	"time"

	"github.com/VladKagaykin/avocodec/codec"
)

// bufferLoop забирает кадры из буфера приёма, отбрасывает устаревшие и
// передает остальные пулу кодировщиков. Передача блокируется, пока пул
// занят: обратное давление выражается в переполнении буфера приёма.
func (s *Server) bufferLoop(encodeCh chan<- ingestFrame) {
	defer s.wg.Done()
	defer close(encodeCh)

	for s.running.Load() {
		frame, ok := s.ingest.Pop(queuePollPeriod)
		if !ok {
			continue
		}

		if time.Since(frame.submittedAt) > staleFrameAge {
			s.stats.BufferDropped.Add(1)
			s.metrics.RecordDrop("stale", 1)
			continue
		}

		encodeCh <- frame
	}
}

// encodeLoop — рабочий пула кодировщиков: дифф против предыдущего кадра
// того же разрешения, RLE-сжатие, постановка в очередь отправки.
func (s *Server) encodeLoop(encodeCh <-chan ingestFrame) {
	defer s.wg.Done()

	for frame := range encodeCh {
		start := time.Now()
		payload := s.encodeFrame(frame)
		elapsed := time.Since(start)

		s.stats.EncodingTimeMs.Add(uint64(elapsed.Milliseconds()))
		s.stats.FramesProcessed.Add(1)
		s.metrics.FramesEncoded.Inc()
		s.metrics.EncodingDuration.Observe(elapsed.Seconds())

		dropped := s.sendQ.Push(framePacket{
			payload: payload,
			width:   frame.width,
			height:  frame.height,
		})
		if dropped > 0 {
			s.stats.BufferDropped.Add(uint64(dropped))
			s.metrics.RecordDrop("send", dropped)
		}
	}
}

// encodeFrame вычисляет RLE-дельту кадра против базовой линии его
// разрешения. Пустая дельта заменяется однобайтовым маркером, чтобы
// получатель засчитал кадр доставленным.
func (s *Server) encodeFrame(frame ingestFrame) []byte {
	key := resolutionKey{width: frame.width, height: frame.height}

	// Блокировка охватывает выборку базовой линии, сравнение и замену,
	// чтобы параллельные кодировщики не сравнивали с одной и той же базой.
	s.prevMu.Lock()
	prev, ok := s.prevFrames[key]
	if !ok {
		prev = codec.BlackFrame(frame.width, frame.height)
	}
	changes := codec.CompareFrames(prev, frame.data, frame.width, frame.height)
	s.prevFrames[key] = frame.data
	s.prevMu.Unlock()

	s.metrics.LastDiffPercent.Set(codec.DiffPercentage(prev, frame.data, frame.width, frame.height))

	if len(changes) == 0 {
		return codec.EmptyDiffSentinel
	}
	return codec.CompressRLE(changes)
}
