package server

import "time"

// Емкости очередей и таймауты конвейера.
const (
	ingestCapacity = 15
	sendCapacity   = 10
	sendLowWater   = 8

	staleFrameAge   = 500 * time.Millisecond
	recvTimeout     = 1 * time.Second
	queuePollPeriod = 100 * time.Millisecond

	// Пауза между фрагментами одного кадра, чтобы не переполнять
	// буфер ядра.
	interChunkDelay = 100 * time.Microsecond

	socketBufferSize = 1 << 20

	defaultEncoderWorkers = 2
)

// ackReply — ответ сервера на любой приветственный датаграм.
var ackReply = []byte("ACK")

// ingestFrame — захваченный кадр в буфере приёма с отметкой времени
// для отбрасывания устаревших кадров.
type ingestFrame struct {
	data        []byte
	width       uint32
	height      uint32
	submittedAt time.Time
}

// framePacket — закодированный кадр в очереди отправки.
type framePacket struct {
	payload     []byte
	width       uint32
	height      uint32
	isFullFrame bool
}

// resolutionKey — ключ кэша предыдущих кадров по разрешению.
type resolutionKey struct {
	width  uint32
	height uint32
}
