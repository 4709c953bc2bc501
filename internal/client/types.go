package client

import "time"

// Параметры приёмного конвейера.
const (
	decodeCapacity = 50
	// При переполнении очередь урезается до 40 кадров, затем принимает новый.
	decodeLowWater = 41

	recvTimeout      = 1 * time.Second
	handshakeTimeout = 1 * time.Second
	queuePollPeriod  = 100 * time.Millisecond

	// Незавершенные кадры старше этого возраста выбрасываются.
	staleFragmentAge = 5 * time.Second

	// Максимальный размер UDP-датаграммы.
	maxDatagramSize = 65507

	socketBufferSize = 1 << 20

	defaultDecoderWorkers = 4
)

// connectRequest — приветствие клиента; сервер отвечает ackReply.
var (
	connectRequest = []byte("CONNECT")
	ackReply       = []byte("ACK")
)

// FrameCallback получает каждый восстановленный кадр. Буфер кадра
// принадлежит клиенту и не должен изменяться получателем.
type FrameCallback func(frame []byte, width, height uint32, isFullFrame bool)

// encodedFrame — собранный полезный груз одного кадра в очереди декодера.
type encodedFrame struct {
	payload     []byte
	width       uint32
	height      uint32
	isFullFrame bool
}

// fragmentKey — составной ключ сборки фрагментов. Ширина и высота входят
// в ключ целиком, чтобы кадры разных разрешений не склеивались.
type fragmentKey struct {
	frameID uint32
	width   uint32
	height  uint32
}

// fragmentEntry — состояние сборки одного фрагментированного кадра.
type fragmentEntry struct {
	chunks     [][]byte
	received   uint32
	total      uint32
	lastUpdate time.Time
}
