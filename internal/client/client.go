// Package client реализует UDP-клиент потоковой передачи: рукопожатие,
// приём и сборку фрагментов, ограниченную очередь декодирования и пул
// декодеров, восстанавливающих кадры из RLE-дельт.
package client

import (
	"bytes"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/VladKagaykin/avocodec/common"
	"github.com/VladKagaykin/avocodec/internal/queue"
)

// Stats — счетчики приёмного конвейера.
type Stats struct {
	PacketsReceived atomic.Uint64
	FramesDecoded   atomic.Uint64
	FragmentsStale  atomic.Uint64
	QueueDropped    atomic.Uint64
}

// StatsSnapshot — снимок счетчиков клиента.
type StatsSnapshot struct {
	PacketsReceived uint64 `json:"packets_received"`
	FramesDecoded   uint64 `json:"frames_decoded"`
	FragmentsStale  uint64 `json:"fragments_stale"`
	QueueDropped    uint64 `json:"queue_dropped"`
}

// Client — клиент трансляции. Восстановленное состояние кадра живет в
// экземпляре, а не в глобальных переменных: несколько клиентов могут
// работать в одном процессе.
type Client struct {
	config common.ClientConfig
	log    *zap.SugaredLogger

	conn      *net.UDPConn
	connected atomic.Bool
	running   atomic.Bool
	wg        sync.WaitGroup

	decodeQ *queue.Queue[encodedFrame]

	fragMu    sync.Mutex
	fragments map[fragmentKey]*fragmentEntry

	// Текущий восстановленный кадр; базовая линия для RLE-дельт.
	stateMu sync.Mutex
	current []byte
	width   uint32
	height  uint32

	callback FrameCallback
	stats    Stats
}

// New создает клиента.
func New(config common.ClientConfig, logger *zap.Logger) *Client {
	if config.DecoderWorkers <= 0 {
		config.DecoderWorkers = defaultDecoderWorkers
	}
	return &Client{
		config:    config,
		log:       logger.Sugar().Named("client"),
		decodeQ:   queue.New[encodedFrame](decodeCapacity, decodeLowWater),
		fragments: make(map[fragmentKey]*fragmentEntry),
	}
}

// Connect шлёт приветствие и ждет подтверждение не дольше секунды.
// Успех — только точный ответ "ACK".
func (c *Client) Connect(host string, port int) error {
	addr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return fmt.Errorf("%w: resolve %s: %v", common.ErrConnectionFailed, host, err)
	}

	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrConnectionFailed, err)
	}

	if err := conn.SetReadBuffer(socketBufferSize); err != nil {
		c.log.Warnw("failed to set receive buffer", "error", err)
	}

	if _, err := conn.Write(connectRequest); err != nil {
		conn.Close()
		return fmt.Errorf("%w: %v", common.ErrConnectionFailed, err)
	}

	conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	reply := make([]byte, 16)
	n, err := conn.Read(reply)
	if err != nil {
		conn.Close()
		return fmt.Errorf("%w: %v", common.ErrHandshakeTimeout, err)
	}
	if !bytes.Equal(reply[:n], ackReply) {
		conn.Close()
		return fmt.Errorf("%w: got %q", common.ErrHandshakeReject, reply[:n])
	}

	c.conn = conn
	c.connected.Store(true)
	c.log.Infow("connected", "server", addr.String())
	return nil
}

// StartReceiver запускает приёмный цикл и пул декодеров. Callback
// вызывается для каждого восстановленного кадра.
func (c *Client) StartReceiver(callback FrameCallback) error {
	if !c.connected.Load() {
		return common.ErrConnectionFailed
	}
	if !c.running.CompareAndSwap(false, true) {
		return nil
	}

	c.callback = callback

	c.wg.Add(1 + c.config.DecoderWorkers)
	go c.receiveLoop()
	for i := 0; i < c.config.DecoderWorkers; i++ {
		go c.decodeLoop()
	}

	c.log.Infow("receiver started", "decoder_workers", c.config.DecoderWorkers)
	return nil
}

// Disconnect останавливает потоки и закрывает сокет.
func (c *Client) Disconnect() {
	c.running.Store(false)
	c.connected.Store(false)

	c.decodeQ.Close()
	if c.conn != nil {
		c.conn.Close()
	}
	c.wg.Wait()

	c.fragMu.Lock()
	c.fragments = make(map[fragmentKey]*fragmentEntry)
	c.fragMu.Unlock()

	c.stateMu.Lock()
	c.current = nil
	c.stateMu.Unlock()

	c.log.Infow("disconnected", "stats", c.Stats())
}

// IsConnected сообщает, установлено ли соединение.
func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

// Stats возвращает снимок счетчиков.
func (c *Client) Stats() StatsSnapshot {
	return StatsSnapshot{
		PacketsReceived: c.stats.PacketsReceived.Load(),
		FramesDecoded:   c.stats.FramesDecoded.Load(),
		FragmentsStale:  c.stats.FragmentsStale.Load(),
		QueueDropped:    c.stats.QueueDropped.Load(),
	}
}
