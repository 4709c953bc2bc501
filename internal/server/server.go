// Package server реализует UDP-сервер потоковой передачи кадров:
// рукопожатие с единственным активным получателем, буфер приёма с
// отбрасыванием устаревших кадров, пул кодировщиков, очередь отправки
// и фрагментацию датаграмм.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/VladKagaykin/avocodec/common"
	"github.com/VladKagaykin/avocodec/internal/queue"
)

// Server — сервер трансляции. Всё изменяемое состояние принадлежит
// экземпляру: несколько независимых потоков могут жить в одном процессе.
type Server struct {
	config  common.ServerConfig
	log     *zap.SugaredLogger
	metrics *Metrics
	stats   *Stats

	conn *net.UDPConn

	clientMu   sync.Mutex
	clientAddr *net.UDPAddr
	hasClient  atomic.Bool

	ingest *queue.Queue[ingestFrame]
	sendQ  *queue.Queue[framePacket]

	// Кэш предыдущих кадров по разрешению — базовая линия для диффов.
	prevMu     sync.Mutex
	prevFrames map[resolutionKey][]byte

	frameID atomic.Uint32
	running atomic.Bool
	wg      sync.WaitGroup

	catalog  *Catalog
	recorder *Recorder
}

// New создает сервер. Логгер и listen_addr обязательны; нулевое число
// кодировщиков заменяется значением по умолчанию.
func New(config common.ServerConfig, logger *zap.Logger) (*Server, error) {
	if config.ListenAddr == "" {
		return nil, fmt.Errorf("%w: listen_addr", common.ErrMissingConfig)
	}
	if _, _, err := common.ParseAddress(config.ListenAddr); err != nil {
		return nil, err
	}
	if config.EncoderWorkers <= 0 {
		config.EncoderWorkers = defaultEncoderWorkers
	}

	s := &Server{
		config:     config,
		log:        logger.Sugar().Named("server"),
		metrics:    NewMetrics(),
		stats:      &Stats{},
		ingest:     queue.New[ingestFrame](ingestCapacity, ingestCapacity),
		sendQ:      queue.New[framePacket](sendCapacity, sendLowWater),
		prevFrames: make(map[resolutionKey][]byte),
	}

	if config.APIServer.DatabasePath != "" {
		catalog, err := OpenCatalog(config.APIServer.DatabasePath)
		if err != nil {
			return nil, err
		}
		s.catalog = catalog
	}

	return s, nil
}

// Start привязывает сокет и запускает потоки конвейера.
func (s *Server) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}

	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var soErr error
			if err := c.Control(func(fd uintptr) {
				soErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			}); err != nil {
				return err
			}
			return soErr
		},
	}

	// Подстановочные написания IP ("any", "ANY", "*", пустая строка) — INADDR_ANY.
	bindAddr := s.config.ListenAddr
	if ip, port, err := common.ParseAddress(bindAddr); err == nil && net.ParseIP(ip) == nil {
		bindAddr = fmt.Sprintf(":%d", port)
	}

	pc, err := lc.ListenPacket(context.Background(), "udp4", bindAddr)
	if err != nil {
		s.running.Store(false)
		return fmt.Errorf("bind %s: %w", s.config.ListenAddr, err)
	}
	s.conn = pc.(*net.UDPConn)

	if err := s.conn.SetWriteBuffer(socketBufferSize); err != nil {
		s.log.Warnw("failed to set send buffer", "error", err)
	}

	if s.config.Recording.Enabled {
		recorder, err := NewRecorder(s.config, s.catalog, s.metrics, s.log)
		if err != nil {
			s.conn.Close()
			s.running.Store(false)
			return err
		}
		s.recorder = recorder
	}

	s.wg.Add(3 + s.config.EncoderWorkers)
	encodeCh := make(chan ingestFrame)
	go s.listenLoop()
	go s.bufferLoop(encodeCh)
	go s.sendLoop()
	for i := 0; i < s.config.EncoderWorkers; i++ {
		go s.encodeLoop(encodeCh)
	}

	s.log.Infow("server started",
		"listen_addr", s.config.ListenAddr,
		"encoder_workers", s.config.EncoderWorkers,
		"recording", s.config.Recording.Enabled,
	)
	return nil
}

// Submit принимает захваченный кадр в буфер приёма. Никогда не блокирует:
// при переполнении отбрасывается самый старый кадр.
func (s *Server) Submit(frame []byte, width, height uint32) {
	if !s.running.Load() || len(frame) == 0 {
		return
	}

	data := make([]byte, len(frame))
	copy(data, frame)
	now := time.Now()

	if s.recorder != nil {
		s.recorder.Write(data, width, height, now)
	}

	dropped := s.ingest.Push(ingestFrame{
		data:        data,
		width:       width,
		height:      height,
		submittedAt: now,
	})
	if dropped > 0 {
		s.stats.BufferDropped.Add(uint64(dropped))
		s.metrics.RecordDrop("ingest", dropped)
	}
	s.metrics.FramesSubmitted.Inc()
}

// Stop останавливает потоки, закрывает сокет и сбрасывает состояние.
func (s *Server) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}

	s.ingest.Close()
	s.sendQ.Close()
	if s.conn != nil {
		s.conn.Close()
	}
	s.wg.Wait()

	if s.recorder != nil {
		if err := s.recorder.Stop(); err != nil {
			s.log.Warnw("failed to finalize recording", "error", err)
		}
		s.recorder = nil
	}

	s.clientMu.Lock()
	s.clientAddr = nil
	s.clientMu.Unlock()
	s.hasClient.Store(false)
	s.metrics.ClientConnected.Set(0)

	s.prevMu.Lock()
	s.prevFrames = make(map[resolutionKey][]byte)
	s.prevMu.Unlock()

	s.log.Infow("server stopped", "stats", s.stats.Snapshot())
}

// HasClient сообщает, зарегистрирован ли получатель.
func (s *Server) HasClient() bool {
	return s.hasClient.Load()
}

// Stats возвращает снимок счетчиков конвейера.
func (s *Server) Stats() StatsSnapshot {
	return s.stats.Snapshot()
}

// Metrics возвращает метрики сервера.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Catalog возвращает каталог записей; nil, если база не настроена.
func (s *Server) Catalog() *Catalog {
	return s.catalog
}

// Close останавливает конвейер (как Stop) и закрывает каталог записей.
func (s *Server) Close() error {
	s.Stop()
	if s.catalog != nil {
		return s.catalog.Close()
	}
	return nil
}

// Config возвращает конфигурацию, с которой создан сервер.
func (s *Server) Config() common.ServerConfig {
	return s.config
}

func (s *Server) clientAddress() *net.UDPAddr {
	s.clientMu.Lock()
	defer s.clientMu.Unlock()
	return s.clientAddr
}

func (s *Server) registerClient(addr *net.UDPAddr) {
	s.clientMu.Lock()
	s.clientAddr = addr
	s.clientMu.Unlock()

	if !s.hasClient.Swap(true) {
		s.log.Infow("client registered", "addr", addr.String())
	}
	s.metrics.ClientConnected.Set(1)
	s.metrics.Handshakes.Inc()
}
