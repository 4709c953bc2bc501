package server

import (
	"errors"
	"net"
	"os"
	"time"
)

// listenLoop принимает приветственные датаграммы. Любой непустой пакет
// регистрирует отправителя как текущего получателя; последний отправитель
// выигрывает. Канонический клиент шлёт "CONNECT", но содержимое не
// проверяется.
func (s *Server) listenLoop() {
	defer s.wg.Done()

	buf := make([]byte, 1024)
	for s.running.Load() {
		s.conn.SetReadDeadline(time.Now().Add(recvTimeout))

		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			s.log.Warnw("receive error", "error", err)
			continue
		}

		if n == 0 {
			continue
		}

		s.registerClient(addr)

		if _, err := s.conn.WriteToUDP(ackReply, addr); err != nil {
			s.log.Warnw("failed to send ACK", "addr", addr.String(), "error", err)
		}
	}
}
