package client

import (
	"errors"
	"net"
	"os"
	"time"

	"github.com/VladKagaykin/avocodec/codec"
)

// receiveLoop читает датаграммы, собирает фрагментированные кадры и
// ставит готовые в очередь декодирования. Каждая итерация также выметает
// устаревшие незавершенные кадры.
func (c *Client) receiveLoop() {
	defer c.wg.Done()

	buf := make([]byte, maxDatagramSize)
	for c.running.Load() {
		c.conn.SetReadDeadline(time.Now().Add(recvTimeout))

		n, err := c.conn.Read(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			if !errors.Is(err, os.ErrDeadlineExceeded) {
				c.log.Warnw("receive error", "error", err)
			}
			c.sweepStale()
			continue
		}

		header, payload, ok := codec.ParseNetworkPacket(buf[:n])
		if !ok {
			c.sweepStale()
			continue
		}
		c.stats.PacketsReceived.Add(1)

		if header.TotalPackets == 1 {
			c.enqueue(payload, header.Width, header.Height)
		} else {
			c.storeFragment(header, payload)
		}

		c.sweepStale()
	}
}

// storeFragment кладет фрагмент в таблицу сборки; когда получены все
// части, кадр склеивается в порядке packetId и уходит в очередь.
func (c *Client) storeFragment(header codec.PacketHeader, payload []byte) {
	if header.PacketID >= header.TotalPackets {
		return
	}

	key := fragmentKey{frameID: header.FrameID, width: header.Width, height: header.Height}

	c.fragMu.Lock()
	entry, ok := c.fragments[key]
	if !ok || entry.total != header.TotalPackets {
		entry = &fragmentEntry{
			chunks: make([][]byte, header.TotalPackets),
			total:  header.TotalPackets,
		}
		c.fragments[key] = entry
	}

	if entry.chunks[header.PacketID] == nil {
		entry.chunks[header.PacketID] = append([]byte(nil), payload...)
		entry.received++
	}
	entry.lastUpdate = time.Now()

	if entry.received < entry.total {
		c.fragMu.Unlock()
		return
	}

	delete(c.fragments, key)
	c.fragMu.Unlock()

	size := 0
	for _, chunk := range entry.chunks {
		size += len(chunk)
	}
	complete := make([]byte, 0, size)
	for _, chunk := range entry.chunks {
		complete = append(complete, chunk...)
	}

	c.enqueue(complete, header.Width, header.Height)
}

func (c *Client) enqueue(payload []byte, width, height uint32) {
	data := append([]byte(nil), payload...)
	dropped := c.decodeQ.Push(encodedFrame{
		payload:     data,
		width:       width,
		height:      height,
		isFullFrame: len(data) == codec.FrameSize(width, height),
	})
	if dropped > 0 {
		c.stats.QueueDropped.Add(uint64(dropped))
	}
}

// sweepStale выбрасывает сборочные записи без обновлений дольше пяти
// секунд; их частичные данные теряются.
func (c *Client) sweepStale() {
	now := time.Now()

	c.fragMu.Lock()
	for key, entry := range c.fragments {
		if now.Sub(entry.lastUpdate) > staleFragmentAge {
			delete(c.fragments, key)
			c.stats.FragmentsStale.Add(1)
		}
	}
	c.fragMu.Unlock()
}
