package client

import (
	"bytes"

	"github.com/VladKagaykin/avocodec/codec"
)

// decodeLoop — рабочий пула декодеров: восстанавливает кадры из полезного
// груза и публикует их получателю. Публикация выполняется вне блокировок.
func (c *Client) decodeLoop() {
	defer c.wg.Done()

	for c.running.Load() {
		frame, ok := c.decodeQ.Pop(queuePollPeriod)
		if !ok {
			continue
		}
		c.decode(frame)
	}
}

func (c *Client) decode(frame encodedFrame) {
	// Однобайтовый маркер: изменений нет, кадр засчитывается доставленным,
	// изображение не трогается.
	if bytes.Equal(frame.payload, codec.EmptyDiffSentinel) {
		c.stats.FramesDecoded.Add(1)
		return
	}

	c.stateMu.Lock()

	if c.current == nil || c.width != frame.width || c.height != frame.height {
		c.current = codec.BlackFrame(frame.width, frame.height)
		c.width = frame.width
		c.height = frame.height
	}

	var reconstructed []byte
	if frame.isFullFrame {
		reconstructed = append([]byte(nil), frame.payload...)
	} else {
		// Неполный груз трактуется как RLE; неполный хвост записи
		// отбрасывается при разборе.
		changes := codec.DecompressRLE(frame.payload)
		reconstructed = codec.ApplyChanges(c.current, changes, frame.width, frame.height)
	}
	c.current = reconstructed

	c.stateMu.Unlock()

	c.stats.FramesDecoded.Add(1)
	if c.callback != nil {
		c.callback(reconstructed, frame.width, frame.height, frame.isFullFrame)
	}
}
