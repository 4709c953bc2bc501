package container

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/VladKagaykin/avocodec/codec"
	"github.com/VladKagaykin/avocodec/common"
)

// WriteDiffFile stores the delta between two frames as a standalone .avop
// file: a big-endian delay, a big-endian payload size and the RLE payload.
// An unchanged frame produces an empty payload.
func WriteDiffFile(path string, prev, curr []byte, width, height uint32, delayMs uint32) error {
	if len(prev) != len(curr) {
		return fmt.Errorf("%w: %d vs %d bytes", common.ErrFrameSizeMatch, len(prev), len(curr))
	}
	if len(prev) == 0 {
		return fmt.Errorf("%w: empty frames", common.ErrInvalidFrame)
	}

	changes := codec.CompareFrames(prev, curr, width, height)
	payload := codec.CompressRLE(changes)

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var head [8]byte
	binary.BigEndian.PutUint32(head[0:4], delayMs)
	binary.BigEndian.PutUint32(head[4:8], uint32(len(payload)))
	if _, err := file.Write(head[:]); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := file.Write(payload); err != nil {
			return err
		}
	}
	return nil
}

// ReadDiffFile applies a .avop delta to prev and returns the resulting frame
// and the recorded delay. An empty payload reproduces prev unchanged.
func ReadDiffFile(path string, prev []byte, width, height uint32) ([]byte, uint32, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	var head [8]byte
	if _, err := io.ReadFull(file, head[:]); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", common.ErrTruncatedArchive, err)
	}
	delayMs := binary.BigEndian.Uint32(head[0:4])
	payloadSize := binary.BigEndian.Uint32(head[4:8])

	if payloadSize == 0 {
		return append([]byte(nil), prev...), delayMs, nil
	}

	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(file, payload); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", common.ErrTruncatedArchive, err)
	}

	curr := codec.ApplyChanges(prev, codec.DecompressRLE(payload), width, height)
	return curr, delayMs, nil
}
