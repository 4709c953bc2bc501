package container

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/VladKagaykin/avocodec/codec"
	"github.com/VladKagaykin/avocodec/common"
)

// Frame is one decoded archive frame. Data is always a full RGB buffer,
// regardless of the on-disk representation.
type Frame struct {
	Data        []byte
	DelayMs     uint32
	IsFullFrame bool
}

// Archive is a fully decoded archive file.
type Archive struct {
	Header ArchiveHeader
	Frames []Frame
}

// ReadArchive decodes the whole archive, reconstructing every frame by
// applying stored deltas to the running previous output frame.
func ReadArchive(path string) (*Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := bufio.NewReader(file)

	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	var firstDelay [4]byte
	if _, err := io.ReadFull(r, firstDelay[:]); err != nil {
		return nil, fmt.Errorf("%w: first frame delay: %v", common.ErrTruncatedArchive, err)
	}

	keyframe := make([]byte, header.FirstFrameSize)
	if _, err := io.ReadFull(r, keyframe); err != nil {
		return nil, fmt.Errorf("%w: keyframe: %v", common.ErrTruncatedArchive, err)
	}

	archive := &Archive{
		Header: header,
		Frames: make([]Frame, 0, header.TotalFrames),
	}
	archive.Frames = append(archive.Frames, Frame{
		Data:        keyframe,
		DelayMs:     binary.BigEndian.Uint32(firstDelay[:]),
		IsFullFrame: true,
	})

	prev := keyframe
	for i := uint32(1); i < header.TotalFrames; i++ {
		frame, err := readFrameRecord(r, prev, header)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		archive.Frames = append(archive.Frames, frame)
		prev = frame.Data
	}

	return archive, nil
}

func readFrameRecord(r io.Reader, prev []byte, header ArchiveHeader) (Frame, error) {
	var head [9]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", common.ErrTruncatedArchive, err)
	}

	frameType := head[0]
	delayMs := binary.BigEndian.Uint32(head[1:5])
	payloadSize := binary.BigEndian.Uint32(head[5:9])

	var payload []byte
	if payloadSize > 0 {
		payload = make([]byte, payloadSize)
		if _, err := io.ReadFull(r, payload); err != nil {
			return Frame{}, fmt.Errorf("%w: %v", common.ErrTruncatedArchive, err)
		}
	}

	switch frameType {
	case frameTypeFull:
		if int(payloadSize) != len(prev) {
			return Frame{}, fmt.Errorf("%w: keyframe payload %d bytes, want %d",
				common.ErrInvalidArchive, payloadSize, len(prev))
		}
		return Frame{Data: payload, DelayMs: delayMs, IsFullFrame: true}, nil

	case frameTypeDelta:
		// A zero-size delta means the frame did not change; the previous
		// output is re-emitted as its own frame.
		data := codec.ApplyChanges(prev, codec.DecompressRLE(payload), header.Width, header.Height)
		return Frame{Data: data, DelayMs: delayMs, IsFullFrame: true}, nil

	default:
		return Frame{}, fmt.Errorf("%w: unknown frame type %d", common.ErrInvalidArchive, frameType)
	}
}
