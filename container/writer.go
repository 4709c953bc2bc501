package container

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/VladKagaykin/avocodec/codec"
	"github.com/VladKagaykin/avocodec/common"
)

// MaxFrameDelayMs caps the recorded inter-frame delay. Long stalls on the
// capture side would otherwise freeze playback for their full duration.
const MaxFrameDelayMs = 1000

// totalFramesOffset is the byte offset of the TotalFrames header field,
// backpatched on Close.
const totalFramesOffset = 12

// Writer appends frames to an archive file. The first frame written becomes
// the keyframe; subsequent frames are stored as RLE deltas against the
// decoded previous output frame, so the writer tracks the same reconstruction
// the reader will perform.
type Writer struct {
	file        *os.File
	header      ArchiveHeader
	threshold   uint8
	prevDecoded []byte
	frames      uint32
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithThreshold overrides the diff threshold used for delta frames.
// Threshold 0 produces lossless archives.
func WithThreshold(threshold uint8) WriterOption {
	return func(w *Writer) { w.threshold = threshold }
}

// NewWriter creates the archive file. FPS is advisory; zero means "play back
// using the recorded delays".
func NewWriter(path string, width, height, fps uint32, opts ...WriterOption) (*Writer, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", common.ErrInvalidFrame, width, height)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := &Writer{
		file: file,
		header: ArchiveHeader{
			Width:          width,
			Height:         height,
			FPS:            fps,
			FirstFrameSize: uint32(codec.FrameSize(width, height)),
		},
		threshold: codec.DefaultThreshold,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// WriteFrame appends one captured frame. The first call writes the header and
// the raw keyframe; later calls store a delta. Delays above MaxFrameDelayMs
// are clamped at this point, before they reach the scheduler.
func (w *Writer) WriteFrame(data []byte, delayMs uint32) error {
	if len(data) != int(w.header.FirstFrameSize) {
		return fmt.Errorf("%w: got %d bytes, want %d", common.ErrFrameSizeMatch, len(data), w.header.FirstFrameSize)
	}
	if delayMs > MaxFrameDelayMs {
		delayMs = MaxFrameDelayMs
	}

	if w.frames == 0 {
		return w.writeKeyframe(data, delayMs, true)
	}

	changes := codec.CompareFramesThreshold(w.prevDecoded, data, w.header.Width, w.header.Height, w.threshold)
	payload := codec.CompressRLE(changes)

	if err := w.writeFrameRecord(frameTypeDelta, delayMs, payload); err != nil {
		return err
	}

	// Advance the decoded reference the same way the reader will.
	w.prevDecoded = codec.ApplyChanges(w.prevDecoded, changes, w.header.Width, w.header.Height)
	w.frames++
	return nil
}

// WriteKeyframe appends a full frame mid-archive, resetting the delta chain.
func (w *Writer) WriteKeyframe(data []byte, delayMs uint32) error {
	if len(data) != int(w.header.FirstFrameSize) {
		return fmt.Errorf("%w: got %d bytes, want %d", common.ErrFrameSizeMatch, len(data), w.header.FirstFrameSize)
	}
	if delayMs > MaxFrameDelayMs {
		delayMs = MaxFrameDelayMs
	}
	return w.writeKeyframe(data, delayMs, w.frames == 0)
}

func (w *Writer) writeKeyframe(data []byte, delayMs uint32, first bool) error {
	if first {
		if err := writeHeader(w.file, w.header); err != nil {
			return err
		}
		var delay [4]byte
		binary.BigEndian.PutUint32(delay[:], delayMs)
		if _, err := w.file.Write(delay[:]); err != nil {
			return err
		}
		if _, err := w.file.Write(data); err != nil {
			return err
		}
	} else {
		if err := w.writeFrameRecord(frameTypeFull, delayMs, data); err != nil {
			return err
		}
	}

	w.prevDecoded = append([]byte(nil), data...)
	w.frames++
	return nil
}

func (w *Writer) writeFrameRecord(frameType byte, delayMs uint32, payload []byte) error {
	var head [9]byte
	head[0] = frameType
	binary.BigEndian.PutUint32(head[1:5], delayMs)
	binary.BigEndian.PutUint32(head[5:9], uint32(len(payload)))
	if _, err := w.file.Write(head[:]); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := w.file.Write(payload); err != nil {
			return err
		}
	}
	return nil
}

// Frames returns the number of frames written so far.
func (w *Writer) Frames() uint32 {
	return w.frames
}

// Close backpatches the frame count into the header and closes the file.
// An archive with no frames violates the keyframe-first invariant and is
// refused; the empty file is removed.
func (w *Writer) Close() error {
	if w.frames == 0 {
		name := w.file.Name()
		w.file.Close()
		os.Remove(name)
		return common.ErrArchiveNotStarted
	}

	var count [4]byte
	binary.NativeEndian.PutUint32(count[:], w.frames)
	if _, err := w.file.WriteAt(count[:], totalFramesOffset); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
