// Package container reads and writes AVO archive files: a single keyframe
// followed by delta frames carrying their original inter-frame delays.
package container

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/VladKagaykin/avocodec/codec"
	"github.com/VladKagaykin/avocodec/common"
)

// HeaderSize is the on-disk size of the archive header.
const HeaderSize = 20

// Frame type tags stored before every frame after the first.
const (
	frameTypeDelta = 0
	frameTypeFull  = 1
)

// ArchiveHeader is the fixed file header. Unlike every other multi-byte
// field in the system it is stored in native byte order; archives are not
// portable across endianness. Every other field is big-endian.
type ArchiveHeader struct {
	Width          uint32
	Height         uint32
	FPS            uint32
	TotalFrames    uint32
	FirstFrameSize uint32
}

func writeHeader(w io.Writer, h ArchiveHeader) error {
	var buf [HeaderSize]byte
	binary.NativeEndian.PutUint32(buf[0:4], h.Width)
	binary.NativeEndian.PutUint32(buf[4:8], h.Height)
	binary.NativeEndian.PutUint32(buf[8:12], h.FPS)
	binary.NativeEndian.PutUint32(buf[12:16], h.TotalFrames)
	binary.NativeEndian.PutUint32(buf[16:20], h.FirstFrameSize)
	_, err := w.Write(buf[:])
	return err
}

func readHeader(r io.Reader) (ArchiveHeader, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return ArchiveHeader{}, fmt.Errorf("%w: %v", common.ErrTruncatedArchive, err)
	}

	h := ArchiveHeader{
		Width:          binary.NativeEndian.Uint32(buf[0:4]),
		Height:         binary.NativeEndian.Uint32(buf[4:8]),
		FPS:            binary.NativeEndian.Uint32(buf[8:12]),
		TotalFrames:    binary.NativeEndian.Uint32(buf[12:16]),
		FirstFrameSize: binary.NativeEndian.Uint32(buf[16:20]),
	}

	if h.Width == 0 || h.Height == 0 || h.FirstFrameSize == 0 {
		return ArchiveHeader{}, fmt.Errorf("%w: zero dimension in header", common.ErrInvalidArchive)
	}
	if int(h.FirstFrameSize) != codec.FrameSize(h.Width, h.Height) {
		return ArchiveHeader{}, fmt.Errorf("%w: first frame size %d does not match %dx%d",
			common.ErrInvalidArchive, h.FirstFrameSize, h.Width, h.Height)
	}

	return h, nil
}
