// Package codec implements the AVO frame codec: per-pixel frame differencing
// with run-length compression, and the fixed-header datagram packet format
// used by the streaming transport.
//
// A frame is a tightly packed row-major RGB buffer of exactly 3*width*height
// bytes. Deltas between frames are expressed as PixelChange runs and
// serialized as fixed 8-byte RLE records.
package codec

const (
	// DefaultThreshold is the per-channel absolute difference above which a
	// pixel counts as changed. Differences of exactly this value do not.
	DefaultThreshold = 10

	// MaxRunLength is the largest run a single PixelChange can describe,
	// bounded by the one-byte count field of the RLE record.
	MaxRunLength = 255

	// MaxPayloadSize is the largest packet payload sent in one datagram.
	// Encoded frames above this size are fragmented.
	MaxPayloadSize = 60000

	// PacketHeaderSize is the size of the datagram packet header.
	PacketHeaderSize = 24

	// RLERecordSize is the size of one serialized PixelChange.
	RLERecordSize = 8
)

// EmptyDiffSentinel is the one-byte payload transmitted in place of an empty
// delta, so the receiver can count the frame as delivered without repainting.
var EmptyDiffSentinel = []byte{0x00}

// PixelChange describes a run of Count consecutive pixels starting at pixel
// index Offset that all take the value (R, G, B).
type PixelChange struct {
	Offset uint32
	Count  uint8
	R      uint8
	G      uint8
	B      uint8
}

// FrameSize returns the byte length of a packed RGB frame of the given shape.
func FrameSize(width, height uint32) int {
	return int(width) * int(height) * 3
}

// BlackFrame returns an all-zero RGB frame of the given shape.
func BlackFrame(width, height uint32) []byte {
	return make([]byte, FrameSize(width, height))
}
