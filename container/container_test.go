package container

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VladKagaykin/avocodec/codec"
	"github.com/VladKagaykin/avocodec/common"
)

// gradientFrame builds a deterministic frame whose content varies with seed.
func gradientFrame(width, height uint32, seed byte) []byte {
	frame := make([]byte, codec.FrameSize(width, height))
	for i := 0; i < len(frame); i += 3 {
		frame[i] = byte(i/3) + seed
		frame[i+1] = seed
		frame[i+2] = byte(i/3) ^ seed
	}
	return frame
}

func TestArchiveRoundTrip(t *testing.T) {
	const width, height = 16, 8
	path := filepath.Join(t.TempDir(), "capture.avo")

	delays := []uint32{0, 33, 33, 33, 200, 33, 33, 33, 33, 33}
	frames := make([][]byte, len(delays))
	for i := range frames {
		frames[i] = gradientFrame(width, height, byte(i*40))
	}

	// Zero threshold keeps the archive lossless, so decoded frames must be
	// byte-identical to the captured ones.
	w, err := NewWriter(path, width, height, 30, WithThreshold(0))
	require.NoError(t, err)
	for i, frame := range frames {
		require.NoError(t, w.WriteFrame(frame, delays[i]))
	}
	require.NoError(t, w.Close())

	archive, err := ReadArchive(path)
	require.NoError(t, err)

	assert.Equal(t, uint32(width), archive.Header.Width)
	assert.Equal(t, uint32(height), archive.Header.Height)
	assert.Equal(t, uint32(30), archive.Header.FPS)
	assert.Equal(t, uint32(len(frames)), archive.Header.TotalFrames)
	assert.Equal(t, uint32(codec.FrameSize(width, height)), archive.Header.FirstFrameSize)

	require.Len(t, archive.Frames, len(frames))
	for i, decoded := range archive.Frames {
		assert.Equal(t, frames[i], decoded.Data, "frame %d", i)
		assert.Equal(t, delays[i], decoded.DelayMs, "frame %d delay", i)
		assert.True(t, decoded.IsFullFrame)
		assert.Len(t, decoded.Data, codec.FrameSize(width, height))
	}
}

func TestArchive_UnchangedFrameStoredAsEmptyDelta(t *testing.T) {
	const width, height = 4, 4
	path := filepath.Join(t.TempDir(), "static.avo")

	frame := gradientFrame(width, height, 1)

	w, err := NewWriter(path, width, height, 0)
	require.NoError(t, err)
	require.NoError(t, w.WriteFrame(frame, 0))
	require.NoError(t, w.WriteFrame(frame, 33))
	require.NoError(t, w.Close())

	// header + delay + keyframe + one frame record with empty payload
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(HeaderSize+4+codec.FrameSize(width, height)+9), info.Size())

	archive, err := ReadArchive(path)
	require.NoError(t, err)
	require.Len(t, archive.Frames, 2)
	assert.Equal(t, frame, archive.Frames[1].Data)
	assert.Equal(t, uint32(33), archive.Frames[1].DelayMs)
}

func TestArchive_MidStreamKeyframe(t *testing.T) {
	const width, height = 8, 8
	path := filepath.Join(t.TempDir(), "key.avo")

	first := gradientFrame(width, height, 0)
	second := gradientFrame(width, height, 90)

	w, err := NewWriter(path, width, height, 0)
	require.NoError(t, err)
	require.NoError(t, w.WriteFrame(first, 0))
	require.NoError(t, w.WriteKeyframe(second, 40))
	require.NoError(t, w.Close())

	archive, err := ReadArchive(path)
	require.NoError(t, err)
	require.Len(t, archive.Frames, 2)
	assert.Equal(t, second, archive.Frames[1].Data)
	assert.True(t, archive.Frames[1].IsFullFrame)
}

func TestWriter_DelayClamp(t *testing.T) {
	const width, height = 2, 2
	path := filepath.Join(t.TempDir(), "clamp.avo")

	w, err := NewWriter(path, width, height, 0)
	require.NoError(t, err)
	require.NoError(t, w.WriteFrame(gradientFrame(width, height, 0), 5000))
	require.NoError(t, w.Close())

	archive, err := ReadArchive(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(MaxFrameDelayMs), archive.Frames[0].DelayMs)
}

func TestWriter_RejectsFrameSizeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.avo")
	w, err := NewWriter(path, 4, 4, 0)
	require.NoError(t, err)

	err = w.WriteFrame(make([]byte, 7), 0)
	assert.ErrorIs(t, err, common.ErrFrameSizeMatch)
	assert.Equal(t, common.ErrArchiveNotStarted, w.Close())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "empty archive should be removed")
}

func TestWriter_RejectsZeroDimensions(t *testing.T) {
	_, err := NewWriter(filepath.Join(t.TempDir(), "zero.avo"), 0, 4, 0)
	assert.ErrorIs(t, err, common.ErrInvalidFrame)
}

func TestReadArchive_Truncated(t *testing.T) {
	const width, height = 4, 4
	path := filepath.Join(t.TempDir(), "trunc.avo")

	w, err := NewWriter(path, width, height, 0)
	require.NoError(t, err)
	require.NoError(t, w.WriteFrame(gradientFrame(width, height, 0), 0))
	require.NoError(t, w.WriteFrame(gradientFrame(width, height, 77), 33))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-4], 0o644))

	_, err = ReadArchive(path)
	assert.ErrorIs(t, err, common.ErrTruncatedArchive)
}

func TestDiffFileRoundTrip(t *testing.T) {
	const width, height = 8, 4
	path := filepath.Join(t.TempDir(), "delta.avop")

	prev := gradientFrame(width, height, 0)
	curr := gradientFrame(width, height, 120)

	require.NoError(t, WriteDiffFile(path, prev, curr, width, height, 42))

	restored, delayMs, err := ReadDiffFile(path, prev, width, height)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), delayMs)
	// The default threshold admits per-channel drift up to the threshold;
	// every pixel the diff engine saw as changed must match exactly.
	changes := codec.CompareFrames(restored, curr, width, height)
	assert.Empty(t, changes)
}

func TestDiffFile_NoChange(t *testing.T) {
	const width, height = 4, 4
	path := filepath.Join(t.TempDir(), "same.avop")

	frame := gradientFrame(width, height, 3)
	require.NoError(t, WriteDiffFile(path, frame, frame, width, height, 16))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(8), info.Size(), "unchanged frame stores an empty payload")

	restored, delayMs, err := ReadDiffFile(path, frame, width, height)
	require.NoError(t, err)
	assert.Equal(t, frame, restored)
	assert.Equal(t, uint32(16), delayMs)
}

func TestDiffFile_RejectsMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.avop")
	err := WriteDiffFile(path, make([]byte, 12), make([]byte, 9), 2, 2, 0)
	assert.ErrorIs(t, err, common.ErrFrameSizeMatch)

	err = WriteDiffFile(path, nil, nil, 0, 0, 0)
	assert.ErrorIs(t, err, common.ErrInvalidFrame)
}
