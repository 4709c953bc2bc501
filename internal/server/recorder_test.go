package server

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/VladKagaykin/avocodec/codec"
	"github.com/VladKagaykin/avocodec/common"
	"github.com/VladKagaykin/avocodec/container"
)

func testRecorder(t *testing.T, catalog *Catalog) *Recorder {
	t.Helper()
	recorder, err := NewRecorder(common.ServerConfig{
		Recording: common.RecordingConfig{
			Enabled:   true,
			Directory: t.TempDir(),
			FPS:       30,
		},
	}, catalog, NewMetrics(), zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	return recorder
}

func TestRecorder_WritesArchiveAndCatalog(t *testing.T) {
	catalog, err := OpenCatalog(filepath.Join(t.TempDir(), "recordings.db"))
	require.NoError(t, err)
	defer catalog.Close()

	recorder := testRecorder(t, catalog)

	const width, height = 4, 4
	base := time.Now()
	for i := 0; i < 3; i++ {
		frame := make([]byte, codec.FrameSize(width, height))
		for j := range frame {
			frame[j] = byte(i * 80)
		}
		recorder.Write(frame, width, height, base.Add(time.Duration(i)*40*time.Millisecond))
	}

	require.NoError(t, recorder.Stop())

	recordings, err := catalog.List()
	require.NoError(t, err)
	require.Len(t, recordings, 1)

	rec := recordings[0]
	assert.Equal(t, uint32(width), rec.Width)
	assert.Equal(t, uint32(height), rec.Height)
	assert.Equal(t, uint32(3), rec.Frames)
	assert.Equal(t, int64(80), rec.DurationMs)

	archive, err := container.ReadArchive(rec.Path)
	require.NoError(t, err)
	require.Len(t, archive.Frames, 3)
	assert.Equal(t, uint32(0), archive.Frames[0].DelayMs)
	assert.Equal(t, uint32(40), archive.Frames[1].DelayMs)
	assert.Equal(t, uint32(40), archive.Frames[2].DelayMs)
	assert.Equal(t, uint32(30), archive.Header.FPS)
}

func TestRecorder_SkipsMismatchedResolution(t *testing.T) {
	recorder := testRecorder(t, nil)

	now := time.Now()
	recorder.Write(codec.BlackFrame(4, 4), 4, 4, now)
	recorder.Write(codec.BlackFrame(8, 8), 8, 8, now.Add(30*time.Millisecond))
	recorder.Write(codec.BlackFrame(4, 4), 4, 4, now.Add(60*time.Millisecond))

	require.NoError(t, recorder.Stop())
	// Второй Stop без активной записи — no-op.
	require.NoError(t, recorder.Stop())
}

func TestRecorder_RequiresDirectory(t *testing.T) {
	_, err := NewRecorder(common.ServerConfig{}, nil, NewMetrics(), zaptest.NewLogger(t).Sugar())
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestServer_RecordingIntegration(t *testing.T) {
	dir := t.TempDir()
	srv, _ := startTestServer(t, func(config *common.ServerConfig) {
		config.Recording = common.RecordingConfig{Enabled: true, Directory: dir, FPS: 30}
		config.APIServer.DatabasePath = filepath.Join(dir, fmt.Sprintf("catalog-%d.db", time.Now().UnixNano()))
	})

	frame := make([]byte, codec.FrameSize(2, 2))
	for i := range frame {
		frame[i] = 99
	}
	srv.Submit(frame, 2, 2)
	srv.Submit(frame, 2, 2)

	srv.Stop()

	recordings, err := srv.Catalog().List()
	require.NoError(t, err)
	require.Len(t, recordings, 1)
	assert.Equal(t, uint32(2), recordings[0].Frames)

	archive, err := container.ReadArchive(recordings[0].Path)
	require.NoError(t, err)
	require.Len(t, archive.Frames, 2)
	assert.Equal(t, frame, archive.Frames[0].Data)
	assert.Equal(t, frame, archive.Frames[1].Data)
}
