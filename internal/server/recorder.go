package server

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/VladKagaykin/avocodec/common"
	"github.com/VladKagaykin/avocodec/container"
)

// Recorder пишет поступающие кадры в архив с измеренными межкадровыми
// задержками и по завершении регистрирует файл в каталоге.
type Recorder struct {
	mu sync.Mutex

	dir     string
	fps     uint32
	catalog *Catalog
	metrics *Metrics
	log     *zap.SugaredLogger

	id          uuid.UUID
	path        string
	writer      *container.Writer
	width       uint32
	height      uint32
	startedAt   time.Time
	lastFrameAt time.Time
}

// NewRecorder готовит каталог записи на диске.
func NewRecorder(config common.ServerConfig, catalog *Catalog, metrics *Metrics, log *zap.SugaredLogger) (*Recorder, error) {
	if config.Recording.Directory == "" {
		return nil, fmt.Errorf("%w: recording.directory", common.ErrMissingConfig)
	}
	if err := os.MkdirAll(config.Recording.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("create recording directory: %w", err)
	}

	return &Recorder{
		dir:     config.Recording.Directory,
		fps:     uint32(config.Recording.FPS),
		catalog: catalog,
		metrics: metrics,
		log:     log.Named("recorder"),
	}, nil
}

// Write добавляет кадр в текущий архив. Первый кадр определяет разрешение
// и создает файл; кадры другого разрешения пропускаются.
func (r *Recorder) Write(data []byte, width, height uint32, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.writer == nil {
		if err := r.startLocked(width, height, at); err != nil {
			r.log.Warnw("failed to start recording", "error", err)
			return
		}
	}

	if width != r.width || height != r.height {
		return
	}

	var delayMs uint32
	if !r.lastFrameAt.IsZero() {
		delayMs = uint32(at.Sub(r.lastFrameAt).Milliseconds())
	}

	if err := r.writer.WriteFrame(data, delayMs); err != nil {
		r.log.Warnw("failed to write frame", "error", err)
		return
	}
	r.lastFrameAt = at
	r.metrics.RecordedFrames.Inc()
}

func (r *Recorder) startLocked(width, height uint32, at time.Time) error {
	id := uuid.New()
	path := filepath.Join(r.dir, id.String()+".avo")

	writer, err := container.NewWriter(path, width, height, r.fps)
	if err != nil {
		return err
	}

	r.id = id
	r.path = path
	r.writer = writer
	r.width = width
	r.height = height
	r.startedAt = at
	r.lastFrameAt = time.Time{}

	r.log.Infow("recording started", "id", id.String(), "path", path,
		"width", width, "height", height)
	return nil
}

// Stop закрывает текущий архив и вносит его в каталог.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.writer == nil {
		return nil
	}

	frames := r.writer.Frames()
	err := r.writer.Close()
	r.writer = nil
	if err != nil {
		return err
	}

	rec := Recording{
		ID:         r.id.String(),
		Path:       r.path,
		Width:      r.width,
		Height:     r.height,
		Frames:     frames,
		DurationMs: r.lastFrameAt.Sub(r.startedAt).Milliseconds(),
		CreatedAt:  r.startedAt,
	}

	if r.catalog != nil {
		if err := r.catalog.Add(rec); err != nil {
			return fmt.Errorf("register recording: %w", err)
		}
	}

	r.log.Infow("recording finished", "id", rec.ID, "frames", rec.Frames,
		"duration_ms", rec.DurationMs)
	return nil
}
