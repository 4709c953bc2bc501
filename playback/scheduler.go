// Package playback drives a frame consumer at the cadence recorded in an
// archive, compensating for consumer latency so delays do not accumulate.
package playback

import (
	"context"
	"sync"
	"time"
)

// Frame is one frame of a playback sequence.
type Frame struct {
	Data    []byte
	DelayMs uint32
}

// Consumer receives decoded frames at their scheduled display times.
type Consumer func(data []byte, width, height uint32)

// Scheduler replays a frame sequence honoring per-frame delays. The next
// frame's deadline is based on the actual display start of the current frame,
// not the intended one, so a slow consumer shifts the timeline instead of
// compressing the following delays.
type Scheduler struct {
	width  uint32
	height uint32

	mu       sync.Mutex
	paused   bool
	resumeCh chan struct{}
}

// NewScheduler creates a scheduler for frames of the given shape.
func NewScheduler(width, height uint32) *Scheduler {
	return &Scheduler{
		width:  width,
		height: height,
	}
}

// Play runs the sequence to completion on the caller's goroutine. It returns
// early only when ctx is cancelled. The input is trusted: delays are expected
// to be clamped at capture time.
func (s *Scheduler) Play(ctx context.Context, frames []Frame, consumer Consumer) error {
	next := time.Now()

	for _, frame := range frames {
		if err := s.sleepUntil(ctx, next); err != nil {
			return err
		}

		if err := s.waitResumed(ctx); err != nil {
			return err
		}

		displayStart := time.Now()
		consumer(frame.Data, s.width, s.height)
		next = displayStart.Add(time.Duration(frame.DelayMs) * time.Millisecond)
	}

	// Drain the last frame's delay so the total wall-clock time of a run
	// matches the sum of the recorded delays.
	return s.sleepUntil(ctx, next)
}

// Pause suspends playback before the next frame. Frames already handed to the
// consumer are unaffected.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused {
		s.paused = true
		s.resumeCh = make(chan struct{})
	}
}

// Resume continues a paused playback. The pause duration is not replayed:
// the next frame displays immediately and the timeline rebases from there.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused {
		s.paused = false
		close(s.resumeCh)
	}
}

func (s *Scheduler) sleepUntil(ctx context.Context, deadline time.Time) error {
	wait := time.Until(deadline)
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) waitResumed(ctx context.Context) error {
	s.mu.Lock()
	paused := s.paused
	resumeCh := s.resumeCh
	s.mu.Unlock()

	if !paused {
		return nil
	}

	select {
	case <-resumeCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
