package playback

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequence(count int, delayMs uint32) []Frame {
	frames := make([]Frame, count)
	for i := range frames {
		frames[i] = Frame{Data: []byte{byte(i)}, DelayMs: delayMs}
	}
	frames[0].DelayMs = 0
	return frames
}

func TestPlay_DeliversAllFramesInOrder(t *testing.T) {
	s := NewScheduler(1, 1)

	var got []byte
	consumer := func(data []byte, width, height uint32) {
		assert.Equal(t, uint32(1), width)
		assert.Equal(t, uint32(1), height)
		got = append(got, data[0])
	}

	err := s.Play(context.Background(), sequence(5, 1), consumer)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3, 4}, got)
}

func TestPlay_HonorsRecordedDelays(t *testing.T) {
	s := NewScheduler(1, 1)

	frames := []Frame{
		{Data: []byte{0}, DelayMs: 30},
		{Data: []byte{1}, DelayMs: 30},
		{Data: []byte{2}, DelayMs: 30},
	}

	start := time.Now()
	err := s.Play(context.Background(), frames, func([]byte, uint32, uint32) {})
	require.NoError(t, err)
	elapsed := time.Since(start)

	// Total run time matches the sum of recorded delays. Allow slack for
	// timer granularity but catch gross drift.
	assert.GreaterOrEqual(t, elapsed, 90*time.Millisecond)
	assert.Less(t, elapsed, 200*time.Millisecond)
}

func TestPlay_SlowConsumerDoesNotCompressDelays(t *testing.T) {
	s := NewScheduler(1, 1)

	frames := []Frame{
		{Data: []byte{0}, DelayMs: 0},
		{Data: []byte{1}, DelayMs: 20},
		{Data: []byte{2}, DelayMs: 20},
	}

	var displayTimes []time.Time
	consumer := func([]byte, uint32, uint32) {
		displayTimes = append(displayTimes, time.Now())
		time.Sleep(35 * time.Millisecond) // slower than the frame delay
	}

	err := s.Play(context.Background(), frames, consumer)
	require.NoError(t, err)
	require.Len(t, displayTimes, 3)

	// The deadline rebases on the actual display start, so each gap is the
	// consumer time (35ms) rather than consumer time plus the delay.
	gap := displayTimes[2].Sub(displayTimes[1])
	assert.GreaterOrEqual(t, gap, 35*time.Millisecond)
	assert.Less(t, gap, 100*time.Millisecond)
}

func TestPlay_ContextCancel(t *testing.T) {
	s := NewScheduler(1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	frames := []Frame{
		{Data: []byte{0}, DelayMs: 500},
		{Data: []byte{1}, DelayMs: 500},
	}

	delivered := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := s.Play(ctx, frames, func([]byte, uint32, uint32) { delivered++ })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, delivered)
}

func TestPauseResume_RebasesTimeline(t *testing.T) {
	s := NewScheduler(1, 1)

	frames := []Frame{
		{Data: []byte{0}, DelayMs: 10},
		{Data: []byte{1}, DelayMs: 10},
	}

	var second time.Time
	consumer := func(data []byte, _, _ uint32) {
		if data[0] == 1 {
			second = time.Now()
		}
	}

	s.Pause()
	start := time.Now()

	done := make(chan error, 1)
	go func() { done <- s.Play(context.Background(), frames, consumer) }()

	time.Sleep(60 * time.Millisecond)
	s.Resume()

	require.NoError(t, <-done)
	require.False(t, second.IsZero())

	// The 60ms pause must not be double-counted into the 10ms frame delay.
	sincePause := second.Sub(start)
	assert.GreaterOrEqual(t, sincePause, 60*time.Millisecond)
	assert.Less(t, sincePause, 160*time.Millisecond)
}

func TestPauseResume_Idempotent(t *testing.T) {
	s := NewScheduler(1, 1)
	s.Resume() // resume without pause is a no-op
	s.Pause()
	s.Pause()
	s.Resume()
	s.Resume()

	err := s.Play(context.Background(), sequence(2, 1), func([]byte, uint32, uint32) {})
	assert.NoError(t, err)
}
