package timer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu       sync.Mutex
	ticks    []int
	complete int
	done     chan struct{}
}

func newRecorder() *recorder { return &recorder{done: make(chan struct{}, 1)} }

func (r *recorder) tick(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, n)
}

func (r *recorder) finish() {
	r.mu.Lock()
	r.complete++
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *recorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ticks), r.complete
}

func TestCountdown_TicksEveryUnitThenCompletesOnce(t *testing.T) {
	c := NewCountdown(time.Millisecond)
	r := newRecorder()

	require.NoError(t, c.Start(30, r.tick, r.finish))

	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for completion")
	}
	time.Sleep(10 * time.Millisecond)

	ticks, complete := r.counts()
	assert.Equal(t, 31, ticks)
	assert.Equal(t, 1, complete)
	assert.Equal(t, 30, r.ticks[0])
	assert.Equal(t, 0, r.ticks[30])
	for i := 1; i < len(r.ticks); i++ {
		assert.Equal(t, r.ticks[i-1]-1, r.ticks[i])
	}
	assert.False(t, c.Active())
}

func TestCountdown_CancelMidwayStopsCallbacks(t *testing.T) {
	c := NewCountdown(time.Millisecond)
	r := newRecorder()

	onTick := func(n int) {
		r.tick(n)
		if n == 15 {
			c.Cancel()
		}
	}
	require.NoError(t, c.Start(30, onTick, r.finish))

	time.Sleep(100 * time.Millisecond)

	ticks, complete := r.counts()
	assert.Equal(t, 16, ticks)
	assert.Zero(t, complete)
	assert.False(t, c.Active())
}

func TestCountdown_CancelIsIdempotent(t *testing.T) {
	c := NewCountdown(time.Millisecond)
	c.Cancel()

	require.NoError(t, c.Start(5, nil, nil))
	c.Cancel()
	c.Cancel()
	assert.False(t, c.Active())
}

func TestCountdown_RejectsConcurrentStart(t *testing.T) {
	c := NewCountdown(time.Hour)
	require.NoError(t, c.Start(30, nil, nil))
	defer c.Cancel()

	err := c.Start(30, nil, nil)
	assert.ErrorIs(t, err, ErrDoubleTimer)
}

func TestCountdown_RestartAfterCancel(t *testing.T) {
	c := NewCountdown(time.Millisecond)
	require.NoError(t, c.Start(30, nil, nil))
	c.Cancel()

	r := newRecorder()
	require.NoError(t, c.Start(2, r.tick, r.finish))
	select {
	case <-r.done:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for completion")
	}
	ticks, complete := r.counts()
	assert.Equal(t, 3, ticks)
	assert.Equal(t, 1, complete)
}

func TestCountdown_StartFromCompletion(t *testing.T) {
	c := NewCountdown(time.Millisecond)
	restarted := make(chan error, 1)

	require.NoError(t, c.Start(0, nil, func() {
		restarted <- c.Start(0, nil, nil)
	}))

	select {
	case err := <-restarted:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for completion")
	}
	c.Cancel()
}
