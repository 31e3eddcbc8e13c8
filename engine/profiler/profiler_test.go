package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func TestTickReportsOncePerInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	core, logs := observer.New(zap.InfoLevel)
	p := NewProfiler(withClock(clock.now), WithLogger(zap.New(core)))

	for range 59 {
		clock.t = clock.t.Add(10 * time.Millisecond)
		assert.False(t, p.Tick())
	}
	clock.t = clock.t.Add(410 * time.Millisecond)
	require.True(t, p.Tick())

	assert.InDelta(t, 60.0, p.Last().FPS, 1e-9)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "profiler", entry.Message)
	assert.InDelta(t, 60.0, entry.ContextMap()["fps"], 1e-9)

	clock.t = clock.t.Add(500 * time.Millisecond)
	assert.False(t, p.Tick())
	assert.Equal(t, 1, logs.Len())
}

func TestWithInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(withClock(clock.now), WithInterval(100*time.Millisecond))

	clock.t = clock.t.Add(50 * time.Millisecond)
	assert.False(t, p.Tick())
	clock.t = clock.t.Add(50 * time.Millisecond)
	assert.True(t, p.Tick())
	assert.InDelta(t, 20.0, p.Last().FPS, 1e-9)
}
