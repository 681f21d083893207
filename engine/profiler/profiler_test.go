package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTick(t *testing.T) {
	start := time.Unix(0, 0)
	now := start
	p := NewProfiler(time.Second)
	p.now = func() time.Time { return now }
	p.lastTime = start

	p.Skip()
	p.Rebuild()
	for i := 0; i < 29; i++ {
		now = now.Add(time.Second / 60)
		assert.False(t, p.Tick())
	}
	now = start.Add(time.Second)
	assert.True(t, p.Tick())

	s := p.Last()
	assert.Equal(t, 30, s.Frames)
	assert.InDelta(t, 30.0, s.FPS, 0.001)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 1, s.Rebuilds)
	assert.Greater(t, s.HeapMB, 0.0)

	now = now.Add(2 * time.Second)
	assert.True(t, p.Tick())
	assert.Equal(t, 0, p.Last().Skipped, "counters reset each interval")
	assert.InDelta(t, 0.5, p.Last().FPS, 0.001)
}

func TestDefaultInterval(t *testing.T) {
	assert.Equal(t, time.Second, NewProfiler(0).updateInterval)
	assert.Equal(t, 250*time.Millisecond, NewProfiler(250*time.Millisecond).updateInterval)
}
