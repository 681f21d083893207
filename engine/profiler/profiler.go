// Package profiler reports frame rate, pipeline churn and memory statistics at a fixed interval.
package profiler

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-neural/common"
)

// Snapshot is one interval's worth of statistics.
type Snapshot struct {
	FPS          float64
	Frames       int
	Skipped      int
	Rebuilds     int
	HeapMB       float64
	AllocRateMB  float64
	GCCount      uint32
	LastPauseUs  uint64
	MaxPauseUs   uint64
	SysMB        float64
	IntervalSecs float64
}

// Profiler tracks frame rate and memory statistics for performance monitoring.
// Logs stats through common.Logger at a configurable interval.
type Profiler struct {
	mu             sync.Mutex
	now            func() time.Time
	frameCount     int
	skipped        int
	rebuilds       int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	last           Snapshot
}

// NewProfiler creates a new Profiler.
//
// Parameters:
//   - interval: how often stats are logged; non-positive values default to 1 second
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		now:            time.Now,
		lastTime:       time.Now(),
		updateInterval: interval,
	}
}

// Skip records a frame that was dropped before reaching the pipeline.
func (p *Profiler) Skip() {
	p.mu.Lock()
	p.skipped++
	p.mu.Unlock()
}

// Rebuild records a pipeline rebuild.
func (p *Profiler) Rebuild() {
	p.mu.Lock()
	p.rebuilds++
	p.mu.Unlock()
}

// Last returns the most recently logged snapshot.
func (p *Profiler) Last() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Tick should be called once per presented frame.
// Logs performance statistics when the update interval has elapsed.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	s := Snapshot{
		FPS:          float64(p.frameCount) / elapsed.Seconds(),
		Frames:       p.frameCount,
		Skipped:      p.skipped,
		Rebuilds:     p.rebuilds,
		HeapMB:       float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:        float64(p.memStats.Sys) / 1024 / 1024,
		AllocRateMB:  float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:      p.memStats.NumGC,
		IntervalSecs: elapsed.Seconds(),
	}

	if gcCount := p.memStats.NumGC; gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses
		s.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			s.MaxPauseUs = max(s.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	common.Logger().Info("profiler",
		"fps", s.FPS,
		"skipped", s.Skipped,
		"rebuilds", s.Rebuilds,
		"heap_mb", s.HeapMB,
		"alloc_rate_mb", s.AllocRateMB,
		"gc", s.GCCount,
		"gc_last_us", s.LastPauseUs,
		"gc_max_us", s.MaxPauseUs,
		"sys_mb", s.SysMB,
	)

	p.last = s
	p.frameCount = 0
	p.skipped = 0
	p.rebuilds = 0
	p.lastTime = currentTime
	p.lastGCCount = s.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
