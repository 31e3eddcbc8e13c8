package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-particles/engine/logging"
	"go.uber.org/zap"
)

// Stats is one profiler report.
type Stats struct {
	FPS         float64
	HeapMB      float64
	AllocRateMB float64
	SysMB       float64
	GCCount     uint32
	LastPause   time.Duration
	MaxPause    time.Duration
}

// Profiler tracks frame rate and memory statistics for performance monitoring.
// Logs a report at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	last           Stats

	now    func() time.Time
	logger *zap.Logger
}

// ProfilerOption is a functional option for NewProfiler.
type ProfilerOption func(*Profiler)

// WithInterval sets the report interval. Defaults to 1 second.
func WithInterval(interval time.Duration) ProfilerOption {
	return func(p *Profiler) {
		if interval > 0 {
			p.updateInterval = interval
		}
	}
}

// WithLogger sets the logger reports are written to.
func WithLogger(logger *zap.Logger) ProfilerOption {
	return func(p *Profiler) {
		p.logger = logging.OrNop(logger)
	}
}

// withClock replaces time.Now.
func withClock(now func() time.Time) ProfilerOption {
	return func(p *Profiler) {
		p.now = now
	}
}

// NewProfiler creates a new Profiler. The update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
		logger:         zap.NewNop(),
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)

	// PauseNs is a circular buffer of the last 256 GC pauses
	gcCount := p.memStats.NumGC
	var lastPause, maxPause uint64
	if gcCount > 0 {
		lastPause = p.memStats.PauseNs[(gcCount-1)%256]
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPause = max(maxPause, p.memStats.PauseNs[i%256])
		}
	}

	p.last = Stats{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		SysMB:       float64(p.memStats.Sys) / 1024 / 1024,
		GCCount:     gcCount,
		LastPause:   time.Duration(lastPause),
		MaxPause:    time.Duration(maxPause),
	}

	p.logger.Info("profiler",
		zap.Float64("fps", p.last.FPS),
		zap.Float64("heap_mb", p.last.HeapMB),
		zap.Float64("alloc_rate_mb_s", p.last.AllocRateMB),
		zap.Uint32("gc", p.last.GCCount),
		zap.Duration("gc_last_pause", p.last.LastPause),
		zap.Duration("gc_max_pause", p.last.MaxPause),
		zap.Float64("sys_mb", p.last.SysMB),
	)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Last returns the most recent report.
func (p *Profiler) Last() Stats {
	return p.last
}
