// Package metrics collects latency and outcome statistics for a load run
// using HDR histograms, overall and per scenario task.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Histogram range: 1 microsecond to 1 hour, 3 significant figures. Plenty
// for page loads and the 120 s polling ceiling.
const (
	histMin     = 1
	histMax     = 3600000000
	histSigFigs = 3
)

// Engine aggregates results from all simulated users. Counters are atomic;
// histograms are mutex protected. Safe for concurrent use.
type Engine struct {
	mu        sync.Mutex
	overall   *hdrhistogram.Histogram
	perTask   map[string]*taskStats
	startTime time.Time

	total       atomic.Int64
	failed      atomic.Int64
	activeUsers atomic.Int32
}

type taskStats struct {
	hist   *hdrhistogram.Histogram
	count  int64
	failed int64
}

// NewEngine creates a metrics engine; the run clock starts now.
func NewEngine() *Engine {
	return &Engine{
		overall:   hdrhistogram.New(histMin, histMax, histSigFigs),
		perTask:   make(map[string]*taskStats),
		startTime: time.Now(),
	}
}

// Record stores the outcome of one task iteration.
func (e *Engine) Record(task string, d time.Duration, success bool) {
	e.total.Add(1)
	if !success {
		e.failed.Add(1)
	}

	micros := d.Microseconds()
	if micros < histMin {
		micros = histMin
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.overall.RecordValue(micros)
	ts, ok := e.perTask[task]
	if !ok {
		ts = &taskStats{hist: hdrhistogram.New(histMin, histMax, histSigFigs)}
		e.perTask[task] = ts
	}
	ts.hist.RecordValue(micros)
	ts.count++
	if !success {
		ts.failed++
	}
}

// UserStarted increments the active-user gauge.
func (e *Engine) UserStarted() {
	e.activeUsers.Add(1)
}

// UserStopped decrements the active-user gauge.
func (e *Engine) UserStopped() {
	e.activeUsers.Add(-1)
}

// ActiveUsers returns the number of users currently running.
func (e *Engine) ActiveUsers() int {
	return int(e.activeUsers.Load())
}

// Stats summarize one task's (or the whole run's) latencies.
type Stats struct {
	Count  int64
	Failed int64
	P50    time.Duration
	P90    time.Duration
	P95    time.Duration
	P99    time.Duration
	Mean   time.Duration
	Max    time.Duration
}

// TaskStats pairs a task name with its stats, for ordered reporting.
type TaskStats struct {
	Name string
	Stats
}

// Summary is a point-in-time view of the run.
type Summary struct {
	Elapsed     time.Duration
	Total       int64
	Failed      int64
	RatePerSec  float64
	ActiveUsers int
	Overall     Stats
	Tasks       []TaskStats
}

// Snapshot computes a summary of everything recorded so far.
func (e *Engine) Snapshot() Summary {
	elapsed := time.Since(e.startTime)
	total := e.total.Load()

	s := Summary{
		Elapsed:     elapsed,
		Total:       total,
		Failed:      e.failed.Load(),
		ActiveUsers: e.ActiveUsers(),
	}
	if elapsed > 0 {
		s.RatePerSec = float64(total) / elapsed.Seconds()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s.Overall = statsFromHist(e.overall, total, s.Failed)
	for name, ts := range e.perTask {
		s.Tasks = append(s.Tasks, TaskStats{
			Name:  name,
			Stats: statsFromHist(ts.hist, ts.count, ts.failed),
		})
	}
	sort.Slice(s.Tasks, func(i, j int) bool { return s.Tasks[i].Name < s.Tasks[j].Name })
	return s
}

func statsFromHist(h *hdrhistogram.Histogram, count, failed int64) Stats {
	return Stats{
		Count:  count,
		Failed: failed,
		P50:    time.Duration(h.ValueAtQuantile(50)) * time.Microsecond,
		P90:    time.Duration(h.ValueAtQuantile(90)) * time.Microsecond,
		P95:    time.Duration(h.ValueAtQuantile(95)) * time.Microsecond,
		P99:    time.Duration(h.ValueAtQuantile(99)) * time.Microsecond,
		Mean:   time.Duration(h.Mean()) * time.Microsecond,
		Max:    time.Duration(h.Max()) * time.Microsecond,
	}
}
