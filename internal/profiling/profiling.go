package profiling

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Profiler accumulates per-frame CPU time by bucket name.
// A nil *Profiler is valid and records nothing.
type Profiler struct {
	mu     sync.Mutex
	totals map[string]time.Duration
}

// New returns an empty profiler.
func New() *Profiler {
	return &Profiler{totals: make(map[string]time.Duration)}
}

// Default backs the package-level helpers.
var Default = New()

// Track returns a stop function that records the elapsed time under name.
// Usage: defer p.Track("world.Tick")()
func (p *Profiler) Track(name string) func() {
	if p == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		d := time.Since(start)
		p.mu.Lock()
		p.totals[name] += d
		p.mu.Unlock()
	}
}

// ResetFrame clears the current totals. Call at the start of each frame.
func (p *Profiler) ResetFrame() {
	if p == nil {
		return
	}
	p.mu.Lock()
	clear(p.totals)
	p.mu.Unlock()
}

// Snapshot returns a copy of the current totals.
func (p *Profiler) Snapshot() map[string]time.Duration {
	out := make(map[string]time.Duration)
	if p == nil {
		return out
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, v := range p.totals {
		out[k] = v
	}
	return out
}

// SumWithPrefix adds up every bucket whose name starts with prefix.
func (p *Profiler) SumWithPrefix(prefix string) time.Duration {
	var sum time.Duration
	for k, v := range p.Snapshot() {
		if strings.HasPrefix(k, prefix) {
			sum += v
		}
	}
	return sum
}

// TopN formats the n largest buckets.
// Example: "world.Tick:4.2ms, terrain.Build:2.1ms"
func (p *Profiler) TopN(n int) string {
	type pair struct {
		name string
		dur  time.Duration
	}
	ss := p.Snapshot()
	list := make([]pair, 0, len(ss))
	for k, v := range ss {
		list = append(list, pair{name: k, dur: v})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].dur != list[j].dur {
			return list[i].dur > list[j].dur
		}
		return list[i].name < list[j].name
	})
	n = min(n, len(list))
	parts := make([]string, 0, n)
	for _, e := range list[:n] {
		parts = append(parts, e.name+":"+formatMs(e.dur))
	}
	return strings.Join(parts, ", ")
}

func formatMs(d time.Duration) string {
	ms := float64(d.Microseconds()) / 1000.0
	return strconv.FormatFloat(ms, 'f', 1, 64) + "ms"
}

// Track records into Default.
func Track(name string) func() { return Default.Track(name) }

// ResetFrame resets Default.
func ResetFrame() { Default.ResetFrame() }

// TopN formats Default's largest buckets.
func TopN(n int) string { return Default.TopN(n) }
