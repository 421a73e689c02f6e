package profiling

import (
	"strings"
	"testing"
	"time"
)

func TestTopNAndPrefix(t *testing.T) {
	p := New()
	p.totals["world.Tick"] = 3 * time.Millisecond
	p.totals["world.Stream"] = 1 * time.Millisecond
	p.totals["terrain.Build"] = 5 * time.Millisecond

	if got := p.SumWithPrefix("world."); got != 4*time.Millisecond {
		t.Errorf("SumWithPrefix(world.) = %v, want 4ms", got)
	}
	if got := p.TopN(2); got != "terrain.Build:5.0ms, world.Tick:3.0ms" {
		t.Errorf("TopN(2) = %q", got)
	}
	if got := p.TopN(10); !strings.HasSuffix(got, "world.Stream:1.0ms") {
		t.Errorf("TopN(10) = %q", got)
	}
}

func TestTrackAndReset(t *testing.T) {
	p := New()
	p.totals["world.Tick"] = 3 * time.Millisecond
	p.Track("world.Tick")()
	if p.Snapshot()["world.Tick"] < 3*time.Millisecond {
		t.Errorf("Track did not add to the existing bucket")
	}

	p.ResetFrame()
	if n := len(p.Snapshot()); n != 0 {
		t.Errorf("ResetFrame left %d buckets", n)
	}
}

func TestNilProfiler(t *testing.T) {
	var p *Profiler
	p.Track("x")()
	p.ResetFrame()
	if s := p.TopN(3); s != "" {
		t.Errorf("TopN on nil profiler = %q", s)
	}
}
