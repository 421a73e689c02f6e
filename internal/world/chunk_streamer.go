package world

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"sort"
	"time"

	"flight-terrain/internal/profiling"
	"flight-terrain/internal/terrain"

	"github.com/go-gl/mathgl/mgl32"
)

// StreamParams controls the chunk streamer.
type StreamParams struct {
	ChunkSize float32
	MaxChunks int
	// UpdateInterval is the simulated time between working-set updates.
	UpdateInterval time.Duration
	// Per-tick caps after the first tick; the first tick may perform up to
	// MaxChunks of each.
	CreationsPerTick int
	EvictionsPerTick int
	// Async builds chunks on Workers background goroutines and merges them
	// on a later tick.
	Async   bool
	Workers int
}

// StreamResult reports what one streamer tick did.
type StreamResult struct {
	Updated   bool // the working set was recomputed this tick
	Center    terrain.ChunkID
	Created   int
	Evicted   int
	Submitted int
	Dropped   int
}

// ChunkStreamer keeps the live chunk set around the camera. It is driven
// from a single goroutine; only Tick mutates the store.
type ChunkStreamer struct {
	params   StreamParams
	store    *ChunkStore
	builder  ChunkBuilder
	queue    *buildQueue
	logger   *log.Logger
	profiler *profiling.Profiler

	elapsed      time.Duration
	bootstrapped bool
	center       terrain.ChunkID
	desired      map[terrain.ChunkID]struct{}

	// ready holds finished background builds waiting for a creation slot.
	ready []buildResult
	// bootstrapBuilds counts first-tick submissions not yet merged; they
	// are installed without the per-tick cap.
	bootstrapBuilds int

	// Optional hooks run on the tick goroutine.
	onInstall func(*terrain.Chunk)
	onEvict   func(terrain.ChunkID)

	totalCreated uint64
	totalEvicted uint64
	totalDropped uint64
}

// NewChunkStreamer creates a streamer over store. logger and profiler may be
// nil.
func NewChunkStreamer(store *ChunkStore, builder ChunkBuilder, params StreamParams, logger *log.Logger, profiler *profiling.Profiler) *ChunkStreamer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	params.MaxChunks = max(params.MaxChunks, 1)
	params.CreationsPerTick = max(params.CreationsPerTick, 1)
	params.EvictionsPerTick = max(params.EvictionsPerTick, 1)
	cs := &ChunkStreamer{
		params:   params,
		store:    store,
		builder:  builder,
		logger:   logger,
		profiler: profiler,
		desired:  make(map[terrain.ChunkID]struct{}),
	}
	if params.Async {
		cs.queue = newBuildQueue(builder, params.Workers, params.MaxChunks)
	}
	return cs
}

// Close stops the background build workers, if any, and releases finished
// builds that were never installed.
func (cs *ChunkStreamer) Close() {
	if cs.queue != nil {
		cs.queue.close()
	}
	for _, r := range cs.ready {
		if r.chunk != nil {
			r.chunk.Release()
		}
	}
	cs.ready = nil
}

// CameraChunk returns the chunk containing pos. Chunks are centred on
// multiples of size, so the position is shifted by half a chunk first.
func CameraChunk(pos mgl32.Vec3, size float32) terrain.ChunkID {
	half := float64(size) / 2
	return terrain.ChunkID{
		X: int(math.Floor((float64(pos.X()) + half) / float64(size))),
		Z: int(math.Floor((float64(pos.Z()) + half) / float64(size))),
	}
}

// WorkingSet expands breadth-first from center over the 4-connected chunk
// grid until n IDs are collected. Nearer rings come first.
func WorkingSet(center terrain.ChunkID, n int) []terrain.ChunkID {
	if n <= 0 {
		return nil
	}
	out := make([]terrain.ChunkID, 0, n)
	seen := map[terrain.ChunkID]struct{}{center: {}}
	queue := []terrain.ChunkID{center}
	for len(queue) > 0 && len(out) < n {
		id := queue[0]
		queue = queue[1:]
		out = append(out, id)
		for _, nb := range id.Neighbors() {
			if _, ok := seen[nb]; ok {
				continue
			}
			seen[nb] = struct{}{}
			queue = append(queue, nb)
		}
	}
	return out
}

// Pending returns the number of background builds not yet installed,
// including finished ones waiting for a creation slot.
func (cs *ChunkStreamer) Pending() int {
	if cs.queue == nil {
		return 0
	}
	return cs.queue.pendingCount() + len(cs.ready)
}

func (cs *ChunkStreamer) inFlight(id terrain.ChunkID) bool {
	if cs.queue == nil {
		return false
	}
	if cs.queue.isPending(id) {
		return true
	}
	for _, r := range cs.ready {
		if r.id == id {
			return true
		}
	}
	return false
}

// Center returns the camera chunk from the last working-set update.
func (cs *ChunkStreamer) Center() terrain.ChunkID { return cs.center }

// Totals returns lifetime created, evicted and dropped counts.
func (cs *ChunkStreamer) Totals() (created, evicted, dropped uint64) {
	return cs.totalCreated, cs.totalEvicted, cs.totalDropped
}

// Tick advances the streamer by dt. On the first call, and whenever
// UpdateInterval has accumulated, it recomputes the working set and applies
// a bounded diff to the store. A synchronous build error aborts the tick;
// the remaining work is retried on the next update.
func (cs *ChunkStreamer) Tick(ctx context.Context, dt time.Duration, pos mgl32.Vec3) (StreamResult, error) {
	defer cs.profiler.Track("world.Stream")()

	var res StreamResult
	if cs.queue != nil {
		cs.merge(&res)
	}

	cs.elapsed += dt
	if cs.bootstrapped && cs.elapsed < cs.params.UpdateInterval {
		res.Center = cs.center
		return res, nil
	}
	cs.elapsed = 0
	res.Updated = true

	cs.center = CameraChunk(pos, cs.params.ChunkSize)
	res.Center = cs.center
	target := WorkingSet(cs.center, cs.params.MaxChunks)
	clear(cs.desired)
	for _, id := range target {
		cs.desired[id] = struct{}{}
	}

	createCap, evictCap := cs.params.CreationsPerTick, cs.params.EvictionsPerTick
	if !cs.bootstrapped {
		createCap, evictCap = cs.params.MaxChunks, cs.params.MaxChunks
	}

	for _, id := range cs.evictionCandidates() {
		if res.Evicted >= evictCap {
			break
		}
		if cs.store.Remove(id) {
			res.Evicted++
			cs.totalEvicted++
			if cs.onEvict != nil {
				cs.onEvict(id)
			}
			cs.logger.Printf("chunk %d,%d evicted", id.X, id.Z)
		}
	}

	budget := min(createCap, cs.params.MaxChunks-cs.store.Len()-cs.Pending())
	for _, id := range cs.creationCandidates(target) {
		if budget <= 0 {
			break
		}
		if cs.queue != nil {
			if !cs.queue.submit(id) {
				break
			}
			res.Submitted++
			budget--
			continue
		}
		start := time.Now()
		chunk, err := cs.builder.Build(ctx, id)
		if err != nil {
			return res, fmt.Errorf("build chunk %d,%d: %w", id.X, id.Z, err)
		}
		cs.install(chunk)
		res.Created++
		cs.totalCreated++
		budget--
		cs.logger.Printf("chunk %d,%d created in %v", id.X, id.Z, time.Since(start))
	}

	if !cs.bootstrapped {
		cs.bootstrapped = true
		cs.bootstrapBuilds = res.Submitted
		cs.logger.Printf("streamer bootstrapped around chunk %d,%d: %d live, %d pending", cs.center.X, cs.center.Z, cs.store.Len(), cs.Pending())
	}
	return res, nil
}

// evictionCandidates returns live chunks outside the working set, farthest
// from the camera chunk first.
func (cs *ChunkStreamer) evictionCandidates() []terrain.ChunkID {
	var out []terrain.ChunkID
	for _, id := range cs.store.IDs() {
		if _, ok := cs.desired[id]; !ok {
			out = append(out, id)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceSq(cs.center) > out[j].DistanceSq(cs.center)
	})
	return out
}

// creationCandidates returns missing working-set chunks, nearest first. Ties
// keep breadth-first order.
func (cs *ChunkStreamer) creationCandidates(target []terrain.ChunkID) []terrain.ChunkID {
	var out []terrain.ChunkID
	for _, id := range target {
		if cs.store.Has(id) || cs.inFlight(id) {
			continue
		}
		out = append(out, id)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceSq(cs.center) < out[j].DistanceSq(cs.center)
	})
	return out
}

func (cs *ChunkStreamer) install(c *terrain.Chunk) bool {
	if !cs.store.Add(c) {
		return false
	}
	if cs.onInstall != nil {
		cs.onInstall(c)
	}
	return true
}

// merge installs finished background builds, nearest first and at most
// CreationsPerTick per tick once the bootstrap set is in. Builds that
// failed, are no longer wanted or would overflow MaxChunks are released and
// dropped; the rest wait for a later tick.
func (cs *ChunkStreamer) merge(res *StreamResult) {
	cs.ready = append(cs.ready, cs.queue.drain()...)
	sort.SliceStable(cs.ready, func(i, j int) bool {
		return cs.ready[i].id.DistanceSq(cs.center) < cs.ready[j].id.DistanceSq(cs.center)
	})

	limit := max(cs.params.CreationsPerTick, cs.bootstrapBuilds)
	kept := cs.ready[:0]
	for _, r := range cs.ready {
		if r.err != nil {
			cs.logger.Printf("chunk %d,%d build failed: %v", r.id.X, r.id.Z, r.err)
			cs.bootstrapBuilds = max(cs.bootstrapBuilds-1, 0)
			res.Dropped++
			cs.totalDropped++
			continue
		}
		_, wanted := cs.desired[r.id]
		if !wanted || cs.store.Len() >= cs.params.MaxChunks || cs.store.Has(r.id) {
			r.chunk.Release()
			cs.bootstrapBuilds = max(cs.bootstrapBuilds-1, 0)
			res.Dropped++
			cs.totalDropped++
			cs.logger.Printf("chunk %d,%d dropped after build", r.id.X, r.id.Z)
			continue
		}
		if res.Created >= limit {
			kept = append(kept, r)
			continue
		}
		cs.install(r.chunk)
		cs.bootstrapBuilds = max(cs.bootstrapBuilds-1, 0)
		res.Created++
		cs.totalCreated++
		cs.logger.Printf("chunk %d,%d created in %v", r.id.X, r.id.Z, r.elapsed)
	}
	clear(cs.ready[len(kept):])
	cs.ready = kept
}
