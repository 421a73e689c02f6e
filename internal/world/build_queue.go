package world

import (
	"context"
	"sync"
	"time"

	"flight-terrain/internal/terrain"

	"golang.org/x/sync/errgroup"
)

// ChunkBuilder constructs one chunk. terrain.Builder is the production
// implementation; it must be safe for concurrent use when the streamer runs
// asynchronously.
type ChunkBuilder interface {
	Build(ctx context.Context, id terrain.ChunkID) (*terrain.Chunk, error)
}

type buildResult struct {
	id      terrain.ChunkID
	chunk   *terrain.Chunk
	err     error
	elapsed time.Duration
}

// buildQueue builds chunks on background workers. Finished chunks wait in a
// completion list until the tick goroutine drains them, so the live chunk map
// keeps a single writer.
type buildQueue struct {
	builder ChunkBuilder
	jobs    chan terrain.ChunkID

	mu      sync.Mutex
	pending map[terrain.ChunkID]struct{} // submitted and not yet drained
	done    []buildResult
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group
}

func newBuildQueue(builder ChunkBuilder, workers, capacity int) *buildQueue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &buildQueue{
		builder: builder,
		jobs:    make(chan terrain.ChunkID, max(capacity, 1)),
		pending: make(map[terrain.ChunkID]struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
	for range max(workers, 1) {
		q.group.Go(func() error {
			q.worker()
			return nil
		})
	}
	return q
}

func (q *buildQueue) worker() {
	for id := range q.jobs {
		start := time.Now()
		chunk, err := q.builder.Build(q.ctx, id)
		q.mu.Lock()
		q.done = append(q.done, buildResult{id: id, chunk: chunk, err: err, elapsed: time.Since(start)})
		q.mu.Unlock()
	}
}

// submit enqueues id unless it is already pending or the queue is full.
func (q *buildQueue) submit(id terrain.ChunkID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	if _, ok := q.pending[id]; ok {
		return false
	}
	select {
	case q.jobs <- id:
		q.pending[id] = struct{}{}
		return true
	default:
		return false
	}
}

func (q *buildQueue) isPending(id terrain.ChunkID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.pending[id]
	return ok
}

func (q *buildQueue) pendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// drain hands over every finished build and clears it from pending.
func (q *buildQueue) drain() []buildResult {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.done
	q.done = nil
	for _, r := range out {
		delete(q.pending, r.id)
	}
	return out
}

// close cancels in-flight builds, waits for the workers and releases any
// chunk that was never drained.
func (q *buildQueue) close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.cancel()
	close(q.jobs)
	q.mu.Unlock()

	_ = q.group.Wait()
	for _, r := range q.drain() {
		if r.chunk != nil {
			r.chunk.Release()
		}
	}
}
