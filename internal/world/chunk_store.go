package world

import (
	"sort"
	"sync"

	"flight-terrain/internal/terrain"
)

// ChunkStore owns the live chunk set. Only the streamer mutates it; readers
// on other goroutines (stats, previews) take the read lock.
type ChunkStore struct {
	chunks   map[terrain.ChunkID]*terrain.Chunk
	mu       sync.RWMutex
	modCount uint64 // Increases on any chunk add/remove
}

// NewChunkStore creates an empty store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{chunks: make(map[terrain.ChunkID]*terrain.Chunk)}
}

// Get returns the live chunk for id, or nil.
func (cs *ChunkStore) Get(id terrain.ChunkID) *terrain.Chunk {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.chunks[id]
}

// Has reports whether id is live.
func (cs *ChunkStore) Has(id terrain.ChunkID) bool {
	cs.mu.RLock()
	_, ok := cs.chunks[id]
	cs.mu.RUnlock()
	return ok
}

// Len returns the number of live chunks.
func (cs *ChunkStore) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.chunks)
}

// Add installs chunk under its ID. It returns false, leaving the store
// untouched, when the ID is already live.
func (cs *ChunkStore) Add(chunk *terrain.Chunk) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if _, ok := cs.chunks[chunk.ID]; ok {
		return false
	}
	cs.chunks[chunk.ID] = chunk
	cs.modCount++
	return true
}

// Remove evicts id and releases its resources. The store is the chunk's
// only owner, so this is the single place a live chunk is destroyed.
func (cs *ChunkStore) Remove(id terrain.ChunkID) bool {
	cs.mu.Lock()
	chunk, ok := cs.chunks[id]
	if ok {
		delete(cs.chunks, id)
		cs.modCount++
	}
	cs.mu.Unlock()
	if ok {
		chunk.Release()
	}
	return ok
}

// IDs returns the live chunk IDs in X-then-Z order.
func (cs *ChunkStore) IDs() []terrain.ChunkID {
	cs.mu.RLock()
	ids := make([]terrain.ChunkID, 0, len(cs.chunks))
	for id := range cs.chunks {
		ids = append(ids, id)
	}
	cs.mu.RUnlock()
	sortIDs(ids)
	return ids
}

// All returns the live chunks in the same order as IDs.
func (cs *ChunkStore) All() []*terrain.Chunk {
	ids := cs.IDs()
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	out := make([]*terrain.Chunk, 0, len(ids))
	for _, id := range ids {
		if c, ok := cs.chunks[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Clear releases and removes every chunk.
func (cs *ChunkStore) Clear() int {
	cs.mu.Lock()
	old := cs.chunks
	cs.chunks = make(map[terrain.ChunkID]*terrain.Chunk)
	if len(old) > 0 {
		cs.modCount++
	}
	cs.mu.Unlock()
	for _, c := range old {
		c.Release()
	}
	return len(old)
}

// ModCount changes whenever the live set changes.
func (cs *ChunkStore) ModCount() uint64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.modCount
}

func sortIDs(ids []terrain.ChunkID) {
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].X != ids[j].X {
			return ids[i].X < ids[j].X
		}
		return ids[i].Z < ids[j].Z
	})
}
