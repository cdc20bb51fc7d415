package bufferpool

import (
	"sync"

	diskmanager "GroveDB/storage_engine/disk_manager"
	"GroveDB/storage_engine/page"
	"GroveDB/types"
)

/*
Buffer pool: the in-memory cache of decoded pages, keyed by page id, and the
only structure in the engine mutated by multiple goroutines concurrently.

A pool of capacity C holds at most C frames. Eviction is LRU over unpinned
frames only; when every frame is pinned a fetch fails with ErrBufferPoolFull
instead of stalling — resource exhaustion is the caller's problem, not a
deadlock to retry internally.

Two load modes:

	FetchFull      — header + slot directory + cell bytes
	FetchMetadata  — header + slot directory only; enough to follow
	                 next-leaf links and read slot offsets without paying
	                 for 4KB of cell bytes per page

A metadata frame is upgraded in place the first time cell bytes are needed:
the body region is re-read into the same Page under its exclusive latch.
There is never a second independent decode that could diverge from an
in-progress mutation.

Miss path: the frame is reserved (pinned placeholder) under the pool lock,
the lock is released, the disk I/O runs, then the frame is published by
closing its ready channel. Concurrent fetchers of the same id pin the
placeholder and wait on that channel.
*/

// FetchMode selects how much of a page a fetch materializes.
type FetchMode int

const (
	FetchFull FetchMode = iota
	FetchMetadata
)

type frame struct {
	page     *page.Page
	pinCount int
	ready    chan struct{}
	loadErr  error
}

type BufferPool struct {
	mu          sync.Mutex
	frames      map[types.PageID]*frame
	capacity    int
	disk        *diskmanager.DiskManager
	accessOrder []types.PageID // least recently used at the front
}

// NewBufferPool creates a pool of the given capacity backed by the disk
// manager.
func NewBufferPool(capacity int, disk *diskmanager.DiskManager) *BufferPool {
	if capacity < 1 {
		capacity = 1
	}
	return &BufferPool{
		frames:      make(map[types.PageID]*frame, capacity),
		capacity:    capacity,
		disk:        disk,
		accessOrder: make([]types.PageID, 0, capacity),
	}
}

// Size returns the current number of frames.
func (bp *BufferPool) Size() int {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return len(bp.frames)
}

// Capacity returns the maximum number of frames.
func (bp *BufferPool) Capacity() int { return bp.capacity }

// Disk exposes the backing disk manager (allocation and reclaim go straight
// through it).
func (bp *BufferPool) Disk() *diskmanager.DiskManager { return bp.disk }
