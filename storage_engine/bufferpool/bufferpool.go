package bufferpool

import (
	"fmt"

	"GroveDB/logger"
	"GroveDB/storage_engine/page"
	"GroveDB/types"
)

// Fetch returns the page pinned. Callers must Unpin exactly once when done.
// A metadata-only hit asked for with FetchFull is upgraded in place.
func (bp *BufferPool) Fetch(id types.PageID, mode FetchMode) (*page.Page, error) {
	bp.mu.Lock()

	if f, exists := bp.frames[id]; exists {
		f.pinCount++
		pins := f.pinCount
		bp.touchLocked(id)
		bp.mu.Unlock()

		<-f.ready
		if f.loadErr != nil {
			bp.Unpin(id, false)
			return nil, f.loadErr
		}
		logger.Log.Debugf("buffer pool hit page=%d pins=%d", id, pins)
		if mode == FetchFull && !f.page.HasBody() {
			if err := bp.upgrade(f); err != nil {
				bp.Unpin(id, false)
				return nil, err
			}
		}
		return f.page, nil
	}

	// Miss: reserve a frame under the lock, do the I/O outside it.
	if len(bp.frames) >= bp.capacity {
		if err := bp.evictLocked(); err != nil {
			bp.mu.Unlock()
			return nil, err
		}
	}
	f := &frame{pinCount: 1, ready: make(chan struct{})}
	bp.frames[id] = f
	bp.touchLocked(id)
	bp.mu.Unlock()

	logger.Log.Debugf("buffer pool miss page=%d mode=%d", id, mode)
	f.page, f.loadErr = bp.load(id, mode)
	close(f.ready)

	if f.loadErr != nil {
		bp.mu.Lock()
		delete(bp.frames, id)
		bp.removeFromOrderLocked(id)
		bp.mu.Unlock()
		return nil, f.loadErr
	}
	return f.page, nil
}

func (bp *BufferPool) load(id types.PageID, mode FetchMode) (*page.Page, error) {
	switch mode {
	case FetchMetadata:
		buf, err := bp.disk.ReadPageMetadata(id)
		if err != nil {
			return nil, err
		}
		return page.DecodeMetadata(buf)
	case FetchFull:
		buf, err := bp.disk.ReadPage(id)
		if err != nil {
			return nil, err
		}
		return page.Decode(buf)
	}
	return nil, fmt.Errorf("unknown fetch mode %d", mode)
}

// upgrade re-reads the page image and populates the existing frame's body
// under its exclusive latch.
func (bp *BufferPool) upgrade(f *frame) error {
	f.page.Lock()
	defer f.page.Unlock()
	if f.page.HasBody() {
		return nil
	}
	buf, err := bp.disk.ReadPage(f.page.ID)
	if err != nil {
		return err
	}
	logger.Log.Debugf("buffer pool upgrade page=%d", f.page.ID)
	return f.page.PopulateBody(buf)
}

// Register hands a freshly created in-memory page (new allocation) to the
// pool as a pinned, dirty frame, so subsequent fetches see the mutation
// before it ever reaches disk.
func (bp *BufferPool) Register(pg *page.Page) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if _, exists := bp.frames[pg.ID]; exists {
		return fmt.Errorf("page %d already cached", pg.ID)
	}
	if len(bp.frames) >= bp.capacity {
		if err := bp.evictLocked(); err != nil {
			return err
		}
	}
	f := &frame{page: pg, pinCount: 1, ready: make(chan struct{})}
	close(f.ready)
	bp.frames[pg.ID] = f
	bp.touchLocked(pg.ID)
	return nil
}

// Unpin drops one pin. dirty marks the page as modified so eviction and
// flush write it back.
func (bp *BufferPool) Unpin(id types.PageID, dirty bool) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	f, exists := bp.frames[id]
	if !exists {
		return
	}
	if dirty {
		f.page.IsDirty = true
	}
	if f.pinCount > 0 {
		f.pinCount--
	}
}

// Invalidate drops the frame for a page without writing it back. Used when a
// page is reclaimed onto the free list: its cached image must never be served
// again. Fails if the frame is still pinned.
func (bp *BufferPool) Invalidate(id types.PageID) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	f, exists := bp.frames[id]
	if !exists {
		return nil
	}
	if f.pinCount > 0 {
		return fmt.Errorf("cannot invalidate pinned page %d (pins=%d)", id, f.pinCount)
	}
	delete(bp.frames, id)
	bp.removeFromOrderLocked(id)
	return nil
}

// FlushPage writes the page back if dirty.
func (bp *BufferPool) FlushPage(id types.PageID) error {
	bp.mu.Lock()
	f, exists := bp.frames[id]
	bp.mu.Unlock()
	if !exists {
		return nil
	}
	return bp.flushFrame(f)
}

// FlushAll writes every dirty frame back to disk and syncs the file.
// Writes that complete here are on stable storage.
func (bp *BufferPool) FlushAll() error {
	bp.mu.Lock()
	frames := make([]*frame, 0, len(bp.frames))
	for _, f := range bp.frames {
		frames = append(frames, f)
	}
	bp.mu.Unlock()

	for _, f := range frames {
		if err := bp.flushFrame(f); err != nil {
			return err
		}
	}
	return bp.disk.Sync()
}

// flushFrame writes a dirty frame back. It takes the page's exclusive latch:
// clearing IsDirty is a write, and the encode must not observe a tree
// mutation in progress.
func (bp *BufferPool) flushFrame(f *frame) error {
	<-f.ready
	if f.loadErr != nil {
		return nil
	}
	f.page.Lock()
	defer f.page.Unlock()
	if !f.page.IsDirty || !f.page.HasBody() {
		return nil
	}
	if err := bp.disk.WritePage(f.page.ID, f.page.Encode()); err != nil {
		return err
	}
	f.page.IsDirty = false
	return nil
}

// evictLocked removes the least recently used unpinned frame, writing it
// back first when dirty. Called with the pool lock held; fails with
// ErrBufferPoolFull when every frame is pinned.
func (bp *BufferPool) evictLocked() error {
	for i := 0; i < len(bp.accessOrder); i++ {
		id := bp.accessOrder[i]
		f, exists := bp.frames[id]
		if !exists {
			bp.accessOrder = append(bp.accessOrder[:i], bp.accessOrder[i+1:]...)
			i--
			continue
		}
		if f.pinCount > 0 {
			continue
		}
		select {
		case <-f.ready:
		default:
			// Still loading; cannot be a victim.
			continue
		}
		if f.loadErr == nil && f.page.IsDirty && f.page.HasBody() {
			if err := bp.disk.WritePage(f.page.ID, f.page.Encode()); err != nil {
				return fmt.Errorf("failed to write page %d during eviction: %w", id, err)
			}
			f.page.IsDirty = false
		}
		delete(bp.frames, id)
		bp.accessOrder = append(bp.accessOrder[:i], bp.accessOrder[i+1:]...)
		logger.Log.Debugf("buffer pool evict page=%d", id)
		return nil
	}
	return types.ErrBufferPoolFull
}

// touchLocked moves the id to the most recently used position.
func (bp *BufferPool) touchLocked(id types.PageID) {
	bp.removeFromOrderLocked(id)
	bp.accessOrder = append(bp.accessOrder, id)
}

func (bp *BufferPool) removeFromOrderLocked(id types.PageID) {
	for i, cur := range bp.accessOrder {
		if cur == id {
			bp.accessOrder = append(bp.accessOrder[:i], bp.accessOrder[i+1:]...)
			return
		}
	}
}
