package bplustree

import (
	"fmt"

	"GroveDB/logger"
	"GroveDB/storage_engine/bufferpool"
	"GroveDB/types"
)

// Delete removes the first row whose key equals key, reporting whether a row
// was removed. There is no rebalancing: the one structural change is that a
// leaf left entirely empty is unlinked from the chain, dropped from its
// parent and reclaimed onto the free list. A root interior left with a
// single child collapses onto that child.
//
// Open iterators do not survive a delete that reclaims their current leaf;
// callers interleaving scans with deletes restart the scan.
func (t *BPlusTree) Delete(key types.Value) (bool, error) {
	t.structural.Lock()
	defer t.structural.Unlock()

	// Descend, recording the interior path root-first.
	var path []types.PageID
	id := t.root
	for {
		pg, err := t.pool.Fetch(id, bufferpool.FetchFull)
		if err != nil {
			return false, err
		}
		if pg.Type.IsLeaf() {
			t.pool.Unpin(id, false)
			break
		}
		child, err := routeInPage(pg, key)
		t.pool.Unpin(id, false)
		if err != nil {
			return false, err
		}
		path = append(path, id)
		id = child
	}

	leaf, err := t.pool.Fetch(id, bufferpool.FetchFull)
	if err != nil {
		return false, err
	}
	found := -1
	for i := 0; i < leaf.SlotCount(); i++ {
		cell, ok := leaf.GetCell(i)
		if !ok {
			continue
		}
		row, err := types.RowFromBytes(cell)
		if err != nil {
			t.pool.Unpin(id, false)
			return false, fmt.Errorf("leaf %d slot %d: %w", id, i, err)
		}
		cmp := compareKeys(row.Key(), key)
		if cmp == 0 {
			found = i
			break
		}
		if cmp > 0 {
			break
		}
	}
	if found < 0 {
		t.pool.Unpin(id, false)
		return false, nil
	}

	leaf.Lock()
	err = leaf.DeleteCell(found)
	leaf.Unlock()
	if err != nil {
		t.pool.Unpin(id, false)
		return false, err
	}
	empty := leaf.LiveCellCount() == 0
	nextLeaf := leaf.NextLeafPageID
	leafType := leaf.Type
	t.pool.Unpin(id, true)

	// Page 1 is never reclaimed; an emptied schema leaf stays threaded in
	// its chain.
	if !empty || id == t.root || len(path) == 0 || id == 1 {
		return true, nil
	}
	return true, t.removeEmptyLeaf(id, nextLeaf, leafType, path)
}

// removeEmptyLeaf unlinks an emptied leaf from the chain, removes its
// routing entry (recursively, should interiors empty in turn) and reclaims
// its page.
func (t *BPlusTree) removeEmptyLeaf(leafID, nextLeaf types.PageID, leafType types.PageType, path []types.PageID) error {
	pred, err := t.leafPredecessor(leafID)
	if err != nil {
		return err
	}
	if pred != types.NonePageID {
		pg, err := t.pool.Fetch(pred, bufferpool.FetchFull)
		if err != nil {
			return err
		}
		pg.Lock()
		pg.NextLeafPageID = nextLeaf
		pg.Unlock()
		t.pool.Unpin(pred, true)
	}

	if err := t.removeChildEntry(path, len(path)-1, leafID, leafType); err != nil {
		return err
	}
	if err := t.pool.Invalidate(leafID); err != nil {
		return err
	}
	logger.Log.Debugf("reclaiming empty leaf %d", leafID)
	return t.pool.Disk().Reclaim(leafID)
}

// removeChildEntry drops childID's routing entry from path[level]. An
// interior emptied this way is itself removed one level up; the root is
// never reclaimed — emptied, it reverts to an empty leaf, and with one child
// left it collapses onto that child (schema page 1 excepted, it stays an
// interior).
func (t *BPlusTree) removeChildEntry(path []types.PageID, level int, childID types.PageID, leafType types.PageType) error {
	parentID := path[level]
	pg, err := t.pool.Fetch(parentID, bufferpool.FetchFull)
	if err != nil {
		return err
	}
	entries, err := readInteriorEntries(pg)
	if err != nil {
		t.pool.Unpin(parentID, false)
		return err
	}
	idx := -1
	for i, e := range entries {
		if e.child == childID {
			idx = i
			break
		}
	}
	if idx < 0 {
		t.pool.Unpin(parentID, false)
		return types.NewCorruptedPage(parentID, fmt.Sprintf("no routing entry for child %d", childID))
	}
	removedBound := entries[idx].bound
	entries = append(entries[:idx], entries[idx+1:]...)

	if len(entries) == 0 {
		if level == 0 {
			// The whole tree emptied; the root becomes an empty leaf again.
			pg.Lock()
			pg.Reset()
			pg.Type = leafType
			pg.Unlock()
			t.pool.Unpin(parentID, true)
			return nil
		}
		pg.Lock()
		err := writeInteriorEntries(pg, entries)
		pg.Unlock()
		if err != nil {
			t.pool.Unpin(parentID, false)
			return err
		}
		t.pool.Unpin(parentID, true)
		if err := t.removeChildEntry(path, level-1, parentID, leafType); err != nil {
			return err
		}
		if err := t.pool.Invalidate(parentID); err != nil {
			return err
		}
		return t.pool.Disk().Reclaim(parentID)
	}

	// The rightmost entry must keep the +infinity bound.
	if removedBound.IsNull() {
		entries[len(entries)-1].bound = types.Null()
	}
	pg.Lock()
	err = writeInteriorEntries(pg, entries)
	pg.Unlock()
	if err != nil {
		t.pool.Unpin(parentID, false)
		return err
	}
	t.pool.Unpin(parentID, true)

	if level == 0 && len(entries) == 1 && parentID != 1 {
		newRoot := entries[0].child
		if err := t.pool.Invalidate(parentID); err != nil {
			return err
		}
		if err := t.pool.Disk().Reclaim(parentID); err != nil {
			return err
		}
		logger.Log.Debugf("root collapse: %d onto %d", parentID, newRoot)
		t.root = newRoot
	}
	return nil
}

// leafPredecessor walks the leaf chain from its head to the leaf linking to
// leafID, or NonePageID when leafID is the head itself.
func (t *BPlusTree) leafPredecessor(leafID types.PageID) (types.PageID, error) {
	id, err := t.leftmostLeafLocked()
	if err != nil {
		return 0, err
	}
	if id == leafID {
		return types.NonePageID, nil
	}
	for {
		pg, err := t.pool.Fetch(id, bufferpool.FetchMetadata)
		if err != nil {
			return 0, err
		}
		next := pg.NextLeafPageID
		t.pool.Unpin(id, false)
		if next == leafID {
			return id, nil
		}
		if next == types.NonePageID {
			return 0, types.NewCorruptedPage(leafID, "leaf missing from its chain")
		}
		id = next
	}
}
