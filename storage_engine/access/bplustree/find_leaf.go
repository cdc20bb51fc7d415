package bplustree

import (
	"GroveDB/storage_engine/bufferpool"
	"GroveDB/storage_engine/page"
	"GroveDB/types"
)

// routeInPage picks the child an interior page sends key into: the first
// entry, in bound order, whose bound is strictly greater than the key.
func routeInPage(pg *page.Page, key types.Value) (types.PageID, error) {
	last := types.NonePageID
	for i := 0; i < pg.SlotCount(); i++ {
		cell, ok := pg.GetCell(i)
		if !ok {
			continue
		}
		e, err := parseInteriorEntry(cell, pg.ID)
		if err != nil {
			return 0, err
		}
		last = e.child
		if keyBelowBound(key, e.bound) {
			return e.child, nil
		}
	}
	if last == types.NonePageID {
		return 0, types.NewCorruptedPage(pg.ID, "interior page with no entries")
	}
	// Reachable only when the last bound is not Null; degrade to the
	// rightmost child rather than failing the lookup.
	return last, nil
}

// findLeaf descends from the root to the leaf owning key and returns it
// pinned with a full body. Callers must Unpin. Callers hold the structural
// lock (shared or exclusive).
func (t *BPlusTree) findLeaf(key types.Value) (*page.Page, error) {
	id := t.root
	for {
		pg, err := t.pool.Fetch(id, bufferpool.FetchFull)
		if err != nil {
			return nil, err
		}
		if pg.Type.IsLeaf() {
			return pg, nil
		}
		child, err := routeInPage(pg, key)
		t.pool.Unpin(id, false)
		if err != nil {
			return nil, err
		}
		id = child
	}
}

// leftmostLeafLocked returns the id of the first leaf in key order. A Null
// search key routes below every bound, so this is a plain descent.
func (t *BPlusTree) leftmostLeafLocked() (types.PageID, error) {
	pg, err := t.findLeaf(types.Null())
	if err != nil {
		return 0, err
	}
	id := pg.ID
	t.pool.Unpin(id, false)
	return id, nil
}

// LeftmostLeafID returns the head of the tree's leaf chain. Scan
// coordinators start their chain walk here.
func (t *BPlusTree) LeftmostLeafID() (types.PageID, error) {
	t.structural.RLock()
	defer t.structural.RUnlock()
	return t.leftmostLeafLocked()
}
