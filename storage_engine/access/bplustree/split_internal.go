package bplustree

import (
	"GroveDB/logger"
	"GroveDB/storage_engine/page"
	"GroveDB/types"
)

// splitInterior splits an over-full interior page given its already-updated
// entry list. The median entry's bound is promoted as the separator; its
// child stays in the left half as the new rightmost (+infinity) entry, so no
// key ever appears on two levels with different meanings.
//
// The caller holds pg's exclusive latch.
func (t *BPlusTree) splitInterior(pg *page.Page, entries []interiorEntry) (*splitResult, error) {
	mid := len(entries) / 2
	// The promoted bound must be finite; back off from the trailing Null
	// entry when huge keys leave only two entries.
	for mid > 0 && entries[mid].bound.IsNull() {
		mid--
	}
	if mid == 0 || entries[mid].bound.IsNull() {
		return nil, types.NewPageFull(pg.ID)
	}
	sep := entries[mid].bound

	leftEntries := make([]interiorEntry, mid+1)
	copy(leftEntries, entries[:mid+1])
	leftEntries[mid].bound = types.Null()
	rightEntries := entries[mid+1:]

	right, err := t.allocate(pg.Type)
	if err != nil {
		return nil, err
	}
	right.Lock()
	if err := writeInteriorEntries(right, rightEntries); err != nil {
		right.Unlock()
		t.pool.Unpin(right.ID, false)
		return nil, err
	}
	right.Unlock()
	t.pool.Unpin(right.ID, true)

	if err := writeInteriorEntries(pg, leftEntries); err != nil {
		return nil, err
	}

	logger.Log.Debugf("split interior %d: %d entries kept, %d moved to %d",
		pg.ID, len(leftEntries), len(rightEntries), right.ID)
	return &splitResult{left: pg.ID, right: right.ID, sep: sep}, nil
}
