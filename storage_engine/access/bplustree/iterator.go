package bplustree

import (
	"fmt"

	"GroveDB/storage_engine/bufferpool"
	"GroveDB/types"
)

// Iterator streams rows in ascending key order by walking the leaf chain.
// It holds no pins between Next calls; each step fetches the current leaf
// through the buffer pool, so a warm pool makes stepping a map lookup.
type Iterator struct {
	tree   *BPlusTree
	leafID types.PageID
	slot   int
	start  types.Value // inclusive; Null = from the first key
	end    types.Value // inclusive; Null = to the last key
	row    *types.Row
	err    error
	done   bool
}

// RangeScan returns an iterator over rows with start <= key <= end. Null
// bounds are open: RangeScan(Null, Null) is a full sequential scan.
func (t *BPlusTree) RangeScan(start, end types.Value) (*Iterator, error) {
	t.structural.RLock()
	defer t.structural.RUnlock()

	// A Null start routes below every bound, landing on the leftmost leaf.
	leaf, err := t.findLeaf(start)
	if err != nil {
		return nil, err
	}
	id := leaf.ID
	t.pool.Unpin(id, false)
	return &Iterator{tree: t, leafID: id, start: start, end: end}, nil
}

// Next advances to the next row in range, reporting whether one exists.
// Once it returns false it keeps returning false; check Err afterwards.
func (it *Iterator) Next() bool {
	if it.done || it.err != nil {
		return false
	}
	t := it.tree
	t.structural.RLock()
	defer t.structural.RUnlock()

	for it.leafID != types.NonePageID {
		pg, err := t.pool.Fetch(it.leafID, bufferpool.FetchFull)
		if err != nil {
			it.err = err
			return false
		}
		pg.RLock()
		for ; it.slot < pg.SlotCount(); it.slot++ {
			cell, ok := pg.GetCell(it.slot)
			if !ok {
				continue
			}
			row, err := types.RowFromBytes(cell)
			if err != nil {
				pg.RUnlock()
				t.pool.Unpin(pg.ID, false)
				it.err = fmt.Errorf("leaf %d slot %d: %w", pg.ID, it.slot, err)
				return false
			}
			key := row.Key()
			if !it.start.IsNull() && compareKeys(key, it.start) < 0 {
				continue
			}
			if !it.end.IsNull() && compareKeys(key, it.end) > 0 {
				pg.RUnlock()
				t.pool.Unpin(pg.ID, false)
				it.done = true
				return false
			}
			it.row = row
			it.slot++
			pg.RUnlock()
			t.pool.Unpin(pg.ID, false)
			return true
		}
		next := pg.NextLeafPageID
		pg.RUnlock()
		t.pool.Unpin(it.leafID, false)
		it.leafID = next
		it.slot = 0
	}
	it.done = true
	return false
}

// Row returns the row the last successful Next produced.
func (it *Iterator) Row() *types.Row { return it.row }

// Err returns the error that stopped iteration, if any.
func (it *Iterator) Err() error { return it.err }
