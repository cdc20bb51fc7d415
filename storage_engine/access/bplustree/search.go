package bplustree

import (
	"fmt"

	"GroveDB/types"
)

// Search returns the first row whose key equals key, or nil when no such row
// exists.
func (t *BPlusTree) Search(key types.Value) (*types.Row, error) {
	t.structural.RLock()
	defer t.structural.RUnlock()

	leaf, err := t.findLeaf(key)
	if err != nil {
		return nil, err
	}
	defer t.pool.Unpin(leaf.ID, false)

	leaf.RLock()
	defer leaf.RUnlock()
	for i := 0; i < leaf.SlotCount(); i++ {
		cell, ok := leaf.GetCell(i)
		if !ok {
			continue
		}
		row, err := types.RowFromBytes(cell)
		if err != nil {
			return nil, fmt.Errorf("leaf %d slot %d: %w", leaf.ID, i, err)
		}
		cmp := compareKeys(row.Key(), key)
		if cmp == 0 {
			return row, nil
		}
		if cmp > 0 {
			// Slots are key-ordered; past this point nothing matches.
			break
		}
	}
	return nil, nil
}
