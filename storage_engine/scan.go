package storage_engine

import (
	"context"

	"GroveDB/storage_engine/access/bplustree"
	"GroveDB/storage_engine/scan"
	"GroveDB/types"
)

// RangeScan returns an iterator over rows with start <= key <= end, in
// ascending key order. Null bounds are open.
func (sm *StorageManager) RangeScan(table string, start, end types.Value) (*bplustree.Iterator, error) {
	tree, err := sm.tree(table)
	if err != nil {
		return nil, err
	}
	return tree.RangeScan(start, end)
}

// ParallelScan runs the predicate over every row of the table on the scan
// coordinator's worker pool. Results come back in no particular order; a nil
// predicate returns the whole table. Writers on the table wait until the
// scan finishes.
func (sm *StorageManager) ParallelScan(ctx context.Context, table string, pred scan.Predicate) ([]*types.Row, error) {
	h, err := sm.handle(table)
	if err != nil {
		return nil, err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	head, err := h.tree.LeftmostLeafID()
	if err != nil {
		return nil, err
	}
	return sm.scanner.Run(ctx, head, pred)
}
