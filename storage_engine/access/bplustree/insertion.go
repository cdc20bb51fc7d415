package bplustree

import (
	"fmt"

	"GroveDB/logger"
	"GroveDB/storage_engine/bufferpool"
	"GroveDB/storage_engine/page"
	"GroveDB/types"
)

// splitResult propagates one level of split upward: the original child kept
// its id as the left half, right is the new sibling, sep its minimum key.
type splitResult struct {
	left  types.PageID
	right types.PageID
	sep   types.Value
}

// Insert adds the row to the tree and returns the root page id afterwards.
// The id differs from the previous root exactly when a root split (or later
// root collapse on delete) occurred; the tree's owner persists it then.
// Duplicate keys are admitted and cluster together.
func (t *BPlusTree) Insert(row *types.Row) (types.PageID, error) {
	t.structural.Lock()
	defer t.structural.Unlock()

	cell := row.Bytes()
	if len(cell)+page.SlotEntrySize > page.PageSize-page.PageHeaderSize {
		return t.root, fmt.Errorf("row of %d bytes exceeds page capacity: %w",
			len(cell), types.ErrPageFull)
	}

	split, err := t.insertInto(t.root, row.Key(), cell)
	if err != nil {
		return t.root, err
	}
	if split != nil {
		if err := t.growRoot(split); err != nil {
			return t.root, err
		}
	}
	return t.root, nil
}

func (t *BPlusTree) insertInto(id types.PageID, key types.Value, cell []byte) (*splitResult, error) {
	pg, err := t.pool.Fetch(id, bufferpool.FetchFull)
	if err != nil {
		return nil, err
	}

	if pg.Type.IsLeaf() {
		pg.Lock()
		// A leaf that only looks full may be carrying tombstones; compact
		// in place before paying for a split.
		if !pg.CanFit(len(cell)) && pg.LiveCellCount() < pg.SlotCount() {
			pg.Defragment()
		}
		if pg.CanFit(len(cell)) {
			pos, err := leafInsertPos(pg, key)
			if err == nil {
				_, err = pg.InsertCellAt(cell, pos)
			}
			pg.Unlock()
			t.pool.Unpin(id, err == nil)
			return nil, err
		}
		split, err := t.splitLeaf(pg, key, cell)
		pg.Unlock()
		t.pool.Unpin(id, err == nil)
		return split, err
	}

	child, err := routeInPage(pg, key)
	t.pool.Unpin(id, false)
	if err != nil {
		return nil, err
	}
	split, err := t.insertInto(child, key, cell)
	if err != nil || split == nil {
		return nil, err
	}
	return t.applyChildSplit(id, split)
}

// applyChildSplit rewrites an interior page after one of its children split:
// the child's old entry becomes (left, sep) and (right, old bound) slides in
// after it. When the enlarged entry list no longer fits, the interior splits
// in turn.
func (t *BPlusTree) applyChildSplit(id types.PageID, split *splitResult) (*splitResult, error) {
	pg, err := t.pool.Fetch(id, bufferpool.FetchFull)
	if err != nil {
		return nil, err
	}
	pg.Lock()
	entries, err := readInteriorEntries(pg)
	if err != nil {
		pg.Unlock()
		t.pool.Unpin(id, false)
		return nil, err
	}
	idx := -1
	for i, e := range entries {
		if e.child == split.left {
			idx = i
			break
		}
	}
	if idx < 0 {
		pg.Unlock()
		t.pool.Unpin(id, false)
		return nil, types.NewCorruptedPage(id, fmt.Sprintf("no routing entry for child %d", split.left))
	}

	oldBound := entries[idx].bound
	entries[idx] = interiorEntry{child: split.left, bound: split.sep}
	entries = append(entries, interiorEntry{})
	copy(entries[idx+2:], entries[idx+1:])
	entries[idx+1] = interiorEntry{child: split.right, bound: oldBound}

	if interiorEntriesFit(pg, entries) {
		err = writeInteriorEntries(pg, entries)
		pg.Unlock()
		t.pool.Unpin(id, err == nil)
		return nil, err
	}
	res, err := t.splitInterior(pg, entries)
	pg.Unlock()
	t.pool.Unpin(id, err == nil)
	return res, err
}

// growRoot allocates a new interior root above the two halves of a root
// split.
func (t *BPlusTree) growRoot(split *splitResult) error {
	left, err := t.pool.Fetch(split.left, bufferpool.FetchMetadata)
	if err != nil {
		return err
	}
	rootType := types.PageTypeInteriorTable
	if left.Type == types.PageTypeLeafIndex || left.Type == types.PageTypeInteriorIndex {
		rootType = types.PageTypeInteriorIndex
	}
	t.pool.Unpin(split.left, false)

	newRoot, err := t.allocate(rootType)
	if err != nil {
		return err
	}
	newRoot.Lock()
	err = writeInteriorEntries(newRoot, []interiorEntry{
		{child: split.left, bound: split.sep},
		{child: split.right, bound: types.Null()},
	})
	newRoot.Unlock()
	t.pool.Unpin(newRoot.ID, err == nil)
	if err != nil {
		return err
	}
	logger.Log.Debugf("root split: %d+%d under new root %d", split.left, split.right, newRoot.ID)
	t.root = newRoot.ID
	return nil
}

// leafInsertPos finds the slot index keeping the leaf's live cells in
// ascending key order: the first live slot whose key exceeds the new one.
func leafInsertPos(pg *page.Page, key types.Value) (int, error) {
	for i := 0; i < pg.SlotCount(); i++ {
		cell, ok := pg.GetCell(i)
		if !ok {
			continue
		}
		row, err := types.RowFromBytes(cell)
		if err != nil {
			return 0, fmt.Errorf("leaf %d slot %d: %w", pg.ID, i, err)
		}
		if compareKeys(row.Key(), key) > 0 {
			return i, nil
		}
	}
	return pg.SlotCount(), nil
}
