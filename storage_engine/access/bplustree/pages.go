package bplustree

import (
	"GroveDB/storage_engine/bufferpool"
	"GroveDB/types"
)

// PageIDs returns every page the tree occupies, root first. Dropping a table
// reclaims exactly this set.
func (t *BPlusTree) PageIDs() ([]types.PageID, error) {
	t.structural.RLock()
	defer t.structural.RUnlock()
	var ids []types.PageID
	err := t.collectPages(t.root, &ids)
	return ids, err
}

func (t *BPlusTree) collectPages(id types.PageID, ids *[]types.PageID) error {
	*ids = append(*ids, id)
	pg, err := t.pool.Fetch(id, bufferpool.FetchFull)
	if err != nil {
		return err
	}
	if pg.Type.IsLeaf() {
		t.pool.Unpin(id, false)
		return nil
	}
	entries, err := readInteriorEntries(pg)
	t.pool.Unpin(id, false)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := t.collectPages(e.child, ids); err != nil {
			return err
		}
	}
	return nil
}
