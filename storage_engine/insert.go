package storage_engine

import (
	"GroveDB/storage_engine/access/bplustree"
	"GroveDB/types"
)

// Insert adds the row to the table, assigning it the next row id when it
// does not carry one yet. The row cache is left alone: a cached entry for
// the key still names the first matching row, which is what lookups return
// even after a duplicate-key insert.
func (sm *StorageManager) Insert(table string, row *types.Row) error {
	h, err := sm.handle(table)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := sm.assignRowID(table, h.tree, row); err != nil {
		return err
	}
	if _, err := h.tree.Insert(row); err != nil {
		return err
	}
	return sm.persistRoot(table, h.tree)
}

// assignRowID gives the row a fresh monotonic id. The per-table counter is
// seeded on first use from the largest id already persisted, so ids stay
// monotonic across reopens.
func (sm *StorageManager) assignRowID(table string, tree *bplustree.BPlusTree, row *types.Row) error {
	sm.idMu.Lock()
	defer sm.idMu.Unlock()

	next, seeded := sm.nextRowID[table]
	if !seeded {
		max, err := maxRowID(tree)
		if err != nil {
			return err
		}
		next = max + 1
	}

	if row.HasRowID {
		if row.RowID >= next {
			next = row.RowID + 1
		}
	} else {
		row.RowID = next
		row.HasRowID = true
		next++
	}
	sm.nextRowID[table] = next
	return nil
}

func maxRowID(tree *bplustree.BPlusTree) (types.RowID, error) {
	it, err := tree.RangeScan(types.Null(), types.Null())
	if err != nil {
		return 0, err
	}
	var max types.RowID
	for it.Next() {
		row := it.Row()
		if row.HasRowID && row.RowID > max {
			max = row.RowID
		}
	}
	return max, it.Err()
}
