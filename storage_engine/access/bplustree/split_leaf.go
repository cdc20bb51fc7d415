package bplustree

import (
	"fmt"

	"GroveDB/logger"
	"GroveDB/storage_engine/page"
	"GroveDB/types"
)

// splitLeaf splits a full leaf around its median, participating the incoming
// row in the split so a boundary insert cannot recurse. The original page
// keeps the lower half (and its chain predecessor's link stays valid); the
// new right sibling takes the upper half and is threaded into the chain. The
// separator handed upward is the right half's minimum key.
//
// The caller holds pg's exclusive latch.
func (t *BPlusTree) splitLeaf(pg *page.Page, key types.Value, cell []byte) (*splitResult, error) {
	type leafCell struct {
		key  types.Value
		data []byte
	}

	all := make([]leafCell, 0, pg.SlotCount()+1)
	for i := 0; i < pg.SlotCount(); i++ {
		raw, ok := pg.GetCell(i)
		if !ok {
			continue
		}
		row, err := types.RowFromBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("leaf %d slot %d: %w", pg.ID, i, err)
		}
		// GetCell aliases the body the Reset below wipes.
		data := make([]byte, len(raw))
		copy(data, raw)
		all = append(all, leafCell{key: row.Key(), data: data})
	}

	pos := len(all)
	for i, c := range all {
		if compareKeys(c.key, key) > 0 {
			pos = i
			break
		}
	}
	all = append(all, leafCell{})
	copy(all[pos+1:], all[pos:])
	all[pos] = leafCell{key: key, data: cell}

	mid := len(all) / 2
	sep := all[mid].key

	right, err := t.allocate(pg.Type)
	if err != nil {
		return nil, err
	}
	right.Lock()
	right.NextLeafPageID = pg.NextLeafPageID
	right.ParentPageID = pg.ParentPageID
	for _, c := range all[mid:] {
		if _, err := right.InsertCell(c.data); err != nil {
			right.Unlock()
			t.pool.Unpin(right.ID, false)
			return nil, err
		}
	}
	right.Unlock()
	t.pool.Unpin(right.ID, true)

	parent := pg.ParentPageID
	pg.Reset()
	pg.ParentPageID = parent
	for _, c := range all[:mid] {
		if _, err := pg.InsertCell(c.data); err != nil {
			return nil, err
		}
	}
	pg.NextLeafPageID = right.ID

	logger.Log.Debugf("split leaf %d: %d cells kept, %d moved to %d",
		pg.ID, mid, len(all)-mid, right.ID)
	return &splitResult{left: pg.ID, right: right.ID, sep: sep}, nil
}
