package storage_engine

import (
	"GroveDB/types"
)

// cacheKey namespaces a key's compact encoding by table. Tables cannot
// contain NUL, so the separator is unambiguous.
func cacheKey(table string, key types.Value) string {
	buf := make([]byte, 0, len(table)+1+key.Size())
	buf = append(buf, table...)
	buf = append(buf, 0)
	return string(key.AppendTo(buf))
}

// PointLookup returns the first row whose key equals key, or nil when the
// table holds no such row.
func (sm *StorageManager) PointLookup(table string, key types.Value) (*types.Row, error) {
	if sm.rowCache != nil {
		if row, hit := sm.rowCache.Get(cacheKey(table, key)); hit {
			return row, nil
		}
	}

	tree, err := sm.tree(table)
	if err != nil {
		return nil, err
	}
	row, err := tree.Search(key)
	if err != nil || row == nil {
		return row, err
	}
	if sm.rowCache != nil {
		sm.rowCache.Set(cacheKey(table, key), row, int64(row.Size()))
	}
	return row, nil
}

// Delete removes the first row matching key, reporting whether one existed.
func (sm *StorageManager) Delete(table string, key types.Value) (bool, error) {
	h, err := sm.handle(table)
	if err != nil {
		return false, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	found, err := h.tree.Delete(key)
	if err != nil {
		return found, err
	}
	if err := sm.persistRoot(table, h.tree); err != nil {
		return found, err
	}
	if found && sm.rowCache != nil {
		sm.rowCache.Del(cacheKey(table, key))
		// Settle any buffered Set for the same key before the next lookup.
		sm.rowCache.Wait()
	}
	return found, nil
}
