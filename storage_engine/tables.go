package storage_engine

import (
	"GroveDB/types"
)

// CreateTable registers a new table and returns its root page id.
func (sm *StorageManager) CreateTable(name string) (types.PageID, error) {
	return sm.catalog.CreateTable(name)
}

// DropTable removes a table and reclaims every page of its tree.
func (sm *StorageManager) DropTable(name string) error {
	h, err := sm.handle(name)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	pages, err := h.tree.PageIDs()
	if err != nil {
		return err
	}
	if err := sm.catalog.DropTable(name); err != nil {
		return err
	}
	sm.treeMu.Lock()
	delete(sm.trees, name)
	sm.treeMu.Unlock()
	for _, id := range pages {
		if err := sm.pool.Invalidate(id); err != nil {
			return err
		}
		if err := sm.disk.Reclaim(id); err != nil {
			return err
		}
	}
	// Cached rows of the dropped table would go stale if the name returns.
	if sm.rowCache != nil {
		sm.rowCache.Clear()
	}
	sm.idMu.Lock()
	delete(sm.nextRowID, name)
	sm.idMu.Unlock()
	return nil
}

// Tables lists all table names in lexical order.
func (sm *StorageManager) Tables() []string {
	return sm.catalog.Tables()
}

// RootOf returns a table's current root page id.
func (sm *StorageManager) RootOf(name string) (types.PageID, error) {
	return sm.catalog.RootOf(name)
}

// UpdateRoot records a table's new root page id. Insert and Delete call this
// path themselves when a mutation moves a root; it is exposed for tools that
// relocate trees out of band. The cached tree handle is dropped so the next
// operation reopens at the recorded root.
func (sm *StorageManager) UpdateRoot(name string, root types.PageID) error {
	if err := sm.catalog.UpdateRoot(name, root); err != nil {
		return err
	}
	sm.treeMu.Lock()
	delete(sm.trees, name)
	sm.treeMu.Unlock()
	return nil
}
