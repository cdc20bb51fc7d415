package storage_engine

import (
	"sync"

	"github.com/dgraph-io/ristretto/v2"

	"GroveDB/storage_engine/access/bplustree"
	"GroveDB/storage_engine/bufferpool"
	"GroveDB/storage_engine/catalog"
	diskmanager "GroveDB/storage_engine/disk_manager"
	"GroveDB/storage_engine/scan"
	"GroveDB/types"
)

/*
StorageManager is the engine facade: one instance per database file, owning
the disk manager, the buffer pool, the catalog, the scan coordinator and a
point-lookup row cache. All table operations go through it; it resolves
table names to tree roots and persists root changes the trees report.

Writes are durable after FlushAll (or Close), not before.
*/

type StorageManager struct {
	disk    *diskmanager.DiskManager
	pool    *bufferpool.BufferPool
	catalog *catalog.CatalogManager
	scanner *scan.Coordinator

	// trees holds one shared handle per table, so every operation on a
	// table goes through the same tree and the same structural lock.
	treeMu sync.Mutex
	trees  map[string]*tableHandle

	// rowCache short-circuits repeated point lookups. Lookups populate it;
	// Delete invalidates.
	rowCache *ristretto.Cache[string, *types.Row]

	// nextRowID is seeded lazily per table from the largest persisted id.
	idMu      sync.Mutex
	nextRowID map[string]types.RowID
}

// tableHandle pairs a table's tree with a table-level lock. Writers hold it
// exclusively so the mutate-then-persist-root sequence stays atomic; a
// parallel scan holds it shared for its whole chain walk, since the
// coordinator's producer runs ahead of the tree's structural lock and a
// concurrent split could move rows behind it. Point lookups and iterators
// never take it; the structural lock orders them per step.
type tableHandle struct {
	mu   sync.RWMutex
	tree *bplustree.BPlusTree
}

// Options tunes a StorageManager. The zero value gets sensible defaults.
type Options struct {
	// BufferPoolCapacity is the frame count of the page cache. Default 256
	// frames (1MB of pages).
	BufferPoolCapacity int

	// ScanWorkers sizes the parallel scan worker pool. Default one per CPU.
	ScanWorkers int

	// RowCacheBytes bounds the point-lookup row cache. Default 32MB;
	// negative disables the cache.
	RowCacheBytes int64
}

func (o Options) withDefaults() Options {
	if o.BufferPoolCapacity == 0 {
		o.BufferPoolCapacity = 256
	}
	if o.RowCacheBytes == 0 {
		o.RowCacheBytes = 32 << 20
	}
	return o
}

// handle returns the table's shared handle, opening the tree at its
// cataloged root on first use.
func (sm *StorageManager) handle(table string) (*tableHandle, error) {
	sm.treeMu.Lock()
	defer sm.treeMu.Unlock()
	if h, ok := sm.trees[table]; ok {
		return h, nil
	}
	root, err := sm.catalog.RootOf(table)
	if err != nil {
		return nil, err
	}
	h := &tableHandle{tree: bplustree.New(sm.pool, root)}
	sm.trees[table] = h
	return h, nil
}

// tree returns the named table's shared B+tree, for read paths.
func (sm *StorageManager) tree(table string) (*bplustree.BPlusTree, error) {
	h, err := sm.handle(table)
	if err != nil {
		return nil, err
	}
	return h.tree, nil
}

// persistRoot records the tree's current root in the catalog when a mutation
// moved it. Callers hold the table handle's mutation lock.
func (sm *StorageManager) persistRoot(table string, tree *bplustree.BPlusTree) error {
	root := tree.RootPageID()
	cur, err := sm.catalog.RootOf(table)
	if err != nil {
		return err
	}
	if cur == root {
		return nil
	}
	return sm.catalog.UpdateRoot(table, root)
}
