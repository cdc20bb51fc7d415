package storage_engine

import (
	"github.com/dgraph-io/ristretto/v2"

	"GroveDB/logger"
	"GroveDB/storage_engine/bufferpool"
	"GroveDB/storage_engine/catalog"
	diskmanager "GroveDB/storage_engine/disk_manager"
	"GroveDB/storage_engine/scan"
	"GroveDB/types"
)

// Open opens (or creates) the database file at path and assembles the
// engine around it.
func Open(path string, opts Options) (*StorageManager, error) {
	opts = opts.withDefaults()

	disk, err := diskmanager.Open(path)
	if err != nil {
		return nil, err
	}
	pool := bufferpool.NewBufferPool(opts.BufferPoolCapacity, disk)

	cat, err := catalog.NewCatalogManager(pool)
	if err != nil {
		disk.Close()
		return nil, err
	}

	sm := &StorageManager{
		disk:      disk,
		pool:      pool,
		catalog:   cat,
		scanner:   scan.NewCoordinator(pool, opts.ScanWorkers),
		trees:     make(map[string]*tableHandle),
		nextRowID: make(map[string]types.RowID),
	}

	if opts.RowCacheBytes > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config[string, *types.Row]{
			NumCounters: opts.RowCacheBytes / 64,
			MaxCost:     opts.RowCacheBytes,
			BufferItems: 64,
		})
		if err != nil {
			disk.Close()
			return nil, err
		}
		sm.rowCache = cache
	}

	logger.Log.Infof("opened %s: %d pages, %d tables, %d scan workers",
		path, disk.PageCount(), len(cat.Tables()), sm.scanner.Workers())
	return sm, nil
}

// FlushAll writes every dirty page to disk and syncs the file. Returning nil
// means everything written so far is on stable storage.
func (sm *StorageManager) FlushAll() error {
	return sm.pool.FlushAll()
}

// Close flushes all dirty state and releases the file.
func (sm *StorageManager) Close() error {
	if err := sm.pool.FlushAll(); err != nil {
		sm.disk.Close()
		return err
	}
	if sm.rowCache != nil {
		sm.rowCache.Close()
	}
	return sm.disk.Close()
}

// PageCount returns the size of the database file in pages.
func (sm *StorageManager) PageCount() uint64 {
	return sm.disk.PageCount()
}

// Header returns a copy of the file preamble, for inspection tools.
func (sm *StorageManager) Header() diskmanager.FileHeader {
	return sm.disk.Header()
}
