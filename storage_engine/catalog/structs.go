package catalog

import (
	"sync"

	"GroveDB/storage_engine/bufferpool"
	"GroveDB/types"
)

/*
Catalog manager: the table-name → root-page registry. The registry itself is
rows in the schema B+tree, rooted at page 1 of a fresh file (the preamble
tracks the root when splits move it). One schema row per table:

	column 0  Text     table name (the tree key)
	column 1  Text     object type, always "table"
	column 2  Integer  root page id
	column 3  Text     DDL text

Roots are cached in memory on open; every mutation writes through to the
schema tree before updating the cache.
*/

type CatalogManager struct {
	mu    sync.Mutex
	pool  *bufferpool.BufferPool
	roots map[string]types.PageID
}
