package catalog

import (
	"fmt"
	"sort"

	"GroveDB/logger"
	"GroveDB/storage_engine/access/bplustree"
	"GroveDB/storage_engine/bufferpool"
	"GroveDB/types"
)

// NewCatalogManager loads the table registry from the schema tree.
func NewCatalogManager(pool *bufferpool.BufferPool) (*CatalogManager, error) {
	cm := &CatalogManager{
		pool:  pool,
		roots: make(map[string]types.PageID),
	}
	if err := cm.load(); err != nil {
		return nil, err
	}
	return cm, nil
}

// schemaTree opens the schema B+tree at its current root.
func (cm *CatalogManager) schemaTree() *bplustree.BPlusTree {
	return bplustree.New(cm.pool, cm.pool.Disk().SchemaRoot())
}

func (cm *CatalogManager) load() error {
	it, err := cm.schemaTree().RangeScan(types.Null(), types.Null())
	if err != nil {
		return err
	}
	for it.Next() {
		row := it.Row()
		if len(row.Values) < 3 ||
			row.Value(0).Type() != types.TypeText ||
			row.Value(2).Type() != types.TypeInteger {
			return types.NewCorruptedDatabase("malformed schema row")
		}
		if row.Value(1).Str() != "table" {
			continue
		}
		cm.roots[row.Value(0).Str()] = types.PageID(row.Value(2).Int())
	}
	if err := it.Err(); err != nil {
		return err
	}
	logger.Log.Debugf("catalog loaded: %d tables", len(cm.roots))
	return nil
}

// TableExists reports whether the catalog knows the table.
func (cm *CatalogManager) TableExists(name string) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	_, ok := cm.roots[name]
	return ok
}

// RootOf returns the table's current root page id.
func (cm *CatalogManager) RootOf(name string) (types.PageID, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	root, ok := cm.roots[name]
	if !ok {
		return 0, types.NewTableNotFound(name)
	}
	return root, nil
}

// Tables returns all registered table names in lexical order.
func (cm *CatalogManager) Tables() []string {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	names := make([]string, 0, len(cm.roots))
	for name := range cm.roots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateTable allocates an empty root leaf for a new table and registers it
// in the schema tree.
func (cm *CatalogManager) CreateTable(name string) (types.PageID, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if _, exists := cm.roots[name]; exists {
		return 0, fmt.Errorf("table %q already exists", name)
	}

	rootID, err := cm.pool.Disk().AllocatePage(types.PageTypeLeafTable)
	if err != nil {
		return 0, err
	}
	row := types.NewRow(
		types.Text(name),
		types.Text("table"),
		types.Integer(int64(rootID)),
		types.Text(fmt.Sprintf("CREATE TABLE %s", name)),
	)
	if err := cm.insertSchemaRow(row); err != nil {
		return 0, err
	}
	cm.roots[name] = rootID
	logger.Log.Infof("created table %q with root page %d", name, rootID)
	return rootID, nil
}

// UpdateRoot records a table's new root after a root split moved it.
func (cm *CatalogManager) UpdateRoot(name string, newRoot types.PageID) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if _, exists := cm.roots[name]; !exists {
		return types.NewTableNotFound(name)
	}
	if err := cm.deleteSchemaRow(name); err != nil {
		return err
	}
	row := types.NewRow(
		types.Text(name),
		types.Text("table"),
		types.Integer(int64(newRoot)),
		types.Text(fmt.Sprintf("CREATE TABLE %s", name)),
	)
	if err := cm.insertSchemaRow(row); err != nil {
		return err
	}
	cm.roots[name] = newRoot
	logger.Log.Debugf("table %q root moved to page %d", name, newRoot)
	return nil
}

// DropTable removes the table from the registry. The caller reclaims the
// table's pages.
func (cm *CatalogManager) DropTable(name string) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if _, exists := cm.roots[name]; !exists {
		return types.NewTableNotFound(name)
	}
	if err := cm.deleteSchemaRow(name); err != nil {
		return err
	}
	delete(cm.roots, name)
	logger.Log.Infof("dropped table %q", name)
	return nil
}

// insertSchemaRow writes through to the schema tree and persists its root if
// the insert split it.
func (cm *CatalogManager) insertSchemaRow(row *types.Row) error {
	tree := cm.schemaTree()
	newRoot, err := tree.Insert(row)
	if err != nil {
		return err
	}
	return cm.persistSchemaRoot(newRoot)
}

func (cm *CatalogManager) deleteSchemaRow(name string) error {
	tree := cm.schemaTree()
	found, err := tree.Delete(types.Text(name))
	if err != nil {
		return err
	}
	if !found {
		return types.NewCorruptedDatabase(fmt.Sprintf("schema row for %q missing", name))
	}
	return cm.persistSchemaRoot(tree.RootPageID())
}

func (cm *CatalogManager) persistSchemaRoot(root types.PageID) error {
	disk := cm.pool.Disk()
	if root == disk.SchemaRoot() {
		return nil
	}
	return disk.SetSchemaRoot(root)
}
