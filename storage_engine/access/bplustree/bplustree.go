package bplustree

import (
	"encoding/binary"
	"fmt"
	"sync"

	"GroveDB/storage_engine/bufferpool"
	"GroveDB/storage_engine/page"
	"GroveDB/types"
)

/*
B+tree over slotted pages. Leaves hold encoded rows in ascending key order
(a row's key is its first column); interiors hold routing entries only. All
leaves of one tree are threaded left-to-right through NextLeafPageID, which
is what sequential and parallel scans walk.

Interior cell wire form (little-endian):

	Byte    Field
	────────────────────────────────────────
	0..7    child page id   u64
	8..11   key length      u32
	12..    key bytes       Value compact form

Each entry pairs a child with that child's EXCLUSIVE upper bound; entries sit
in bound order and the last entry's bound is Null, read as +infinity. Routing
descends into the first entry whose bound is strictly greater than the search
key, so a leaf split's separator — the right sibling's minimum key — sends
equal keys right.

Writers run one at a time under the structural lock; readers share it, which
keeps leaf-chain relinks (splits, empty-leaf unlinks) invisible to scans.
*/

type BPlusTree struct {
	pool       *bufferpool.BufferPool
	root       types.PageID
	structural sync.RWMutex
}

// New opens a tree rooted at the given page. The root page must already
// exist on disk (a freshly allocated empty leaf for a new tree).
func New(pool *bufferpool.BufferPool, root types.PageID) *BPlusTree {
	return &BPlusTree{pool: pool, root: root}
}

// RootPageID returns the current root. It changes only on root splits and
// root collapse; callers owning the tree persist the new value.
func (t *BPlusTree) RootPageID() types.PageID {
	t.structural.RLock()
	defer t.structural.RUnlock()
	return t.root
}

// ─────────────────────────────────────────────────────────────────────────────
// Interior entry codec
// ─────────────────────────────────────────────────────────────────────────────

type interiorEntry struct {
	child types.PageID
	bound types.Value // exclusive upper bound; Null reads as +infinity
}

func (e interiorEntry) encode() []byte {
	buf := make([]byte, 0, 12+e.bound.Size())
	buf = binary.LittleEndian.AppendUint64(buf, e.child)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(e.bound.Size()))
	return e.bound.AppendTo(buf)
}

func parseInteriorEntry(cell []byte, pageID types.PageID) (interiorEntry, error) {
	if len(cell) < 12 {
		return interiorEntry{}, types.NewCorruptedPage(pageID, "interior entry too short")
	}
	child := binary.LittleEndian.Uint64(cell)
	keyLen := int(binary.LittleEndian.Uint32(cell[8:]))
	if len(cell) != 12+keyLen {
		return interiorEntry{}, types.NewCorruptedPage(pageID, "interior entry length mismatch")
	}
	bound, n, err := types.DecodeValue(cell[12:])
	if err != nil || n != keyLen {
		return interiorEntry{}, types.NewCorruptedPage(pageID, "malformed interior entry key")
	}
	return interiorEntry{child: child, bound: bound}, nil
}

// readInteriorEntries returns the page's routing entries in slot order.
// Interior pages are always rebuilt wholesale, so they carry no tombstones
// and slot order is bound order.
func readInteriorEntries(pg *page.Page) ([]interiorEntry, error) {
	entries := make([]interiorEntry, 0, pg.SlotCount())
	for i := 0; i < pg.SlotCount(); i++ {
		cell, ok := pg.GetCell(i)
		if !ok {
			continue
		}
		e, err := parseInteriorEntry(cell, pg.ID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// writeInteriorEntries rebuilds the page to hold exactly these entries, in
// order.
func writeInteriorEntries(pg *page.Page, entries []interiorEntry) error {
	pg.Reset()
	for _, e := range entries {
		if _, err := pg.InsertCell(e.encode()); err != nil {
			return err
		}
	}
	return nil
}

// interiorEntriesFit reports whether the full entry list fits the page body.
func interiorEntriesFit(pg *page.Page, entries []interiorEntry) bool {
	total := 0
	for _, e := range entries {
		total += len(e.encode()) + page.SlotEntrySize
	}
	return total <= page.UsableBodySize(pg.ID)-page.PageHeaderSize
}

// ─────────────────────────────────────────────────────────────────────────────
// Key ordering
// ─────────────────────────────────────────────────────────────────────────────

// compareKeys totalizes Value.Compare: pairs with no defined order (Text
// against Blob, say) fall back to discriminant order so every tree has one
// deterministic key order.
func compareKeys(a, b types.Value) int {
	if cmp, ok := a.Compare(b); ok {
		return cmp
	}
	switch {
	case a.Type() < b.Type():
		return -1
	case a.Type() > b.Type():
		return 1
	}
	return 0
}

// keyBelowBound reports whether key routes into a child with this upper
// bound. A Null bound is +infinity and admits everything.
func keyBelowBound(key, bound types.Value) bool {
	if bound.IsNull() {
		return true
	}
	return compareKeys(key, bound) < 0
}

// allocate hands back a fresh pinned empty page of the given type, already
// registered with the buffer pool.
func (t *BPlusTree) allocate(pt types.PageType) (*page.Page, error) {
	id, err := t.pool.Disk().AllocatePage(pt)
	if err != nil {
		return nil, err
	}
	pg := page.New(id, pt)
	if err := t.pool.Register(pg); err != nil {
		return nil, fmt.Errorf("failed to cache allocated page %d: %w", id, err)
	}
	return pg, nil
}
