package page

import (
	"sync"

	"GroveDB/types"
)

/*
Slotted 4096-byte page, the unit of disk I/O and caching.

On-disk layout (all integers little-endian):

	Offset  Size  Field
	──────────────────────────────────────────────────────
	0       8     PageID          u64
	8       1     PageType        u8   — 2/5/10/13, closed set
	9       8     ParentPageID    u64  — NonePageID when absent
	17      8     NextLeafPageID  u64  — NonePageID when absent; free-list
	                                     next pointer on reclaimed pages
	25      2     CellCount       u16  — slot entries, tombstones included
	27      2     FreeSpaceOffset u16
	29      7     reserved
	──────────────────────────────────────────────────────
	36            PageHeaderSize

	[ header 36B ][ slot dir → ][ free space ][ ← cells ]
	0            36             ^             ^          UsableBodySize(id)
	                            slot end      FreeSpaceOffset

	Slot directory grows FORWARD from the header at increasing indices.
	Cells grow BACKWARD from UsableBodySize(id).
	Slot indices and physical cell positions diverge and are never
	assumed aligned.

A slot entry is 4 bytes: [ Offset u16 ][ Length u16 ]. Length 0 marks a
tombstone: deletion voids the entry in place and insertion never reuses it
(append-and-void). Tombstones disappear at the next Defragment.

Page 1 shares its page-size region with the 100-byte file preamble, so its
usable body is PageSize-PreambleSize. UsableBodySize is the single place that
knows this; every offset computation below goes through it.
*/

const (
	// PageSize is the fixed on-disk page size in bytes.
	PageSize = 4096

	// PreambleSize is the fixed database file header size. It conceptually
	// displaces the top of page 1's body.
	PreambleSize = 100

	// PageHeaderSize is the fixed per-page header size in bytes.
	PageHeaderSize = 36

	// SlotEntrySize is the byte size of one slot entry: Offset(2) + Length(2).
	SlotEntrySize = 4
)

// UsableBodySize returns the number of addressable body bytes for a page.
// Page 1 gives up PreambleSize bytes to the file header; every other page
// uses the full page size.
func UsableBodySize(pageID types.PageID) int {
	if pageID == 1 {
		return PageSize - PreambleSize
	}
	return PageSize
}

// SlotEntry describes one cell's physical location within the page body.
type SlotEntry struct {
	Offset uint16
	Length uint16
}

// IsTombstone reports whether the entry has been voided by DeleteCell.
func (s SlotEntry) IsTombstone() bool { return s.Length == 0 }

// Page is the decoded in-memory form. Data holds the full page image
// (header region included, cell offsets are absolute); it is nil for
// metadata-only frames until the buffer pool upgrades them.
type Page struct {
	ID              types.PageID
	Type            types.PageType
	ParentPageID    types.PageID
	NextLeafPageID  types.PageID
	Slots           []SlotEntry
	FreeSpaceOffset uint16
	IsDirty         bool
	Data            []byte

	mu sync.RWMutex
}

// New creates an empty page of the given type with a zeroed body.
func New(id types.PageID, pageType types.PageType) *Page {
	return &Page{
		ID:              id,
		Type:            pageType,
		ParentPageID:    types.NonePageID,
		NextLeafPageID:  types.NonePageID,
		FreeSpaceOffset: uint16(UsableBodySize(id)),
		Data:            make([]byte, PageSize),
	}
}

// Lock takes the page's exclusive latch (writes, upgrade, eviction).
func (p *Page) Lock() { p.mu.Lock() }

// Unlock releases the exclusive latch.
func (p *Page) Unlock() { p.mu.Unlock() }

// RLock takes the page's shared latch (reads).
func (p *Page) RLock() { p.mu.RLock() }

// RUnlock releases the shared latch.
func (p *Page) RUnlock() { p.mu.RUnlock() }

// HasBody reports whether cell bytes are materialized (full load or
// upgraded), as opposed to a metadata-only frame.
func (p *Page) HasBody() bool { return p.Data != nil }

// LiveCellCount counts slots that still point at a cell.
func (p *Page) LiveCellCount() int {
	n := 0
	for _, s := range p.Slots {
		if !s.IsTombstone() {
			n++
		}
	}
	return n
}

// SlotCount returns the total number of directory entries, tombstones
// included.
func (p *Page) SlotCount() int { return len(p.Slots) }
