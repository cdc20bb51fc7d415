package types

import "math"

/*
Shared identifier types for the storage engine.

PageID is the only on-disk addressing mechanism — no in-memory pointers are
ever persisted. Page 1 is reserved for the schema root and carries the file
preamble. RowID identifies a persisted row; a freshly built in-memory row has
no RowID until its first successful insert.
*/

type PageID = uint64
type RowID = uint64

// NonePageID is the on-disk encoding of "no page" for optional page
// references (parent pointer, next-leaf pointer, free-list head).
const NonePageID PageID = math.MaxUint64

// PageType tags the four kinds of B+tree pages. The numeric values are part
// of the on-disk format.
type PageType uint8

const (
	PageTypeInteriorIndex PageType = 2
	PageTypeInteriorTable PageType = 5
	PageTypeLeafIndex     PageType = 10
	PageTypeLeafTable     PageType = 13
)

// PageTypeFromByte validates a raw page-type byte read from disk.
func PageTypeFromByte(b uint8) (PageType, error) {
	switch PageType(b) {
	case PageTypeInteriorIndex, PageTypeInteriorTable, PageTypeLeafIndex, PageTypeLeafTable:
		return PageType(b), nil
	default:
		return 0, NewCorruptedPage(0, "invalid page type byte")
	}
}

// IsLeaf reports whether pages of this type sit on the leaf chain.
func (t PageType) IsLeaf() bool {
	switch t {
	case PageTypeLeafIndex, PageTypeLeafTable:
		return true
	case PageTypeInteriorIndex, PageTypeInteriorTable:
		return false
	}
	return false
}

func (t PageType) String() string {
	switch t {
	case PageTypeInteriorIndex:
		return "interior-index"
	case PageTypeInteriorTable:
		return "interior-table"
	case PageTypeLeafIndex:
		return "leaf-index"
	case PageTypeLeafTable:
		return "leaf-table"
	}
	return "unknown"
}
