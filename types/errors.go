package types

import (
	"errors"
	"fmt"
)

/*
Error taxonomy of the storage engine.

Every failure class is a sentinel wrapped with context via %w, so callers
classify with errors.Is and never have to parse messages:

	ErrPageFull            — cell does not fit; handled by the B+tree (split),
	                         never surfaces past the tree layer
	ErrInvalidSlotIndex    — consistency error, should not escape the tree
	ErrCorruptedDatabase   — file size / header mismatch, fatal for the file
	ErrCorruptedPage       — page-level decode or bounds failure
	ErrUnsupportedFormat   — file declares a newer format than we understand
	ErrTableNotFound       — caller error, recoverable
	ErrSerialization       — codec round-trip failure
	ErrBufferPoolFull      — every frame pinned; resource exhaustion, not a
	                         deadlock to retry internally

I/O errors from the OS propagate unchanged.
*/

var (
	ErrPageFull          = errors.New("page is full")
	ErrInvalidSlotIndex  = errors.New("invalid slot index")
	ErrCorruptedDatabase = errors.New("corrupted database")
	ErrCorruptedPage     = errors.New("corrupted page")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrTableNotFound     = errors.New("table not found")
	ErrSerialization     = errors.New("serialization error")
	ErrBufferPoolFull    = errors.New("buffer pool full")
)

func NewPageFull(pageID PageID) error {
	return fmt.Errorf("page %d: %w", pageID, ErrPageFull)
}

func NewInvalidSlotIndex(index, max int) error {
	return fmt.Errorf("slot %d out of range (have %d): %w", index, max, ErrInvalidSlotIndex)
}

func NewCorruptedDatabase(reason string) error {
	return fmt.Errorf("%w: %s", ErrCorruptedDatabase, reason)
}

func NewCorruptedPage(pageID PageID, reason string) error {
	return fmt.Errorf("%w %d: %s", ErrCorruptedPage, pageID, reason)
}

func NewUnsupportedFormat(version uint8) error {
	return fmt.Errorf("%w: version %d", ErrUnsupportedFormat, version)
}

func NewTableNotFound(name string) error {
	return fmt.Errorf("%w: %q", ErrTableNotFound, name)
}

func NewSerializationError(details string) error {
	return fmt.Errorf("%w: %s", ErrSerialization, details)
}
