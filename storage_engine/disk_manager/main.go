package diskmanager

import (
	"fmt"
	"os"
	"sync"

	"GroveDB/logger"
	"GroveDB/storage_engine/page"
	"GroveDB/types"
)

/*
Disk manager for the single database file.

It owns:
  - the OS file handle (all ReadAt/WriteAt pairs go through one mutex; the
    buffer pool is the only caller on hot paths, workers never touch this
    directly)
  - the file preamble (format versions, page count, free-list head)
  - the logical-page-id → byte-offset mapping
  - page allocation, consulting the free list before extending the file

Addressing law: page id N lives at PreambleSize + (N-1)*PageSize. Page 1's
usable body is smaller by PreambleSize (see page.UsableBodySize); the file
size is always PreambleSize + pageCount*PageSize, which is what the
corruption check on open verifies.

The free list threads reclaimed pages through their next-leaf header field,
headed by the preamble's FreelistHeadPage. Pages are logically destroyed only
by joining this list; the file never shrinks.
*/

type DiskManager struct {
	mu     sync.Mutex
	file   *os.File
	path   string
	header FileHeader
}

// Open opens an existing database file or creates a fresh one with an empty
// schema page.
func Open(path string) (*DiskManager, error) {
	if _, err := os.Stat(path); err == nil {
		return openExisting(path)
	}
	return createNew(path)
}

func createNew(path string) (*DiskManager, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create database file %s: %w", path, err)
	}

	dm := &DiskManager{file: file, path: path, header: NewFileHeader()}
	if err := dm.writeHeaderLocked(); err != nil {
		file.Close()
		return nil, err
	}
	// Page 1: the schema root, an empty table leaf until the catalog
	// bootstraps itself into it.
	schemaPage := page.New(1, types.PageTypeLeafTable)
	if err := dm.writePageLocked(1, schemaPage.Encode()); err != nil {
		file.Close()
		return nil, err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return nil, err
	}
	logger.Log.Infof("created database %s", path)
	return dm, nil
}

func openExisting(path string) (*DiskManager, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open database file %s: %w", path, err)
	}

	buf := make([]byte, page.PreambleSize)
	if _, err := file.ReadAt(buf, 0); err != nil {
		file.Close()
		return nil, types.NewCorruptedDatabase("file shorter than preamble")
	}
	header, err := DecodeFileHeader(buf)
	if err != nil {
		file.Close()
		return nil, err
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	dataSize := stat.Size() - page.PreambleSize
	if dataSize < 0 || dataSize%page.PageSize != 0 {
		file.Close()
		return nil, types.NewCorruptedDatabase(
			fmt.Sprintf("file size %d does not match page geometry", stat.Size()))
	}
	if uint64(dataSize/page.PageSize) != uint64(header.DatabaseSizePages) {
		file.Close()
		return nil, types.NewCorruptedDatabase("file size does not match header page count")
	}

	logger.Log.Infof("opened database %s (%d pages)", path, header.DatabaseSizePages)
	return &DiskManager{file: file, path: path, header: header}, nil
}

// PageOffset returns the byte offset of a page within the file.
func PageOffset(id types.PageID) int64 {
	return page.PreambleSize + int64(id-1)*page.PageSize
}

// ReadPage reads the full PageSize bytes of a page.
func (dm *DiskManager) ReadPage(id types.PageID) ([]byte, error) {
	if err := dm.checkPageID(id); err != nil {
		return nil, err
	}
	buf := make([]byte, page.PageSize)
	dm.mu.Lock()
	_, err := dm.file.ReadAt(buf, PageOffset(id))
	dm.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to read page %d: %w", id, err)
	}
	return buf, nil
}

// ReadPageMetadata reads only the page header plus slot directory — the
// bytes a metadata-only decode needs.
func (dm *DiskManager) ReadPageMetadata(id types.PageID) ([]byte, error) {
	if err := dm.checkPageID(id); err != nil {
		return nil, err
	}
	head := make([]byte, page.PageHeaderSize)
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if _, err := dm.file.ReadAt(head, PageOffset(id)); err != nil {
		return nil, fmt.Errorf("failed to read page %d header: %w", id, err)
	}
	size, err := page.MetadataSize(head)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	if _, err := dm.file.ReadAt(buf, PageOffset(id)); err != nil {
		return nil, fmt.Errorf("failed to read page %d metadata: %w", id, err)
	}
	return buf, nil
}

// WritePage writes the full PageSize bytes of a page.
func (dm *DiskManager) WritePage(id types.PageID, buf []byte) error {
	if err := dm.checkPageID(id); err != nil {
		return err
	}
	if len(buf) != page.PageSize {
		return types.NewSerializationError(
			fmt.Sprintf("page buffer is %d bytes, want %d", len(buf), page.PageSize))
	}
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return dm.writePageLocked(id, buf)
}

func (dm *DiskManager) writePageLocked(id types.PageID, buf []byte) error {
	if _, err := dm.file.WriteAt(buf, PageOffset(id)); err != nil {
		return fmt.Errorf("failed to write page %d: %w", id, err)
	}
	return nil
}

// AllocatePage returns a page id ready for use: the free-list head when one
// exists (its prior contents zero-filled), otherwise a brand-new page
// extending the file. The page arrives on disk as an empty page of the
// requested type.
func (dm *DiskManager) AllocatePage(pageType types.PageType) (types.PageID, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if head := dm.header.FreelistHeadPage; head != 0 {
		id := types.PageID(head)
		// The reclaimed page's next-leaf field holds the rest of the chain.
		buf := make([]byte, page.PageSize)
		if _, err := dm.file.ReadAt(buf, PageOffset(id)); err != nil {
			return 0, fmt.Errorf("failed to read free-list page %d: %w", id, err)
		}
		freed, err := page.Decode(buf)
		if err != nil {
			return 0, err
		}
		next := uint32(0)
		if freed.NextLeafPageID != types.NonePageID {
			next = uint32(freed.NextLeafPageID)
		}
		fresh := page.New(id, pageType)
		if err := dm.writePageLocked(id, fresh.Encode()); err != nil {
			return 0, err
		}
		dm.header.FreelistHeadPage = next
		dm.header.FreelistPageCount--
		dm.header.FileChangeCounter++
		if err := dm.writeHeaderLocked(); err != nil {
			return 0, err
		}
		logger.Log.Debugf("allocated page %d from free list (type %s)", id, pageType)
		return id, nil
	}

	id := types.PageID(dm.header.DatabaseSizePages) + 1
	fresh := page.New(id, pageType)
	if err := dm.writePageLocked(id, fresh.Encode()); err != nil {
		return 0, err
	}
	dm.header.DatabaseSizePages = uint32(id)
	dm.header.FileChangeCounter++
	if err := dm.writeHeaderLocked(); err != nil {
		return 0, err
	}
	logger.Log.Debugf("allocated page %d by extending file (type %s)", id, pageType)
	return id, nil
}

// Reclaim puts a page that became entirely empty onto the free list. The
// page is rewritten as an empty leaf whose next-leaf field points at the
// previous list head.
func (dm *DiskManager) Reclaim(id types.PageID) error {
	if id == 1 {
		return types.NewCorruptedDatabase("cannot reclaim the schema page")
	}
	if err := dm.checkPageID(id); err != nil {
		return err
	}
	dm.mu.Lock()
	defer dm.mu.Unlock()

	freed := page.New(id, types.PageTypeLeafTable)
	if dm.header.FreelistHeadPage != 0 {
		freed.NextLeafPageID = types.PageID(dm.header.FreelistHeadPage)
	}
	if err := dm.writePageLocked(id, freed.Encode()); err != nil {
		return err
	}
	dm.header.FreelistHeadPage = uint32(id)
	dm.header.FreelistPageCount++
	dm.header.FileChangeCounter++
	if err := dm.writeHeaderLocked(); err != nil {
		return err
	}
	logger.Log.Debugf("reclaimed page %d onto free list", id)
	return nil
}

// PageCount returns the number of pages in the file, free-listed pages
// included.
func (dm *DiskManager) PageCount() uint64 {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return uint64(dm.header.DatabaseSizePages)
}

// Header returns a copy of the current preamble.
func (dm *DiskManager) Header() FileHeader {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return dm.header
}

// SchemaRoot returns the page id of the schema tree's current root. A fresh
// file starts with the schema tree rooted at page 1; root splits move it.
func (dm *DiskManager) SchemaRoot() types.PageID {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if dm.header.LargestRootBTreePage == 0 {
		return 1
	}
	return types.PageID(dm.header.LargestRootBTreePage)
}

// SetSchemaRoot records a new schema tree root in the preamble.
func (dm *DiskManager) SetSchemaRoot(id types.PageID) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.header.LargestRootBTreePage = uint32(id)
	dm.header.FileChangeCounter++
	return dm.writeHeaderLocked()
}

// Sync flushes OS buffers to stable storage.
func (dm *DiskManager) Sync() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return dm.file.Sync()
}

// Close syncs and closes the file.
func (dm *DiskManager) Close() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if dm.file == nil {
		return nil
	}
	if err := dm.file.Sync(); err != nil {
		dm.file.Close()
		dm.file = nil
		return err
	}
	err := dm.file.Close()
	dm.file = nil
	return err
}

func (dm *DiskManager) writeHeaderLocked() error {
	if _, err := dm.file.WriteAt(dm.header.Encode(), 0); err != nil {
		return fmt.Errorf("failed to write file header: %w", err)
	}
	return nil
}

func (dm *DiskManager) checkPageID(id types.PageID) error {
	if id == 0 || id == types.NonePageID {
		return types.NewCorruptedPage(id, "invalid page id")
	}
	return nil
}
