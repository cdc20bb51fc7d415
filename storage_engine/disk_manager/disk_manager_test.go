package diskmanager

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"GroveDB/storage_engine/page"
	"GroveDB/types"
)

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

func TestCreateNewDatabase(t *testing.T) {
	path := tempDB(t)
	dm, err := Open(path)
	require.NoError(t, err)
	defer dm.Close()

	require.Equal(t, uint64(1), dm.PageCount())
	require.Equal(t, types.PageID(1), dm.SchemaRoot())

	// File size law: preamble plus one page region per page.
	stat, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, int64(page.PreambleSize+page.PageSize), stat.Size())

	// Page 1 arrives as an empty table leaf.
	buf, err := dm.ReadPage(1)
	require.NoError(t, err)
	pg, err := page.Decode(buf)
	require.NoError(t, err)
	require.Equal(t, types.PageTypeLeafTable, pg.Type)
	require.Zero(t, pg.SlotCount())
}

func TestReopenExisting(t *testing.T) {
	path := tempDB(t)
	dm, err := Open(path)
	require.NoError(t, err)
	_, err = dm.AllocatePage(types.PageTypeLeafTable)
	require.NoError(t, err)
	require.NoError(t, dm.Close())

	dm, err = Open(path)
	require.NoError(t, err)
	defer dm.Close()
	require.Equal(t, uint64(2), dm.PageCount())
	require.Equal(t, uint32(page.PageSize), uint32(dm.Header().PageSize))
}

func TestPageOffsetLaw(t *testing.T) {
	require.Equal(t, int64(100), PageOffset(1))
	require.Equal(t, int64(100+4096), PageOffset(2))
	require.Equal(t, int64(100+9*4096), PageOffset(10))
}

func TestWriteReadPage(t *testing.T) {
	dm, err := Open(tempDB(t))
	require.NoError(t, err)
	defer dm.Close()

	id, err := dm.AllocatePage(types.PageTypeLeafTable)
	require.NoError(t, err)

	pg := page.New(id, types.PageTypeLeafTable)
	_, err = pg.InsertCell([]byte("persisted"))
	require.NoError(t, err)
	require.NoError(t, dm.WritePage(id, pg.Encode()))

	buf, err := dm.ReadPage(id)
	require.NoError(t, err)
	got, err := page.Decode(buf)
	require.NoError(t, err)
	cell, ok := got.GetCell(0)
	require.True(t, ok)
	require.Equal(t, "persisted", string(cell))
}

func TestReadPageMetadata(t *testing.T) {
	dm, err := Open(tempDB(t))
	require.NoError(t, err)
	defer dm.Close()

	id, err := dm.AllocatePage(types.PageTypeLeafTable)
	require.NoError(t, err)
	pg := page.New(id, types.PageTypeLeafTable)
	pg.NextLeafPageID = 17
	_, err = pg.InsertCell([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, dm.WritePage(id, pg.Encode()))

	buf, err := dm.ReadPageMetadata(id)
	require.NoError(t, err)
	require.Equal(t, page.PageHeaderSize+page.SlotEntrySize, len(buf))

	meta, err := page.DecodeMetadata(buf)
	require.NoError(t, err)
	require.False(t, meta.HasBody())
	require.Equal(t, types.PageID(17), meta.NextLeafPageID)
	require.Equal(t, 1, meta.SlotCount())
}

func TestAllocateExtendsFile(t *testing.T) {
	path := tempDB(t)
	dm, err := Open(path)
	require.NoError(t, err)
	defer dm.Close()

	id2, err := dm.AllocatePage(types.PageTypeLeafTable)
	require.NoError(t, err)
	require.Equal(t, types.PageID(2), id2)
	id3, err := dm.AllocatePage(types.PageTypeInteriorTable)
	require.NoError(t, err)
	require.Equal(t, types.PageID(3), id3)

	stat, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, int64(page.PreambleSize+3*page.PageSize), stat.Size())
}

func TestReclaimAndReuse(t *testing.T) {
	dm, err := Open(tempDB(t))
	require.NoError(t, err)
	defer dm.Close()

	id2, err := dm.AllocatePage(types.PageTypeLeafTable)
	require.NoError(t, err)
	id3, err := dm.AllocatePage(types.PageTypeLeafTable)
	require.NoError(t, err)

	require.NoError(t, dm.Reclaim(id2))
	h := dm.Header()
	require.Equal(t, uint32(id2), h.FreelistHeadPage)
	require.Equal(t, uint32(1), h.FreelistPageCount)

	// Reuse pops the free list instead of growing the file.
	got, err := dm.AllocatePage(types.PageTypeInteriorTable)
	require.NoError(t, err)
	require.Equal(t, id2, got)
	require.Equal(t, uint64(3), dm.PageCount())
	require.Zero(t, dm.Header().FreelistPageCount)

	// The reused page comes back zeroed with the requested type.
	buf, err := dm.ReadPage(got)
	require.NoError(t, err)
	pg, err := page.Decode(buf)
	require.NoError(t, err)
	require.Equal(t, types.PageTypeInteriorTable, pg.Type)
	require.Zero(t, pg.SlotCount())

	_ = id3
}

func TestReclaimChain(t *testing.T) {
	dm, err := Open(tempDB(t))
	require.NoError(t, err)
	defer dm.Close()

	var ids []types.PageID
	for i := 0; i < 3; i++ {
		id, err := dm.AllocatePage(types.PageTypeLeafTable)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	for _, id := range ids {
		require.NoError(t, dm.Reclaim(id))
	}
	require.Equal(t, uint32(3), dm.Header().FreelistPageCount)

	// LIFO: the last reclaimed page is the next allocated.
	got, err := dm.AllocatePage(types.PageTypeLeafTable)
	require.NoError(t, err)
	require.Equal(t, ids[2], got)
	got, err = dm.AllocatePage(types.PageTypeLeafTable)
	require.NoError(t, err)
	require.Equal(t, ids[1], got)
}

func TestReclaimSchemaPageRefused(t *testing.T) {
	dm, err := Open(tempDB(t))
	require.NoError(t, err)
	defer dm.Close()
	require.ErrorIs(t, dm.Reclaim(1), types.ErrCorruptedDatabase)
}

func TestOpenRejectsBadMagic(t *testing.T) {
	path := tempDB(t)
	dm, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, dm.Close())

	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte{'X'}, 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Open(path)
	require.ErrorIs(t, err, types.ErrCorruptedDatabase)
}

func TestOpenRejectsNewerFormat(t *testing.T) {
	path := tempDB(t)
	dm, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, dm.Close())

	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte{MaxSupportedFormat + 1}, 18)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Open(path)
	require.ErrorIs(t, err, types.ErrUnsupportedFormat)
}

func TestOpenRejectsSizeMismatch(t *testing.T) {
	path := tempDB(t)
	dm, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, dm.Close())

	// Ragged tail: size no longer preamble + N pages.
	f, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = f.Write(make([]byte, 10))
	require.NoError(t, err)
	require.NoError(t, f.Close())
	_, err = Open(path)
	require.ErrorIs(t, err, types.ErrCorruptedDatabase)
}

func TestOpenRejectsPageCountMismatch(t *testing.T) {
	path := tempDB(t)
	dm, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, dm.Close())

	// A whole orphan page the header does not account for.
	f, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = f.Write(make([]byte, page.PageSize))
	require.NoError(t, err)
	require.NoError(t, f.Close())
	_, err = Open(path)
	require.ErrorIs(t, err, types.ErrCorruptedDatabase)
}

func TestHeaderRoundTrip(t *testing.T) {
	h := NewFileHeader()
	h.FileChangeCounter = 7
	h.DatabaseSizePages = 12
	h.FreelistHeadPage = 5
	h.FreelistPageCount = 2
	h.LargestRootBTreePage = 4

	decoded, err := DecodeFileHeader(h.Encode())
	require.NoError(t, err)
	require.Equal(t, h, decoded)
}

func TestSchemaRootPersists(t *testing.T) {
	path := tempDB(t)
	dm, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, dm.SetSchemaRoot(9))
	require.NoError(t, dm.Close())

	dm, err = Open(path)
	require.NoError(t, err)
	defer dm.Close()
	require.Equal(t, types.PageID(9), dm.SchemaRoot())
}
