package storage_engine

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"GroveDB/types"
)

func openTest(t *testing.T, path string) *StorageManager {
	t.Helper()
	sm, err := Open(path, Options{BufferPoolCapacity: 64, ScanWorkers: 2})
	require.NoError(t, err)
	return sm
}

func TestCreateInsertLookup(t *testing.T) {
	sm := openTest(t, filepath.Join(t.TempDir(), "m.db"))
	defer sm.Close()

	root, err := sm.CreateTable("users")
	require.NoError(t, err)
	require.Greater(t, root, types.PageID(1))

	row := types.NewRow(types.Text("alice"), types.Integer(30))
	require.NoError(t, sm.Insert("users", row))
	require.True(t, row.HasRowID)
	require.Equal(t, types.RowID(1), row.RowID)

	got, err := sm.PointLookup("users", types.Text("alice"))
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, int64(30), got.Value(1).Int())

	missing, err := sm.PointLookup("users", types.Text("bob"))
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestUnknownTable(t *testing.T) {
	sm := openTest(t, filepath.Join(t.TempDir(), "m.db"))
	defer sm.Close()

	_, err := sm.PointLookup("ghost", types.Integer(1))
	require.ErrorIs(t, err, types.ErrTableNotFound)
	err = sm.Insert("ghost", types.NewRow(types.Integer(1)))
	require.ErrorIs(t, err, types.ErrTableNotFound)
	_, err = sm.RangeScan("ghost", types.Null(), types.Null())
	require.ErrorIs(t, err, types.ErrTableNotFound)
	_, err = sm.Delete("ghost", types.Integer(1))
	require.ErrorIs(t, err, types.ErrTableNotFound)
}

func TestDuplicateTableRejected(t *testing.T) {
	sm := openTest(t, filepath.Join(t.TempDir(), "m.db"))
	defer sm.Close()

	_, err := sm.CreateTable("users")
	require.NoError(t, err)
	_, err = sm.CreateTable("users")
	require.Error(t, err)
}

func TestDeleteRow(t *testing.T) {
	sm := openTest(t, filepath.Join(t.TempDir(), "m.db"))
	defer sm.Close()

	_, err := sm.CreateTable("users")
	require.NoError(t, err)
	require.NoError(t, sm.Insert("users", types.NewRow(types.Text("alice"))))
	require.NoError(t, sm.Insert("users", types.NewRow(types.Text("bob"))))

	found, err := sm.Delete("users", types.Text("alice"))
	require.NoError(t, err)
	require.True(t, found)

	// The cache must not resurrect the deleted row.
	got, err := sm.PointLookup("users", types.Text("alice"))
	require.NoError(t, err)
	require.Nil(t, got)

	found, err = sm.Delete("users", types.Text("alice"))
	require.NoError(t, err)
	require.False(t, found)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	sm := openTest(t, path)

	_, err := sm.CreateTable("grades")
	require.NoError(t, err)
	keys := rand.New(rand.NewSource(21)).Perm(400)
	for _, k := range keys {
		err := sm.Insert("grades", types.NewRow(
			types.Integer(int64(k+1)),
			types.Text(fmt.Sprintf("student-%d", k+1)),
		))
		require.NoError(t, err)
	}
	require.NoError(t, sm.Close())

	sm = openTest(t, path)
	defer sm.Close()

	require.Equal(t, []string{"grades"}, sm.Tables())

	it, err := sm.RangeScan("grades", types.Null(), types.Null())
	require.NoError(t, err)
	count := 0
	prev := int64(0)
	for it.Next() {
		k := it.Row().Key().Int()
		require.Greater(t, k, prev)
		prev = k
		count++
	}
	require.NoError(t, it.Err())
	require.Equal(t, 400, count)

	row, err := sm.PointLookup("grades", types.Integer(123))
	require.NoError(t, err)
	require.NotNil(t, row)
	require.Equal(t, "student-123", row.Value(1).Str())
}

func TestRowIDsMonotonicAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.db")
	sm := openTest(t, path)
	_, err := sm.CreateTable("t")
	require.NoError(t, err)
	for i := 1; i <= 5; i++ {
		require.NoError(t, sm.Insert("t", types.NewRow(types.Integer(int64(i)))))
	}
	require.NoError(t, sm.Close())

	sm = openTest(t, path)
	defer sm.Close()
	row := types.NewRow(types.Integer(6))
	require.NoError(t, sm.Insert("t", row))
	require.Equal(t, types.RowID(6), row.RowID)
}

func TestRangeScanBoundsInclusive(t *testing.T) {
	sm := openTest(t, filepath.Join(t.TempDir(), "m.db"))
	defer sm.Close()

	_, err := sm.CreateTable("nums")
	require.NoError(t, err)
	for i := 1; i <= 50; i++ {
		require.NoError(t, sm.Insert("nums", types.NewRow(types.Integer(int64(i)))))
	}

	it, err := sm.RangeScan("nums", types.Integer(10), types.Integer(20))
	require.NoError(t, err)
	var got []int64
	for it.Next() {
		got = append(got, it.Row().Key().Int())
	}
	require.NoError(t, it.Err())
	require.Len(t, got, 11)
	require.Equal(t, int64(10), got[0])
	require.Equal(t, int64(20), got[10])
}

func TestParallelScanFacade(t *testing.T) {
	sm := openTest(t, filepath.Join(t.TempDir(), "m.db"))
	defer sm.Close()

	_, err := sm.CreateTable("nums")
	require.NoError(t, err)
	const n = 600
	for _, k := range rand.New(rand.NewSource(22)).Perm(n) {
		require.NoError(t, sm.Insert("nums", types.NewRow(types.Integer(int64(k+1)))))
	}

	rows, err := sm.ParallelScan(context.Background(), "nums", nil)
	require.NoError(t, err)
	require.Len(t, rows, n)

	rows, err = sm.ParallelScan(context.Background(), "nums", func(row *types.Row) bool {
		return row.Key().Int() <= 100
	})
	require.NoError(t, err)
	require.Len(t, rows, 100)
}

func TestMultipleTablesIndependent(t *testing.T) {
	sm := openTest(t, filepath.Join(t.TempDir(), "m.db"))
	defer sm.Close()

	for _, name := range []string{"a", "b"} {
		_, err := sm.CreateTable(name)
		require.NoError(t, err)
	}
	require.NoError(t, sm.Insert("a", types.NewRow(types.Integer(1), types.Text("in-a"))))
	require.NoError(t, sm.Insert("b", types.NewRow(types.Integer(1), types.Text("in-b"))))

	rowA, err := sm.PointLookup("a", types.Integer(1))
	require.NoError(t, err)
	require.Equal(t, "in-a", rowA.Value(1).Str())
	rowB, err := sm.PointLookup("b", types.Integer(1))
	require.NoError(t, err)
	require.Equal(t, "in-b", rowB.Value(1).Str())
}

func TestDropTable(t *testing.T) {
	sm := openTest(t, filepath.Join(t.TempDir(), "m.db"))
	defer sm.Close()

	_, err := sm.CreateTable("gone")
	require.NoError(t, err)
	for i := 1; i <= 300; i++ {
		require.NoError(t, sm.Insert("gone", types.NewRow(types.Integer(int64(i)))))
	}
	before := sm.PageCount()

	require.NoError(t, sm.DropTable("gone"))
	_, err = sm.RootOf("gone")
	require.ErrorIs(t, err, types.ErrTableNotFound)

	// The file keeps its size; the dropped tree's pages went to the free
	// list and satisfy the next table's growth.
	require.Equal(t, before, sm.PageCount())
	require.Greater(t, sm.Header().FreelistPageCount, uint32(0))

	_, err = sm.CreateTable("fresh")
	require.NoError(t, err)
	require.NoError(t, sm.Insert("fresh", types.NewRow(types.Integer(1))))
	require.Equal(t, before, sm.PageCount())
}

func TestConcurrentInsertersAndScanners(t *testing.T) {
	sm := openTest(t, filepath.Join(t.TempDir(), "conc.db"))
	defer sm.Close()

	_, err := sm.CreateTable("events")
	require.NoError(t, err)
	for i := 1; i <= 100; i++ {
		require.NoError(t, sm.Insert("events", types.NewRow(types.Integer(int64(i)))))
	}

	// Two writers and three readers share the table. Scans running while
	// rows land may see any prefix of the inserts, but every cell they
	// decode must be whole and every chain walk must terminate cleanly.
	const perWriter = 200
	errs := make(chan error, 8)
	done := make(chan struct{})

	var writers sync.WaitGroup
	for w := 0; w < 2; w++ {
		writers.Add(1)
		go func(base int64) {
			defer writers.Done()
			for i := int64(0); i < perWriter; i++ {
				if err := sm.Insert("events", types.NewRow(types.Integer(base+i))); err != nil {
					errs <- err
					return
				}
			}
		}(int64(1000 * (w + 1)))
	}
	go func() {
		writers.Wait()
		close(done)
	}()

	var readers sync.WaitGroup
	for r := 0; r < 2; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				it, err := sm.RangeScan("events", types.Null(), types.Null())
				if err != nil {
					errs <- err
					return
				}
				n := 0
				for it.Next() {
					n++
				}
				if err := it.Err(); err != nil {
					errs <- err
					return
				}
				if n < 100 {
					errs <- fmt.Errorf("scan lost rows: saw %d, seeded 100", n)
					return
				}
			}
		}()
	}
	readers.Add(1)
	go func() {
		defer readers.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			rows, err := sm.ParallelScan(context.Background(), "events", nil)
			if err != nil {
				errs <- err
				return
			}
			if len(rows) < 100 {
				errs <- fmt.Errorf("parallel scan lost rows: saw %d, seeded 100", len(rows))
				return
			}
		}
	}()

	<-done
	readers.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// Quiesced, the table holds exactly the seeded plus written rows, in
	// key order.
	it, err := sm.RangeScan("events", types.Null(), types.Null())
	require.NoError(t, err)
	count := 0
	prev := int64(0)
	for it.Next() {
		k := it.Row().Key().Int()
		require.Greater(t, k, prev)
		prev = k
		count++
	}
	require.NoError(t, it.Err())
	require.Equal(t, 100+2*perWriter, count)
}

func TestDuplicateKeyLookupStaysFirst(t *testing.T) {
	sm := openTest(t, filepath.Join(t.TempDir(), "m.db"))
	defer sm.Close()

	_, err := sm.CreateTable("dups")
	require.NoError(t, err)
	require.NoError(t, sm.Insert("dups", types.NewRow(types.Text("k"), types.Integer(1))))
	require.NoError(t, sm.Insert("dups", types.NewRow(types.Text("k"), types.Integer(2))))

	// Both the tree hit and the cached repeat return the first duplicate.
	for i := 0; i < 2; i++ {
		row, err := sm.PointLookup("dups", types.Text("k"))
		require.NoError(t, err)
		require.NotNil(t, row)
		require.Equal(t, int64(1), row.Value(1).Int())
	}
}

func TestFlushDurability(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flush.db")
	sm := openTest(t, path)
	_, err := sm.CreateTable("t")
	require.NoError(t, err)
	require.NoError(t, sm.Insert("t", types.NewRow(types.Integer(1))))
	require.NoError(t, sm.FlushAll())

	// A second handle opened after FlushAll sees the row without Close.
	other := openTest(t, path)
	row, err := other.PointLookup("t", types.Integer(1))
	require.NoError(t, err)
	require.NotNil(t, row)
	other.disk.Close()

	require.NoError(t, sm.Close())
}
