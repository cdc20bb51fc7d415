package scan

import (
	"context"
	"math/rand"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"GroveDB/storage_engine/access/bplustree"
	"GroveDB/storage_engine/bufferpool"
	diskmanager "GroveDB/storage_engine/disk_manager"
	"GroveDB/types"
)

func seededTree(t *testing.T, n int) (*bplustree.BPlusTree, *bufferpool.BufferPool) {
	t.Helper()
	dm, err := diskmanager.Open(filepath.Join(t.TempDir(), "scan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dm.Close() })

	pool := bufferpool.NewBufferPool(128, dm)
	rootID, err := dm.AllocatePage(types.PageTypeLeafTable)
	require.NoError(t, err)
	tree := bplustree.New(pool, rootID)

	keys := rand.New(rand.NewSource(11)).Perm(n)
	for _, k := range keys {
		row := types.NewRowWithID(types.RowID(k+1),
			types.Integer(int64(k+1)),
			types.Boolean((k+1)%2 == 0),
		)
		_, err := tree.Insert(row)
		require.NoError(t, err)
	}
	return tree, pool
}

func sortedKeys(rows []*types.Row) []int64 {
	keys := make([]int64, len(rows))
	for i, r := range rows {
		keys[i] = r.Key().Int()
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func TestParallelScanMatchesSequential(t *testing.T) {
	const n = 700
	tree, pool := seededTree(t, n)

	head, err := tree.LeftmostLeafID()
	require.NoError(t, err)

	c := NewCoordinator(pool, 4)
	rows, err := c.Run(context.Background(), head, nil)
	require.NoError(t, err)
	require.Len(t, rows, n)

	// Same multiset of keys as the in-order iterator, order aside.
	it, err := tree.RangeScan(types.Null(), types.Null())
	require.NoError(t, err)
	var sequential []int64
	for it.Next() {
		sequential = append(sequential, it.Row().Key().Int())
	}
	require.NoError(t, it.Err())
	require.Equal(t, sequential, sortedKeys(rows))
}

func TestParallelScanPredicate(t *testing.T) {
	const n = 500
	tree, pool := seededTree(t, n)
	head, err := tree.LeftmostLeafID()
	require.NoError(t, err)

	c := NewCoordinator(pool, 3)
	rows, err := c.Run(context.Background(), head, func(row *types.Row) bool {
		return row.Value(1).Bool()
	})
	require.NoError(t, err)
	require.Len(t, rows, n/2)
	for _, row := range rows {
		require.Zero(t, row.Key().Int()%2)
	}
}

func TestParallelScanEmptyTree(t *testing.T) {
	tree, pool := seededTree(t, 0)
	head, err := tree.LeftmostLeafID()
	require.NoError(t, err)

	c := NewCoordinator(pool, 2)
	rows, err := c.Run(context.Background(), head, nil)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestParallelScanCancellation(t *testing.T) {
	tree, pool := seededTree(t, 300)
	head, err := tree.LeftmostLeafID()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCoordinator(pool, 2)
	_, err = c.Run(ctx, head, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCoordinatorDefaultWorkers(t *testing.T) {
	_, pool := seededTree(t, 0)
	c := NewCoordinator(pool, 0)
	require.GreaterOrEqual(t, c.Workers(), 1)
}
