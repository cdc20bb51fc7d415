package scan

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"GroveDB/logger"
	"GroveDB/storage_engine/bufferpool"
	"GroveDB/types"
)

/*
Parallel leaf scan. A single producer walks the leaf chain with
metadata-only fetches — following next-leaf links costs the page header plus
slot directory, never a 4KB body — and streams one work unit per leaf into a
bounded channel as it goes. A fixed pool of workers consumes units, fetches
each leaf in full, decodes its rows and applies the predicate. There is no
collect-then-distribute phase: workers start on the first leaf while the
producer is still discovering the rest of the chain.

Matching rows arrive in no particular order; a parallel scan trades the
chain's key order for throughput. Cancelling the context stops the producer
and the workers at the next unit boundary.
*/

// Predicate filters scanned rows. It runs concurrently on worker goroutines
// and must not mutate shared state without its own synchronization.
type Predicate func(*types.Row) bool

type workUnit struct {
	leafID types.PageID
	slots  int
}

// Coordinator runs parallel scans over one buffer pool.
type Coordinator struct {
	pool    *bufferpool.BufferPool
	workers int
}

// NewCoordinator sizes the worker pool; workers < 1 means one per CPU.
func NewCoordinator(pool *bufferpool.BufferPool, workers int) *Coordinator {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &Coordinator{pool: pool, workers: workers}
}

// Workers returns the configured worker count.
func (c *Coordinator) Workers() int { return c.workers }

// Run scans the leaf chain starting at head and returns every row the
// predicate accepts. A nil predicate accepts everything.
func (c *Coordinator) Run(ctx context.Context, head types.PageID, pred Predicate) ([]*types.Row, error) {
	outer := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	units := make(chan workUnit, 2*c.workers)
	results := make(chan *types.Row, 2*c.workers)
	errs := make(chan error, c.workers+1)

	go c.produce(ctx, head, units, errs, cancel)

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.work(ctx, units, results, errs, pred, cancel)
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var rows []*types.Row
	for row := range results {
		rows = append(rows, row)
	}

	select {
	case err := <-errs:
		return nil, err
	default:
	}
	if err := outer.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// produce walks the chain metadata-only and feeds leaf ids to the workers.
func (c *Coordinator) produce(ctx context.Context, head types.PageID, units chan<- workUnit, errs chan<- error, cancel context.CancelFunc) {
	defer close(units)
	id := head
	for id != types.NonePageID {
		pg, err := c.pool.Fetch(id, bufferpool.FetchMetadata)
		if err != nil {
			errs <- fmt.Errorf("scan producer at leaf %d: %w", id, err)
			cancel()
			return
		}
		pg.RLock()
		next := pg.NextLeafPageID
		unit := workUnit{leafID: id, slots: pg.SlotCount()}
		pg.RUnlock()
		c.pool.Unpin(id, false)

		select {
		case units <- unit:
		case <-ctx.Done():
			return
		}
		id = next
	}
}

func (c *Coordinator) work(ctx context.Context, units <-chan workUnit, results chan<- *types.Row, errs chan<- error, pred Predicate, cancel context.CancelFunc) {
	for unit := range units {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err := c.scanLeaf(unit, results, pred); err != nil {
			errs <- err
			cancel()
			return
		}
	}
}

func (c *Coordinator) scanLeaf(unit workUnit, results chan<- *types.Row, pred Predicate) error {
	pg, err := c.pool.Fetch(unit.leafID, bufferpool.FetchFull)
	if err != nil {
		return fmt.Errorf("scan worker at leaf %d: %w", unit.leafID, err)
	}
	defer c.pool.Unpin(unit.leafID, false)

	pg.RLock()
	defer pg.RUnlock()
	matched := 0
	for i := 0; i < pg.SlotCount(); i++ {
		cell, ok := pg.GetCell(i)
		if !ok {
			continue
		}
		row, err := types.RowFromBytes(cell)
		if err != nil {
			return fmt.Errorf("leaf %d slot %d: %w", unit.leafID, i, err)
		}
		if pred == nil || pred(row) {
			results <- row
			matched++
		}
	}
	logger.Log.Debugf("scanned leaf %d: %d slots, %d matched", unit.leafID, unit.slots, matched)
	return nil
}
