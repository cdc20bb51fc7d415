// Seed program: creates a sample database with a few tables and enough rows
// to split leaves, then reads them back every way the engine offers.
// Run: go run ./cmd/seed [path]
// Then inspect: go run ./cmd/inspect grove.db
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	storage "GroveDB/storage_engine"
	"GroveDB/types"
)

func main() {
	path := "grove.db"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	sm, err := storage.Open(path, storage.Options{})
	if err != nil {
		log.Fatalf("open %s: %v", path, err)
	}
	defer sm.Close()

	mustCreate := func(name string) {
		if _, err := sm.CreateTable(name); err != nil {
			log.Fatalf("create table %s: %v", name, err)
		}
	}
	mustInsert := func(table string, values ...types.Value) {
		if err := sm.Insert(table, types.NewRow(values...)); err != nil {
			log.Fatalf("insert into %s: %v", table, err)
		}
	}

	fmt.Println("Creating tables...")
	mustCreate("students")
	mustCreate("courses")
	mustCreate("grades")

	mustInsert("students", types.Text("S001"), types.Text("Alice"), types.Integer(20))
	mustInsert("students", types.Text("S002"), types.Text("Bob"), types.Integer(21))
	mustInsert("students", types.Text("S003"), types.Text("Carol"), types.Integer(19))

	mustInsert("courses", types.Text("CS101"), types.Text("Intro to CS"), types.Boolean(true))
	mustInsert("courses", types.Text("CS102"), types.Text("Data Structures"), types.Boolean(false))

	// Enough rows to push the grades tree past one leaf.
	for i := 1; i <= 500; i++ {
		mustInsert("grades",
			types.Integer(int64(i)),
			types.Text(fmt.Sprintf("CS%03d", 100+i%5)),
			types.Real(float64(i%100)/10),
			types.Now(),
		)
	}

	fmt.Println("\n--- students, in key order ---")
	it, err := sm.RangeScan("students", types.Null(), types.Null())
	if err != nil {
		log.Fatalf("scan students: %v", err)
	}
	for it.Next() {
		row := it.Row()
		fmt.Printf("  %s  %s  %s\n", row.Value(0), row.Value(1), row.Value(2))
	}
	if err := it.Err(); err != nil {
		log.Fatalf("scan students: %v", err)
	}

	fmt.Println("\n--- grades 100..110 ---")
	it, err = sm.RangeScan("grades", types.Integer(100), types.Integer(110))
	if err != nil {
		log.Fatalf("scan grades: %v", err)
	}
	for it.Next() {
		row := it.Row()
		fmt.Printf("  #%d  %s  %s  %s\n", row.RowID, row.Value(0), row.Value(1), row.Value(2))
	}
	if err := it.Err(); err != nil {
		log.Fatalf("scan grades: %v", err)
	}

	passing, err := sm.ParallelScan(context.Background(), "grades", func(row *types.Row) bool {
		return row.Value(2).Float() >= 5.0
	})
	if err != nil {
		log.Fatalf("parallel scan grades: %v", err)
	}
	fmt.Printf("\nParallel scan: %d of 500 grades at or above 5.0\n", len(passing))

	if err := sm.FlushAll(); err != nil {
		log.Fatalf("flush: %v", err)
	}
	fmt.Printf("\nDone. %d pages in %s — inspect with: go run ./cmd/inspect %s\n",
		sm.PageCount(), path, path)
}
