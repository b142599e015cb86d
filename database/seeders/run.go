// Package seeders fills a fresh database with an admin account and a demo
// catalog. Seeders register from init() and run in registration order:
//
//	func init() {
//	    Register("catalog", SeedCatalog)
//	}
//
// Run with `bytek seed`. Every seeder skips work that is already done, so
// seeding twice is safe.
package seeders

import (
	"fmt"
	"io"
	"sync"

	"gorm.io/gorm"
)

type SeederFunc func(db *gorm.DB) error

type seederEntry struct {
	name string
	fn   SeederFunc
}

var (
	mu      sync.Mutex
	entries []seederEntry
)

// Register adds a seeder. Call it from init().
func Register(name string, fn SeederFunc) {
	mu.Lock()
	defer mu.Unlock()
	entries = append(entries, seederEntry{name: name, fn: fn})
}

// RunAll executes every registered seeder, stopping on the first error.
// Progress goes to out.
func RunAll(db *gorm.DB, out io.Writer) error {
	mu.Lock()
	current := make([]seederEntry, len(entries))
	copy(current, entries)
	mu.Unlock()

	if len(current) == 0 {
		fmt.Fprintln(out, "  (no seeders registered)")
		return nil
	}

	for _, e := range current {
		fmt.Fprintf(out, "  seeding %s ... ", e.name)
		if err := e.fn(db); err != nil {
			fmt.Fprintln(out, "FAILED")
			return fmt.Errorf("seeder %q: %w", e.name, err)
		}
		fmt.Fprintln(out, "done")
	}
	return nil
}
