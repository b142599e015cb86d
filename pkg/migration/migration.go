// Package migration runs versioned schema changes and records them in the
// schema_migrations table, one batch per Run.
//
//	func init() {
//	    migration.Register("20260301000000_create_orders_table", &CreateOrdersTable{})
//	}
//
// Run from the CLI with `bytek migrate` and undo the latest batch with
// `bytek migrate:rollback`.
package migration

import (
	"fmt"
	"io"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/bytekstore/bytek/pkg/logger"
)

// Migration is one reversible schema step.
type Migration interface {
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

type record struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (record) TableName() string { return "schema_migrations" }

type entry struct {
	name string
	m    Migration
}

var registry []entry

// Register adds m under a timestamp-prefixed name. Names sort chronologically.
func Register(name string, m Migration) {
	registry = append(registry, entry{name: name, m: m})
}

// Registered lists registered names in run order.
func Registered() []string {
	out := make([]string, 0, len(registry))
	for _, e := range sorted(registry) {
		out = append(out, e.name)
	}
	return out
}

func sorted(in []entry) []entry {
	out := append([]entry(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Status is one row of `migrate:status`.
type Status struct {
	Name  string
	Ran   bool
	Batch int
}

// Runner executes migrations against db and reports progress to out.
type Runner struct {
	db      *gorm.DB
	out     io.Writer
	entries []entry
}

// New returns a Runner over the global registry.
func New(db *gorm.DB, out io.Writer) *Runner {
	if out == nil {
		out = io.Discard
	}
	return &Runner{db: db, out: out, entries: registry}
}

// With adds m to this runner only.
func (r *Runner) With(name string, m Migration) *Runner {
	r.entries = append(r.entries, entry{name: name, m: m})
	return r
}

// Only drops the registry so With can build one from scratch.
func (r *Runner) Only() *Runner {
	r.entries = nil
	return r
}

func (r *Runner) ensure() error {
	if err := r.db.AutoMigrate(&record{}); err != nil {
		return fmt.Errorf("migration: ensure table: %w", err)
	}
	return nil
}

func (r *Runner) ran() (map[string]record, error) {
	var rows []record
	if err := r.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	m := make(map[string]record, len(rows))
	for _, row := range rows {
		m[row.Name] = row
	}
	return m, nil
}

func (r *Runner) lastBatch() (int, error) {
	var out struct{ Max int }
	err := r.db.Model(&record{}).Select("COALESCE(MAX(batch), 0) AS max").Scan(&out).Error
	return out.Max, err
}

// Run applies every pending migration as a single batch and returns how
// many ran.
func (r *Runner) Run() (int, error) {
	if err := r.ensure(); err != nil {
		return 0, err
	}
	done, err := r.ran()
	if err != nil {
		return 0, fmt.Errorf("migration: read ran: %w", err)
	}

	var pending []entry
	for _, e := range sorted(r.entries) {
		if _, ok := done[e.name]; !ok {
			pending = append(pending, e)
		}
	}
	if len(pending) == 0 {
		fmt.Fprintln(r.out, "Nothing to migrate.")
		return 0, nil
	}

	last, err := r.lastBatch()
	if err != nil {
		return 0, err
	}
	batch := last + 1

	for _, e := range pending {
		fmt.Fprintf(r.out, "  migrating  %s\n", e.name)
		if err := e.m.Up(r.db); err != nil {
			return 0, fmt.Errorf("migration: %s up: %w", e.name, err)
		}
		if err := r.db.Create(&record{Name: e.name, Batch: batch}).Error; err != nil {
			return 0, fmt.Errorf("migration: record %s: %w", e.name, err)
		}
	}
	logger.Info("migrations applied", "count", len(pending), "batch", batch)
	return len(pending), nil
}

// Rollback reverses the most recent batch, newest first.
func (r *Runner) Rollback() (int, error) {
	if err := r.ensure(); err != nil {
		return 0, err
	}
	batch, err := r.lastBatch()
	if err != nil {
		return 0, err
	}
	if batch == 0 {
		fmt.Fprintln(r.out, "Nothing to roll back.")
		return 0, nil
	}

	var rows []record
	if err := r.db.Where("batch = ?", batch).Order("id desc").Find(&rows).Error; err != nil {
		return 0, err
	}

	byName := make(map[string]Migration, len(r.entries))
	for _, e := range r.entries {
		byName[e.name] = e.m
	}

	for _, row := range rows {
		m, ok := byName[row.Name]
		if !ok {
			return 0, fmt.Errorf("migration: %s is not registered", row.Name)
		}
		fmt.Fprintf(r.out, "  rolling back  %s\n", row.Name)
		if err := m.Down(r.db); err != nil {
			return 0, fmt.Errorf("migration: %s down: %w", row.Name, err)
		}
		if err := r.db.Delete(&row).Error; err != nil {
			return 0, err
		}
	}
	logger.Info("migrations rolled back", "count", len(rows), "batch", batch)
	return len(rows), nil
}

// Status reports every registered migration and whether it has run.
func (r *Runner) Status() ([]Status, error) {
	if err := r.ensure(); err != nil {
		return nil, err
	}
	done, err := r.ran()
	if err != nil {
		return nil, err
	}
	var out []Status
	for _, e := range sorted(r.entries) {
		row, ok := done[e.name]
		out = append(out, Status{Name: e.name, Ran: ok, Batch: row.Batch})
	}
	return out, nil
}
