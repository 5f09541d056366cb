// Package database implements the database model of the kernel: a named
// table collection, the lifecycle state machine, renaming, and snapshot
// save/restore. Grounded on the teacher framework's schema builder
// (internal/database/migrations/schema_builder.go), which applies
// Create/Alter/Drop against a live connection the same way this package
// applies them against an in-memory table collection.
package database

import (
	"sort"

	"github.com/onyxdb/engine/internal/kernel/condition"
	"github.com/onyxdb/engine/internal/kernel/constraint"
	"github.com/onyxdb/engine/internal/kernel/errs"
	"github.com/onyxdb/engine/internal/kernel/table"
	"github.com/onyxdb/engine/internal/kernel/types"
)

// State is the database lifecycle state machine.
type State int

const (
	Idle State = iota
	Reset
	Created
	InWork
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Reset:
		return "RESET"
	case Created:
		return "CREATED"
	case InWork:
		return "IN_WORK"
	case Closed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// ColumnDef is a parsed column-definition as produced by the DDL grammar
// in SPEC_FULL.md §4.4 (parsed by the ddl sub-package) and consumed by
// CreateTable/AlterTable.
type ColumnDef struct {
	Name        string
	Type        types.DataType
	Constraints []*constraint.Constraint
	Default     *types.Value
}

// Database is a named, ordered collection of tables plus a lifecycle
// state and an on-disk path.
type Database struct {
	Name     string
	FilePath string
	state    State

	tableOrder []string
	tables     map[string]*table.Table
}

// New constructs a Database in the CREATED state.
func New(name, filePath string) *Database {
	return &Database{
		Name:     name,
		FilePath: filePath,
		state:    Created,
		tables:   make(map[string]*table.Table),
	}
}

// State reports the current lifecycle state.
func (d *Database) State() State { return d.state }

// Reset transitions the database to CLOSED.
func (d *Database) Reset() { d.state = Closed }

// SetState forces the lifecycle state directly. It exists for the
// snapshot decoder, which must reconstruct a database in exactly the
// state it was saved in rather than re-deriving it through the normal
// CREATED->IN_WORK transition.
func (d *Database) SetState(s State) { d.state = s }

// requireMutable is the state gate every mutating operation runs
// through: valid only in CREATED or IN_WORK, transitioning CREATED ->
// IN_WORK on the first successful mutation.
func (d *Database) requireMutable() error {
	if d.state != Created && d.state != InWork {
		return errs.New(errs.InvalidState, "database %q is %s, not CREATED or IN_WORK", d.Name, d.state)
	}
	return nil
}

func (d *Database) markMutated() {
	if d.state == Created {
		d.state = InWork
	}
}

// TableNames returns table names sorted for deterministic enumeration.
func (d *Database) TableNames() []string {
	names := make([]string, len(d.tableOrder))
	copy(names, d.tableOrder)
	sort.Strings(names)
	return names
}

// Table looks up a table by name.
func (d *Database) Table(name string) (*table.Table, error) {
	t, ok := d.tables[name]
	if !ok {
		return nil, errs.New(errs.NotFound, "table %q not found", name)
	}
	return t, nil
}

func (d *Database) insertTableOrder(name string) {
	d.tableOrder = append(d.tableOrder, name)
}

func (d *Database) removeTableOrder(name string) {
	for i, n := range d.tableOrder {
		if n == name {
			d.tableOrder = append(d.tableOrder[:i], d.tableOrder[i+1:]...)
			return
		}
	}
}

// CreateTable creates a table with the given column definitions.
func (d *Database) CreateTable(name string, cols []ColumnDef) error {
	if err := d.requireMutable(); err != nil {
		return err
	}
	if name == "" {
		return errs.New(errs.InvalidName, "table name must not be empty")
	}
	if _, exists := d.tables[name]; exists {
		return errs.New(errs.AlreadyExists, "table %q already exists", name)
	}
	t := table.New(name)
	for _, c := range cols {
		cs := constraint.NewSet()
		for _, con := range c.Constraints {
			if err := cs.Add(con); err != nil {
				return err
			}
		}
		if err := t.CreateColumn(c.Name, c.Type, cs); err != nil {
			return err
		}
	}
	d.tables[name] = t
	d.insertTableOrder(name)
	d.markMutated()
	return nil
}

// DropTable removes a table.
func (d *Database) DropTable(name string) error {
	if err := d.requireMutable(); err != nil {
		return err
	}
	if _, exists := d.tables[name]; !exists {
		return errs.New(errs.NotFound, "table %q not found", name)
	}
	delete(d.tables, name)
	d.removeTableOrder(name)
	d.markMutated()
	return nil
}

// RenameTable renames a table.
func (d *Database) RenameTable(oldName, newName string) error {
	if err := d.requireMutable(); err != nil {
		return err
	}
	t, exists := d.tables[oldName]
	if !exists {
		return errs.New(errs.NotFound, "table %q not found", oldName)
	}
	if _, clash := d.tables[newName]; clash {
		return errs.New(errs.AlreadyExists, "table %q already exists", newName)
	}
	t.Name = newName
	delete(d.tables, oldName)
	d.tables[newName] = t
	for i, n := range d.tableOrder {
		if n == oldName {
			d.tableOrder[i] = newName
			break
		}
	}
	d.markMutated()
	return nil
}

// AlterSpec is the 1/2/3-arity alter contract: each phase applies only
// when its list is non-nil, in the fixed order add -> modify -> drop.
type ModifySpec struct {
	Column string
	Type   *types.DataType
	Add    *constraint.Constraint
}

type AlterSpec struct {
	NewColumns []ColumnDef
	Modified   []ModifySpec
	Dropped    []string
}

// AlterTable applies the requested phases against a table, in order.
// Within each phase, a failure aborts the entire alter — no partial
// schema change survives.
func (d *Database) AlterTable(tableName string, spec AlterSpec, lookup constraint.ColumnLookup) error {
	if err := d.requireMutable(); err != nil {
		return err
	}
	if _, exists := d.tables[tableName]; !exists {
		return errs.New(errs.NotFound, "table %q not found", tableName)
	}

	// Apply every phase against a scratch clone first so a failure
	// partway through the add/modify/drop sequence leaves the live
	// table byte-identical to its pre-alter state; only swap the clone
	// in once the whole alter has succeeded.
	trial := d.tables[tableName].Clone()
	if err := applyAlter(trial, spec, lookup); err != nil {
		return err
	}
	d.tables[tableName] = trial
	d.markMutated()
	return nil
}

func applyAlter(t *table.Table, spec AlterSpec, lookup constraint.ColumnLookup) error {
	for _, c := range spec.NewColumns {
		cs := constraint.NewSet()
		for _, con := range c.Constraints {
			if err := cs.Add(con); err != nil {
				return err
			}
		}
		if err := t.CreateColumn(c.Name, c.Type, cs); err != nil {
			return err
		}
	}
	for _, m := range spec.Modified {
		if m.Type != nil {
			if err := t.ModifyColumnType(m.Column, *m.Type); err != nil {
				return err
			}
		}
		if m.Add != nil {
			if err := t.AddConstraint(m.Column, m.Add, lookup); err != nil {
				return err
			}
		}
	}
	for _, name := range spec.Dropped {
		if err := t.DropColumn(name); err != nil {
			return err
		}
	}
	return nil
}

// Insert delegates to the named table after the state check.
func (d *Database) Insert(tableName string, columns []string, values []types.Value, lookup constraint.ColumnLookup) error {
	if err := d.requireMutable(); err != nil {
		return err
	}
	t, err := d.Table(tableName)
	if err != nil {
		return err
	}
	if err := t.Insert(columns, values, lookup); err != nil {
		return err
	}
	d.markMutated()
	return nil
}

// Update delegates to the named table after the state check.
func (d *Database) Update(tableName string, assignments map[string]types.Value, cond *condition.Condition, lookup constraint.ColumnLookup) (int, error) {
	if err := d.requireMutable(); err != nil {
		return 0, err
	}
	t, err := d.Table(tableName)
	if err != nil {
		return 0, err
	}
	n, err := t.Update(assignments, cond, lookup)
	if err != nil {
		return 0, err
	}
	d.markMutated()
	return n, nil
}

// Delete delegates to the named table after the state check.
func (d *Database) Delete(tableName string, cond *condition.Condition) (int, error) {
	if err := d.requireMutable(); err != nil {
		return 0, err
	}
	t, err := d.Table(tableName)
	if err != nil {
		return 0, err
	}
	n, err := t.Delete(cond)
	if err != nil {
		return 0, err
	}
	d.markMutated()
	return n, nil
}

// Select delegates to the named table. Select is non-mutating and does
// not require the IN_WORK transition, but still requires CREATED/IN_WORK.
func (d *Database) Select(tableName string, columns []string, cond *condition.Condition) (*table.Response, error) {
	if err := d.requireMutable(); err != nil {
		return nil, err
	}
	t, err := d.Table(tableName)
	if err != nil {
		return nil, err
	}
	return t.Select(columns, cond)
}

// Restore replaces all tables with those of other, by value.
func (d *Database) Restore(other *Database) {
	d.tables = make(map[string]*table.Table, len(other.tables))
	for name, t := range other.tables {
		d.tables[name] = t.Clone()
	}
	d.tableOrder = append([]string{}, other.tableOrder...)
	d.state = other.state
}

// Clone deep-copies the whole database, used for transaction snapshots
// and command pre-images.
func (d *Database) Clone() *Database {
	clone := &Database{
		Name:     d.Name,
		FilePath: d.FilePath,
		state:    d.state,
		tables:   make(map[string]*table.Table, len(d.tables)),
	}
	clone.tableOrder = append([]string{}, d.tableOrder...)
	for name, t := range d.tables {
		clone.tables[name] = t.Clone()
	}
	return clone
}

// LookupColumn builds a constraint.ColumnLookup bound to this database,
// used by FOREIGN_KEY evaluation to resolve a parent table's primary
// key column body.
func (d *Database) LookupColumn(parentTable, _ string) ([]types.Value, error) {
	t, err := d.Table(parentTable)
	if err != nil {
		return nil, err
	}
	for _, name := range t.ColumnNames() {
		col, _ := t.Column(name)
		if col.Constraints.Has(constraint.PrimaryKey) {
			return col.Body, nil
		}
	}
	return nil, errs.New(errs.NotFound, "table %q has no primary key column", parentTable)
}
