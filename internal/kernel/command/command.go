// Package command implements the invertible command pattern (C6): every
// DDL/DML/TCL operation is a Command carrying enough captured pre-state
// to reverse itself. Grounded on the teacher framework's migration
// Up/Down pair (migrations.go, internal/database/migrations/base_migration.go),
// generalized from "migration file with two hand-written methods" to
// "command object that captures its own pre-image automatically".
package command

import (
	"github.com/onyxdb/engine/internal/kernel/condition"
	"github.com/onyxdb/engine/internal/kernel/constraint"
	"github.com/onyxdb/engine/internal/kernel/database"
	"github.com/onyxdb/engine/internal/kernel/table"
	"github.com/onyxdb/engine/internal/kernel/types"
)

// Handle is the mutable cell holding the process's single active
// database. Open reassigns it; every other command reads/mutates
// through it. This is the explicit engine handle called for by
// SPEC_FULL.md's design notes, replacing the teacher's implicit
// language-level singleton.
type Handle struct {
	DB *database.Database
}

// Command is the uniform command-pattern contract: Execute performs the
// action (returning whether it is historical, i.e. should be pushed
// onto the undo stack), Undo reverses it.
type Command interface {
	Execute() (historical bool, err error)
	Undo() error
}

// lookupFor builds a constraint.ColumnLookup bound to the handle's
// current database, resolved lazily so it always reflects the database
// in effect at call time.
func lookupFor(h *Handle) constraint.ColumnLookup {
	return func(parentTable, col string) ([]types.Value, error) {
		return h.DB.LookupColumn(parentTable, col)
	}
}

// --- DDL ---

// CreateTable creates a table; undo drops it (it did not exist before).
type CreateTable struct {
	Handle  *Handle
	Name    string
	Columns []database.ColumnDef
}

func (c *CreateTable) Execute() (bool, error) {
	if err := c.Handle.DB.CreateTable(c.Name, c.Columns); err != nil {
		return false, err
	}
	return true, nil
}

func (c *CreateTable) Undo() error {
	return c.Handle.DB.DropTable(c.Name)
}

// DropTable drops a table; undo recreates it from the captured
// pre-image (schema + data), by value.
type DropTable struct {
	Handle   *Handle
	Name     string
	preImage *table.Table
}

func (c *DropTable) Execute() (bool, error) {
	t, err := c.Handle.DB.Table(c.Name)
	if err != nil {
		return false, err
	}
	c.preImage = t.Clone()
	if err := c.Handle.DB.DropTable(c.Name); err != nil {
		return false, err
	}
	return true, nil
}

func (c *DropTable) Undo() error {
	if c.preImage == nil {
		return nil
	}
	cols := make([]database.ColumnDef, 0, len(c.preImage.ColumnNames()))
	for _, name := range c.preImage.ColumnNames() {
		col, _ := c.preImage.Column(name)
		cols = append(cols, database.ColumnDef{Name: name, Type: col.DataType, Constraints: col.Constraints.All()})
	}
	if err := c.Handle.DB.CreateTable(c.Name, cols); err != nil {
		return err
	}
	restored, err := c.Handle.DB.Table(c.Name)
	if err != nil {
		return err
	}
	for i := 0; i < c.preImage.RowCount(); i++ {
		values := make([]types.Value, len(cols))
		names := make([]string, len(cols))
		for j, cd := range cols {
			col, _ := c.preImage.Column(cd.Name)
			values[j] = col.Body[i]
			names[j] = cd.Name
		}
		if err := restored.Insert(names, values, lookupFor(c.Handle)); err != nil {
			return err
		}
	}
	return nil
}

// AlterTable applies the add/modify/drop phases; undo restores the
// captured pre-alter clone of the table.
type AlterTable struct {
	Handle   *Handle
	Name     string
	Spec     database.AlterSpec
	preImage *table.Table
}

func (c *AlterTable) Execute() (bool, error) {
	t, err := c.Handle.DB.Table(c.Name)
	if err != nil {
		return false, err
	}
	c.preImage = t.Clone()
	if err := c.Handle.DB.AlterTable(c.Name, c.Spec, lookupFor(c.Handle)); err != nil {
		return false, err
	}
	return true, nil
}

func (c *AlterTable) Undo() error {
	restored, err := c.Handle.DB.Table(c.Name)
	if err != nil {
		return err
	}
	*restored = *c.preImage
	return nil
}

// RenameTable renames a table; undo renames it back.
type RenameTable struct {
	Handle          *Handle
	OldName, NewName string
}

func (c *RenameTable) Execute() (bool, error) {
	if err := c.Handle.DB.RenameTable(c.OldName, c.NewName); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RenameTable) Undo() error {
	return c.Handle.DB.RenameTable(c.NewName, c.OldName)
}

// --- DML ---

// Insert appends a row; undo removes the last row of the table (the one
// this command appended), which is correct because commands execute and
// undo in strict LIFO order against a single-writer engine.
type Insert struct {
	Handle  *Handle
	Table   string
	Columns []string
	Values  []types.Value
}

func (c *Insert) Execute() (bool, error) {
	if err := c.Handle.DB.Insert(c.Table, c.Columns, c.Values, lookupFor(c.Handle)); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Insert) Undo() error {
	t, err := c.Handle.DB.Table(c.Table)
	if err != nil {
		return err
	}
	last := t.RowCount() - 1
	if last < 0 {
		return nil
	}
	return table.DeleteRowAt(t, last)
}

// Update rewrites matching rows; undo restores the pre-image of every
// column it touched.
type Update struct {
	Handle      *Handle
	Table       string
	Assignments map[string]types.Value
	Cond        *condition.Condition
	preImage    map[string][]types.Value
}

func (c *Update) Execute() (bool, error) {
	t, err := c.Handle.DB.Table(c.Table)
	if err != nil {
		return false, err
	}
	c.preImage = make(map[string][]types.Value, len(c.Assignments))
	for name := range c.Assignments {
		col, ok := t.Column(name)
		if !ok {
			continue
		}
		c.preImage[name] = append([]types.Value{}, col.Body...)
	}
	n, err := c.Handle.DB.Update(c.Table, c.Assignments, c.Cond, lookupFor(c.Handle))
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	return true, nil
}

func (c *Update) Undo() error {
	t, err := c.Handle.DB.Table(c.Table)
	if err != nil {
		return err
	}
	for name, body := range c.preImage {
		col, ok := t.Column(name)
		if !ok {
			continue
		}
		col.Body = body
	}
	return nil
}

// Delete removes matching rows; undo restores the whole table from the
// captured pre-image (deletion discards row identity, so a full table
// clone is the simplest faithful pre-image).
type Delete struct {
	Handle   *Handle
	Table    string
	Cond     *condition.Condition
	preImage *table.Table
}

func (c *Delete) Execute() (bool, error) {
	t, err := c.Handle.DB.Table(c.Table)
	if err != nil {
		return false, err
	}
	c.preImage = t.Clone()
	n, err := c.Handle.DB.Delete(c.Table, c.Cond)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	return true, nil
}

func (c *Delete) Undo() error {
	t, err := c.Handle.DB.Table(c.Table)
	if err != nil {
		return err
	}
	*t = *c.preImage
	return nil
}

// Select evaluates a condition and materializes a Response. It is
// non-mutating and never historical.
type Select struct {
	Handle   *Handle
	Table    string
	Columns  []string
	Cond     *condition.Condition
	Response *table.Response
}

func (c *Select) Execute() (bool, error) {
	resp, err := c.Handle.DB.Select(c.Table, c.Columns, c.Cond)
	if err != nil {
		return false, err
	}
	c.Response = resp
	return false, nil
}

func (c *Select) Undo() error { return nil }
