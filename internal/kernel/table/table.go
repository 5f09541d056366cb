// Package table implements the table model of the database kernel:
// column definitions, row storage, and the insert/update/delete/select
// primitives. Grounded on the teacher framework's schema builder
// (internal/database/migrations/table_builder.go, column_builder.go) for
// the DDL surface, and its query builder (database.go Where chain) for
// the select/update/delete primitives.
package table

import (
	"github.com/onyxdb/engine/internal/kernel/condition"
	"github.com/onyxdb/engine/internal/kernel/constraint"
	"github.com/onyxdb/engine/internal/kernel/errs"
	"github.com/onyxdb/engine/internal/kernel/types"
)

// Column is a typed, constrained, ordered sequence of values — one cell
// per row in the table.
type Column struct {
	DataType    types.DataType
	Constraints *constraint.Set
	Body        []types.Value
}

// Table is an insertion-ordered mapping of column name to Column, all
// sharing a common row count.
type Table struct {
	Name       string
	columnOrder []string
	columns    map[string]*Column
	rowCount   int
}

// New builds an empty table.
func New(name string) *Table {
	return &Table{Name: name, columns: make(map[string]*Column)}
}

// ColumnNames returns column names in declaration order.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.columnOrder))
	copy(out, t.columnOrder)
	return out
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	c, ok := t.columns[name]
	return c, ok
}

// RowCount reports the number of rows currently stored.
func (t *Table) RowCount() int { return t.rowCount }

// CreateColumn appends a new column. Fails if the name already exists.
// Existing rows are padded with Null for the new column.
func (t *Table) CreateColumn(name string, dt types.DataType, cs *constraint.Set) error {
	if _, exists := t.columns[name]; exists {
		return errs.New(errs.AlreadyExists, "column %q already exists on table %q", name, t.Name)
	}
	if cs == nil {
		cs = constraint.NewSet()
	}
	body := make([]types.Value, t.rowCount)
	for i := range body {
		body[i] = types.Null
	}
	t.columnOrder = append(t.columnOrder, name)
	t.columns[name] = &Column{DataType: dt, Constraints: cs, Body: body}
	return nil
}

// DropColumn removes a column. Fails if absent.
func (t *Table) DropColumn(name string) error {
	if _, exists := t.columns[name]; !exists {
		return errs.New(errs.NotFound, "column %q not found on table %q", name, t.Name)
	}
	delete(t.columns, name)
	for i, n := range t.columnOrder {
		if n == name {
			t.columnOrder = append(t.columnOrder[:i], t.columnOrder[i+1:]...)
			break
		}
	}
	return nil
}

// DropConstraint removes either a single named constraint or every
// constraint of a kind, depending on which selector is supplied.
func (t *Table) DropConstraint(columnName string, byName string, byKind *constraint.Kind) error {
	col, exists := t.columns[columnName]
	if !exists {
		return errs.New(errs.NotFound, "column %q not found on table %q", columnName, t.Name)
	}
	if byKind != nil {
		return col.Constraints.DropByKind(*byKind)
	}
	return col.Constraints.DropByName(byName)
}

// ModifyColumnType changes a column's declared type. Fails unless every
// existing value in the column remains admissible for the new type.
func (t *Table) ModifyColumnType(name string, newType types.DataType) error {
	col, exists := t.columns[name]
	if !exists {
		return errs.New(errs.NotFound, "column %q not found on table %q", name, t.Name)
	}
	for _, v := range col.Body {
		if !types.Admissible(newType, v) {
			return errs.New(errs.TypeMismatch, "column %q has values incompatible with %s", name, newType)
		}
	}
	col.DataType = newType
	return nil
}

// AddConstraint registers a new constraint on an existing column,
// validating it against every existing value first so the invariant
// "every constraint holds at the end of any successful command" is
// never broken by an ALTER.
func (t *Table) AddConstraint(columnName string, c *constraint.Constraint, lookup constraint.ColumnLookup) error {
	col, exists := t.columns[columnName]
	if !exists {
		return errs.New(errs.NotFound, "column %q not found on table %q", columnName, t.Name)
	}
	trial := constraint.NewSet()
	if err := trial.Add(c); err != nil {
		return err
	}
	for i, v := range col.Body {
		rest := append(append([]types.Value{}, col.Body[:i]...), col.Body[i+1:]...)
		if err := trial.Evaluate(col.DataType, v, rest, lookup); err != nil {
			return err
		}
	}
	return col.Constraints.Add(c)
}

// Rename renames a column.
func (t *Table) Rename(oldName, newName string) error {
	col, exists := t.columns[oldName]
	if !exists {
		return errs.New(errs.NotFound, "column %q not found on table %q", oldName, t.Name)
	}
	if _, clash := t.columns[newName]; clash {
		return errs.New(errs.AlreadyExists, "column %q already exists on table %q", newName, t.Name)
	}
	delete(t.columns, oldName)
	t.columns[newName] = col
	for i, n := range t.columnOrder {
		if n == oldName {
			t.columnOrder[i] = newName
			break
		}
	}
	return nil
}

// Insert validates and appends a single row. columns and values must be
// the same length; columns omitted receive Null. On any constraint
// failure the row is not applied — no partial insert.
func (t *Table) Insert(columns []string, values []types.Value, lookup constraint.ColumnLookup) error {
	if len(columns) != len(values) {
		return errs.New(errs.TypeMismatch, "insert: %d columns but %d values", len(columns), len(values))
	}
	candidate := make(map[string]types.Value, len(t.columnOrder))
	for _, name := range t.columnOrder {
		candidate[name] = types.Null
	}
	for i, name := range columns {
		if _, exists := t.columns[name]; !exists {
			return errs.New(errs.NotFound, "column %q not found on table %q", name, t.Name)
		}
		candidate[name] = values[i]
	}
	for _, name := range t.columnOrder {
		col := t.columns[name]
		if err := col.Constraints.Evaluate(col.DataType, candidate[name], col.Body, lookup); err != nil {
			return err
		}
	}
	for _, name := range t.columnOrder {
		col := t.columns[name]
		col.Body = append(col.Body, candidate[name])
	}
	t.rowCount++
	return nil
}

// rowProjection builds the name->Value map for row i, used by the
// condition evaluator.
func (t *Table) rowProjection(i int) map[string]types.Value {
	row := make(map[string]types.Value, len(t.columnOrder))
	for _, name := range t.columnOrder {
		row[name] = t.columns[name].Body[i]
	}
	return row
}

func (t *Table) matchingRows(cond *condition.Condition) ([]int, error) {
	var rows []int
	for i := 0; i < t.rowCount; i++ {
		ok, err := cond.Matches(t.rowProjection(i))
		if err != nil {
			return nil, err
		}
		if ok {
			rows = append(rows, i)
		}
	}
	return rows, nil
}

// Update rewrites the assigned cells of every row matching cond.
// Constraints are re-validated per row; a violation aborts the entire
// update leaving the table unchanged.
func (t *Table) Update(assignments map[string]types.Value, cond *condition.Condition, lookup constraint.ColumnLookup) (int, error) {
	for name := range assignments {
		if _, exists := t.columns[name]; !exists {
			return 0, errs.New(errs.NotFound, "column %q not found on table %q", name, t.Name)
		}
	}
	rows, err := t.matchingRows(cond)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	// Validate every affected row against a scratch copy of each
	// touched column's body before mutating anything, so a mid-update
	// failure leaves the table byte-identical to its pre-command state.
	trialBodies := make(map[string][]types.Value, len(assignments))
	for name := range assignments {
		trialBodies[name] = append([]types.Value{}, t.columns[name].Body...)
	}
	for _, r := range rows {
		for name, newVal := range assignments {
			col := t.columns[name]
			rest := make([]types.Value, 0, len(trialBodies[name]))
			for j, v := range trialBodies[name] {
				if j != r {
					rest = append(rest, v)
				}
			}
			if err := col.Constraints.Evaluate(col.DataType, newVal, rest, lookup); err != nil {
				return 0, err
			}
			trialBodies[name][r] = newVal
		}
	}
	for name, body := range trialBodies {
		t.columns[name].Body = body
	}
	return len(rows), nil
}

// Delete compacts out every row matching cond.
func (t *Table) Delete(cond *condition.Condition) (int, error) {
	rows, err := t.matchingRows(cond)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	toDelete := make(map[int]bool, len(rows))
	for _, r := range rows {
		toDelete[r] = true
	}
	for _, name := range t.columnOrder {
		col := t.columns[name]
		kept := make([]types.Value, 0, t.rowCount-len(rows))
		for i, v := range col.Body {
			if !toDelete[i] {
				kept = append(kept, v)
			}
		}
		col.Body = kept
	}
	t.rowCount -= len(rows)
	return len(rows), nil
}

// DeleteRowAt compacts out a single row by position. It exists alongside
// Delete(condition) for commands that know the exact row they must
// reverse (Insert.Undo removes the row it just appended) without paying
// for a full condition evaluation pass.
func DeleteRowAt(t *Table, row int) error {
	if row < 0 || row >= t.rowCount {
		return errs.New(errs.NotFound, "row %d out of range for table %q", row, t.Name)
	}
	for _, name := range t.columnOrder {
		col := t.columns[name]
		col.Body = append(col.Body[:row], col.Body[row+1:]...)
	}
	t.rowCount--
	return nil
}

// Response is the materialized result of a select: a column-named
// mapping of value sequences preserving insertion order.
type Response struct {
	Columns []string
	Rows    [][]types.Value
}

// Select emits rows matching cond projected onto the requested columns.
// An empty columns slice selects every column; a nil cond selects every
// row.
func (t *Table) Select(columns []string, cond *condition.Condition) (*Response, error) {
	if len(columns) == 0 {
		columns = t.ColumnNames()
	} else {
		for _, c := range columns {
			if _, exists := t.columns[c]; !exists {
				return nil, errs.New(errs.NotFound, "column %q not found on table %q", c, t.Name)
			}
		}
	}
	rows, err := t.matchingRows(cond)
	if err != nil {
		return nil, err
	}
	resp := &Response{Columns: columns, Rows: make([][]types.Value, 0, len(rows))}
	for _, r := range rows {
		row := make([]types.Value, len(columns))
		for i, c := range columns {
			row[i] = t.columns[c].Body[r]
		}
		resp.Rows = append(resp.Rows, row)
	}
	return resp, nil
}

// Clone deep-copies the table for use as a command pre-image or as part
// of a whole-database snapshot.
func (t *Table) Clone() *Table {
	clone := New(t.Name)
	clone.columnOrder = append([]string{}, t.columnOrder...)
	clone.rowCount = t.rowCount
	for name, col := range t.columns {
		clone.columns[name] = &Column{
			DataType:    col.DataType,
			Constraints: col.Constraints.Clone(),
			Body:        append([]types.Value{}, col.Body...),
		}
	}
	return clone
}
