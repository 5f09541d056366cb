package engine

import (
	"testing"

	"github.com/onyxdb/engine/internal/kernel/database"
	"github.com/onyxdb/engine/internal/kernel/types"
	"github.com/onyxdb/engine/internal/obsconfig"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := obsconfig.Config{DataRoot: t.TempDir(), OutputRoot: t.TempDir()}
	e, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := e.Open("shop"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	return e
}

func TestOpenCreatesNewDatabase(t *testing.T) {
	e := newTestEngine(t)
	names, err := e.Show()
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("expected no tables on a fresh database, got %v", names)
	}
}

func TestUndoChainAcrossCreateAlterDrop(t *testing.T) {
	e := newTestEngine(t)

	if err := e.CreateTable("users", []string{"id INTEGER PRIMARY KEY", "name STRING"}); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if e.History() != 1 {
		t.Fatalf("History after create = %d, want 1", e.History())
	}

	if err := e.AlterTable("users", database.AlterSpec{
		NewColumns: []database.ColumnDef{{Name: "age", Type: types.Integer}},
	}); err != nil {
		t.Fatalf("AlterTable: %v", err)
	}
	if e.History() != 2 {
		t.Fatalf("History after alter = %d, want 2", e.History())
	}

	if err := e.DropTable("users"); err != nil {
		t.Fatalf("DropTable: %v", err)
	}
	if e.History() != 3 {
		t.Fatalf("History after drop = %d, want 3", e.History())
	}

	if err := e.Undo(); err != nil {
		t.Fatalf("Undo 1: %v", err)
	}
	if e.History() != 2 {
		t.Fatalf("History after undo 1 = %d, want 2", e.History())
	}
	if err := e.Undo(); err != nil {
		t.Fatalf("Undo 2: %v", err)
	}
	if e.History() != 1 {
		t.Fatalf("History after undo 2 = %d, want 1", e.History())
	}
	if err := e.Undo(); err != nil {
		t.Fatalf("Undo 3: %v", err)
	}
	if e.History() != 0 {
		t.Fatalf("History after undo 3 = %d, want 0", e.History())
	}

	names, _ := e.Show()
	if len(names) != 0 {
		t.Errorf("expected users table gone after full undo chain, got %v", names)
	}
}

func TestUndoOnEmptyHistoryIsNoOp(t *testing.T) {
	e := newTestEngine(t)
	if err := e.Undo(); err != nil {
		t.Errorf("Undo on empty history should be a no-op, got %v", err)
	}
}

func TestTransactionCommitAndRollback(t *testing.T) {
	e := newTestEngine(t)
	_ = e.CreateTable("users", []string{"id INTEGER PRIMARY KEY", "name STRING"})

	if err := e.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := e.Insert("users", []string{"id", "name"}, []types.Value{types.NewInteger(1), types.NewString("Ada")}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	resp, err := e.Select("users", nil, "")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(resp.Rows) != 0 {
		t.Fatalf("expected enqueued insert not yet visible mid-transaction, got %d rows", len(resp.Rows))
	}
	if e.History() != 1 {
		t.Fatalf("History before commit = %d, want 1 (only the create so far)", e.History())
	}
	if err := e.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if e.History() != 2 {
		t.Fatalf("History after commit = %d, want 2 (create + the committed insert)", e.History())
	}
	resp, err = e.Select("users", nil, "")
	if err != nil {
		t.Fatalf("Select after commit: %v", err)
	}
	if len(resp.Rows) != 1 {
		t.Fatalf("expected 1 row after commit, got %d", len(resp.Rows))
	}

	if err := e.Begin(); err != nil {
		t.Fatalf("Begin 2: %v", err)
	}
	if err := e.Insert("users", []string{"id", "name"}, []types.Value{types.NewInteger(2), types.NewString("Bob")}); err != nil {
		t.Fatalf("Insert 2: %v", err)
	}
	if err := e.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	resp, err = e.Select("users", nil, "")
	if err != nil {
		t.Fatalf("Select after rollback: %v", err)
	}
	if len(resp.Rows) != 1 {
		t.Fatalf("expected rollback to discard the uncommitted insert, got %d rows", len(resp.Rows))
	}
}

func TestCommittedTransactionCommandsAreUndoable(t *testing.T) {
	e := newTestEngine(t)
	_ = e.CreateTable("employees", []string{"id INTEGER PRIMARY KEY", "age INTEGER"})
	_ = e.Insert("employees", []string{"id", "age"}, []types.Value{types.NewInteger(1), types.NewInteger(30)})
	if e.History() != 2 {
		t.Fatalf("History after create+insert = %d, want 2", e.History())
	}

	if err := e.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := e.Update("employees", map[string]types.Value{"age": types.NewInteger(18)}, "id = 1"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := e.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if e.History() != 3 {
		t.Fatalf("History after commit = %d, want 3 (the update must join the undo history)", e.History())
	}

	if err := e.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if e.History() != 2 {
		t.Fatalf("History after undo = %d, want 2", e.History())
	}
	resp, err := e.Select("employees", []string{"age"}, "id = 1")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	age := resp.Rows[0][0].Int()
	if age != 30 {
		t.Errorf("age after undoing the committed update = %d, want 30 (the pre-update value)", age)
	}
}

func TestHelpReturnsCatalogEntry(t *testing.T) {
	e := newTestEngine(t)
	entries, err := e.Help("insert")
	if err != nil {
		t.Fatalf("Help: %v", err)
	}
	if _, ok := entries["insert"]; !ok {
		t.Error("expected a catalog entry for insert")
	}
	if _, err := e.Help("not-a-command"); err == nil {
		t.Error("expected error for unknown command name")
	}
}
