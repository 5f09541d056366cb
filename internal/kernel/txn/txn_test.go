package txn

import (
	"testing"

	"github.com/onyxdb/engine/internal/kernel/command"
	"github.com/onyxdb/engine/internal/kernel/database"
	"github.com/onyxdb/engine/internal/kernel/errs"
	"github.com/onyxdb/engine/internal/kernel/types"
)

// memSnapshotter is an in-memory Snapshotter stand-in, avoiding any
// filesystem dependency in these tests.
type memSnapshotter struct {
	images map[string]*database.Database
}

func newMemSnapshotter() *memSnapshotter {
	return &memSnapshotter{images: make(map[string]*database.Database)}
}

func (m *memSnapshotter) Save(db *database.Database, path string) error {
	m.images[path] = db.Clone()
	return nil
}

func (m *memSnapshotter) Load(path string) (*database.Database, error) {
	img, ok := m.images[path]
	if !ok {
		return nil, errs.New(errs.NotFound, "no snapshot at %s", path)
	}
	return img.Clone(), nil
}

func newHandle() *command.Handle {
	db := database.New("shop", "shop.db")
	_ = db.CreateTable("users", []database.ColumnDef{
		{Name: "id", Type: types.Integer},
	})
	return &command.Handle{DB: db}
}

func TestBeginEnqueueCommit(t *testing.T) {
	h := newHandle()
	snap := newMemSnapshotter()
	m := New(snap, "shop.snapshot", h)

	if err := m.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if !m.Active() {
		t.Fatal("expected transaction active after Begin")
	}

	ins := &command.Insert{Handle: h, Table: "users", Columns: []string{"id"}, Values: []types.Value{types.NewInteger(1)}}
	if err := m.Enqueue(ins); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if m.QueueLen() != 1 {
		t.Fatalf("QueueLen = %d, want 1", m.QueueLen())
	}

	tb, _ := h.DB.Table("users")
	if tb.RowCount() != 0 {
		t.Fatal("enqueued command must not execute before Commit")
	}

	historical, err := m.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if m.Active() {
		t.Error("expected transaction inactive after Commit")
	}
	if tb.RowCount() != 1 {
		t.Errorf("RowCount after commit = %d, want 1", tb.RowCount())
	}
	if len(historical) != 1 || historical[0] != ins {
		t.Errorf("Commit returned %v, want the single historical insert", historical)
	}
}

func TestRollbackRestoresSnapshot(t *testing.T) {
	h := newHandle()
	snap := newMemSnapshotter()
	m := New(snap, "shop.snapshot", h)

	_ = m.Begin()
	ins := &command.Insert{Handle: h, Table: "users", Columns: []string{"id"}, Values: []types.Value{types.NewInteger(1)}}
	_ = m.Enqueue(ins)

	// Simulate state drifting during the transaction window.
	tb, _ := h.DB.Table("users")
	_ = tb.Insert([]string{"id"}, []types.Value{types.NewInteger(7)}, nil)

	if err := m.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if m.Active() {
		t.Error("expected transaction inactive after Rollback")
	}
	tb, _ = h.DB.Table("users")
	if tb.RowCount() != 0 {
		t.Errorf("RowCount after rollback = %d, want 0", tb.RowCount())
	}
}

func TestCommitFailureImplicitlyRollsBack(t *testing.T) {
	h := newHandle()
	snap := newMemSnapshotter()
	m := New(snap, "shop.snapshot", h)

	_ = m.Begin()
	good := &command.Insert{Handle: h, Table: "users", Columns: []string{"id"}, Values: []types.Value{types.NewInteger(1)}}
	bad := &command.Insert{Handle: h, Table: "nonexistent", Columns: []string{"id"}, Values: []types.Value{types.NewInteger(2)}}
	_ = m.Enqueue(good)
	_ = m.Enqueue(bad)

	_, err := m.Commit()
	if err == nil {
		t.Fatal("expected Commit to surface the failing command's error")
	}
	if m.Active() {
		t.Error("expected transaction inactive after implicit rollback")
	}
	tb, _ := h.DB.Table("users")
	if tb.RowCount() != 0 {
		t.Errorf("RowCount after failed commit = %d, want 0 (full rollback)", tb.RowCount())
	}
}

func TestBeginWhileActiveFails(t *testing.T) {
	h := newHandle()
	m := New(newMemSnapshotter(), "shop.snapshot", h)
	_ = m.Begin()
	if err := m.Begin(); !errs.Is(err, errs.TxAlreadyActive) {
		t.Errorf("expected tx-already-active, got %v", err)
	}
}

func TestCommitWithoutActiveTransactionFails(t *testing.T) {
	h := newHandle()
	m := New(newMemSnapshotter(), "shop.snapshot", h)
	if _, err := m.Commit(); !errs.Is(err, errs.TxNotActive) {
		t.Errorf("expected tx-not-active, got %v", err)
	}
}
