// Package txn implements the transaction manager (C7): a staging queue
// and snapshot-based commit/rollback. Grounded on the teacher
// framework's storage driver (storage.go / internal/storage), which
// this package reuses for writing and reading back the whole-database
// snapshot file that backs atomicity.
package txn

import (
	"github.com/onyxdb/engine/internal/kernel/command"
	"github.com/onyxdb/engine/internal/kernel/database"
	"github.com/onyxdb/engine/internal/kernel/errs"
)

// Snapshotter persists and restores a whole Database image. It is
// implemented by the serializer in internal/kernel/serialize so that
// txn does not itself depend on an encoding format.
type Snapshotter interface {
	Save(db *database.Database, path string) error
	Load(path string) (*database.Database, error)
}

// Manager is the transaction manager: active flag, snapshot path, and a
// FIFO queue of deferred commands.
type Manager struct {
	snap     Snapshotter
	active   bool
	path     string
	queue    []command.Command
	handle   *command.Handle
}

// New builds a transaction manager bound to a snapshot path and the
// engine's database handle.
func New(snap Snapshotter, path string, handle *command.Handle) *Manager {
	return &Manager{snap: snap, path: path, handle: handle}
}

// Active reports whether a transaction is in progress.
func (m *Manager) Active() bool { return m.active }

// Begin serializes the current database to the snapshot path, clears
// the queue, and marks the transaction active.
func (m *Manager) Begin() error {
	if m.active {
		return errs.New(errs.TxAlreadyActive, "a transaction is already active")
	}
	if err := m.snap.Save(m.handle.DB, m.path); err != nil {
		return errs.Wrap(errs.IOError, err, "failed to write transaction snapshot")
	}
	m.queue = nil
	m.active = true
	return nil
}

// Enqueue defers a non-TCL command until Commit. Commands constructed
// from a DDL/DML façade call while a transaction is active route here
// instead of executing immediately.
func (m *Manager) Enqueue(cmd command.Command) error {
	if !m.active {
		return errs.New(errs.TxMisuse, "enqueue requires an active transaction")
	}
	m.queue = append(m.queue, cmd)
	return nil
}

// Commit drains the queue in order against the live database. On any
// command failure the transaction implicitly rolls back and the
// original error is surfaced. On success the new state is persisted to
// the snapshot path, the transaction is cleared, and the commands
// executed with historical==true are returned in commit order so the
// caller can append them to its own undo history.
func (m *Manager) Commit() ([]command.Command, error) {
	if !m.active {
		return nil, errs.New(errs.TxNotActive, "no transaction is active")
	}
	var historical []command.Command
	for _, cmd := range m.queue {
		ok, err := cmd.Execute()
		if err != nil {
			if rbErr := m.rollbackLocked(); rbErr != nil {
				return nil, errs.Wrap(errs.IOError, rbErr, "rollback after failed commit also failed")
			}
			return nil, err
		}
		if ok {
			historical = append(historical, cmd)
		}
	}
	if err := m.snap.Save(m.handle.DB, m.path); err != nil {
		return nil, errs.Wrap(errs.IOError, err, "failed to persist committed transaction")
	}
	m.active = false
	m.queue = nil
	return historical, nil
}

// Rollback deserializes the snapshot path and restores the database to
// it, clearing the transaction.
func (m *Manager) Rollback() error {
	if !m.active {
		return errs.New(errs.TxNotActive, "no transaction is active")
	}
	return m.rollbackLocked()
}

func (m *Manager) rollbackLocked() error {
	restored, err := m.snap.Load(m.path)
	if err != nil {
		return errs.Wrap(errs.IOError, err, "failed to read transaction snapshot")
	}
	m.handle.DB.Restore(restored)
	m.active = false
	m.queue = nil
	return nil
}

// QueueLen reports the number of commands currently deferred, mainly
// for tests.
func (m *Manager) QueueLen() int { return len(m.queue) }
