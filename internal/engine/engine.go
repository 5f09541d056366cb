// Package engine implements the command history and façade (C8): the
// single entry point external callers use to open a database, dispatch
// DDL/DML/TCL operations, and undo them. Grounded on the teacher
// framework's Application (application.go), which wires together a
// router, config, container, and middleware behind one bootstrap type;
// here the same "one struct owns every collaborator, one method set is
// the external surface" shape is generalized to the kernel's command
// dispatch instead of HTTP routing. The façade serializes all access
// with a single mutex, exactly as application.go's router funnels every
// request through one middleware chain.
package engine

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/onyxdb/engine/internal/catalog"
	"github.com/onyxdb/engine/internal/checkpoint"
	"github.com/onyxdb/engine/internal/export"
	"github.com/onyxdb/engine/internal/filestore"
	"github.com/onyxdb/engine/internal/kernel/command"
	"github.com/onyxdb/engine/internal/kernel/condition"
	"github.com/onyxdb/engine/internal/kernel/database"
	"github.com/onyxdb/engine/internal/kernel/ddl"
	"github.com/onyxdb/engine/internal/kernel/errs"
	"github.com/onyxdb/engine/internal/kernel/serialize"
	"github.com/onyxdb/engine/internal/kernel/table"
	"github.com/onyxdb/engine/internal/kernel/txn"
	"github.com/onyxdb/engine/internal/kernel/types"
	"github.com/onyxdb/engine/internal/obsconfig"
	"github.com/onyxdb/engine/internal/obslog"
	"github.com/onyxdb/engine/internal/paths"
	"github.com/onyxdb/engine/internal/printer"
)

// OutputKind selects where Print renders the last select response.
type OutputKind int

const (
	Console OutputKind = iota
	File
)

// Engine is the façade: it owns the active handle, the transaction
// manager, the undo history, and the collaborators (disk, codec,
// logger) every command needs, and serializes access to all of them.
type Engine struct {
	mu sync.Mutex

	cfg  obsconfig.Config
	log  obslog.Logger
	disk *filestore.Disk
	codec *serialize.Codec

	handle *command.Handle
	txm    *txn.Manager

	history  []command.Command
	lastResp *table.Response
}

// New constructs an Engine with injected configuration and a logger.
// If log is nil, logging is a no-op (a Manager with no channels, whose
// Default() swallows every call).
func New(cfg obsconfig.Config, log obslog.Logger) (*Engine, error) {
	disk, err := filestore.NewDisk(cfg.DataRoot)
	if err != nil {
		return nil, errs.Wrap(errs.IOError, err, "failed to initialize data root %s", cfg.DataRoot)
	}
	if log == nil {
		log = obslog.NewManager().Default()
	}
	return &Engine{
		cfg:   cfg,
		log:   log,
		disk:  disk,
		codec: serialize.NewCodec(disk),
	}, nil
}

// History returns the number of commands currently undoable.
func (e *Engine) History() int { return len(e.history) }

func (e *Engine) requireOpen() error {
	if e.handle == nil || e.handle.DB == nil {
		return errs.New(errs.InvalidState, "no database is open")
	}
	return nil
}

// Open loads an existing database file, or creates a new one in the
// CREATED state if none exists yet at the conventional path.
func (e *Engine) Open(dbName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	dbPath := paths.DatabaseFile(dbName)
	var db *database.Database
	if e.disk.Exists(dbPath) {
		loaded, err := e.codec.Load(dbPath)
		if err != nil {
			return err
		}
		db = loaded
		e.log.Info("opened existing database", map[string]interface{}{"database": dbName})
	} else {
		db = database.New(dbName, dbPath)
		e.log.Info("created new database", map[string]interface{}{"database": dbName})
	}

	e.handle = &command.Handle{DB: db}
	e.txm = txn.New(e.codec, paths.SnapshotFile(dbName), e.handle)
	e.history = nil
	e.lastResp = nil
	return nil
}

// CreateDatabase creates a new database at the conventional path,
// failing if one already exists there. Unlike Open, it never loads an
// existing file.
func (e *Engine) CreateDatabase(dbName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	dbPath := paths.DatabaseFile(dbName)
	if e.disk.Exists(dbPath) {
		return errs.New(errs.AlreadyExists, "database %q already exists", dbName)
	}
	db := database.New(dbName, dbPath)
	e.handle = &command.Handle{DB: db}
	e.txm = txn.New(e.codec, paths.SnapshotFile(dbName), e.handle)
	e.history = nil
	e.lastResp = nil
	e.log.Info("created new database", map[string]interface{}{"database": dbName})
	return nil
}

// Show lists the tables of the currently open database. With no
// database open it lists the database directories under the data root.
func (e *Engine) Show() ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.handle == nil || e.handle.DB == nil {
		entries, err := os.ReadDir(e.cfg.DataRoot)
		if err != nil {
			return nil, errs.Wrap(errs.IOError, err, "failed to list data root %s", e.cfg.DataRoot)
		}
		var names []string
		for _, de := range entries {
			if de.IsDir() {
				names = append(names, de.Name())
			}
		}
		return names, nil
	}
	return e.handle.DB.TableNames(), nil
}

// Help returns the catalog entry for a command name, or the full
// catalog when name is empty.
func (e *Engine) Help(name string) (map[string]catalog.Entry, error) {
	if name == "" {
		return catalog.Entries, nil
	}
	entry, ok := catalog.Entries[name]
	if !ok {
		return nil, errs.New(errs.NotFound, "no help entry for command %q", name)
	}
	return map[string]catalog.Entry{name: entry}, nil
}

// dispatchMutating runs a mutating command through the transaction
// protocol: enqueued if a transaction is active, executed immediately
// and pushed to history otherwise. It never swallows errors and never
// records a failing command.
func (e *Engine) dispatchMutating(cmd command.Command) error {
	if err := e.requireOpen(); err != nil {
		return err
	}
	if e.txm.Active() {
		return e.txm.Enqueue(cmd)
	}
	historical, err := cmd.Execute()
	if err != nil {
		e.log.Error("command failed", map[string]interface{}{"error": err.Error()})
		return err
	}
	if historical {
		e.history = append(e.history, cmd)
	}
	return nil
}

// CreateTable parses column-definition strings and creates a table.
func (e *Engine) CreateTable(name string, colDefs []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cols, err := ddl.ParseColumnDefs(colDefs)
	if err != nil {
		return err
	}
	cmd := &command.CreateTable{Handle: e.handle, Name: name, Columns: cols}
	return e.dispatchMutating(cmd)
}

// AlterTable applies the add/modify/drop phases to a table.
func (e *Engine) AlterTable(name string, spec database.AlterSpec) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cmd := &command.AlterTable{Handle: e.handle, Name: name, Spec: spec}
	return e.dispatchMutating(cmd)
}

// RenameTable renames a table in place.
func (e *Engine) RenameTable(oldName, newName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cmd := &command.RenameTable{Handle: e.handle, OldName: oldName, NewName: newName}
	return e.dispatchMutating(cmd)
}

// DropTable drops a table.
func (e *Engine) DropTable(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cmd := &command.DropTable{Handle: e.handle, Name: name}
	return e.dispatchMutating(cmd)
}

// DropDatabase closes the active handle and removes its on-disk
// directory. It is not undoable: dropping a database is outside the
// command history's scope, which only covers table-level DDL/DML.
func (e *Engine) DropDatabase(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := os.RemoveAll(filepath.Join(e.cfg.DataRoot, name)); err != nil {
		return errs.Wrap(errs.IOError, err, "failed to remove database directory for %q", name)
	}
	if e.handle != nil && e.handle.DB != nil && e.handle.DB.Name == name {
		e.handle = nil
		e.txm = nil
		e.history = nil
	}
	return nil
}

// Insert appends one row.
func (e *Engine) Insert(tableName string, columns []string, values []types.Value) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cmd := &command.Insert{Handle: e.handle, Table: tableName, Columns: columns, Values: values}
	return e.dispatchMutating(cmd)
}

// Update rewrites matching rows.
func (e *Engine) Update(tableName string, assignments map[string]types.Value, condSrc string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cond, err := condition.Parse(condSrc)
	if err != nil {
		return err
	}
	cmd := &command.Update{Handle: e.handle, Table: tableName, Assignments: assignments, Cond: cond}
	return e.dispatchMutating(cmd)
}

// Delete removes matching rows.
func (e *Engine) Delete(tableName, condSrc string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cond, err := condition.Parse(condSrc)
	if err != nil {
		return err
	}
	cmd := &command.Delete{Handle: e.handle, Table: tableName, Cond: cond}
	return e.dispatchMutating(cmd)
}

// Select evaluates a condition and retains the response for Print.
// Select always runs immediately, even inside an active transaction:
// it is non-mutating and has nothing to defer.
func (e *Engine) Select(tableName string, columns []string, condSrc string) (*table.Response, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOpen(); err != nil {
		return nil, err
	}
	cond, err := condition.Parse(condSrc)
	if err != nil {
		return nil, err
	}
	cmd := &command.Select{Handle: e.handle, Table: tableName, Columns: columns, Cond: cond}
	if _, err := cmd.Execute(); err != nil {
		return nil, err
	}
	e.lastResp = cmd.Response
	return cmd.Response, nil
}

// Begin starts a transaction.
func (e *Engine) Begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOpen(); err != nil {
		return err
	}
	return e.txm.Begin()
}

// Commit drains the active transaction's queue. Commands that were
// historical get appended to the undo history in commit order, exactly
// as they would have been had they executed immediately outside a
// transaction.
func (e *Engine) Commit() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOpen(); err != nil {
		return err
	}
	historical, err := e.txm.Commit()
	if err != nil {
		return err
	}
	e.history = append(e.history, historical...)
	return nil
}

// Rollback discards the active transaction.
func (e *Engine) Rollback() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOpen(); err != nil {
		return err
	}
	return e.txm.Rollback()
}

// Undo reverses the most recently executed historical command. An
// empty history is a no-op, not an error.
func (e *Engine) Undo() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.history) == 0 {
		return nil
	}
	last := e.history[len(e.history)-1]
	e.history = e.history[:len(e.history)-1]
	return last.Undo()
}

// Print renders the last select response to the console or to a file
// under the engine's output root.
func (e *Engine) Print(kind OutputKind, filePath string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lastResp == nil {
		return errs.New(errs.InvalidState, "no select response to print")
	}
	switch kind {
	case Console:
		return printer.Render(os.Stdout, e.lastResp)
	case File:
		if filePath == "" {
			return errs.New(errs.InvalidName, "print to file requires a file path")
		}
		full := filepath.Join(e.cfg.OutputRoot, filePath)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return errs.Wrap(errs.IOError, err, "failed to create output directory")
		}
		f, err := os.Create(full)
		if err != nil {
			return errs.Wrap(errs.IOError, err, "failed to create output file %s", full)
		}
		defer f.Close()
		return printer.Render(f, e.lastResp)
	default:
		return errs.New(errs.InvalidName, "unknown output kind")
	}
}

// Close persists the open database's current state and moves the
// database to CLOSED. The handle stays attached, so later mutating
// calls fail with invalid-state.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handle == nil || e.handle.DB == nil {
		return nil
	}
	if err := e.codec.Save(e.handle.DB, e.handle.DB.FilePath); err != nil {
		return err
	}
	e.handle.DB.Reset()
	return nil
}

// ExportTo mirrors the open database's current schema and rows into a
// real SQL backend ("mysql", "postgres", or "sqlite3") at dsn. It is a
// non-core interoperability convenience; the engine's own read/write
// path never depends on it.
func (e *Engine) ExportTo(driver, dsn string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOpen(); err != nil {
		return err
	}
	return export.Mirror(driver, dsn, e.handle.DB)
}

// EnableCheckpoint starts a background scheduler that persists the open
// database on the given cron expression, for processes that want
// periodic durability beyond save-on-demand. The returned stop function
// halts it.
func (e *Engine) EnableCheckpoint(cronExpr string) (stop func(), err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOpen(); err != nil {
		return nil, err
	}
	cp := checkpoint.New(e.log)
	return cp.Start(cronExpr, func() error {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.codec.Save(e.handle.DB, e.handle.DB.FilePath)
	})
}
