// Package export is the engine's mirror/interoperability adapter: it
// replays an in-memory Database's current schema and rows into a real
// SQL backend over database/sql, grounded on the teacher's connection
// opener (internal/database/connection.go), which blank-imports the
// same three drivers and opens them through sql.Open(driver, dsn). This
// is strictly an export convenience for inspecting a snapshot with real
// SQL tooling — the engine's own read/write path never depends on it.
package export

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/onyxdb/engine/internal/kernel/database"
	"github.com/onyxdb/engine/internal/kernel/errs"
	"github.com/onyxdb/engine/internal/kernel/table"
	"github.com/onyxdb/engine/internal/kernel/types"
)

// Mirror opens a database/sql connection with one of "mysql", "postgres",
// or "sqlite3" and replays every table of db into it as a fresh
// CREATE TABLE followed by one INSERT per row. Existing tables of the
// same name at dsn are dropped first so re-running Mirror is idempotent.
func Mirror(driver, dsn string, db *database.Database) error {
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return errs.Wrap(errs.IOError, err, "failed to open %s connection", driver)
	}
	defer conn.Close()
	if err := conn.Ping(); err != nil {
		return errs.Wrap(errs.IOError, err, "failed to reach %s at %s", driver, dsn)
	}

	for _, name := range db.TableNames() {
		t, err := db.Table(name)
		if err != nil {
			return err
		}
		if _, err := conn.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", name)); err != nil {
			return errs.Wrap(errs.IOError, err, "failed to drop mirrored table %s", name)
		}
		if err := mirrorTable(conn, name, t.ColumnNames(), t); err != nil {
			return err
		}
	}
	return nil
}

func mirrorTable(conn *sql.DB, name string, columnNames []string, t *table.Table) error {
	defs := make([]string, len(columnNames))
	for i, cname := range columnNames {
		col, _ := t.Column(cname)
		defs[i] = fmt.Sprintf("%s %s", cname, sqlTypeFor(col.DataType))
	}
	createStmt := fmt.Sprintf("CREATE TABLE %s (%s)", name, strings.Join(defs, ", "))
	if _, err := conn.Exec(createStmt); err != nil {
		return errs.Wrap(errs.IOError, err, "failed to create mirrored table %s", name)
	}

	placeholders := make([]string, len(columnNames))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insertStmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", name, strings.Join(columnNames, ", "), strings.Join(placeholders, ", "))

	rowCount := t.RowCount()
	for r := 0; r < rowCount; r++ {
		args := make([]interface{}, len(columnNames))
		for i, cname := range columnNames {
			col, _ := t.Column(cname)
			args[i] = nativeValue(col.Body[r])
		}
		if _, err := conn.Exec(insertStmt, args...); err != nil {
			return errs.Wrap(errs.IOError, err, "failed to mirror row %d of table %s", r, name)
		}
	}
	return nil
}

func sqlTypeFor(dt types.DataType) string {
	switch dt {
	case types.Integer:
		return "INTEGER"
	case types.Real:
		return "DOUBLE PRECISION"
	case types.String:
		return "TEXT"
	case types.Boolean:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

func nativeValue(v types.Value) interface{} {
	if v.IsNull() {
		return nil
	}
	switch v.Tag() {
	case types.TagInteger:
		return v.Int()
	case types.TagReal:
		return v.Float()
	case types.TagString:
		return v.Str()
	case types.TagBoolean:
		return v.Bool()
	default:
		return nil
	}
}
