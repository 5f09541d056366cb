// Command onyxdb is the engine's interactive shell: a read-eval-print
// loop over the façade's external interface (open/show/help/create/
// alter/drop/insert/update/delete/select/begin/commit/rollback/undo/
// print), grounded on the teacher's cmd/onyx dispatch table
// (Command{Name, Description, Action} looked up by name), adapted from
// a one-shot CLI into a REPL since the engine façade is a long-lived
// stateful handle rather than a per-invocation tool.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/onyxdb/engine/internal/engine"
	"github.com/onyxdb/engine/internal/kernel/database"
	"github.com/onyxdb/engine/internal/kernel/ddl"
	"github.com/onyxdb/engine/internal/kernel/types"
	"github.com/onyxdb/engine/internal/obsconfig"
	"github.com/onyxdb/engine/internal/obslog"
)

type replCommand struct {
	name        string
	description string
	action      func(e *engine.Engine, args []string) error
}

var commands = []replCommand{
	{"open", "open <dbName> — open or create a database", cmdOpen},
	{"show", "show — list tables of the open database, or databases if none is open", cmdShow},
	{"help", "help [command] — print help for a command, or list all commands", cmdHelp},
	{"create", "create <table> <col defs...> — create a table", cmdCreate},
	{"createdb", "createdb <dbName> — create a new database, failing if one exists", cmdCreateDB},
	{"alter", "alter <table> add <col def> — add a column to a table", cmdAlter},
	{"rename", "rename <oldTable> <newTable> — rename a table", cmdRename},
	{"drop", "drop <table> — drop a table", cmdDrop},
	{"dropdb", "dropdb <dbName> — drop a database's on-disk directory", cmdDropDB},
	{"insert", "insert <table> <col=val...> — insert one row", cmdInsert},
	{"update", "update <table> SET <col>=<val> WHERE <condition> — update matching rows", cmdUpdate},
	{"delete", "delete <table> [WHERE <condition>] — delete matching rows", cmdDelete},
	{"select", "select <table> [WHERE <condition>] — select matching rows", cmdSelect},
	{"begin", "begin — start a transaction", cmdBegin},
	{"commit", "commit — drain and apply the active transaction's queue", cmdCommit},
	{"rollback", "rollback — discard the active transaction", cmdRollback},
	{"undo", "undo — reverse the most recent historical command", cmdUndo},
	{"print", "print [file <path>] — render the last select response", cmdPrint},
}

func main() {
	cfg := obsconfig.Default()
	logMgr := obslog.NewManager()
	logMgr.AddChannel("onyxdb", &obslog.ConsoleDriver{W: os.Stdout}, obslog.Info)

	e, err := engine.New(cfg, logMgr.Default())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start engine: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("onyxdb — type 'help' for a list of commands, 'exit' to quit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("onyxdb> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		if err := dispatch(e, line); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}

func dispatch(e *engine.Engine, line string) error {
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]
	for _, c := range commands {
		if c.name == name {
			return c.action(e, args)
		}
	}
	return fmt.Errorf("unknown command %q (try 'help')", name)
}

func cmdOpen(e *engine.Engine, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: open <dbName>")
	}
	if err := e.Open(args[0]); err != nil {
		return err
	}
	fmt.Printf("opened %q\n", args[0])
	return nil
}

func cmdCreateDB(e *engine.Engine, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: createdb <dbName>")
	}
	return e.CreateDatabase(args[0])
}

func cmdShow(e *engine.Engine, _ []string) error {
	names, err := e.Show()
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

func cmdHelp(e *engine.Engine, args []string) error {
	if len(args) == 0 {
		for _, c := range commands {
			fmt.Println(c.description)
		}
		return nil
	}
	entries, err := e.Help(args[0])
	if err != nil {
		return err
	}
	for name, entry := range entries {
		fmt.Printf("%s: %s\n  example: %s\n", name, entry.Description, entry.Example)
	}
	return nil
}

func cmdCreate(e *engine.Engine, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: create <table> <col def> [<col def>...]")
	}
	return e.CreateTable(args[0], joinColumnDefs(args[1:]))
}

// joinColumnDefs re-joins whitespace-split args back into column
// definition strings, splitting on commas (the CLI convention for
// separating multiple column definitions on one line).
func joinColumnDefs(fields []string) []string {
	joined := strings.Join(fields, " ")
	parts := strings.Split(joined, ",")
	defs := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			defs = append(defs, trimmed)
		}
	}
	return defs
}

// cmdAlter covers all three AlterSpec phases: "add <col def>[, ...]"
// for new columns, "modify <col> <TYPE>" for a column's type, and
// "drop <col>[, ...]" for column removal, matching the add/modify/drop
// ordering AlterTable applies them in.
func cmdAlter(e *engine.Engine, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: alter <table> add|modify|drop ...")
	}
	tableName, phase, rest := args[0], strings.ToUpper(args[1]), args[2:]
	switch phase {
	case "ADD":
		if len(rest) == 0 {
			return fmt.Errorf("usage: alter <table> add <col def>[, <col def>...]")
		}
		cols, err := ddl.ParseColumnDefs(joinColumnDefs(rest))
		if err != nil {
			return err
		}
		return e.AlterTable(tableName, database.AlterSpec{NewColumns: cols})
	case "MODIFY":
		if len(rest) != 2 {
			return fmt.Errorf("usage: alter <table> modify <col> <TYPE>")
		}
		dt, ok := types.ParseDataType(rest[1])
		if !ok {
			return fmt.Errorf("unknown data type %q", rest[1])
		}
		return e.AlterTable(tableName, database.AlterSpec{
			Modified: []database.ModifySpec{{Column: rest[0], Type: &dt}},
		})
	case "DROP":
		if len(rest) == 0 {
			return fmt.Errorf("usage: alter <table> drop <col>[, <col>...]")
		}
		return e.AlterTable(tableName, database.AlterSpec{Dropped: joinColumnDefs(rest)})
	default:
		return fmt.Errorf("usage: alter <table> add|modify|drop ...")
	}
}

func cmdRename(e *engine.Engine, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: rename <oldTable> <newTable>")
	}
	return e.RenameTable(args[0], args[1])
}

func cmdDrop(e *engine.Engine, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: drop <table>")
	}
	return e.DropTable(args[0])
}

func cmdDropDB(e *engine.Engine, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: dropdb <dbName>")
	}
	return e.DropDatabase(args[0])
}

func cmdInsert(e *engine.Engine, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: insert <table> <col=val> [<col=val>...]")
	}
	columns := make([]string, 0, len(args)-1)
	values := make([]types.Value, 0, len(args)-1)
	for _, pair := range args[1:] {
		col, lit, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("malformed assignment %q, expected col=val", pair)
		}
		v, err := types.ParseLiteral(lit)
		if err != nil {
			return err
		}
		columns = append(columns, col)
		values = append(values, v)
	}
	return e.Insert(args[0], columns, values)
}

func cmdUpdate(e *engine.Engine, args []string) error {
	rest := strings.Join(args, " ")
	if len(args) < 1 {
		return fmt.Errorf("usage: update <table> SET <col>=<val> WHERE <condition>")
	}
	tableName := args[0]
	setIdx := strings.Index(strings.ToUpper(rest), "SET")
	whereIdx := strings.Index(strings.ToUpper(rest), "WHERE")
	if setIdx < 0 {
		return fmt.Errorf("update requires a SET clause")
	}
	var assignmentsText, condText string
	if whereIdx >= 0 {
		assignmentsText = rest[setIdx+3 : whereIdx]
		condText = rest[whereIdx+5:]
	} else {
		assignmentsText = rest[setIdx+3:]
	}
	assignments := make(map[string]types.Value)
	for _, pair := range strings.Split(assignmentsText, ",") {
		col, lit, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		v, err := types.ParseLiteral(strings.TrimSpace(lit))
		if err != nil {
			return err
		}
		assignments[strings.TrimSpace(col)] = v
	}
	return e.Update(tableName, assignments, strings.TrimSpace(condText))
}

func cmdDelete(e *engine.Engine, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: delete <table> [WHERE <condition>]")
	}
	rest := strings.Join(args[1:], " ")
	condText := ""
	if whereIdx := strings.Index(strings.ToUpper(rest), "WHERE"); whereIdx >= 0 {
		condText = strings.TrimSpace(rest[whereIdx+5:])
	}
	n, err := deleteAndCount(e, args[0], condText)
	if err != nil {
		return err
	}
	fmt.Printf("%d row(s) deleted\n", n)
	return nil
}

func deleteAndCount(e *engine.Engine, tableName, condText string) (int, error) {
	before, err := e.Select(tableName, nil, "")
	if err != nil {
		return 0, err
	}
	if err := e.Delete(tableName, condText); err != nil {
		return 0, err
	}
	after, err := e.Select(tableName, nil, "")
	if err != nil {
		return 0, err
	}
	return len(before.Rows) - len(after.Rows), nil
}

func cmdSelect(e *engine.Engine, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: select <table> [WHERE <condition>]")
	}
	rest := strings.Join(args[1:], " ")
	condText := ""
	if whereIdx := strings.Index(strings.ToUpper(rest), "WHERE"); whereIdx >= 0 {
		condText = strings.TrimSpace(rest[whereIdx+5:])
	}
	resp, err := e.Select(args[0], nil, condText)
	if err != nil {
		return err
	}
	fmt.Printf("%d row(s) matched; use 'print' to render them\n", len(resp.Rows))
	return nil
}

func cmdBegin(e *engine.Engine, _ []string) error    { return e.Begin() }
func cmdCommit(e *engine.Engine, _ []string) error   { return e.Commit() }
func cmdRollback(e *engine.Engine, _ []string) error { return e.Rollback() }
func cmdUndo(e *engine.Engine, _ []string) error     { return e.Undo() }

func cmdPrint(e *engine.Engine, args []string) error {
	if len(args) >= 2 && strings.ToLower(args[0]) == "file" {
		return e.Print(engine.File, args[1])
	}
	return e.Print(engine.Console, "")
}
