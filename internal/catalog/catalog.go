// Package catalog is the static help text consulted by the façade's
// Help operation, per SPEC_FULL.md §6: "a static mapping from command
// names to (description, example) used only by help; content is not
// semantically load-bearing." Grounded on the teacher framework's
// route documentation map (openapi.go's static path descriptions),
// reduced from a generated OpenAPI document to a literal Go map.
package catalog

// Entry is one help-catalog record.
type Entry struct {
	Description string
	Example     string
}

// Entries is the full static command catalog.
var Entries = map[string]Entry{
	"open": {
		Description: "Open the named database under the data root, creating it if absent; an explicit path is not accepted.",
		Example:     "open inventory",
	},
	"show": {
		Description: "List the tables of the open database, or the databases under the data root when none is open; no other path can be given.",
		Example:     "show",
	},
	"help": {
		Description: "Print the description and example for a command, or list all commands.",
		Example:     "help insert",
	},
	"create": {
		Description: "Create a database, or create a table with column definitions.",
		Example:     "create users id INTEGER PRIMARY KEY, name STRING NOT NULL",
	},
	"alter": {
		Description: "Add, modify, or drop columns on a table, or rename a table; databases cannot be renamed.",
		Example:     "alter users add age INTEGER",
	},
	"drop": {
		Description: "Drop a table or a database.",
		Example:     "drop users",
	},
	"insert": {
		Description: "Insert one row into a table.",
		Example:     "insert users id=1 name='Ada'",
	},
	"update": {
		Description: "Update columns of rows matching a condition.",
		Example:     "update users SET name = 'Ada' WHERE id = 1",
	},
	"delete": {
		Description: "Delete rows matching a condition.",
		Example:     "delete users WHERE id = 1",
	},
	"select": {
		Description: "Select rows, optionally projecting columns and filtering by a condition.",
		Example:     "select users WHERE age >= 18",
	},
	"begin": {
		Description: "Start a transaction, snapshotting the current database.",
		Example:     "begin",
	},
	"commit": {
		Description: "Drain and apply the queued commands of the active transaction.",
		Example:     "commit",
	},
	"rollback": {
		Description: "Discard the active transaction and restore the pre-begin snapshot.",
		Example:     "rollback",
	},
	"undo": {
		Description: "Reverse the most recent historical command.",
		Example:     "undo",
	},
	"print": {
		Description: "Render the last select response as a fixed-width ASCII table.",
		Example:     "print console",
	},
}
