// Package printer renders a table.Response as a fixed-width ASCII grid
// for console and file output, the PRINT surface named in SPEC_FULL.md
// §6. No example repo in the corpus carries a console table renderer;
// this is built on the standard library's text/tabwriter, which is the
// conventional Go tool for column alignment and needs no third-party
// replacement.
package printer

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/onyxdb/engine/internal/kernel/table"
)

// Render writes resp as an aligned ASCII table to w: a header row, a
// separator rule, then one row per matching record.
func Render(w io.Writer, resp *table.Response) error {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)

	header := strings.Join(resp.Columns, "\t")
	fmt.Fprintln(tw, header)

	rule := make([]string, len(resp.Columns))
	for i, c := range resp.Columns {
		rule[i] = strings.Repeat("-", len(c))
	}
	fmt.Fprintln(tw, strings.Join(rule, "\t"))

	for _, row := range resp.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = v.String()
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}
