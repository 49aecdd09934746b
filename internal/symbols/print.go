package symbols

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

var printHeader = [...]string{"NAME", "KIND", "TYPE", "STORAGE"}

// Print writes the current table to w for debugging. The format is for
// humans and may change.
func (m *Manager) Print(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if !m.active() {
		fmt.Fprintf(bw, "symbol table %s\n", m.state)
		return bw.Flush()
	}
	title := m.current().Kind().String()
	if owner := m.Owner(); owner != "" {
		title += " " + owner
	}
	printTable(bw, title, m.current())
	return bw.Flush()
}

func printTable(w io.Writer, title string, t *Table) {
	recs := t.Records()
	fmt.Fprintf(w, "scope %s: %d entries, width %d\n", title, len(recs), t.Width())
	if len(recs) == 0 {
		return
	}
	rows := make([][len(printHeader)]string, 0, len(recs)+1)
	rows = append(rows, printHeader)
	for i := range recs {
		rows = append(rows, [len(printHeader)]string{
			recs[i].Name,
			Label(recs[i].Props),
			recs[i].Props.Type().String(),
			storageText(recs[i].Props),
		})
	}

	var widths [len(printHeader)]int
	for _, row := range rows {
		for col, cell := range row {
			widths[col] = max(widths[col], runewidth.StringWidth(cell))
		}
	}
	for _, row := range rows {
		var sb strings.Builder
		sb.WriteString("  ")
		for col, cell := range row {
			if col == len(row)-1 {
				sb.WriteString(cell)
				break
			}
			sb.WriteString(runewidth.FillRight(cell, widths[col]))
			sb.WriteString("  ")
		}
		fmt.Fprintln(w, strings.TrimRight(sb.String(), " "))
	}
}

// storageText describes where a record lives: a frame offset or a signature.
func storageText(p Properties) string {
	switch v := p.(type) {
	case Variable:
		return fmt.Sprintf("offset %d", v.Offset)
	case Subroutine:
		return "params " + ParamList(v.Params)
	default:
		return ""
	}
}
