package diagfmt

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"amplc/internal/symbols"
	"amplc/internal/valtypes"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

var snapshotHeaders = []string{"#", "NAME", "KIND", "TYPE", "STORAGE"}

// SnapshotOpts configures RenderSnapshot.
type SnapshotOpts struct {
	Color bool
	Title string // печатается над таблицами, если задан
}

// RenderSnapshot draws every scope of snap as a bordered table, global first.
func RenderSnapshot(snap symbols.Snapshot, opts SnapshotOpts) string {
	style := func(s lipgloss.Style, text string) string {
		if !opts.Color {
			return text
		}
		return s.Render(text)
	}

	var sb strings.Builder
	if opts.Title != "" {
		sb.WriteString(style(titleStyle, opts.Title))
		sb.WriteByte('\n')
	}
	if len(snap.Scopes) == 0 {
		fmt.Fprintf(&sb, "symbol table %s\n", snap.State)
		return sb.String()
	}
	for i, scope := range snap.Scopes {
		if i > 0 {
			sb.WriteByte('\n')
		}
		name := scope.Kind
		if scope.Owner != "" {
			name += " " + scope.Owner
		}
		sb.WriteString(style(titleStyle, fmt.Sprintf("scope %s", name)))
		fmt.Fprintf(&sb, " (depth %d, %d entries, width %d)\n", i, len(scope.Entries), scope.Width)
		if len(scope.Entries) == 0 {
			continue
		}

		headers := make([]string, len(snapshotHeaders))
		for j, h := range snapshotHeaders {
			headers[j] = style(headerStyle, h)
		}
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			StyleFunc(func(_, _ int) lipgloss.Style { return cellStyle }).
			Headers(headers...)
		if opts.Color {
			t = t.BorderStyle(borderStyle)
		}
		for j, e := range scope.Entries {
			t = t.Row(fmt.Sprint(j+1), e.Name, e.Kind, valtypes.ValType(e.Type).String(), entryStorage(e))
		}
		sb.WriteString(t.Render())
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "state %s, lookup %s\n", snap.State, snap.Lookup)
	return sb.String()
}

func entryStorage(e symbols.EntrySnapshot) string {
	switch p := e.Properties().(type) {
	case symbols.Variable:
		return fmt.Sprintf("offset %d", p.Offset)
	case symbols.Subroutine:
		return symbols.ParamList(p.Params)
	default:
		return ""
	}
}
