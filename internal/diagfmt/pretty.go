package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"amplc/internal/diag"
	"amplc/internal/source"
)

type palette struct {
	err, warn, info, note, code, path, caret *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:   color.New(color.FgRed, color.Bold),
		warn:  color.New(color.FgYellow, color.Bold),
		info:  color.New(color.FgBlue, color.Bold),
		note:  color.New(color.FgCyan),
		code:  color.New(color.Faint),
		path:  color.New(color.Bold),
		caret: color.New(color.FgGreen, color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.code, p.path, p.caret} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждой диагностики печатает
//
//	<path>:<line>:<col>: <severity> <CODE>: <message>
//
// затем, если включено, строку сценария с подчёркиванием ^~~~ по Span и Notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	if bag == nil || fs == nil {
		return nil
	}
	p := newPalette(opts.Color)
	var sb strings.Builder
	for _, d := range bag.Items() {
		sb.WriteString(p.path.Sprint(location(fs, d.Primary, opts.PathMode)))
		sb.WriteString(": ")
		sb.WriteString(p.severity(d.Severity).Sprint(diag.SeverityLabel(d.Severity)))
		sb.WriteString(" ")
		sb.WriteString(p.code.Sprint(d.Code.ID()))
		sb.WriteString(": ")
		sb.WriteString(d.Message)
		sb.WriteByte('\n')
		if opts.Context {
			writeContext(&sb, fs, d.Primary, p)
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(&sb, "  %s %s: %s\n", p.note.Sprint("note:"), location(fs, n.Span, opts.PathMode), n.Msg)
		}
	}
	if dropped := bag.Dropped(); dropped > 0 {
		fmt.Fprintf(&sb, "... %d more diagnostic(s) not shown (limit %d)\n", dropped, bag.Cap())
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func location(fs *source.FileSet, sp source.Span, mode PathMode) string {
	file, ok := fs.Lookup(sp.File)
	if !ok {
		return "<unknown>"
	}
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", formatPath(file.Path, mode), start.Line, start.Col)
}

// writeContext prints the line holding sp and marks the span under it.
func writeContext(sb *strings.Builder, fs *source.FileSet, sp source.Span, p palette) {
	file, ok := fs.Lookup(sp.File)
	if !ok || len(file.Content) == 0 {
		return
	}
	start, end := fs.Resolve(sp)
	line := file.GetLine(start.Line)
	if line == "" {
		return
	}
	prefix := line[:min(int(start.Col)-1, len(line))]
	width := 1
	if end.Line == start.Line && end.Col > start.Col {
		width = runewidth.StringWidth(line[len(prefix):min(int(end.Col)-1, len(line))])
	}
	gutter := fmt.Sprintf("%4d | ", start.Line)
	sb.WriteString(gutter)
	sb.WriteString(line)
	sb.WriteByte('\n')
	sb.WriteString(strings.Repeat(" ", len(gutter)-2))
	sb.WriteString("| ")
	sb.WriteString(strings.Repeat(" ", runewidth.StringWidth(prefix)))
	sb.WriteString(p.caret.Sprint("^" + strings.Repeat("~", max(width-1, 0))))
	sb.WriteByte('\n')
}
