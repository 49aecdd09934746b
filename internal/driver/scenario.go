package driver

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"

	"amplc/internal/source"
	"amplc/internal/symbols"
	"amplc/internal/valtypes"
)

// Scenario is one decoded scenario file: an ordered list of symbol table
// operations with optional assertions.
type Scenario struct {
	Name   string `toml:"name"`
	Lookup string `toml:"lookup"` // overrides the configured mode when set
	Steps  []Step `toml:"step"`
}

// Step is one [[step]] table.
type Step struct {
	Op     string   `toml:"op"`
	Name   string   `toml:"name"`
	Kind   string   `toml:"kind"` // variable | function | procedure
	Type   string   `toml:"type"`
	Params []string `toml:"params"`
	Args   []string `toml:"args"`

	Expect  string `toml:"expect"`
	Offset  *int   `toml:"offset"`
	Width   *int   `toml:"width"`
	NParams *int   `toml:"nparams"`

	Span source.Span `toml:"-"`
}

// Ops understood by the runner.
const (
	OpInit    = "init"
	OpInsert  = "insert"
	OpFind    = "find"
	OpOpen    = "open"
	OpClose   = "close"
	OpWidth   = "width"
	OpCall    = "call"
	OpPrint   = "print"
	OpRelease = "release"
)

// DecodeError is a scenario that could not be decoded. Span points at the
// offending bytes when the TOML parser reported a position.
type DecodeError struct {
	Span source.Span
	Msg  string
}

func (e *DecodeError) Error() string { return e.Msg }

const stepHeader = "[[step]]"

// DecodeScenario decodes file as a scenario and attaches a span to each step.
func DecodeScenario(file *source.File) (*Scenario, error) {
	var sc Scenario
	meta, err := toml.Decode(string(file.Content), &sc)
	if err != nil {
		return nil, decodeError(file, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, &DecodeError{
			Span: source.Span{File: file.ID},
			Msg:  "unknown keys: " + strings.Join(keys, ", "),
		}
	}
	if sc.Lookup != "" {
		if _, err := symbols.ParseLookupMode(sc.Lookup); err != nil {
			return nil, &DecodeError{Span: source.Span{File: file.ID}, Msg: err.Error()}
		}
	}
	spans := stepSpans(file)
	for i := range sc.Steps {
		if i < len(spans) {
			sc.Steps[i].Span = spans[i]
		} else {
			sc.Steps[i].Span = source.Span{File: file.ID}
		}
	}
	return &sc, nil
}

func decodeError(file *source.File, err error) error {
	var perr toml.ParseError
	if errors.As(err, &perr) {
		sp := source.Span{File: file.ID}
		start, errStart := safecast.Conv[uint32](perr.Position.Start)
		length, errLen := safecast.Conv[uint32](perr.Position.Len)
		if errStart == nil && errLen == nil && int(start) <= len(file.Content) {
			sp.Start = start
			sp.End = min(start+length, uint32(len(file.Content))) // #nosec G115 -- bounded by start check
		}
		return &DecodeError{Span: sp, Msg: perr.Message}
	}
	return &DecodeError{Span: source.Span{File: file.ID}, Msg: err.Error()}
}

// stepSpans finds the [[step]] header lines in document order.
func stepSpans(file *source.File) []source.Span {
	var spans []source.Span
	content := file.Content
	var off uint32
	for len(content) > 0 {
		line := content
		next := len(content)
		if i := bytes.IndexByte(content, '\n'); i >= 0 {
			line = content[:i]
			next = i + 1
		}
		trimmed := bytes.TrimLeft(line, " \t")
		if bytes.HasPrefix(trimmed, []byte(stepHeader)) {
			lead := uint32(len(line) - len(trimmed)) // #nosec G115 -- line length fits, file size is uint32
			spans = append(spans, source.At(file.ID, off+lead, uint32(len(stepHeader))))
		}
		off += uint32(next) // #nosec G115 -- file size is uint32
		content = content[next:]
	}
	return spans
}

// properties builds the Properties a step declares. For open the kind
// defaults to procedure when no return type is given, function otherwise.
func (s *Step) properties() (symbols.Properties, error) {
	kind := strings.ToLower(strings.TrimSpace(s.Kind))
	if kind == "" {
		switch {
		case s.Op == OpOpen && (s.Type == "" || strings.EqualFold(s.Type, "none")):
			kind = "procedure"
		case s.Op == OpOpen:
			kind = "function"
		default:
			kind = "variable"
		}
	}
	switch kind {
	case "variable":
		if len(s.Params) > 0 {
			return nil, fmt.Errorf("variable %q cannot have params", s.Name)
		}
		t, err := valtypes.Parse(s.Type)
		if err != nil {
			return nil, err
		}
		return symbols.NewVariable(t), nil
	case "function", "procedure":
		params, err := valtypes.ParseList(s.Params)
		if err != nil {
			return nil, err
		}
		if kind == "procedure" {
			if s.Type != "" && !strings.EqualFold(s.Type, "none") {
				return nil, fmt.Errorf("procedure %q cannot return %s", s.Name, s.Type)
			}
			return symbols.NewProcedure(params...), nil
		}
		ret, err := valtypes.Parse(s.Type)
		if err != nil {
			return nil, err
		}
		if ret == valtypes.None {
			return nil, fmt.Errorf("function %q needs a return type", s.Name)
		}
		return symbols.NewFunction(ret, params...), nil
	default:
		return nil, fmt.Errorf("unknown kind %q (expected variable|function|procedure)", s.Kind)
	}
}
