package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"amplc/internal/diag"
	"amplc/internal/observ"
	"amplc/internal/source"
	"amplc/internal/symbols"
)

// Options configures scenario runs.
type Options struct {
	Symbols        symbols.Options
	MaxDiagnostics int
	Logger         *zerolog.Logger
}

// Result is the outcome of running one scenario file.
type Result struct {
	Path     string
	FileID   source.FileID
	Name     string
	Steps    int // steps executed
	Bag      *diag.Bag
	Output   string // text written by print steps
	Snapshot symbols.Snapshot
	Timing   observ.Report
}

// Failed reports whether the run produced error diagnostics.
func (r *Result) Failed() bool { return r != nil && r.Bag.HasErrors() }

// Step outcomes, as written in `expect`.
const (
	outcomeOK              = "ok"
	outcomeDuplicate       = "duplicate"
	outcomeCapacity        = "capacity"
	outcomeInvalidState    = "invalid-state"
	outcomeInvalidArgument = "invalid-argument"
	outcomeFound           = "found"
	outcomeAbsent          = "absent"
	outcomeUndeclared      = "undeclared"
	outcomeNotCallable     = "not-callable"
	outcomeArity           = "arity"
	outcomeError           = "error"
)

var knownOutcomes = map[string]bool{
	outcomeOK: true, outcomeDuplicate: true, outcomeCapacity: true,
	outcomeInvalidState: true, outcomeInvalidArgument: true,
	outcomeFound: true, outcomeAbsent: true,
	outcomeUndeclared: true, outcomeNotCallable: true, outcomeArity: true,
}

func outcomeOf(err error) string {
	if err == nil {
		return outcomeOK
	}
	switch symbols.KindOf(err) {
	case symbols.ErrKindDuplicateName:
		return outcomeDuplicate
	case symbols.ErrKindCapacityExceeded:
		return outcomeCapacity
	case symbols.ErrKindInvalidState:
		return outcomeInvalidState
	case symbols.ErrKindInvalidArgument:
		return outcomeInvalidArgument
	default:
		return outcomeError
	}
}

func codeOf(err error) diag.Code {
	switch symbols.KindOf(err) {
	case symbols.ErrKindDuplicateName:
		return diag.SymDuplicateName
	case symbols.ErrKindCapacityExceeded:
		return diag.SymCapacityExceeded
	case symbols.ErrKindInvalidState:
		return diag.SymInvalidState
	case symbols.ErrKindInvalidArgument:
		return diag.SymInvalidProperties
	default:
		return diag.SymInfo
	}
}

// RunFile loads path into fs and runs it.
func RunFile(ctx context.Context, fs *source.FileSet, path string, opts Options) (*Result, error) {
	timer := observ.NewTimer()
	done := timer.Track("load")
	id, err := fs.Load(path)
	done("")
	if err != nil {
		return loadFailure(fs, path, err, opts), nil
	}
	return run(ctx, fs, id, opts, timer)
}

// Run executes the scenario already loaded as id. The error is non-nil only
// when ctx is cancelled; scenario problems are reported in Result.Bag.
func Run(ctx context.Context, fs *source.FileSet, id source.FileID, opts Options) (*Result, error) {
	return run(ctx, fs, id, opts, observ.NewTimer())
}

func loadFailure(fs *source.FileSet, path string, err error, opts Options) *Result {
	id := fs.AddVirtual(path, nil)
	bag := diag.NewBag(opts.MaxDiagnostics)
	diag.ReportError(diag.BagReporter{Bag: bag}, diag.IOLoadFileError, source.Span{File: id},
		"failed to load file: "+err.Error()).Emit()
	return &Result{Path: path, FileID: id, Bag: bag}
}

func run(ctx context.Context, fs *source.FileSet, id source.FileID, opts Options, timer *observ.Timer) (*Result, error) {
	file := fs.Get(id)
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "driver").Str("file", file.Path).Logger()
	}
	res := &Result{
		Path:   file.Path,
		FileID: id,
		Bag:    diag.NewBag(opts.MaxDiagnostics),
	}
	rep := diag.BagReporter{Bag: res.Bag}
	defer func() {
		res.Timing = timer.Report()
		res.Timing.Path = file.Path
	}()

	done := timer.Track("decode")
	sc, err := DecodeScenario(file)
	done("")
	if err != nil {
		var derr *DecodeError
		sp := source.Span{File: id}
		msg := err.Error()
		if errors.As(err, &derr) {
			sp, msg = derr.Span, derr.Msg
		}
		diag.ReportError(rep, diag.ScnDecodeError, sp, msg).Emit()
		return res, nil
	}
	res.Name = sc.Name

	symOpts := opts.Symbols
	if sc.Lookup != "" {
		symOpts.Lookup, _ = symbols.ParseLookupMode(sc.Lookup) // validated by DecodeScenario
	}
	if symOpts.Logger == nil {
		symOpts.Logger = opts.Logger
	}
	r := &runner{
		m:   symbols.NewManager(symOpts),
		rep: rep,
		log: log,
	}
	log.Info().Str("scenario", sc.Name).Int("steps", len(sc.Steps)).Str("lookup", r.m.LookupMode().String()).Msg("scenario started")

	done = timer.Track("execute")
	for i := range sc.Steps {
		if err := ctx.Err(); err != nil {
			done("cancelled")
			return res, err
		}
		r.exec(&sc.Steps[i])
		res.Steps++
	}
	if r.m.Current() != nil {
		if err := r.m.Validate(); err != nil {
			diag.ReportError(rep, diag.SymInfo, source.Span{File: id}, "symbol table consistency check failed: "+err.Error()).Emit()
		}
	}
	done(fmt.Sprintf("%d steps", res.Steps))

	res.Output = r.out.String()
	res.Snapshot = r.m.Snapshot()
	log.Info().
		Int("errors", res.Bag.Count(diag.SevError)).
		Int("warnings", res.Bag.Count(diag.SevWarning)-res.Bag.Count(diag.SevError)).
		Str("state", r.m.State().String()).
		Msg("scenario finished")
	return res, nil
}

type runner struct {
	m   *symbols.Manager
	rep diag.Reporter
	log zerolog.Logger
	out bytes.Buffer

	// decls[d] remembers where each name of scope depth d was declared.
	decls []map[string]source.Span
}

func (r *runner) exec(st *Step) {
	st.Op = strings.ToLower(strings.TrimSpace(st.Op))
	r.log.Debug().Str("op", st.Op).Str("name", st.Name).Msg("step")
	if st.Expect != "" && !knownOutcomes[st.Expect] {
		diag.ReportError(r.rep, diag.ScnDecodeError, st.Span, fmt.Sprintf("unknown expectation %q", st.Expect)).Emit()
		return
	}
	switch st.Op {
	case OpInit:
		err := r.m.Init()
		r.settle(st, outcomeOf(err), func() { r.symbolError(st, err) })
		if err == nil {
			r.decls = []map[string]source.Span{{}}
		}
	case OpInsert:
		r.insert(st)
	case OpFind:
		r.find(st)
	case OpOpen:
		r.open(st)
	case OpClose:
		err := r.m.CloseSubroutine()
		r.settle(st, outcomeOf(err), func() { r.symbolError(st, err) })
		if err == nil && len(r.decls) > 1 {
			r.decls = r.decls[:len(r.decls)-1]
		}
	case OpWidth:
		r.width(st)
	case OpCall:
		r.call(st)
	case OpPrint:
		if err := r.m.Print(&r.out); err != nil {
			r.log.Warn().Err(err).Msg("print failed")
		}
	case OpRelease:
		err := r.m.Release()
		r.settle(st, outcomeOf(err), func() { r.symbolError(st, err) })
		if err == nil {
			r.decls = nil
		}
	default:
		diag.ReportError(r.rep, diag.ScnUnknownOp, st.Span, fmt.Sprintf("unknown operation %q", st.Op)).
			WithNote(st.Span, "expected one of init, insert, find, open, close, width, call, print, release").
			Emit()
	}
}

// settle compares an outcome with the step's expectation. A failure that was
// not expected is reported through report; a met expectation suppresses it.
func (r *runner) settle(st *Step, got string, report func()) {
	failed := got != outcomeOK && got != outcomeFound
	if st.Expect == got {
		return
	}
	if st.Expect != "" {
		diag.ReportError(r.rep, diag.SymExpectationFailed, st.Span,
			fmt.Sprintf("%s: expected %s, got %s", strings.TrimSpace(st.Op+" "+st.Name), st.Expect, got)).Emit()
	}
	if failed {
		report()
	}
}

func (r *runner) symbolError(st *Step, err error) {
	b := diag.ReportError(r.rep, codeOf(err), st.Span, err.Error())
	if symbols.IsDuplicate(err) {
		if prev, ok := r.declared(len(r.decls)-1, st.Name); ok {
			b.WithNote(prev, "previous declaration here")
		}
	}
	b.Emit()
}

func (r *runner) insert(st *Step) {
	props, err := st.properties()
	if err != nil {
		diag.ReportError(r.rep, diag.ScnBadType, st.Span, err.Error()).Emit()
		return
	}
	hidden, shadows := r.m.Shadows(st.Name)
	rec, err := r.m.Insert(st.Name, props)
	r.settle(st, outcomeOf(err), func() { r.symbolError(st, err) })
	if err != nil {
		return
	}
	r.declare(st.Name, st.Span)
	if shadows {
		r.shadowWarning(st, hidden)
	}
	r.checkProps(st, rec.Props)
}

func (r *runner) open(st *Step) {
	props, err := st.properties()
	if err != nil {
		diag.ReportError(r.rep, diag.ScnBadType, st.Span, err.Error()).Emit()
		return
	}
	hidden, shadows := r.m.Shadows(st.Name)
	err = r.m.OpenSubroutine(st.Name, props)
	r.settle(st, outcomeOf(err), func() { r.symbolError(st, err) })
	if err != nil {
		return
	}
	r.declare(st.Name, st.Span)
	r.decls = append(r.decls, map[string]source.Span{})
	if shadows {
		r.shadowWarning(st, hidden)
	}
	r.checkProps(st, props)
}

func (r *runner) find(st *Step) {
	if !r.requireName(st) || !r.requireActive(st) {
		return
	}
	b, ok := r.m.Lookup(st.Name)
	got := outcomeAbsent
	if ok {
		got = outcomeFound
	}
	r.settle(st, got, func() { r.undeclared(st, st.Name) })
	if ok {
		r.checkProps(st, b.Props)
	}
}

func (r *runner) width(st *Step) {
	if !r.requireActive(st) {
		return
	}
	got := r.m.VariablesWidth()
	r.log.Debug().Int("width", got).Str("scope", r.m.Current().Kind().String()).Msg("variables width")
	if st.Width != nil && *st.Width != got {
		diag.ReportError(r.rep, diag.SymExpectationFailed, st.Span,
			fmt.Sprintf("width: expected %d, got %d", *st.Width, got)).Emit()
	}
}

func (r *runner) call(st *Step) {
	if !r.requireName(st) || !r.requireActive(st) {
		return
	}
	for _, arg := range st.Args {
		if !isIdentifier(arg) {
			continue
		}
		if _, ok := r.m.Lookup(arg); !ok {
			r.undeclared(st, arg)
		}
	}

	b, ok := r.m.Lookup(st.Name)
	if !ok {
		r.settle(st, outcomeUndeclared, func() { r.undeclared(st, st.Name) })
		return
	}
	sub, isSub := b.Props.(symbols.Subroutine)
	if !isSub {
		r.settle(st, outcomeNotCallable, func() {
			bld := diag.ReportError(r.rep, diag.SymNotCallable, st.Span,
				fmt.Sprintf("%q is a %s of type %s, not a function or procedure", st.Name, symbols.Label(b.Props), b.Props.Type()))
			if prev, ok := r.declared(b.Depth, st.Name); ok {
				bld.WithNote(prev, "declared here")
			}
			bld.Emit()
		})
		return
	}
	if len(st.Args) != sub.NParams() {
		r.settle(st, outcomeArity, func() {
			bld := diag.ReportError(r.rep, diag.SymArityMismatch, st.Span,
				fmt.Sprintf("%s %q takes %d argument(s) %s, %d given",
					symbols.Label(sub), st.Name, sub.NParams(), symbols.ParamList(sub.Params), len(st.Args)))
			if prev, ok := r.declared(b.Depth, st.Name); ok {
				bld.WithNote(prev, "declared here")
			}
			bld.Emit()
		})
		return
	}
	r.settle(st, outcomeOK, nil)
	r.checkProps(st, sub)
}

func (r *runner) shadowWarning(st *Step, hidden symbols.Binding) {
	scope := hidden.Scope.String()
	if hidden.Owner != "" {
		scope += " " + hidden.Owner
	}
	b := diag.ReportWarning(r.rep, diag.SymShadowed, st.Span,
		fmt.Sprintf("declaration of %q hides the %s in %s scope", st.Name, symbols.Label(hidden.Props), scope))
	if prev, ok := r.declared(hidden.Depth, hidden.Name); ok {
		b.WithNote(prev, "hidden declaration here")
	}
	b.Emit()
}

func (r *runner) undeclared(st *Step, name string) {
	b := diag.ReportError(r.rep, diag.SymUndeclared, st.Span, fmt.Sprintf("undeclared identifier %q", name))
	if s, ok := suggestName(name, r.m.VisibleNames()); ok {
		b.WithNote(st.Span, fmt.Sprintf("did you mean %q?", s))
	}
	b.Emit()
}

// checkProps compares the offset and nparams assertions of st with props.
func (r *runner) checkProps(st *Step, props symbols.Properties) {
	if st.Offset != nil {
		if v, ok := props.(symbols.Variable); !ok {
			r.mismatch(st, "offset", "a variable", symbols.Label(props))
		} else if v.Offset != *st.Offset {
			r.mismatch(st, "offset", fmt.Sprint(*st.Offset), fmt.Sprint(v.Offset))
		}
	}
	if st.NParams != nil {
		if s, ok := props.(symbols.Subroutine); !ok {
			r.mismatch(st, "nparams", "a subroutine", symbols.Label(props))
		} else if s.NParams() != *st.NParams {
			r.mismatch(st, "nparams", fmt.Sprint(*st.NParams), fmt.Sprint(s.NParams()))
		}
	}
}

func (r *runner) mismatch(st *Step, what, want, got string) {
	diag.ReportError(r.rep, diag.SymExpectationFailed, st.Span,
		fmt.Sprintf("%s of %q: expected %s, got %s", what, st.Name, want, got)).Emit()
}

func (r *runner) requireName(st *Step) bool {
	if st.Name != "" {
		return true
	}
	diag.ReportError(r.rep, diag.ScnMissingName, st.Span, st.Op+" requires a name").Emit()
	return false
}

func (r *runner) requireActive(st *Step) bool {
	if r.m.Current() != nil {
		return true
	}
	r.settle(st, outcomeInvalidState, func() {
		diag.ReportError(r.rep, diag.SymInvalidState, st.Span,
			fmt.Sprintf("%s: symbol table is %s", st.Op, r.m.State())).Emit()
	})
	return false
}

func (r *runner) declare(name string, sp source.Span) {
	if len(r.decls) == 0 {
		return
	}
	r.decls[len(r.decls)-1][name] = sp
}

func (r *runner) declared(depth int, name string) (source.Span, bool) {
	if depth < 0 || depth >= len(r.decls) {
		return source.Span{}, false
	}
	sp, ok := r.decls[depth][name]
	return sp, ok
}

// isIdentifier tells argument names from literals such as 1 or true.
func isIdentifier(s string) bool {
	if s == "" || s == "true" || s == "false" {
		return false
	}
	for i, ch := range s {
		if ch == '_' || unicode.IsLetter(ch) || (i > 0 && unicode.IsDigit(ch)) {
			continue
		}
		return false
	}
	return true
}
