package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"amplc/internal/prof"
	"amplc/internal/version"
)

// app holds the persistent flags and the logger shared by subcommands.
type app struct {
	colorMode      string
	logLevel       string
	configPath     string
	timings        bool
	maxDiagnostics int
	profiles       prof.Options

	logger  zerolog.Logger
	session *prof.Session
}

// errFailed is returned when diagnostics were already printed; main only
// sets the exit status.
var errFailed = errors.New("failed")

func newRootCmd() *cobra.Command {
	_, root := newApp()
	return root
}

func newApp() (*app, *cobra.Command) {
	a := &app{logger: zerolog.Nop()}
	root := &cobra.Command{
		Use:   "amplc",
		Short: "AMPL-2023 symbol table toolkit",
		Long: `amplc drives the AMPL-2023 compiler symbol table from scenario files:
declare variables and subroutines, open and close scopes, and check what
each lookup sees.`,
		Version:            version.Current().Version,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	// Глобальные флаги
	pf := root.PersistentFlags()
	pf.StringVar(&a.colorMode, "color", "auto", "colorize output (auto|on|off)")
	pf.StringVar(&a.logLevel, "log-level", "warn", "log level (trace|debug|info|warn|error|disabled)")
	pf.StringVar(&a.configPath, "config", "", "path to ampl.toml (default: search upwards from the working directory)")
	pf.BoolVar(&a.timings, "timings", false, "show timing information")
	pf.IntVar(&a.maxDiagnostics, "max-diagnostics", 100, "maximum number of diagnostics per scenario (0 = unlimited)")
	pf.StringVar(&a.profiles.CPU, "cpuprofile", "", "write a CPU profile to file")
	pf.StringVar(&a.profiles.Mem, "memprofile", "", "write a heap profile to file on exit")
	pf.StringVar(&a.profiles.Trace, "trace", "", "write a runtime execution trace to file")

	root.AddCommand(newRunCmd(a), newInspectCmd(a), newVersionCmd(a))
	return a, root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	switch strings.ToLower(a.colorMode) {
	case "auto", "on", "off":
	default:
		return fmt.Errorf("invalid --color %q (expected auto|on|off)", a.colorMode)
	}
	level, err := zerolog.ParseLevel(strings.ToLower(a.logLevel))
	if err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", a.logLevel, err)
	}
	a.logger = newLogger(cmd.ErrOrStderr(), level, !a.colorFor(cmd.ErrOrStderr()))
	if a.profiles.Enabled() && a.session == nil {
		session, err := prof.Start(a.profiles)
		if err != nil {
			return fmt.Errorf("profiling: %w", err)
		}
		a.session = session
		a.logger.Debug().Str("cpu", a.profiles.CPU).Str("mem", a.profiles.Mem).Str("trace", a.profiles.Trace).Msg("profiling started")
	}
	return nil
}

func (a *app) teardown(*cobra.Command, []string) error { return a.finish() }

// finish stops profiling. PersistentPostRunE is skipped when RunE fails,
// so main calls it again; the second call is a no-op.
func (a *app) finish() error {
	session := a.session
	a.session = nil
	if err := session.Stop(); err != nil {
		return fmt.Errorf("profiling: %w", err)
	}
	return nil
}

func newLogger(w io.Writer, level zerolog.Level, noColor bool) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: w, NoColor: noColor, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// colorFor resolves --color for the given stream.
func (a *app) colorFor(w io.Writer) bool {
	switch strings.ToLower(a.colorMode) {
	case "on":
		return true
	case "off":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && isTerminal(f)
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) // #nosec G115 -- fd fits in int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	a, root := newApp()
	err := root.ExecuteContext(ctx)
	if ferr := a.finish(); err == nil {
		err = ferr
	}
	stop()
	if err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, "amplc:", err)
		}
		os.Exit(1)
	}
}
