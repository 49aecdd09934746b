package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRunLifecycle(t *testing.T) {
	out, _, err := execute(t, "run", "--color=off", "--config", writeConfig(t, ""), "testdata/scenarios/lifecycle.toml")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	for _, want := range []string{
		"== testdata/scenarios/lifecycle.toml ==",
		"scope global: 3 entries, width 2",
		"  f     function  integer  params (integer, integer)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output misses %q:\n%s", want, out)
		}
	}
}

func TestRunReportsFailures(t *testing.T) {
	out, _, err := execute(t, "run", "--color=off", "--format=short", "--config", writeConfig(t, ""), "testdata/scenarios")
	if !errors.Is(err, errFailed) {
		t.Fatalf("expected failure, got %v\n%s", err, out)
	}
	for _, want := range []string{
		`error SYM3001 testdata/scenarios/errors.toml:11:1 insert: duplicate name "count"`,
		`note SYM3001 testdata/scenarios/errors.toml:6:1 previous declaration here`,
		`error SYM3005 testdata/scenarios/errors.toml:16:1 undeclared identifier "Count"`,
		`note SYM3005 testdata/scenarios/errors.toml:16:1 did you mean "count"?`,
		"2 scenario(s), 1 failed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output misses %q:\n%s", want, out)
		}
	}
}

func TestRunBytesTargetFromConfig(t *testing.T) {
	cfg := writeConfig(t, "[layout]\ntarget = \"bytes\"\n")
	out, _, err := execute(t, "run", "--color=off", "--format=short", "--no-print", "--config", cfg, "testdata/scenarios/lifecycle.toml")
	if !errors.Is(err, errFailed) {
		t.Fatalf("bytes target must break the slot offsets: %v\n%s", err, out)
	}
	if !strings.Contains(out, `offset of "y": expected 1, got 4`) {
		t.Fatalf("unexpected output:\n%s", out)
	}

	// флаг сильнее файла
	out, _, err = execute(t, "run", "--color=off", "--no-print", "--config", cfg, "--target", "jvm", "testdata/scenarios/lifecycle.toml")
	if err != nil {
		t.Fatalf("--target jvm: %v\n%s", err, out)
	}
}

func TestDumpAndInspect(t *testing.T) {
	dir := t.TempDir()
	_, _, err := execute(t, "run", "--color=off", "--no-print", "--config", writeConfig(t, ""), "--dump", dir, "testdata/scenarios/errors.toml")
	if !errors.Is(err, errFailed) {
		t.Fatalf("run: %v", err)
	}
	out, _, err := execute(t, "inspect", "--color=off", filepath.Join(dir, "errors.mp"))
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{"errors (testdata/scenarios/errors.toml)", "scope global", "count", "diagnostics: SYM3001, SYM3005"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect misses %q:\n%s", want, out)
		}
	}
}

func TestDumpRefusesSameBaseName(t *testing.T) {
	src := t.TempDir()
	for _, rel := range []string{"x.toml", filepath.Join("sub", "x.toml")} {
		path := filepath.Join(src, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("[[step]]\nop = \"init\"\n"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	_, _, err := execute(t, "run", "--color=off", "--no-print", "--config", writeConfig(t, ""), "--dump", t.TempDir(), src)
	if err == nil || errors.Is(err, errFailed) || !strings.Contains(err.Error(), "both dump to") {
		t.Fatalf("expected a dump collision error, got %v", err)
	}
}

func TestRejectsBadFlags(t *testing.T) {
	cases := [][]string{
		{"run", "--color=sometimes", "testdata/scenarios"},
		{"run", "--format=xml", "testdata/scenarios"},
		{"run", "--lookup=global", "--config", writeConfig(t, ""), "testdata/scenarios"},
		{"version", "--format=yaml"},
	}
	for _, args := range cases {
		if _, _, err := execute(t, args...); err == nil || errors.Is(err, errFailed) {
			t.Errorf("%v: expected a usage error, got %v", args, err)
		}
	}
}

func TestVersionJSON(t *testing.T) {
	out, _, err := execute(t, "version", "--format=json")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, `"tool": "amplc"`) || !strings.Contains(out, `"version":`) {
		t.Fatalf("unexpected version output:\n%s", out)
	}
}

func writeConfig(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ampl.toml")
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProfilingFlags(t *testing.T) {
	dir := t.TempDir()
	cpu := filepath.Join(dir, "cpu.pprof")
	mem := filepath.Join(dir, "mem.pprof")
	_, _, err := execute(t, "version", "--color=off", "--cpuprofile", cpu, "--memprofile", mem)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	for _, p := range []string{cpu, mem} {
		if info, err := os.Stat(p); err != nil || info.Size() == 0 {
			t.Errorf("%s: missing or empty profile (%v)", p, err)
		}
	}
}
