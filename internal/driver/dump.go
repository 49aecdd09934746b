package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"amplc/internal/symbols"
)

// Current schema version - increment when DumpPayload format changes
const dumpSchemaVersion uint16 = 1

// DumpExt is the extension of snapshot dumps.
const DumpExt = ".mp"

// DumpPayload is the on-disk form of a finished scenario.
type DumpPayload struct {
	Schema   uint16           `msgpack:"schema"`
	Scenario string           `msgpack:"scenario"`
	Path     string           `msgpack:"path"`
	Steps    int              `msgpack:"steps"`
	Codes    []string         `msgpack:"codes,omitempty"`
	Snapshot symbols.Snapshot `msgpack:"snapshot"`
}

var (
	// ErrDumpSchema is returned for dumps written by an incompatible version.
	ErrDumpSchema = errors.New("unsupported dump schema")
	// ErrDumpCollision is returned when two scenarios map to one dump file.
	ErrDumpCollision = errors.New("dump file already written for another scenario")
)

// NewDumpPayload captures res for writing.
func NewDumpPayload(res *Result) *DumpPayload {
	p := &DumpPayload{
		Schema:   dumpSchemaVersion,
		Scenario: res.Name,
		Path:     res.Path,
		Steps:    res.Steps,
		Snapshot: res.Snapshot,
	}
	if res.Bag != nil {
		for _, c := range res.Bag.Codes() {
			p.Codes = append(p.Codes, c.ID())
		}
	}
	return p
}

// DumpPath is where WriteDump stores the dump of the scenario at path.
func DumpPath(dir, path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return filepath.Join(dir, base+DumpExt)
}

// Dumper writes the dumps of one run into a directory and refuses to let a
// scenario overwrite another one's dump, e.g. x.toml and sub/x.toml.
type Dumper struct {
	dir    string
	owners map[string]string // dump file -> scenario path
}

func NewDumper(dir string) *Dumper {
	return &Dumper{dir: dir, owners: make(map[string]string)}
}

// Write dumps res. Writing the same scenario again replaces its dump.
func (d *Dumper) Write(res *Result) (string, error) {
	p := DumpPath(d.dir, res.Path)
	if owner, ok := d.owners[p]; ok && owner != res.Path {
		return "", fmt.Errorf("%w: %s and %s both dump to %s", ErrDumpCollision, owner, res.Path, p)
	}
	written, err := WriteDump(d.dir, res)
	if err != nil {
		return "", err
	}
	d.owners[p] = res.Path
	return written, nil
}

// WriteDump serializes res into dir and returns the file written.
func WriteDump(dir string, res *Result) (written string, err error) {
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	p := DumpPath(dir, res.Path)
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return "", err
	}
	tmp := f.Name()
	defer func() {
		// после успешного rename файла уже нет
		if rmErr := os.Remove(tmp); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(NewDumpPayload(res)); err != nil {
		_ = f.Close()
		return "", err
	}
	if err = f.Close(); err != nil {
		return "", err
	}
	// Атомарная замена
	if err = os.Rename(tmp, p); err != nil {
		return "", err
	}
	return p, nil
}

// ReadDump decodes a dump written by WriteDump.
func ReadDump(path string) (payload *DumpPayload, err error) {
	// #nosec G304 -- path is provided by the caller
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	var out DumpPayload
	if err = msgpack.NewDecoder(f).Decode(&out); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if out.Schema != dumpSchemaVersion {
		return nil, fmt.Errorf("%s: %w %d (want %d)", path, ErrDumpSchema, out.Schema, dumpSchemaVersion)
	}
	return &out, nil
}
