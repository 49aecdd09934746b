package driver

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"amplc/internal/project"
	"amplc/internal/source"
)

// ScenarioExt is the extension of scenario files found in directories.
const ScenarioExt = ".toml"

// listScenarios возвращает отсортированный список сценариев в директории.
// ampl.toml пропускается: это конфигурация, а не сценарий.
func listScenarios(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ScenarioExt) || d.Name() == project.ManifestName {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

// CollectScenarios expands directories in args into the scenario files they
// contain. Plain files are kept in argument order.
func CollectScenarios(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			// missing files surface later as load diagnostics
			out = append(out, arg)
			continue
		}
		files, err := listScenarios(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}

// RunFiles runs every scenario in paths concurrently, each against its own
// symbol table manager. Results are returned in paths order.
func RunFiles(ctx context.Context, paths []string, opts Options, jobs int) (*source.FileSet, []*Result, error) {
	fileSet := source.NewFileSet()
	if len(paths) == 0 {
		return fileSet, nil, nil
	}

	// FileSet не потокобезопасен: загружаем всё заранее
	results := make([]*Result, len(paths))
	ids := make([]source.FileID, len(paths))
	loaded := make([]bool, len(paths))
	for i, path := range paths {
		id, err := fileSet.Load(path)
		if err != nil {
			results[i] = loadFailure(fileSet, path, err, opts)
			continue
		}
		ids[i] = id
		loaded[i] = true
	}

	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i := range paths {
		if !loaded[i] {
			continue
		}
		g.Go(func() error {
			res, err := Run(gctx, fileSet, ids[i], opts)
			// индекс i уникален, мьютекс не нужен
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fileSet, results, err
	}
	return fileSet, results, nil
}
