package loader

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/revdeps/pkg/errors"
	"github.com/matzehuels/revdeps/pkg/manifest"
)

const (
	// DefaultPattern matches manifest file names.
	DefaultPattern = "*.json"
	// DefaultConcurrency bounds parallel file reads.
	DefaultConcurrency = 8
)

// Dir loads manifests from files in a directory.
type Dir struct {
	Path string
	// Recursive descends into subdirectories, skipping node_modules and
	// hidden directories.
	Recursive bool
	// Pattern is matched against base names. Defaults to DefaultPattern.
	Pattern     string
	Concurrency int
	Logger      *log.Logger
}

func (d Dir) String() string { return d.Path }

// Load reads and parses every matching file. Files that cannot be read or
// parsed are skipped. The result is ordered by path.
func (d Dir) Load(ctx context.Context) ([]manifest.Manifest, error) {
	logger := discard(d.Logger)

	paths, err := d.Files()
	if err != nil {
		return nil, err
	}

	limit := d.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	results := make([]*manifest.Manifest, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := readManifest(path)
			if err != nil {
				logger.Debug("manifest could not be loaded", "path", path, "err", err)
				return nil
			}
			results[i] = &m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]manifest.Manifest, 0, len(results))
	for _, m := range results {
		if m != nil {
			out = append(out, *m)
		}
	}
	logger.Debug("loaded manifests", "dir", d.Path, "files", len(paths), "manifests", len(out))
	return out, nil
}

// Files lists the manifest files Load would read, sorted.
func (d Dir) Files() ([]string, error) {
	pattern := d.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "pattern %q", pattern)
	}

	info, err := os.Stat(d.Path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "manifest directory %s", d.Path)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s is not a directory", d.Path)
	}

	var paths []string
	err = filepath.WalkDir(d.Path, func(path string, e fs.DirEntry, err error) error {
		if err != nil {
			if path == d.Path {
				return err
			}
			return nil
		}
		if e.IsDir() {
			if path == d.Path {
				return nil
			}
			if !d.Recursive || skipDir(e.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if ok, _ := filepath.Match(pattern, e.Name()); ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "manifest directory %s", d.Path)
	}
	slices.Sort(paths)
	return paths, nil
}

// Matches reports whether path names a file Load would read.
func (d Dir) Matches(path string) bool {
	pattern := d.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	ok, _ := filepath.Match(pattern, filepath.Base(path))
	return ok
}

func skipDir(name string) bool {
	return name == "node_modules" || strings.HasPrefix(name, ".")
}

func readManifest(path string) (manifest.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return manifest.Manifest{}, err
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return manifest.Manifest{}, err
	}
	m.Source = path
	return m, nil
}
