// Package finder selects the source files a run analyzes.
package finder

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"phpmetrics/internal/config"
)

// Find walks every path and returns the matching files, sorted and
// without duplicates. A path naming a file is always included.
func Find(paths []string, cfg config.FilesConfig) ([]string, error) {
	f := &finder{
		cfg:     cfg,
		seen:    make(map[string]bool),
		visited: make(map[string]bool),
	}
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if !info.IsDir() {
			f.add(path, info)
			continue
		}
		if err := f.walk(path); err != nil {
			return nil, fmt.Errorf("failed to collect files from %s: %w", path, err)
		}
	}
	sort.Strings(f.files)
	return f.files, nil
}

type finder struct {
	cfg     config.FilesConfig
	files   []string
	seen    map[string]bool
	visited map[string]bool
}

func (f *finder) walk(root string) error {
	if real, err := filepath.EvalSymlinks(root); err == nil {
		if f.visited[real] {
			return nil
		}
		f.visited[real] = true
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := relative(root, path)

		if d.Type()&fs.ModeSymlink != 0 {
			if !f.cfg.FollowSymlinks {
				return nil
			}
			info, err := os.Stat(path)
			if err != nil {
				slog.Debug("skipping broken symlink", "path", path, "error", err)
				return nil
			}
			if info.IsDir() {
				if f.excluded(rel, true) {
					return nil
				}
				return f.walk(path)
			}
			if f.included(rel) {
				f.add(path, info)
			}
			return nil
		}

		if d.IsDir() {
			if path != root && f.excluded(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !f.included(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		f.add(path, info)
		return nil
	})
}

func (f *finder) add(path string, info fs.FileInfo) {
	if f.cfg.MaxFileSize > 0 && info.Size() > int64(f.cfg.MaxFileSize)*1024 {
		slog.Debug("skipping large file", "path", path, "size", info.Size())
		return
	}
	path = filepath.Clean(path)
	if f.seen[path] {
		return
	}
	f.seen[path] = true
	f.files = append(f.files, path)
}

func (f *finder) included(rel string) bool {
	return Matches(f.cfg.Include, rel) && !f.excluded(rel, false)
}

func (f *finder) excluded(rel string, dir bool) bool {
	if Matches(f.cfg.Exclude, rel) {
		return true
	}
	return dir && Matches(f.cfg.Exclude, rel+"/")
}

// Matches reports whether the slash-separated path matches any pattern.
// Malformed patterns never match.
func Matches(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return true
		}
	}
	return false
}

func relative(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}
