package watcher

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"phpmetrics/internal/config"
	"phpmetrics/internal/finder"
)

// FileWatcher reports debounced batches of changed source files.
type FileWatcher struct {
	watcher     *fsnotify.Watcher
	config      *config.Config
	watchedDirs map[string]string
	debouncer   *debouncer
	mu          sync.Mutex
	done        sync.WaitGroup
}

type FileChangeEvent struct {
	Path      string
	Operation string
	Timestamp time.Time
}

type FileChangeHandler func([]string) error

func NewFileWatcher(cfg *config.Config) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	fw := &FileWatcher{
		watcher:     watcher,
		config:      cfg,
		watchedDirs: make(map[string]string),
		debouncer:   newDebouncer(time.Duration(cfg.Watch.DebounceMs) * time.Millisecond),
	}
	return fw, nil
}

func (fw *FileWatcher) Watch(paths []string, handler FileChangeHandler) error {
	for _, path := range paths {
		if err := fw.addPath(path); err != nil {
			return fmt.Errorf("failed to watch path %s: %w", path, err)
		}
	}
	fw.done.Add(1)
	go fw.eventLoop(handler)
	return nil
}

// addPath watches root and every directory below it that is not excluded.
// A file root watches its directory.
func (fw *FileWatcher) addPath(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fw.addDir(filepath.Dir(root), filepath.Dir(root))
	}
	return filepath.Walk(root, func(walkPath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if walkPath != root && fw.shouldSkipDir(fw.relative(root, walkPath)) {
			return filepath.SkipDir
		}
		return fw.addDir(walkPath, root)
	})
}

func (fw *FileWatcher) addDir(dir, root string) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if _, ok := fw.watchedDirs[dir]; ok {
		return nil
	}
	if err := fw.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to add directory %s to watcher: %w", dir, err)
	}
	fw.watchedDirs[dir] = root
	return nil
}

func (fw *FileWatcher) eventLoop(handler FileChangeHandler) {
	defer fw.done.Done()
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event, handler)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("file watcher error", "error", err)
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event, handler FileChangeHandler) {
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if root, ok := fw.rootOf(filepath.Dir(event.Name)); ok && !fw.shouldSkipDir(fw.relative(root, event.Name)) {
				if err := fw.addPath(event.Name); err != nil {
					slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
				}
			}
			return
		}
	}
	if fw.shouldSkipFile(event.Name) || !fw.isSourceFile(event.Name) {
		return
	}
	changeEvent := FileChangeEvent{
		Path:      event.Name,
		Operation: fw.eventOpToString(event.Op),
		Timestamp: time.Now(),
	}
	slog.Debug("file changed", "path", changeEvent.Path, "op", changeEvent.Operation)
	fw.debouncer.add(changeEvent, handler)
}

func (fw *FileWatcher) rootOf(dir string) (string, bool) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	root, ok := fw.watchedDirs[dir]
	return root, ok
}

// isSourceFile applies the include and exclude patterns relative to the
// watched root.
func (fw *FileWatcher) isSourceFile(path string) bool {
	root, ok := fw.rootOf(filepath.Dir(path))
	if !ok {
		return false
	}
	rel := fw.relative(root, path)
	return finder.Matches(fw.config.Files.Include, rel) && !finder.Matches(fw.config.Files.Exclude, rel)
}

func (fw *FileWatcher) shouldSkipDir(rel string) bool {
	return finder.Matches(fw.config.Files.Exclude, rel) || finder.Matches(fw.config.Files.Exclude, rel+"/")
}

func (fw *FileWatcher) shouldSkipFile(path string) bool {
	filename := filepath.Base(path)
	if strings.HasPrefix(filename, ".") {
		return true
	}
	if strings.HasSuffix(filename, ".tmp") || strings.HasSuffix(filename, "~") {
		return true
	}
	if strings.HasSuffix(filename, ".swp") || strings.HasSuffix(filename, ".swo") {
		return true
	}
	return false
}

func (fw *FileWatcher) relative(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (fw *FileWatcher) eventOpToString(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create == fsnotify.Create:
		return "CREATE"
	case op&fsnotify.Write == fsnotify.Write:
		return "WRITE"
	case op&fsnotify.Remove == fsnotify.Remove:
		return "REMOVE"
	case op&fsnotify.Rename == fsnotify.Rename:
		return "RENAME"
	case op&fsnotify.Chmod == fsnotify.Chmod:
		return "CHMOD"
	default:
		return "UNKNOWN"
	}
}

// Close stops watching and waits for the event loop and any running
// handler to return.
func (fw *FileWatcher) Close() error {
	err := fw.watcher.Close()
	fw.done.Wait()
	fw.debouncer.stop()
	return err
}

func (fw *FileWatcher) GetWatchedPaths() []string {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	paths := make([]string, 0, len(fw.watchedDirs))
	for path := range fw.watchedDirs {
		paths = append(paths, path)
	}
	return paths
}
