package ruleset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"mercator-hq/basicrules/pkg/config"
)

// ErrWatcherRunning is returned when Watch is called twice.
var ErrWatcherRunning = errors.New("watcher already running")

// FileWatcherConfig contains configuration for the file watcher.
type FileWatcherConfig struct {
	// Path is the rule file or directory to watch
	Path string

	// DebounceInterval is the quiet period after the last change before a
	// reload is triggered (default: 100ms)
	DebounceInterval time.Duration

	// Extensions is the list of file extensions that trigger a reload
	Extensions []string

	// SkipHidden ignores dot files and dot directories
	SkipHidden bool
}

// FileWatcherConfigFrom builds a watcher configuration from the rules section.
func FileWatcherConfigFrom(cfg config.RulesConfig) *FileWatcherConfig {
	return &FileWatcherConfig{
		Path:             cfg.Path,
		DebounceInterval: cfg.DebounceInterval,
		Extensions:       cfg.Extensions,
		SkipHidden:       true,
	}
}

// FileWatcher watches rule files and triggers debounced reloads.
//
// A single file is watched through its parent directory so that editors
// replacing the file by rename keep triggering events. Directories are
// watched recursively, including directories created later.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	config   *FileWatcherConfig
	debounce *Debouncer

	// file is set when watching a single file
	file string

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewFileWatcher creates a new file watcher.
func NewFileWatcher(cfg *FileWatcherConfig, logger *slog.Logger) (*FileWatcher, error) {
	if cfg.DebounceInterval <= 0 {
		cfg.DebounceInterval = config.DefaultRulesDebounceInterval
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = config.DefaultRulesExtensions()
	}
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher:  watcher,
		logger:   logger,
		config:   cfg,
		debounce: NewDebouncer(cfg.DebounceInterval),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch blocks, calling onChange after every debounced burst of relevant
// file events, until ctx is done or Stop is called. Errors returned by
// onChange are logged and watching continues.
func (fw *FileWatcher) Watch(ctx context.Context, onChange func() error) error {
	fw.mu.Lock()
	if fw.running {
		fw.mu.Unlock()
		return ErrWatcherRunning
	}
	fw.running = true
	fw.mu.Unlock()

	defer close(fw.doneCh)

	if err := fw.addPath(fw.config.Path); err != nil {
		return fmt.Errorf("failed to watch path: %w", err)
	}

	fw.logger.Info("File watcher started",
		"path", fw.config.Path,
		"debounce_ms", fw.config.DebounceInterval.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			fw.logger.Info("File watcher stopped (context cancelled)")
			return nil

		case <-fw.stopCh:
			fw.logger.Info("File watcher stopped")
			return nil

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}

			fw.trackDirectory(event)
			if !fw.shouldProcessEvent(event) {
				continue
			}

			fw.logger.Debug("File event detected",
				"path", event.Name,
				"op", event.Op.String(),
			)

			fw.debounce.Trigger(func() {
				fw.logger.Info("Triggering rules reload", "path", event.Name)
				if err := onChange(); err != nil {
					fw.logger.Error("Rules reload failed", "error", err)
				}
			})

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			fw.logger.Error("File watcher error", "error", err)
		}
	}
}

// Stop stops a running watcher and releases its resources. It is safe to
// call Stop on a watcher that was never started.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	running := fw.running
	select {
	case <-fw.stopCh:
		// already stopped
		fw.mu.Unlock()
		return nil
	default:
		close(fw.stopCh)
	}
	fw.mu.Unlock()

	if running {
		<-fw.doneCh
	}
	fw.debounce.Stop()

	if err := fw.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// addPath adds a file (through its directory) or a directory tree.
func (fw *FileWatcher) addPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		fw.file = abs
		return fw.watcher.Add(filepath.Dir(abs))
	}
	return fw.addDirectory(path)
}

// addDirectory adds a directory and all subdirectories to the watcher.
func (fw *FileWatcher) addDirectory(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if fw.config.SkipHidden && strings.HasPrefix(d.Name(), ".") && path != dir {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %q: %w", path, err)
		}
		fw.logger.Debug("Watching directory", "path", path)
		return nil
	})
}

// trackDirectory starts watching directories created under a watched tree.
func (fw *FileWatcher) trackDirectory(event fsnotify.Event) {
	if fw.file != "" || !event.Has(fsnotify.Create) {
		return
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.IsDir() {
		return
	}
	if fw.config.SkipHidden && strings.HasPrefix(filepath.Base(event.Name), ".") {
		return
	}
	if err := fw.addDirectory(event.Name); err != nil {
		fw.logger.Warn("Failed to watch new directory", "path", event.Name, "error", err)
	}
}

// shouldProcessEvent determines if an event should trigger a reload.
func (fw *FileWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}

	if fw.file != "" {
		abs, err := filepath.Abs(event.Name)
		return err == nil && abs == fw.file
	}

	if !hasExtension(event.Name, fw.config.Extensions) {
		return false
	}
	if fw.config.SkipHidden && strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	return true
}
