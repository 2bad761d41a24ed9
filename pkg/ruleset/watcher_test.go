package ruleset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"mercator-hq/basicrules/pkg/telemetry/logging"
)

func TestDebouncer_CollapsesBursts(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	var calls atomic.Int32
	var last atomic.Int32
	for i := 1; i <= 5; i++ {
		n := int32(i)
		d.Trigger(func() {
			calls.Add(1)
			last.Store(n)
		})
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(200 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 callback, got %d", got)
	}
	if got := last.Load(); got != 5 {
		t.Errorf("expected latest callback to run, got #%d", got)
	}
}

func TestDebouncer_Stop(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	d.Stop()
	d.Trigger(func() { calls.Add(1) })

	time.Sleep(100 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Errorf("expected no callbacks after Stop, got %d", got)
	}
}

// waitFor polls cond until it holds or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestFileWatcher_ReloadsEngine(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "rules.yaml", "rules: [{name: first, expression: {not: [false]}}]")

	source := NewFileSource(&FileSourceConfig{Path: dir}, nil)
	engine := NewEngine(source, WithLogger(logging.NewNop()))
	if err := engine.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	watcher, err := NewFileWatcher(&FileWatcherConfig{
		Path:             dir,
		DebounceInterval: 20 * time.Millisecond,
		SkipHidden:       true,
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("NewFileWatcher() error = %v", err)
	}
	defer watcher.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- engine.Watch(ctx, watcher) }()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)

	writeFile(t, dir, "more.yaml", "rules: [{name: second, expression: {not: [true]}}]")
	if !waitFor(t, 3*time.Second, func() bool { return engine.Ruleset().Len() == 2 }) {
		t.Fatalf("ruleset was not reloaded, rules = %v", engine.Ruleset().Names())
	}

	// a broken file keeps the previous ruleset
	writeFile(t, dir, "broken.yaml", "rules: [{name: third}]")
	if !waitFor(t, 3*time.Second, func() bool {
		_, err := engine.LastLoad()
		return err != nil
	}) {
		t.Fatal("expected a failed reload")
	}
	if engine.Ruleset().Len() != 2 {
		t.Errorf("failed reload replaced the ruleset")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch() did not return after cancel")
	}
}

func TestFileWatcher_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "rules.yaml", "rules: [{name: a, expression: {not: [false]}}]")

	watcher, err := NewFileWatcher(&FileWatcherConfig{Path: path, DebounceInterval: 20 * time.Millisecond}, logging.NewNop())
	if err != nil {
		t.Fatalf("NewFileWatcher() error = %v", err)
	}

	var changes atomic.Int32
	go func() {
		_ = watcher.Watch(context.Background(), func() error {
			changes.Add(1)
			return nil
		})
	}()
	time.Sleep(100 * time.Millisecond)

	// siblings of the watched file are ignored
	writeFile(t, dir, "other.yaml", "rules: []")
	time.Sleep(150 * time.Millisecond)
	if got := changes.Load(); got != 0 {
		t.Errorf("sibling change triggered %d reloads", got)
	}

	if err := os.WriteFile(path, []byte("rules: [{name: b, expression: {not: [true]}}]"), 0644); err != nil {
		t.Fatalf("failed to rewrite file: %v", err)
	}
	if !waitFor(t, 3*time.Second, func() bool { return changes.Load() > 0 }) {
		t.Error("change to watched file was not reported")
	}

	if err := watcher.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestFileWatcher_Errors(t *testing.T) {
	t.Run("missing path", func(t *testing.T) {
		watcher, err := NewFileWatcher(&FileWatcherConfig{Path: filepath.Join(t.TempDir(), "missing")}, nil)
		if err != nil {
			t.Fatalf("NewFileWatcher() error = %v", err)
		}
		defer watcher.Stop()

		if err := watcher.Watch(context.Background(), func() error { return nil }); err == nil {
			t.Error("expected error for missing path")
		}
	})

	t.Run("stop without start", func(t *testing.T) {
		watcher, err := NewFileWatcher(&FileWatcherConfig{Path: t.TempDir()}, nil)
		if err != nil {
			t.Fatalf("NewFileWatcher() error = %v", err)
		}
		if err := watcher.Stop(); err != nil {
			t.Errorf("Stop() error = %v", err)
		}
		if err := watcher.Stop(); err != nil {
			t.Errorf("second Stop() error = %v", err)
		}
	})

	t.Run("watch twice", func(t *testing.T) {
		watcher, err := NewFileWatcher(&FileWatcherConfig{Path: t.TempDir()}, nil)
		if err != nil {
			t.Fatalf("NewFileWatcher() error = %v", err)
		}
		defer watcher.Stop()

		go func() { _ = watcher.Watch(context.Background(), func() error { return nil }) }()
		time.Sleep(50 * time.Millisecond)

		if err := watcher.Watch(context.Background(), func() error { return nil }); !errors.Is(err, ErrWatcherRunning) {
			t.Errorf("Watch() error = %v, want ErrWatcherRunning", err)
		}
	})
}
