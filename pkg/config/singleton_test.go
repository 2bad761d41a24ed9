package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSingleton(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })
	SetConfig(nil)

	if GetConfig() != nil {
		t.Fatal("expected nil config before Initialize")
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected MustGetConfig to panic")
			}
		}()
		MustGetConfig()
	}()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("rules:\n  path: ./a\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if err := Initialize(path); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if got := MustGetConfig().Rules.Path; got != "./a" {
		t.Errorf("expected ./a, got %q", got)
	}

	// A failing reload keeps the previous configuration
	if err := os.WriteFile(path, []byte("telemetry:\n  logging:\n    format: xml\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if err := ReloadConfig(path); err == nil {
		t.Fatal("expected reload error")
	}
	if got := GetConfig().Rules.Path; got != "./a" {
		t.Errorf("expected previous config to remain, got %q", got)
	}

	if err := os.WriteFile(path, []byte("rules:\n  path: ./b\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if err := ReloadConfig(path); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if got := GetConfig().Rules.Path; got != "./b" {
		t.Errorf("expected ./b, got %q", got)
	}
}
