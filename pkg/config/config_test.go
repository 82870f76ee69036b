package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultSystemConfig(t *testing.T) {
	cfg := DefaultSystemConfig()

	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d", cfg.MaxRetries)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if !cfg.EnableTools {
		t.Error("EnableTools should default to true")
	}
	if cfg.EventBuffer <= 0 {
		t.Errorf("EventBuffer = %d", cfg.EventBuffer)
	}
}

func TestLoadSystemConfigMissingFileFallsBack(t *testing.T) {
	cfg := LoadSystemConfig(filepath.Join(t.TempDir(), "no-such.json"))
	if cfg == nil || cfg.MaxRetries != 3 {
		t.Errorf("missing file must yield defaults, got %+v", cfg)
	}
}

func TestLoadSystemConfigCorruptFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.json")
	os.WriteFile(path, []byte("{not json"), 0644)

	cfg := LoadSystemConfig(path)
	if cfg == nil || cfg.LogLevel != "info" {
		t.Errorf("corrupt file must yield defaults, got %+v", cfg)
	}
}

func TestLoadSystemConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.json")
	os.WriteFile(path, []byte(`{"log_level":"debug","max_retries":7,"enable_tools":false}`), 0644)

	cfg := LoadSystemConfig(path)
	if cfg.LogLevel != "debug" || cfg.MaxRetries != 7 || cfg.EnableTools {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	// 未指定的欄位維持預設
	if cfg.RetryDelayMs != 500 {
		t.Errorf("RetryDelayMs = %d, want default 500", cfg.RetryDelayMs)
	}
}

func TestWatchReloadSignalsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.json")
	os.WriteFile(path, []byte(`{}`), 0644)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloads := WatchReload(ctx, path)

	os.WriteFile(path, []byte(`{"log_level":"debug"}`), 0644)

	select {
	case changed, ok := <-reloads:
		if !ok {
			t.Fatal("reload channel closed before any signal")
		}
		if filepath.Base(changed) != "system.json" {
			t.Errorf("changed file = %q", changed)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload signal after write")
	}
}

func TestWatchReloadNothingWatchable(t *testing.T) {
	reloads := WatchReload(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	if _, ok := <-reloads; ok {
		t.Fatal("channel must close when no file can be watched")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Error("empty llm config must fail validation")
	}

	cfg.LLM = []byte(`[{"type":"gemini-live","models":["m"]}]`)
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}
