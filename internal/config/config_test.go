package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return configFile
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Rasterize.Binary != "pdftoppm" {
		t.Errorf("expected pdftoppm, got %s", cfg.Rasterize.Binary)
	}
	if cfg.PDF.Strict() {
		t.Error("expected relaxed validation by default")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Server.Port = "" }},
		{"zero upload limit", func(c *Config) { c.Server.MaxUploadMB = 0 }},
		{"unknown validation", func(c *Config) { c.PDF.Validation = "loose" }},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }},
		{"zero dpi", func(c *Config) { c.Rasterize.DPI = 0 }},
		{"negative rate", func(c *Config) { c.RateLimit.RequestsPerSecond = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLogCfg_SlogLevel(t *testing.T) {
	if got := (LogCfg{Level: "debug"}).SlogLevel().String(); got != "DEBUG" {
		t.Errorf("expected DEBUG, got %s", got)
	}
	if got := (LogCfg{Level: "nonsense"}).SlogLevel().String(); got != "INFO" {
		t.Errorf("expected INFO fallback, got %s", got)
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		t.Setenv("TEST_UPLOAD_ROOT", "/srv/uploads")

		result := ResolveEnvVars("${TEST_UPLOAD_ROOT}/pdf")
		if result != "/srv/uploads/pdf" {
			t.Errorf("expected /srv/uploads/pdf, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}")
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		result := ResolveEnvVars("literal-value")
		if result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})
}

func TestNewManager(t *testing.T) {
	t.Run("loads from config file", func(t *testing.T) {
		configFile := writeConfig(t, `
server:
  port: "9090"
uploads:
  session_ttl: 30m
rasterize:
  dpi: 300
`)

		mgr, err := NewManager(configFile)
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}

		cfg := mgr.Get()
		if cfg.Server.Port != "9090" {
			t.Errorf("expected port 9090, got %s", cfg.Server.Port)
		}
		if cfg.Uploads.SessionTTL != 30*time.Minute {
			t.Errorf("expected 30m ttl, got %s", cfg.Uploads.SessionTTL)
		}
		if cfg.Rasterize.DPI != 300 {
			t.Errorf("expected dpi 300, got %d", cfg.Rasterize.DPI)
		}
		// untouched keys keep their defaults
		if cfg.Server.Host != "127.0.0.1" {
			t.Errorf("expected default host, got %s", cfg.Server.Host)
		}
		if mgr.ConfigFile() != configFile {
			t.Errorf("expected config file %s, got %s", configFile, mgr.ConfigFile())
		}
	})

	t.Run("runs on defaults without a file", func(t *testing.T) {
		mgr, err := NewManager("", t.TempDir())
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}
		if mgr.Get().Server.Port != "8080" {
			t.Errorf("expected default port, got %s", mgr.Get().Server.Port)
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("PDFOMATICO_SERVER_PORT", "7777")
		t.Setenv("PDFOMATICO_LOG_LEVEL", "debug")
		configFile := writeConfig(t, "server:\n  port: \"9090\"\n")

		mgr, err := NewManager(configFile)
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}
		cfg := mgr.Get()
		if cfg.Server.Port != "7777" {
			t.Errorf("expected env port 7777, got %s", cfg.Server.Port)
		}
		if cfg.Log.Level != "debug" {
			t.Errorf("expected env log level debug, got %s", cfg.Log.Level)
		}
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		configFile := writeConfig(t, "pdf:\n  validation: sometimes\n")
		if _, err := NewManager(configFile); err == nil {
			t.Error("expected error for invalid validation mode")
		}
	})

	t.Run("rejects malformed file", func(t *testing.T) {
		configFile := writeConfig(t, "server: [unclosed\n")
		if _, err := NewManager(configFile); err == nil {
			t.Error("expected error for malformed yaml")
		}
	})
}

func TestManager_Reload(t *testing.T) {
	configFile := writeConfig(t, "log:\n  level: info\n")

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	var calls atomic.Int32
	mgr.OnChange(func(cfg *Config) {
		calls.Add(1)
	})

	if err := os.WriteFile(configFile, []byte("log:\n  level: debug\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}
	if err := mgr.Reload(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if mgr.Get().Log.Level != "debug" {
		t.Errorf("expected debug after reload, got %s", mgr.Get().Log.Level)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 callback, got %d", calls.Load())
	}

	// an invalid file keeps the last good config
	if err := os.WriteFile(configFile, []byte("log:\n  format: xml\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}
	if err := mgr.Reload(); err == nil {
		t.Error("expected reload error")
	}
	if mgr.Get().Log.Format != "text" {
		t.Errorf("expected previous format kept, got %s", mgr.Get().Log.Format)
	}
	if calls.Load() != 1 {
		t.Errorf("callback should not fire on a failed reload, got %d", calls.Load())
	}
}

func TestManager_Get_ThreadSafe(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "server:\n  port: \"9000\"\n"))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				_ = mgr.Get().Server.Port
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestManager_WatchConfig(t *testing.T) {
	configFile := writeConfig(t, "rasterize:\n  dpi: 100\n")

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	if mgr.Get().Rasterize.DPI != 100 {
		t.Fatalf("initial dpi mismatch: got %d", mgr.Get().Rasterize.DPI)
	}

	var callbackCount atomic.Int32
	var lastDPI atomic.Int32
	mgr.OnChange(func(cfg *Config) {
		callbackCount.Add(1)
		lastDPI.Store(int32(cfg.Rasterize.DPI))
	})

	mgr.WatchConfig(nil)

	// Give fsnotify time to set up the watcher
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(configFile, []byte("rasterize:\n  dpi: 200\n"), 0644); err != nil {
		t.Fatalf("failed to write updated config file: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if lastDPI.Load() == 200 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if callbackCount.Load() == 0 {
		t.Fatal("callback was not invoked after config file change")
	}
	if got := mgr.Get().Rasterize.DPI; got != 200 {
		t.Errorf("config not updated: expected 200, got %d", got)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	mgr, err := NewManager(path)
	if err != nil {
		t.Fatalf("written default should load: %v", err)
	}
	cfg := mgr.Get()
	want := DefaultConfig()
	if cfg.Server.Port != want.Server.Port || cfg.Rasterize.DPI != want.Rasterize.DPI {
		t.Errorf("round-trip mismatch: got %+v", cfg)
	}
	if cfg.Uploads.SessionTTL != want.Uploads.SessionTTL {
		t.Errorf("ttl mismatch: got %s, want %s", cfg.Uploads.SessionTTL, want.Uploads.SessionTTL)
	}
}
