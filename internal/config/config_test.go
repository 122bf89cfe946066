package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Graphics.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Graphics.Height)
	}
	if !cfg.Graphics.VSync {
		t.Error("expected vsync to be true by default")
	}

	if cfg.Server.URL != "http://localhost:8080" {
		t.Errorf("expected server url http://localhost:8080, got %s", cfg.Server.URL)
	}
	if cfg.Server.Token != "" {
		t.Error("expected anonymous (empty token) by default")
	}
	if cfg.Server.RequestTimeout != 30*time.Second {
		t.Errorf("expected timeout 30s, got %v", cfg.Server.RequestTimeout)
	}

	if cfg.Viewer.EnableDamping {
		t.Error("expected damping to be disabled by default")
	}
	if !cfg.Viewer.HideOffscreen {
		t.Error("expected off-screen markers to be hidden by default")
	}

	if cfg.Cache.TTL != time.Hour {
		t.Errorf("expected cache ttl 1h, got %v", cfg.Cache.TTL)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
graphics:
  width: 1920
  height: 1080
  fullscreen: true
  vsync: false

server:
  url: "https://guides.example.com/api"
  token: "abc123"
  request_timeout: 5s

viewer:
  model_id: 42
  enable_damping: true
  damping_factor: 0.1
  hide_offscreen: false

cache:
  ttl: 30m
  cleanup_interval: 1m

logging:
  level: "debug"
  log_file: "viewer.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 || cfg.Graphics.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
	}
	if !cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be true")
	}
	if cfg.Server.URL != "https://guides.example.com/api" {
		t.Errorf("unexpected server url %s", cfg.Server.URL)
	}
	if cfg.Server.Token != "abc123" {
		t.Errorf("expected token abc123, got %s", cfg.Server.Token)
	}
	if cfg.Server.RequestTimeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Viewer.ModelID != 42 {
		t.Errorf("expected model id 42, got %d", cfg.Viewer.ModelID)
	}
	if !cfg.Viewer.EnableDamping || cfg.Viewer.DampingFactor != 0.1 {
		t.Errorf("unexpected damping settings %+v", cfg.Viewer)
	}
	if cfg.Viewer.HideOffscreen {
		t.Error("expected hide_offscreen to be false")
	}
	// Unset keys keep their defaults
	if cfg.Viewer.HeadlessFPS != 60 {
		t.Errorf("expected headless fps default 60, got %d", cfg.Viewer.HeadlessFPS)
	}
	if cfg.Cache.TTL != 30*time.Minute {
		t.Errorf("expected cache ttl 30m, got %v", cfg.Cache.TTL)
	}
	if cfg.Logging.LogFile != "viewer.log" {
		t.Errorf("expected log file 'viewer.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
graphics:
  width: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("viewer:\n  model_id: 3\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Viewer.ModelID = 7
	cfg.Server.Token = "secret"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("saved file missing: %v", err)
	}
	if info.Mode().Perm()&0077 != 0 {
		t.Errorf("config with token should not be group/world readable, got %v", info.Mode().Perm())
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.Viewer.ModelID != 7 || loaded.Server.Token != "secret" {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing model id")
	}

	cfg.Viewer.ModelID = 1
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	cfg.Graphics.Width = 0
	cfg.Viewer.DampingFactor = 2
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero width and damping factor 2")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name: "server and token flags",
			setup: func() {
				*flagServer = "http://10.0.0.5:9000"
				*flagToken = "tok"
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Server.URL != "http://10.0.0.5:9000" {
					t.Errorf("expected server override, got %s", cfg.Server.URL)
				}
				if cfg.Server.Token != "tok" {
					t.Errorf("expected token override, got %s", cfg.Server.Token)
				}
			},
			teardown: func() {
				*flagServer = ""
				*flagToken = ""
			},
		},
		{
			name:  "model flag",
			setup: func() { *flagModel = 12 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Viewer.ModelID != 12 {
					t.Errorf("expected model id 12, got %d", cfg.Viewer.ModelID)
				}
			},
			teardown: func() { *flagModel = 0 },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.Width != 2560 || cfg.Graphics.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
graphics:
  width: 1600
  height: 900
viewer:
  model_id: 5
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width from flag, height and model from file
	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Graphics.Height)
	}
	if cfg.Viewer.ModelID != 5 {
		t.Errorf("expected model id 5 from file, got %d", cfg.Viewer.ModelID)
	}
}

func TestServerConfigHidesToken(t *testing.T) {
	cfg := Default()
	cfg.Server.Token = "SECRET-TOKEN"

	dump := fmt.Sprintf("%+v", cfg)
	if strings.Contains(dump, "SECRET-TOKEN") {
		t.Errorf("config dump leaks token: %s", dump)
	}
	if !strings.Contains(dump, cfg.Server.URL) {
		t.Errorf("config dump lost the server url: %s", dump)
	}
}

func TestLoadFromFileRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("viewer:\n  model_idd: 3\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, path); err == nil {
		t.Error("expected error for misspelt key, got nil")
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, path); err != nil {
		t.Fatalf("empty file should keep defaults: %v", err)
	}
	if cfg.Graphics.Width != 1280 {
		t.Errorf("expected default width, got %d", cfg.Graphics.Width)
	}
}

func TestTokenFromEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  token: from-file\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	*flagConfig = path
	defer func() { *flagConfig = "" }()

	t.Setenv(TokenEnv, "from-env")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Server.Token != "from-env" {
		t.Errorf("expected environment token to win over the file, got %q", cfg.Server.Token)
	}

	*flagToken = "from-flag"
	defer func() { *flagToken = "" }()
	cfg, err = Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Server.Token != "from-flag" {
		t.Errorf("expected flag token to win, got %q", cfg.Server.Token)
	}
}

func TestSaveToReplacesWithoutTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("old"), 0600); err != nil {
		t.Fatalf("failed to seed config: %v", err)
	}

	cfg := Default()
	cfg.Viewer.ModelID = 9
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only config.yaml, got %d entries", len(entries))
	}
	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.Viewer.ModelID != 9 {
		t.Errorf("expected model id 9, got %d", loaded.Viewer.ModelID)
	}
}
