// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all viewer settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Server   ServerConfig   `yaml:"server"`
	Viewer   ViewerConfig   `yaml:"viewer"`
	Cache    CacheConfig    `yaml:"cache"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds window and rendering settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
}

// ServerConfig holds the guides backend connection settings.
type ServerConfig struct {
	URL            string        `yaml:"url"`
	Token          string        `yaml:"token"` // Empty token means anonymous access
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// String masks the token so configs can be logged.
func (s ServerConfig) String() string {
	token := ""
	if s.Token != "" {
		token = "***"
	}
	return fmt.Sprintf("{URL:%s Token:%s RequestTimeout:%s}", s.URL, token, s.RequestTimeout)
}

// ViewerConfig holds model viewer behaviour.
type ViewerConfig struct {
	ModelID       int     `yaml:"model_id"`
	EnableDamping bool    `yaml:"enable_damping"`
	DampingFactor float32 `yaml:"damping_factor"`
	HideOffscreen bool    `yaml:"hide_offscreen"`
	HeadlessFPS   int     `yaml:"headless_fps"` // Tick rate when running without a window
	ScreenshotDir string  `yaml:"screenshot_dir"`
}

// CacheConfig holds model binary cache settings.
type CacheConfig struct {
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Server: ServerConfig{
			URL:            "http://localhost:8080",
			RequestTimeout: 30 * time.Second,
		},
		Viewer: ViewerConfig{
			EnableDamping: false,
			DampingFactor: 0.05,
			HideOffscreen: true,
			HeadlessFPS:   60,
			ScreenshotDir: "screenshots",
		},
		Cache: CacheConfig{
			TTL:             time.Hour,
			CleanupInterval: 10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks values that would otherwise fail deep inside the viewer.
func (c *Config) Validate() error {
	var errs []error
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		errs = append(errs, fmt.Errorf("graphics: invalid size %dx%d", c.Graphics.Width, c.Graphics.Height))
	}
	if c.Server.URL == "" {
		errs = append(errs, errors.New("server: url is required"))
	}
	if c.Viewer.ModelID <= 0 {
		errs = append(errs, fmt.Errorf("viewer: model_id must be positive, got %d", c.Viewer.ModelID))
	}
	if c.Viewer.DampingFactor < 0 || c.Viewer.DampingFactor > 1 {
		errs = append(errs, fmt.Errorf("viewer: damping_factor %v out of [0,1]", c.Viewer.DampingFactor))
	}
	return errors.Join(errs...)
}
