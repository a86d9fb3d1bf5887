// Package config loads and validates pinchboard settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the full application configuration.
type Config struct {
	Canvas  CanvasConfig  `toml:"canvas" yaml:"canvas"`
	Gesture GestureConfig `toml:"gesture" yaml:"gesture"`
	Camera  CameraConfig  `toml:"camera" yaml:"camera"`
	Render  RenderConfig  `toml:"render" yaml:"render"`
	Server  ServerConfig  `toml:"server" yaml:"server"`
	Store   StoreConfig   `toml:"store" yaml:"store"`
	Plugins PluginsConfig `toml:"plugins" yaml:"plugins"`
	Log     LogConfig     `toml:"log" yaml:"log"`
}

// CanvasConfig sets the drawing surface size. Layout coordinates are fixed
// pixels, so narrow canvases fail layout validation.
type CanvasConfig struct {
	Width  int `toml:"width" yaml:"width" validate:"gte=320,lte=3840"`
	Height int `toml:"height" yaml:"height" validate:"gte=240,lte=2160"`
}

// GestureConfig holds the interaction constants.
type GestureConfig struct {
	PinchThreshold float64 `toml:"pinch_threshold" yaml:"pinch_threshold" validate:"gt=0"`
	DrawFloor      float64 `toml:"draw_floor" yaml:"draw_floor" validate:"gte=0"`
	StrokeWidth    float64 `toml:"stroke_width" yaml:"stroke_width" validate:"gt=0,lte=64"`
	EraseRadius    float64 `toml:"erase_radius" yaml:"erase_radius" validate:"gt=0,lte=256"`
	CooldownMs     int     `toml:"cooldown_ms" yaml:"cooldown_ms" validate:"gt=0,lte=60000"`
}

// CameraConfig selects the capture device and the tracker frame rates.
type CameraConfig struct {
	DeviceID        int     `toml:"device_id" yaml:"device_id" validate:"gte=0"`
	IdleFPS         int     `toml:"idle_fps" yaml:"idle_fps" validate:"gte=1,lte=120"`
	ActiveFPS       int     `toml:"active_fps" yaml:"active_fps" validate:"gte=1,lte=120,gtefield=IdleFPS"`
	MotionThreshold float64 `toml:"motion_threshold" yaml:"motion_threshold" validate:"gt=0,lte=100"`
	IdleTimeoutMs   int     `toml:"idle_timeout_ms" yaml:"idle_timeout_ms" validate:"gte=0"`
}

// RenderConfig sets the render tick rate.
type RenderConfig struct {
	FPS int `toml:"fps" yaml:"fps" validate:"gte=1,lte=120"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr      string `toml:"addr" yaml:"addr" validate:"required,hostname_port"`
	StaticDir string `toml:"static_dir" yaml:"static_dir"`
	StreamFPS int    `toml:"stream_fps" yaml:"stream_fps" validate:"gte=1,lte=60"`
}

// StoreConfig configures the session journal database.
type StoreConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Path    string `toml:"path" yaml:"path" validate:"required_if=Enabled true"`
}

// PluginsConfig configures the event plugins.
type PluginsConfig struct {
	Enabled   bool   `toml:"enabled" yaml:"enabled"`
	Dir       string `toml:"dir" yaml:"dir" validate:"required_if=Enabled true"`
	TimeoutMs int    `toml:"timeout_ms" yaml:"timeout_ms" validate:"gte=0,lte=60000"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level" yaml:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
	File  string `toml:"file" yaml:"file"`
}

// DataDir returns the per-user data directory, ~/.pinchboard.
func DataDir() string {
	if dir := os.Getenv("PINCHBOARD_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pinchboard"
	}
	return filepath.Join(home, ".pinchboard")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Canvas: CanvasConfig{Width: 640, Height: 480},
		Gesture: GestureConfig{
			PinchThreshold: 20,
			DrawFloor:      100,
			StrokeWidth:    4,
			EraseRadius:    25,
			CooldownMs:     1000,
		},
		Camera: CameraConfig{
			DeviceID:        0,
			IdleFPS:         5,
			ActiveFPS:       15,
			MotionThreshold: 1.0,
			IdleTimeoutMs:   2000,
		},
		Render: RenderConfig{FPS: 30},
		Server: ServerConfig{Addr: ":8080", StreamFPS: 15},
		Store: StoreConfig{
			Enabled: true,
			Path:    filepath.Join(DataDir(), "pinchboard.db"),
		},
		Plugins: PluginsConfig{
			Enabled:   true,
			Dir:       filepath.Join(DataDir(), "plugins"),
			TimeoutMs: 5000,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Cooldown returns the button cooldown window.
func (g GestureConfig) Cooldown() time.Duration {
	return time.Duration(g.CooldownMs) * time.Millisecond
}

// IdleTimeout returns how long the tracker waits without motion before
// dropping to the idle frame rate.
func (c CameraConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutMs) * time.Millisecond
}

var validate = validator.New()

// Timeout returns the per-run plugin timeout.
func (p PluginsConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutMs) * time.Millisecond
}

// Validate checks field ranges and cross-field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Gesture.DrawFloor >= float64(c.Canvas.Height) {
		return fmt.Errorf("invalid config: gesture.draw_floor %.0f must be below canvas height %d",
			c.Gesture.DrawFloor, c.Canvas.Height)
	}
	return nil
}

// ApplyEnvOverrides applies PINCHBOARD_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PINCHBOARD_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("PINCHBOARD_DB"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("PINCHBOARD_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PINCHBOARD_LOG_FILE"); v != "" {
		c.Log.File = v
	}
}

// expandPaths resolves a leading ~ in file paths.
func (c *Config) expandPaths() {
	c.Store.Path = expandHome(c.Store.Path)
	c.Log.File = expandHome(c.Log.File)
	c.Server.StaticDir = expandHome(c.Server.StaticDir)
	c.Plugins.Dir = expandHome(c.Plugins.Dir)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// EnsureDirectories creates the parent directories of the database and log
// files.
func (c *Config) EnsureDirectories() error {
	dirs := []string{}
	if c.Store.Enabled && c.Store.Path != "" {
		dirs = append(dirs, filepath.Dir(c.Store.Path))
	}
	if c.Log.File != "" {
		dirs = append(dirs, filepath.Dir(c.Log.File))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
