// Package config handles rfsurface configuration loading and management.
package config

import (
	"fmt"
	"time"

	"github.com/Faultbox/rfsurface/internal/engine/lighting"
	"github.com/Faultbox/rfsurface/internal/grid"
	"github.com/Faultbox/rfsurface/internal/surface"
)

// FileName is the config file looked up in the working and config directories.
const FileName = "rfsurface.yaml"

// Config holds all settings shared by the commands.
type Config struct {
	Viewer  ViewerConfig   `yaml:"viewer"`
	Data    DataConfig     `yaml:"data"`
	Surface SurfaceConfig  `yaml:"surface"`
	Layers  surface.Layers `yaml:"layers"`
	Server  ServerConfig   `yaml:"server"`
	Logging LoggingConfig  `yaml:"logging"`
}

// ViewerConfig holds window and camera settings.
type ViewerConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Fullscreen bool    `yaml:"fullscreen"`
	VSync      bool    `yaml:"vsync"`
	FOV        float32 `yaml:"fov"` // degrees

	// Directional light angles in degrees; azimuth 0 points along +Z.
	LightAzimuth   float64 `yaml:"light_azimuth"`
	LightElevation float64 `yaml:"light_elevation"`

	ScreenshotDir string `yaml:"screenshot_dir"`
	// Offscreen capture size; zero uses the drawable size.
	ScreenshotWidth  int `yaml:"screenshot_width"`
	ScreenshotHeight int `yaml:"screenshot_height"`
}

// DataConfig holds dataset locations.
type DataConfig struct {
	Dir          string        `yaml:"dir"`      // Local dataset directory
	Endpoint     string        `yaml:"endpoint"` // Base URL of the binary data endpoint, overrides Dir
	MetaFile     string        `yaml:"meta_file"`
	BinFile      string        `yaml:"bin_file"`
	MaxImages    int           `yaml:"max_images"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// SurfaceConfig holds the initial analysis parameters.
type SurfaceConfig struct {
	Downsample int    `yaml:"downsample"`
	RowPolicy  string `yaml:"row_policy"` // top, middle or bottom
	Mode       string `yaml:"mode"`       // single or multi
}

// Policy returns the parsed row policy.
func (s SurfaceConfig) Policy() grid.RowPolicy {
	p, _ := grid.ParseRowPolicy(s.RowPolicy)
	return p
}

// Set stores analysis parameters in their config spelling.
func (s *SurfaceConfig) Set(mode surface.Mode, downsample int, row grid.RowPolicy) {
	s.Mode = mode.String()
	s.Downsample = max(1, downsample)
	s.RowPolicy = row.String()
}

// SurfaceMode returns the parsed mode.
func (s SurfaceConfig) SurfaceMode() surface.Mode {
	m, _ := surface.ParseMode(s.Mode)
	return m
}

// Light returns the scene light placed at the configured angles.
func (v ViewerConfig) Light() lighting.Light {
	def := lighting.Default()
	return lighting.FromAngles(v.LightAzimuth, v.LightElevation, def.Ambient, def.Directional)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MaxUploadMB int64  `yaml:"max_upload_mb"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Viewer: ViewerConfig{
			Width:  1280,
			Height: 720,
			VSync:  true,
			FOV:    60,

			LightAzimuth:   lighting.DefaultAzimuth,
			LightElevation: lighting.DefaultElevation,

			ScreenshotDir: "screenshots",
		},
		Data: DataConfig{
			Dir:          "data",
			MetaFile:     "meta.json",
			BinFile:      "power_u8.bin",
			MaxImages:    10,
			FetchTimeout: 30 * time.Second,
		},
		Surface: SurfaceConfig{
			Downsample: 1,
			RowPolicy:  "middle",
			Mode:       "single",
		},
		Layers: surface.AllLayers(),
		Server: ServerConfig{
			Addr:        "127.0.0.1:8080",
			MaxUploadMB: 64,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate replaces out-of-range values with defaults and reports each change.
func (c *Config) Validate() []string {
	def := Default()
	var fixes []string
	fix := func(format string, args ...any) {
		fixes = append(fixes, fmt.Sprintf(format, args...))
	}

	if c.Surface.Downsample < 1 {
		fix("surface.downsample %d raised to 1", c.Surface.Downsample)
		c.Surface.Downsample = 1
	}
	if _, err := grid.ParseRowPolicy(c.Surface.RowPolicy); err != nil {
		fix("surface.row_policy %q replaced by %q", c.Surface.RowPolicy, def.Surface.RowPolicy)
		c.Surface.RowPolicy = def.Surface.RowPolicy
	}
	if _, err := surface.ParseMode(c.Surface.Mode); err != nil {
		fix("surface.mode %q replaced by %q", c.Surface.Mode, def.Surface.Mode)
		c.Surface.Mode = def.Surface.Mode
	}
	if c.Data.MaxImages < 1 {
		fix("data.max_images %d replaced by %d", c.Data.MaxImages, def.Data.MaxImages)
		c.Data.MaxImages = def.Data.MaxImages
	}
	if c.Viewer.Width <= 0 || c.Viewer.Height <= 0 {
		fix("viewer size %dx%d replaced by %dx%d", c.Viewer.Width, c.Viewer.Height, def.Viewer.Width, def.Viewer.Height)
		c.Viewer.Width, c.Viewer.Height = def.Viewer.Width, def.Viewer.Height
	}
	if c.Viewer.FOV <= 0 || c.Viewer.FOV >= 180 {
		fix("viewer.fov %v replaced by %v", c.Viewer.FOV, def.Viewer.FOV)
		c.Viewer.FOV = def.Viewer.FOV
	}
	if c.Viewer.LightElevation < -90 || c.Viewer.LightElevation > 90 {
		fix("viewer.light_elevation %v replaced by %v", c.Viewer.LightElevation, def.Viewer.LightElevation)
		c.Viewer.LightElevation = def.Viewer.LightElevation
	}
	if c.Viewer.ScreenshotWidth < 0 || c.Viewer.ScreenshotHeight < 0 {
		fix("viewer screenshot size %dx%d reset to window size", c.Viewer.ScreenshotWidth, c.Viewer.ScreenshotHeight)
		c.Viewer.ScreenshotWidth, c.Viewer.ScreenshotHeight = 0, 0
	}
	if c.Server.MaxUploadMB <= 0 {
		fix("server.max_upload_mb %d replaced by %d", c.Server.MaxUploadMB, def.Server.MaxUploadMB)
		c.Server.MaxUploadMB = def.Server.MaxUploadMB
	}
	return fixes
}
