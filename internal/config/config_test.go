package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Faultbox/rfsurface/internal/engine/lighting"
	"github.com/Faultbox/rfsurface/internal/grid"
	"github.com/Faultbox/rfsurface/internal/surface"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Viewer.Width != 1280 || cfg.Viewer.Height != 720 {
		t.Errorf("expected 1280x720, got %dx%d", cfg.Viewer.Width, cfg.Viewer.Height)
	}
	if cfg.Viewer.FOV != 60 {
		t.Errorf("expected fov 60, got %v", cfg.Viewer.FOV)
	}
	if cfg.Surface.Downsample != 1 {
		t.Errorf("expected downsample 1, got %d", cfg.Surface.Downsample)
	}
	if cfg.Surface.Policy() != grid.RowMiddle {
		t.Errorf("expected middle row policy, got %v", cfg.Surface.Policy())
	}
	if cfg.Surface.SurfaceMode() != surface.ModeSingle {
		t.Errorf("expected single mode, got %v", cfg.Surface.SurfaceMode())
	}
	if cfg.Layers != surface.AllLayers() {
		t.Errorf("expected all layers visible, got %+v", cfg.Layers)
	}
	if cfg.Data.MaxImages != 10 {
		t.Errorf("expected max images 10, got %d", cfg.Data.MaxImages)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if fixes := cfg.Validate(); len(fixes) != 0 {
		t.Errorf("defaults should validate cleanly, got %v", fixes)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	yamlContent := `
viewer:
  width: 1920
  height: 1080
  fullscreen: true
  fov: 45

data:
  dir: /srv/rf
  endpoint: "http://localhost:9000/data/"
  fetch_timeout: 5s

surface:
  downsample: 4
  row_policy: bottom
  mode: multi

layers:
  surface: true
  axes: false
  labels: false

logging:
  level: "debug"
  log_file: "rfsurface.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Viewer.Width != 1920 || !cfg.Viewer.Fullscreen || cfg.Viewer.FOV != 45 {
		t.Errorf("viewer not loaded: %+v", cfg.Viewer)
	}
	if !cfg.Viewer.VSync {
		t.Error("vsync should keep its default when absent from the file")
	}
	if cfg.Data.Dir != "/srv/rf" || cfg.Data.Endpoint != "http://localhost:9000/data/" {
		t.Errorf("data not loaded: %+v", cfg.Data)
	}
	if cfg.Data.FetchTimeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", cfg.Data.FetchTimeout)
	}
	if cfg.Surface.Downsample != 4 || cfg.Surface.Policy() != grid.RowBottom || cfg.Surface.SurfaceMode() != surface.ModeMulti {
		t.Errorf("surface not loaded: %+v", cfg.Surface)
	}
	if cfg.Layers != (surface.Layers{Surface: true}) {
		t.Errorf("layers not loaded: %+v", cfg.Layers)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "rfsurface.log" {
		t.Errorf("logging not loaded: %+v", cfg.Logging)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")
	invalidYAML := `
viewer:
  width: not a number
  invalid syntax here
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if err := loadFromFile(Default(), configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if err := loadFromFile(Default(), "/nonexistent/path/rfsurface.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Surface.Downsample = 0
	cfg.Surface.RowPolicy = "diagonal"
	cfg.Surface.Mode = "stereo"
	cfg.Data.MaxImages = -1
	cfg.Viewer.FOV = 0
	cfg.Viewer.ScreenshotHeight = -4
	cfg.Viewer.LightElevation = 120

	fixes := cfg.Validate()
	if len(fixes) != 7 {
		t.Errorf("expected 7 fixes, got %d: %v", len(fixes), fixes)
	}
	if cfg.Viewer.LightElevation != Default().Viewer.LightElevation {
		t.Errorf("light elevation not restored: %v", cfg.Viewer.LightElevation)
	}
	if cfg.Viewer.ScreenshotWidth != 0 || cfg.Viewer.ScreenshotHeight != 0 {
		t.Errorf("negative screenshot size should reset to 0x0, got %dx%d", cfg.Viewer.ScreenshotWidth, cfg.Viewer.ScreenshotHeight)
	}
	if cfg.Surface.Downsample != 1 {
		t.Errorf("downsample should be raised to 1, got %d", cfg.Surface.Downsample)
	}
	if cfg.Surface.RowPolicy != "middle" || cfg.Surface.Mode != "single" {
		t.Errorf("unknown policy/mode should fall back to defaults: %+v", cfg.Surface)
	}
	if cfg.Data.MaxImages != 10 || cfg.Viewer.FOV != 60 {
		t.Errorf("limits not restored: %+v %+v", cfg.Data, cfg.Viewer)
	}
}

func TestViewerLight(t *testing.T) {
	def := Default().Viewer.Light()
	want := lighting.Default()
	if def.Ambient != want.Ambient || def.Directional != want.Directional {
		t.Errorf("default intensities = %v/%v, want %v/%v", def.Ambient, def.Directional, want.Ambient, want.Directional)
	}
	got, exp := def.Direction(), want.Direction()
	if d := got.Sub(exp).Length(); d > 1e-3 {
		t.Errorf("default light direction %v, want %v", got, exp)
	}

	overhead := ViewerConfig{LightAzimuth: 0, LightElevation: 90}.Light()
	if dir := overhead.Direction(); dir.Y < 0.999 {
		t.Errorf("overhead light direction %v, want +Y", dir)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)
	cfg := Default()
	cfg.Surface.Mode = "multi"
	cfg.Layers.Labels = false

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.Surface.Mode != "multi" || loaded.Layers.Labels {
		t.Errorf("saved values not restored: %+v %+v", loaded.Surface, loaded.Layers)
	}
}

func TestSurfaceSetSurvivesSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	cfg := Default()
	cfg.Surface.Set(surface.ModeMulti, 0, grid.RowBottom)
	cfg.Layers = surface.Layers{Axes: true}

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}
	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.Surface.SurfaceMode() != surface.ModeMulti || loaded.Surface.Policy() != grid.RowBottom {
		t.Errorf("surface params not restored: %+v", loaded.Surface)
	}
	if loaded.Surface.Downsample != 1 {
		t.Errorf("downsample should be stored as at least 1, got %d", loaded.Surface.Downsample)
	}
	if loaded.Layers != (surface.Layers{Axes: true}) {
		t.Errorf("layers not restored: %+v", loaded.Layers)
	}
	if fixes := loaded.Validate(); len(fixes) != 0 {
		t.Errorf("saved settings should validate cleanly: %v", fixes)
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
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, FileName), []byte("viewer:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path == "" {
		t.Error("expected to find config in current directory")
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
			name: "surface flags",
			setup: func() {
				*flagDownsample = 3
				*flagRow = "top"
				*flagMode = "multi"
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Surface.Downsample != 3 || cfg.Surface.Policy() != grid.RowTop || cfg.Surface.SurfaceMode() != surface.ModeMulti {
					t.Errorf("surface flags not applied: %+v", cfg.Surface)
				}
			},
			teardown: func() {
				*flagDownsample = 0
				*flagRow = ""
				*flagMode = ""
			},
		},
		{
			name: "data flags",
			setup: func() {
				*flagDataDir = "/tmp/rf"
				*flagEndpoint = "http://example.test/data/"
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Data.Dir != "/tmp/rf" || cfg.Data.Endpoint != "http://example.test/data/" {
					t.Errorf("data flags not applied: %+v", cfg.Data)
				}
			},
			teardown: func() {
				*flagDataDir = ""
				*flagEndpoint = ""
			},
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Viewer.Fullscreen {
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
				if cfg.Viewer.Width != 2560 || cfg.Viewer.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Viewer.Width, cfg.Viewer.Height)
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
	configPath := filepath.Join(t.TempDir(), FileName)
	yamlContent := `
viewer:
  width: 1600
  height: 900
surface:
  downsample: 2
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

	if cfg.Viewer.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Viewer.Width)
	}
	if cfg.Viewer.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Viewer.Height)
	}
	if cfg.Surface.Downsample != 2 {
		t.Errorf("expected downsample 2 from file, got %d", cfg.Surface.Downsample)
	}
}
