package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagLogFile    = flag.String("log-file", "", "Write logs to this file as well")
	flagDataDir    = flag.String("data", "", "Dataset directory holding meta.json and power_u8.bin")
	flagEndpoint   = flag.String("endpoint", "", "Base URL of the binary data endpoint")
	flagDownsample = flag.Int("downsample", 0, "Downsample factor for single-image surfaces")
	flagRow        = flag.String("row", "", "Row policy for multi-image stacks: top, middle or bottom")
	flagMode       = flag.String("mode", "", "Surface mode: single or multi")
	flagAddr       = flag.String("addr", "", "HTTP listen address")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the positional arguments left after flag parsing.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagDataDir != "" {
		cfg.Data.Dir = *flagDataDir
	}
	if *flagEndpoint != "" {
		cfg.Data.Endpoint = *flagEndpoint
	}
	if *flagDownsample > 0 {
		cfg.Surface.Downsample = *flagDownsample
	}
	if *flagRow != "" {
		cfg.Surface.RowPolicy = *flagRow
	}
	if *flagMode != "" {
		cfg.Surface.Mode = *flagMode
	}
	if *flagAddr != "" {
		cfg.Server.Addr = *flagAddr
	}
	if *flagWindowed {
		cfg.Viewer.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Viewer.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Viewer.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Viewer.Height = *flagHeight
	}
}
