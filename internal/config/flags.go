package config

import "flag"

var (
	flagConfig      = flag.String("config", "", "Path to config file")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagRobot       = flag.String("robot", "", "Path to robot description file")
	flagMeshDir     = flag.String("meshdir", "", "Base directory for relative mesh paths")
	flagMotion      = flag.String("motion", "", "Path to motion capture file")
	flagRate        = flag.Float64("rate", 0, "Playback rate in frames per second")
	flagLoop        = flag.Bool("loop", false, "Loop playback")
	flagNoDelay     = flag.Bool("no-delay", false, "Disable pacing, emit frames as fast as possible")
	flagListen      = flag.String("listen", "", "Viewer listen address")
	flagNoViewer    = flag.Bool("no-viewer", false, "Disable the live viewer server")
	flagSkipMissing = flag.Bool("skip-missing", false, "Skip links whose meshes fail to load")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
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
	if *flagRobot != "" {
		cfg.Robot.Description = *flagRobot
	}
	if *flagMeshDir != "" {
		cfg.Robot.MeshDir = *flagMeshDir
	}
	if *flagMotion != "" {
		cfg.Motion.File = *flagMotion
	}
	if *flagRate > 0 {
		cfg.Playback.Rate = *flagRate
	}
	if *flagLoop {
		cfg.Playback.Loop = true
	}
	if *flagNoDelay {
		cfg.Playback.NoDelay = true
	}
	if *flagListen != "" {
		cfg.Viewer.Listen = *flagListen
	}
	if *flagNoViewer {
		cfg.Viewer.Enabled = false
	}
	if *flagSkipMissing {
		cfg.Robot.SkipMissingMeshes = true
	}
}
