// Package config handles replay tool configuration loading and management.
package config

// Config holds all replay settings.
type Config struct {
	Robot    RobotConfig    `yaml:"robot"`
	Motion   MotionConfig   `yaml:"motion"`
	Playback PlaybackConfig `yaml:"playback"`
	Viewer   ViewerConfig   `yaml:"viewer"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// RobotConfig locates the robot description and its meshes.
type RobotConfig struct {
	Description string `yaml:"description"` // path to the URDF file
	MeshDir     string `yaml:"mesh_dir"`    // base directory for relative mesh paths
	// SkipMissingMeshes continues binding when a mesh fails to load
	// instead of aborting.
	SkipMissingMeshes bool `yaml:"skip_missing_meshes"`
}

// MotionConfig locates the motion capture stream.
type MotionConfig struct {
	File string  `yaml:"file"`
	Rate float64 `yaml:"rate"` // declared sample rate, frames per second
}

// PlaybackConfig holds replay pacing settings.
type PlaybackConfig struct {
	// Rate overrides the motion's declared rate for pacing. Zero means
	// play at the motion rate.
	Rate float64 `yaml:"rate"`
	Loop bool    `yaml:"loop"`
	// NoDelay disables advisory pacing entirely (as fast as possible).
	NoDelay bool `yaml:"no_delay"`
}

// ViewerConfig holds the live viewer server settings.
type ViewerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Robot: RobotConfig{
			Description:       "robot.urdf",
			MeshDir:           "",
			SkipMissingMeshes: false,
		},
		Motion: MotionConfig{
			File: "",
			Rate: 30,
		},
		Playback: PlaybackConfig{
			Rate:    0,
			Loop:    false,
			NoDelay: false,
		},
		Viewer: ViewerConfig{
			Enabled: true,
			Listen:  "127.0.0.1:9870",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
