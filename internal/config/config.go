package config

import (
	"fmt"
	"os"
	"songfetch/internal/modules/persistence"
	"songfetch/internal/modules/toolchain"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Flag names shared by the CLI and ApplyFlags.
const (
	FlagSongs       = "songs"
	FlagFile        = "file"
	FlagOutput      = "output"
	FlagDelay       = "delay"
	FlagNoCheckDeps = "no-check-deps"
	FlagInstallDeps = "install-deps"
	FlagReport      = "report"
	FlagProgress    = "progress"
	FlagVerbose     = "verbose"
)

const defaultDelaySeconds = 2

// DefaultSongs is the batch used when no songs are supplied.
var DefaultSongs = []string{
	"极乐净土",
	"恋爱循环",
	"心做L",
	"my all",
	"祈愿~致那个时候的你~",
	"青鸟",
	"绊",
	"曾经我也想过一了百了",
	"骑在银龙的背上",
	"留在我身边",
	"secret base",
}

// Config holds the settings of one run, merged from defaults, the YAML file and flags.
type Config struct {
	Songs        []string        `yaml:"songs"`
	SongsFile    string          `yaml:"songs_file"`
	OutputDir    string          `yaml:"output_dir"`
	DelaySeconds int             `yaml:"delay_seconds"`
	CheckDeps    bool            `yaml:"check_deps"`
	InstallDeps  bool            `yaml:"install_deps"`
	LogLevel     string          `yaml:"log_level"`
	Report       bool            `yaml:"report"`
	Progress     bool            `yaml:"progress"`
	Tools        toolchain.Tools `yaml:"tools"`
}

// Default returns the configuration used when neither a file nor flags override anything.
func Default() *Config {
	return &Config{
		OutputDir:    persistence.DefaultOutputDir,
		DelaySeconds: defaultDelaySeconds,
		CheckDeps:    true,
		LogLevel:     "info",
		Tools:        toolchain.DefaultTools(),
	}
}

// Load reads a YAML file on top of Default. Keys missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	// an explicit empty value in the file means "use the default"
	defaults := Default()
	if config.OutputDir == "" {
		config.OutputDir = defaults.OutputDir
	}
	if config.Tools.YtDlp == "" {
		config.Tools.YtDlp = defaults.Tools.YtDlp
	}
	if config.Tools.FFmpeg == "" {
		config.Tools.FFmpeg = defaults.Tools.FFmpeg
	}
	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}

	return config, nil
}

// ApplyFlags overrides fields with the flags the user explicitly set in fs.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var err error
	if fs.Changed(FlagSongs) {
		if c.Songs, err = fs.GetStringArray(FlagSongs); err != nil {
			return err
		}
	}
	if fs.Changed(FlagFile) {
		if c.SongsFile, err = fs.GetString(FlagFile); err != nil {
			return err
		}
	}
	if fs.Changed(FlagOutput) {
		if c.OutputDir, err = fs.GetString(FlagOutput); err != nil {
			return err
		}
	}
	if fs.Changed(FlagDelay) {
		if c.DelaySeconds, err = fs.GetInt(FlagDelay); err != nil {
			return err
		}
	}
	if fs.Changed(FlagNoCheckDeps) {
		skip, err := fs.GetBool(FlagNoCheckDeps)
		if err != nil {
			return err
		}
		c.CheckDeps = !skip
	}
	if fs.Changed(FlagInstallDeps) {
		if c.InstallDeps, err = fs.GetBool(FlagInstallDeps); err != nil {
			return err
		}
	}
	if fs.Changed(FlagReport) {
		if c.Report, err = fs.GetBool(FlagReport); err != nil {
			return err
		}
	}
	if fs.Changed(FlagProgress) {
		if c.Progress, err = fs.GetBool(FlagProgress); err != nil {
			return err
		}
	}
	if fs.Changed(FlagVerbose) {
		verbose, err := fs.GetBool(FlagVerbose)
		if err != nil {
			return err
		}
		if verbose {
			c.LogLevel = "debug"
		}
	}
	return nil
}

// Validate rejects settings the batch cannot run with.
func (c *Config) Validate() error {
	if c.DelaySeconds < 0 {
		return fmt.Errorf("delay must not be negative, got %d", c.DelaySeconds)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory must not be empty")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Delay is the pause between two songs.
func (c *Config) Delay() time.Duration {
	return time.Duration(c.DelaySeconds) * time.Second
}

// Level parses LogLevel.
func (c *Config) Level() (zapcore.Level, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
