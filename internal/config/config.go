package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all configuration for playbridge
type Config struct {
	Session     SessionConfig     `mapstructure:"session"`
	Leaderboard LeaderboardConfig `mapstructure:"leaderboard"`
	Share       ShareConfig       `mapstructure:"share"`
	Ads         AdsConfig         `mapstructure:"ads"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// SessionConfig controls the identity/leaderboard session
type SessionConfig struct {
	// ResolveRequestCode is the activity request code reserved for the
	// sign-in resolution flow (default: 1001)
	ResolveRequestCode int `mapstructure:"resolve_request_code"`
}

// LeaderboardConfig identifies the leaderboard the game submits to
type LeaderboardConfig struct {
	// ID is the service-side leaderboard identifier
	ID string `mapstructure:"id"`
	// RequestCode is the activity request code used when opening the
	// leaderboard view (default: 1002)
	RequestCode int `mapstructure:"request_code"`
}

// ShareConfig controls the social share flow
type ShareConfig struct {
	// TargetPackage is the preferred share target (default: "com.twitter.android")
	TargetPackage string `mapstructure:"target_package"`
	// WebURL is the browser share endpoint used when the target is not
	// installed (default: "http://twitter.com/share")
	WebURL string `mapstructure:"web_url"`
	// StagingDir is where images are copied before sharing.
	// Empty means a "share" directory under the system temp dir.
	StagingDir string `mapstructure:"staging_dir"`
}

// AdsConfig controls the ad banner
type AdsConfig struct {
	// UnitID is the ad network publisher/unit identifier
	UnitID string `mapstructure:"unit_id"`
	// VisibleOnStart shows the banner when the host starts (default: true)
	VisibleOnStart bool `mapstructure:"visible_on_start"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	// Enabled controls whether file logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is the log directory. Empty means {ConfigDir}/logs.
	Dir string `mapstructure:"dir"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// ResolveStagingDir returns the staging directory, falling back to a
// directory under os.TempDir when none is configured.
func (s *ShareConfig) ResolveStagingDir() string {
	if s.StagingDir != "" {
		return expandHome(s.StagingDir)
	}
	return filepath.Join(os.TempDir(), "playbridge", "share")
}

// ResolveDir returns the log directory, defaulting to {ConfigDir}/logs.
func (l *LoggingConfig) ResolveDir() string {
	if l.Dir != "" {
		return expandHome(l.Dir)
	}
	return filepath.Join(ConfigDir(), "logs")
}

func expandHome(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			ResolveRequestCode: 1001,
		},
		Leaderboard: LeaderboardConfig{
			ID:          "CgkIjuz8p5UVEAIQAQ",
			RequestCode: 1002,
		},
		Share: ShareConfig{
			TargetPackage: "com.twitter.android",
			WebURL:        "http://twitter.com/share",
			StagingDir:    "",
		},
		Ads: AdsConfig{
			UnitID:         "f894d395a3f5431b",
			VisibleOnStart: true,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			Dir:        "",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Session defaults
	viper.SetDefault("session.resolve_request_code", defaults.Session.ResolveRequestCode)

	// Leaderboard defaults
	viper.SetDefault("leaderboard.id", defaults.Leaderboard.ID)
	viper.SetDefault("leaderboard.request_code", defaults.Leaderboard.RequestCode)

	// Share defaults
	viper.SetDefault("share.target_package", defaults.Share.TargetPackage)
	viper.SetDefault("share.web_url", defaults.Share.WebURL)
	viper.SetDefault("share.staging_dir", defaults.Share.StagingDir)

	// Ads defaults
	viper.SetDefault("ads.unit_id", defaults.Ads.UnitID)
	viper.SetDefault("ads.visible_on_start", defaults.Ads.VisibleOnStart)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

var watchMu sync.Mutex

// Watch re-reads the config file whenever it changes on disk and calls fn
// with the new configuration. Changes that fail validation are reported to
// onErr (if non-nil) and fn is not called. Watch requires that a config file
// has already been read by viper.
func Watch(fn func(*Config), onErr func(error)) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		watchMu.Lock()
		defer watchMu.Unlock()

		cfg, err := Load()
		if err != nil {
			if onErr != nil {
				onErr(err)
			}
			return
		}
		fn(cfg)
	})
	viper.WatchConfig()
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "playbridge")
	}
	// Fall back to ~/.config/playbridge
	home, err := os.UserHomeDir()
	if err != nil {
		return ".playbridge"
	}
	return filepath.Join(home, ".config", "playbridge")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
