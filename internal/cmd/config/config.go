// Package config provides CLI commands for managing playbridge configuration.
package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	appconfig "github.com/toritoma/playbridge/internal/config"
)

// Wrapper functions for exec to allow testing
var execLookPath = exec.LookPath
var execCommand = exec.Command

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify playbridge configuration",
	Long: `View or modify playbridge configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  playbridge config set leaderboard.id CgkIjuz8p5UVEAIQAQ
  playbridge config set share.target_package com.twitter.android
  playbridge config set logging.level debug

Valid keys:
  session.resolve_request_code - Request code of the sign-in resolution flow
  leaderboard.id               - Leaderboard identifier
  leaderboard.request_code     - Request code of the leaderboard view
  share.target_package         - Preferred share target package
  share.web_url                - Browser share endpoint (http/https, no query)
  share.staging_dir            - Directory images are staged in
  ads.unit_id                  - Ad unit identifier
  ads.visible_on_start         - Show the banner when the host starts (true/false)
  logging.enabled              - Write a log file (true/false)
  logging.level                - Log level: debug, info, warn, error
  logging.dir                  - Log directory
  logging.max_size_mb          - Log size before rotation
  logging.max_backups          - Rotated log files to keep`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/playbridge/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in your editor",
	Long: `Open the config file in your preferred editor.

Uses $EDITOR environment variable, or falls back to common editors (vim, nano, vi).
If no config file exists, creates one with default values first.`,
	RunE: runConfigEdit,
}

var configResetCmd = &cobra.Command{
	Use:   "reset [key]",
	Short: "Reset configuration to defaults",
	Long: `Reset configuration values to their defaults.

Without arguments, resets all configuration to defaults.
With a key argument, resets only that specific key.

Examples:
  playbridge config reset                # Reset all to defaults
  playbridge config reset logging.level  # Reset only logging.level to default`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigReset,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configResetCmd)

	// Values such as -1 are positional, not shorthand flags.
	configSetCmd.Flags().SetInterspersed(false)
}

// Register adds all config-related commands to the given parent command.
func Register(parent *cobra.Command) {
	parent.AddCommand(configCmd)
}

// keyTypes lists every settable key and how its value is parsed.
var keyTypes = map[string]string{
	"session.resolve_request_code": "int",
	"leaderboard.id":               "string",
	"leaderboard.request_code":     "int",
	"share.target_package":         "string",
	"share.web_url":                "string",
	"share.staging_dir":            "string",
	"ads.unit_id":                  "string",
	"ads.visible_on_start":         "bool",
	"logging.enabled":              "bool",
	"logging.level":                "level",
	"logging.dir":                  "string",
	"logging.max_size_mb":          "int",
	"logging.max_backups":          "int",
}

func defaultValues() map[string]any {
	d := appconfig.Default()
	return map[string]any{
		"session.resolve_request_code": d.Session.ResolveRequestCode,
		"leaderboard.id":               d.Leaderboard.ID,
		"leaderboard.request_code":     d.Leaderboard.RequestCode,
		"share.target_package":         d.Share.TargetPackage,
		"share.web_url":                d.Share.WebURL,
		"share.staging_dir":            d.Share.StagingDir,
		"ads.unit_id":                  d.Ads.UnitID,
		"ads.visible_on_start":         d.Ads.VisibleOnStart,
		"logging.enabled":              d.Logging.Enabled,
		"logging.level":                d.Logging.Level,
		"logging.dir":                  d.Logging.Dir,
		"logging.max_size_mb":          d.Logging.MaxSizeMB,
		"logging.max_backups":          d.Logging.MaxBackups,
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	cfg := appconfig.Get()

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintln(out)

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Config file: (none - using defaults)\n")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "session:")
	fmt.Fprintf(out, "  resolve_request_code: %d\n", cfg.Session.ResolveRequestCode)

	fmt.Fprintln(out, "leaderboard:")
	fmt.Fprintf(out, "  id: %s\n", cfg.Leaderboard.ID)
	fmt.Fprintf(out, "  request_code: %d\n", cfg.Leaderboard.RequestCode)

	fmt.Fprintln(out, "share:")
	fmt.Fprintf(out, "  target_package: %s\n", cfg.Share.TargetPackage)
	fmt.Fprintf(out, "  web_url: %s\n", cfg.Share.WebURL)
	fmt.Fprintf(out, "  staging_dir: %s\n", cfg.Share.ResolveStagingDir())

	fmt.Fprintln(out, "ads:")
	fmt.Fprintf(out, "  unit_id: %s\n", cfg.Ads.UnitID)
	fmt.Fprintf(out, "  visible_on_start: %v\n", cfg.Ads.VisibleOnStart)

	fmt.Fprintln(out, "logging:")
	fmt.Fprintf(out, "  enabled: %v\n", cfg.Logging.Enabled)
	fmt.Fprintf(out, "  level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(out, "  dir: %s\n", cfg.Logging.ResolveDir())
	fmt.Fprintf(out, "  max_size_mb: %d\n", cfg.Logging.MaxSizeMB)
	fmt.Fprintf(out, "  max_backups: %d\n", cfg.Logging.MaxBackups)

	return nil
}

func parseValue(key, value string) (any, error) {
	keyType, ok := keyTypes[key]
	if !ok {
		return nil, fmt.Errorf("unknown configuration key: %s\nRun 'playbridge config set --help' to see valid keys", key)
	}

	switch keyType {
	case "level":
		if !slices.Contains(appconfig.ValidLogLevels(), strings.ToLower(value)) {
			return nil, fmt.Errorf("invalid value for %s: %s\nValid options: %s",
				key, value, strings.Join(appconfig.ValidLogLevels(), ", "))
		}
		return strings.ToLower(value), nil
	case "bool":
		if value != "true" && value != "false" {
			return nil, fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		return value == "true", nil
	case "int":
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected integer", key)
		}
		if intVal < 0 {
			return nil, fmt.Errorf("invalid value for %s: must be non-negative", key)
		}
		return intVal, nil
	default:
		return value, nil
	}
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	typedValue, err := parseValue(key, args[1])
	if err != nil {
		return err
	}

	// Cross-field rules (e.g. distinct request codes) are checked on the
	// merged config before anything is written.
	previous := viper.Get(key)
	viper.Set(key, typedValue)
	if _, err := appconfig.Load(); err != nil {
		viper.Set(key, previous)
		return fmt.Errorf("invalid configuration: %w", err)
	}

	configFile, err := writeConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(out, "Config saved to %s\n", configFile)
	return nil
}

func writeConfig() (string, error) {
	configDir := appconfig.ConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := appconfig.ConfigFile()
	if err := viper.WriteConfigAs(configFile); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return configFile, nil
}

// defaultConfigContent is the commented file written by config init.
const defaultConfigContent = `# playbridge configuration

# Identity/leaderboard session
session:
  # Activity request code reserved for the sign-in resolution flow
  resolve_request_code: 1001

# Leaderboard the game submits to
leaderboard:
  id: CgkIjuz8p5UVEAIQAQ
  # Activity request code used when opening the leaderboard view
  request_code: 1002

# Social share
share:
  # Preferred share target
  target_package: com.twitter.android
  # Browser endpoint used when the target is not installed
  web_url: http://twitter.com/share
  # Where images are staged before sharing (empty: system temp dir)
  staging_dir: ""

# Ad banner
ads:
  unit_id: f894d395a3f5431b
  # Show the banner when the host starts
  visible_on_start: true

# Logging
logging:
  enabled: true
  # debug, info, warn or error
  level: info
  # Empty means ~/.config/playbridge/logs
  dir: ""
  max_size_mb: 10
  max_backups: 3
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := appconfig.ConfigDir()
	configFile := appconfig.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'playbridge config set' to modify values", configFile)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfigContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file at %s\n", configFile)
	fmt.Fprintln(out, "Edit this file to customize playbridge's behavior.")
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	configFile := appconfig.ConfigFile()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", configFile)
	}

	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(appconfig.ConfigDir(), "config.yaml"))
	fmt.Fprintf(out, "  2. $HOME/.config/playbridge/config.yaml\n")
	fmt.Fprintf(out, "  3. ./config.yaml (current directory)\n")
	fmt.Fprintln(out, "\nEnvironment variables: PLAYBRIDGE_* (e.g., PLAYBRIDGE_LOGGING_LEVEL)")
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	configFile := appconfig.ConfigFile()

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		fmt.Fprintf(cmd.OutOrStdout(), "Config file doesn't exist, creating with defaults...\n")
		if err := runConfigInit(cmd, args); err != nil {
			return err
		}
	}

	editor := findEditor()
	if editor == "" {
		return fmt.Errorf("no editor found. Set $EDITOR environment variable")
	}

	editorCmd := execCommand(editor, configFile)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor exited with error: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Config file saved: %s\n", configFile)
	return nil
}

func findEditor() string {
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	if editor := os.Getenv("VISUAL"); editor != "" {
		return editor
	}
	for _, e := range []string{"vim", "nano", "vi"} {
		if _, err := execLookPath(e); err == nil {
			return e
		}
	}
	return ""
}

func runConfigReset(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	defaults := defaultValues()

	if len(args) == 0 {
		for key, value := range defaults {
			viper.Set(key, value)
		}
		fmt.Fprintln(out, "Reset all configuration to defaults.")
	} else {
		key := args[0]
		value, ok := defaults[key]
		if !ok {
			return fmt.Errorf("unknown configuration key: %s\nRun 'playbridge config set --help' to see valid keys", key)
		}
		viper.Set(key, value)
		fmt.Fprintf(out, "Reset %s to default: %v\n", key, value)
	}

	configFile, err := writeConfig()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Config saved to %s\n", configFile)
	return nil
}
