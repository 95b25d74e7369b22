// Package config provides configuration management for the cush shell.
// It uses viper for loading configuration from command-line flags, environment variables,
// and optionally a YAML config file.
//
// Configuration priority (highest to lowest):
// 1. Command-line flags
// 2. Environment variables (with CUSH_ prefix)
// 3. Config file (--config, or ~/.cush.yaml when present)
// 4. Defaults
package config

import (
	"cush/internal/domain/service"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Viper keys. Flags are bound under the same names and environment variables
// use the upper-cased key with dashes replaced (history-size -> CUSH_HISTORY_SIZE).
const (
	KeyConfig            = "config"
	KeyPrompt            = "prompt"
	KeyPromptColor       = "prompt-color"
	KeyShell             = "shell"
	KeyHistorySize       = "history-size"
	KeyHistoryIgnoreDups = "history-ignore-dups"
	KeyEscapeTimeout     = "escape-timeout"
	KeyInteractive       = "interactive"
	KeyEchoExpansion     = "echo-expansion"
	KeyLogLevel          = "log-level"
	KeyLogFile           = "log-file"
	KeyLogFormat         = "log-format"
)

// DefaultConfigFileName is looked up in the home directory when no config file is given.
const DefaultConfigFileName = ".cush.yaml"

// Config holds all configuration values for the shell.
type Config struct {
	// ConfigFile is the config file that was read, if any.
	ConfigFile string

	// PromptFormat is the prompt template.
	// Defaults to `<\u@\h>$`
	PromptFormat string

	// PromptColor is an optional lipgloss color for the prompt. Empty means no color.
	PromptColor string

	// Shell is the interpreter external commands are run with as `<shell> -c <line>`.
	// Defaults to "/bin/sh"
	Shell string

	// HistoryMaxEntries bounds the in-memory history. 0 keeps every entry.
	HistoryMaxEntries int

	// HistoryIgnoreDups skips recording a command equal to the previous one.
	HistoryIgnoreDups bool

	// EscapeTimeout is how long a partial escape sequence waits for more bytes.
	// Defaults to 50ms
	EscapeTimeout time.Duration

	// Interactive forces prompt and line editing when stdin is not a terminal.
	Interactive bool

	// EchoExpansion prints the resolved command before running a bang reference.
	// Defaults to true
	EchoExpansion bool

	// LogLevel is one of debug, info, warn, error.
	// Defaults to "info"
	LogLevel string

	// LogFile receives log output. Empty discards logs.
	LogFile string

	// LogFormat is "text" or "json".
	// Defaults to "text"
	LogFormat string
}

// Defaults returns a Config struct with all default values set.
func Defaults() *Config {
	return &Config{
		PromptFormat:  service.DefaultPromptFormat,
		Shell:         "/bin/sh",
		EscapeTimeout: 50 * time.Millisecond,
		EchoExpansion: true,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// ReadConfigFile loads a YAML config file into viper. An explicit path must
// exist. With an empty path ~/.cush.yaml is read when present; its absence
// is not an error.
//
// Returns:
//   - string: The path of the file that was read, or "" if none
//   - error: An error if the file could not be read or parsed
func ReadConfigFile(path string) (string, error) {
	if path == "" {
		home, err := homedir.Dir()
		if err != nil {
			return "", nil
		}
		path = filepath.Join(home, DefaultConfigFileName)
		if _, err := os.Stat(path); err != nil {
			return "", nil
		}
	}

	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve config path %q: %w", path, err)
	}

	viper.SetConfigFile(expanded)
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return "", fmt.Errorf("failed to read config file %s: %w", expanded, err)
	}
	return expanded, nil
}

// LoadConfig loads and returns the configuration from viper.
// It sets up environment variable bindings with the CUSH_ prefix.
//
// The caller is expected to have set up viper with BindPFlag() calls
// for command-line flags, and ReadConfigFile for the config file,
// before calling this function. Invalid values fall back to defaults.
//
// Returns:
//   - *Config: The loaded configuration
func LoadConfig() *Config {
	cfg := Defaults()

	viper.SetEnvPrefix("CUSH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	cfg.ConfigFile = viper.ConfigFileUsed()

	if viper.IsSet(KeyPrompt) {
		if format := viper.GetString(KeyPrompt); format != "" {
			cfg.PromptFormat = format
		}
	}
	if viper.IsSet(KeyPromptColor) {
		cfg.PromptColor = strings.TrimSpace(viper.GetString(KeyPromptColor))
	}
	if viper.IsSet(KeyShell) {
		if shell := strings.TrimSpace(viper.GetString(KeyShell)); shell != "" {
			cfg.Shell = shell
		}
	}
	if viper.IsSet(KeyHistorySize) {
		if size := viper.GetInt(KeyHistorySize); size > 0 {
			cfg.HistoryMaxEntries = size
		}
	}
	if viper.IsSet(KeyHistoryIgnoreDups) {
		cfg.HistoryIgnoreDups = viper.GetBool(KeyHistoryIgnoreDups)
	}
	if viper.IsSet(KeyEscapeTimeout) {
		if timeout := viper.GetDuration(KeyEscapeTimeout); timeout > 0 {
			cfg.EscapeTimeout = timeout
		}
	}
	if viper.IsSet(KeyInteractive) {
		cfg.Interactive = viper.GetBool(KeyInteractive)
	}
	if viper.IsSet(KeyEchoExpansion) {
		cfg.EchoExpansion = viper.GetBool(KeyEchoExpansion)
	}
	if viper.IsSet(KeyLogLevel) {
		level := strings.ToLower(strings.TrimSpace(viper.GetString(KeyLogLevel)))
		switch level {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = level
		}
	}
	if viper.IsSet(KeyLogFile) {
		cfg.LogFile = viper.GetString(KeyLogFile)
	}
	if viper.IsSet(KeyLogFormat) {
		format := strings.ToLower(strings.TrimSpace(viper.GetString(KeyLogFormat)))
		if format == "text" || format == "json" {
			cfg.LogFormat = format
		}
	}

	return cfg
}
