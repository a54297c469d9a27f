package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/wordmd/internal/editor"
	"github.com/starford/wordmd/internal/session"
	"github.com/starford/wordmd/internal/staging"
	"github.com/starford/wordmd/internal/watcher"
	pkgconfig "github.com/starford/wordmd/pkg/config"
)

// Log formats.
const (
	LogFormatAuto = "auto"
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Config represents the application configuration.
type Config struct {
	App           ApplicationConfig   `yaml:"app" toml:"app"`
	Session       SessionConfig       `yaml:"session" toml:"session"`
	Convert       ConvertConfig       `yaml:"convert" toml:"convert"`
	Journal       JournalConfig       `yaml:"journal" toml:"journal"`
	DefaultEditor string              `yaml:"default_editor" toml:"default_editor"`
	Editors       []editor.Definition `yaml:"editors" toml:"editors"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Session.Validate(); err != nil {
		return err
	}
	for i := range c.Editors {
		if err := c.Editors[i].Validate(); err != nil {
			return fmt.Errorf("editors[%d]: %w", i, err)
		}
	}
	if c.DefaultEditor != "" && !c.hasEditor(c.DefaultEditor) {
		return fmt.Errorf("default_editor: unknown editor %q", c.DefaultEditor)
	}
	return nil
}

func (c *Config) hasEditor(name string) bool {
	for _, d := range c.EditorDefinitions() {
		if strings.EqualFold(d.Name, name) {
			return true
		}
	}
	return false
}

// EditorDefinitions returns the built-in editors overlaid with configured ones.
func (c *Config) EditorDefinitions() []editor.Definition {
	return editor.Merge(editor.Defaults(), c.Editors)
}

// SessionSettings converts the configuration into session controller settings.
func (c *Config) SessionSettings() session.Config {
	return session.Config{
		StagingRoot:      c.Session.StagingRoot,
		Debounce:         c.Session.Debounce.Std(),
		LockContainer:    c.Session.LockContainer,
		StripFrontMatter: c.Convert.StripFrontMatter,
	}
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level" toml:"log_level"`
	LogFormat string     `yaml:"log_format" toml:"log_format"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.LogFormat == "" {
		c.LogFormat = LogFormatAuto
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatAuto, LogFormatJSON, LogFormatText)),
	)
}

// SessionConfig holds edit session settings.
type SessionConfig struct {
	StagingRoot   string             `yaml:"staging_root" toml:"staging_root"`
	Debounce      pkgconfig.Duration `yaml:"debounce" toml:"debounce"`
	LockContainer bool               `yaml:"lock_container" toml:"lock_container"`
	StaleAfter    pkgconfig.Duration `yaml:"stale_after" toml:"stale_after"`
}

// Validate validates the session configuration.
func (c *SessionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.StagingRoot, validation.Required),
		validation.Field(&c.Debounce, validation.Required, validation.Min(int64(10*time.Millisecond))),
		validation.Field(&c.StaleAfter, validation.Min(int64(0))),
	)
}

// ConvertConfig holds markdown conversion settings.
type ConvertConfig struct {
	StripFrontMatter bool `yaml:"strip_front_matter" toml:"strip_front_matter"`
}

// JournalConfig holds the session journal location. An empty path disables
// the journal.
type JournalConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// HomeDir returns the per-user wordmd directory, ~/.wordmd.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".wordmd")
}

// DefaultConfigPath returns the config file used when none is given.
func DefaultConfigPath() string {
	dir := HomeDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	journalPath := ""
	if dir := HomeDir(); dir != "" {
		journalPath = filepath.Join(dir, "journal.db")
	}
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatAuto,
		},
		Session: SessionConfig{
			StagingRoot:   staging.DefaultRoot(),
			Debounce:      pkgconfig.Duration(watcher.DefaultWindow),
			LockContainer: true,
			StaleAfter:    pkgconfig.Duration(staging.DefaultMaxAge),
		},
		Convert: ConvertConfig{
			StripFrontMatter: false,
		},
		Journal: JournalConfig{
			Path: journalPath,
		},
	}
}
