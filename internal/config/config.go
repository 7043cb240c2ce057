// Package config loads html2pdf settings from YAML or TOML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-html2pdf/internal/fileutil"
	"github.com/alnah/go-html2pdf/internal/units"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Accepted enum values. Kept here rather than imported from the library so
// the config layer stays free of rendering dependencies.
var (
	validEngines    = []string{"box", "box-fonts", "browser"}
	validMediaTypes = []string{"print", "screen"}
	validWaits      = []string{"load", "domcontentloaded", "networkidle"}
	validDrivers    = []string{"rod", "playwright"}
	validFormats    = []string{"a4", "a3", "a5", "letter", "legal", "tabloid"}
)

// Viewport bounds in CSS pixels.
const (
	MinViewport = 320
	MaxViewport = 7680
)

// Config holds all configuration for document conversion.
type Config struct {
	Engine  string        `yaml:"engine" toml:"engine"`   // "box", "box-fonts", "browser"
	Timeout string        `yaml:"timeout" toml:"timeout"` // whole conversion, e.g. "2m"
	Output  OutputConfig  `yaml:"output" toml:"output"`
	Box     BoxConfig     `yaml:"box" toml:"box"`
	Browser BrowserConfig `yaml:"browser" toml:"browser"`
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	Dir string `yaml:"dir" toml:"dir"` // Empty = next to the input
}

// BoxConfig defines options for the box-layout engines.
type BoxConfig struct {
	Binary      string   `yaml:"binary" toml:"binary"`           // default "weasyprint"
	MediaType   string   `yaml:"mediaType" toml:"mediaType"`     // "print" or "screen" (box-fonts only)
	Stylesheets []string `yaml:"stylesheets" toml:"stylesheets"` // applied before CLI --css files
	FontConfig  string   `yaml:"fontConfig" toml:"fontConfig"`   // fontconfig file (box-fonts only)
}

// BrowserConfig defines options for the headless-browser engine.
type BrowserConfig struct {
	Driver    string         `yaml:"driver" toml:"driver"`       // "rod" or "playwright"
	Wait      string         `yaml:"wait" toml:"wait"`           // readiness condition
	Settle    string         `yaml:"settle" toml:"settle"`       // delay after readiness, e.g. "1s"
	Bin       string         `yaml:"bin" toml:"bin"`             // Chrome binary (rod only)
	NoSandbox bool           `yaml:"noSandbox" toml:"noSandbox"` // containers and CI
	Viewport  ViewportConfig `yaml:"viewport" toml:"viewport"`
	Page      PageConfig     `yaml:"page" toml:"page"`
}

// ViewportConfig defines the browser window size in CSS pixels.
type ViewportConfig struct {
	Width  int `yaml:"width" toml:"width"`
	Height int `yaml:"height" toml:"height"`
}

// PageConfig defines the printed page for the browser engine.
type PageConfig struct {
	Format string `yaml:"format" toml:"format"` // "a4", "letter", ...
	Margin string `yaml:"margin" toml:"margin"` // CSS length: "20mm", "0.5in", "1cm", "48px"
}

// Validate checks enum values, durations and ranges.
// Called automatically by LoadConfig, but available for callers who build
// a Config by hand.
func (c *Config) Validate() error {
	if err := validateEnum("engine", c.Engine, validEngines); err != nil {
		return err
	}
	if err := validateDuration("timeout", c.Timeout); err != nil {
		return err
	}
	if err := validateEnum("box.mediaType", c.Box.MediaType, validMediaTypes); err != nil {
		return err
	}
	if err := validateEnum("browser.driver", c.Browser.Driver, validDrivers); err != nil {
		return err
	}
	if err := validateEnum("browser.wait", c.Browser.Wait, validWaits); err != nil {
		return err
	}
	if err := validateDuration("browser.settle", c.Browser.Settle); err != nil {
		return err
	}
	if err := validateEnum("browser.page.format", c.Browser.Page.Format, validFormats); err != nil {
		return err
	}
	if c.Browser.Page.Margin != "" {
		if _, err := units.ParseLength(c.Browser.Page.Margin); err != nil {
			return fmt.Errorf("%w: browser.page.margin: %v", ErrInvalidValue, err)
		}
	}
	if err := validateViewport("browser.viewport.width", c.Browser.Viewport.Width); err != nil {
		return err
	}
	if err := validateViewport("browser.viewport.height", c.Browser.Viewport.Height); err != nil {
		return err
	}
	return nil
}

// TimeoutDuration returns the parsed conversion timeout (0 = unset).
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// SettleDuration returns the parsed settle delay and whether it was set.
// An explicit "0s" disables the delay.
func (b *BrowserConfig) SettleDuration() (time.Duration, bool) {
	if b.Settle == "" {
		return 0, false
	}
	d, err := time.ParseDuration(b.Settle)
	if err != nil {
		return 0, false
	}
	return d, true
}

// validateEnum accepts an empty value (use default) or one of allowed.
func validateEnum(field, value string, allowed []string) error {
	if value == "" {
		return nil
	}
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s: %q (must be one of %s)", ErrInvalidValue, field, value, strings.Join(allowed, ", "))
}

// validateDuration accepts an empty value or a non-negative Go duration.
func validateDuration(field, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidValue, field, err)
	}
	if d < 0 {
		return fmt.Errorf("%w: %s: must not be negative, got %s", ErrInvalidValue, field, value)
	}
	return nil
}

// validateViewport accepts 0 (use default) or a value within bounds.
func validateViewport(field string, v int) error {
	if v == 0 {
		return nil
	}
	if v < MinViewport || v > MaxViewport {
		return fmt.Errorf("%w: %s: must be between %d and %d, got %d", ErrInvalidValue, field, MinViewport, MaxViewport, v)
	}
	return nil
}

// DefaultConfig returns a configuration with every field unset, so library
// defaults apply.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := decode(configPath, data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// IsFilePath returns true if the string looks like a file path.
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\") || filepath.Ext(s) != ""
}

// SearchPaths lists the files tried, in order, when resolving a config name.
// Extensions are tried as .yaml, .yml, .toml in the current directory, then
// in <user config dir>/go-html2pdf/.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml", ".toml"}

	dirs := []string{""}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(userConfigDir, "go-html2pdf"))
	}

	var paths []string
	for _, dir := range dirs {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(dir, name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing entry of SearchPaths.
func resolveConfigPath(name string) (string, error) {
	triedPaths := SearchPaths(name)
	for _, p := range triedPaths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
