// Package config handles loading and managing application configuration
// from YAML files, an optional .env file and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EncodeConfig controls how the QR raster is produced.
type EncodeConfig struct {
	Width           int    `yaml:"width"`
	Margin          int    `yaml:"margin"`
	Dark            string `yaml:"dark"`
	Light           string `yaml:"light"`
	ErrorCorrection string `yaml:"error_correction"`
}

// ExportConfig controls the layout of the downloadable composite image.
type ExportConfig struct {
	QRSize                 int    `yaml:"qr_size"`
	Padding                int    `yaml:"padding"`
	TitleHeight            int    `yaml:"title_height"`
	TitlePlaceholderHeight int    `yaml:"title_placeholder_height"`
	WatermarkHeight        int    `yaml:"watermark_height"`
	Watermark              string `yaml:"watermark"`
	Background             string `yaml:"background"`
	Foreground             string `yaml:"foreground"`
	WatermarkColor         string `yaml:"watermark_color"`
	TitleFontSize          int    `yaml:"title_font_size"`
	WatermarkFontSize      int    `yaml:"watermark_font_size"`
	JPEGQuality            int    `yaml:"jpeg_quality"`
}

// Config holds all application configuration values.
type Config struct {
	Port           int          `yaml:"port"`
	DataDir        string       `yaml:"data_dir"`
	OutputDir      string       `yaml:"output_dir"`
	LogLevel       string       `yaml:"log_level"`
	HistorySize    int          `yaml:"history_size"`
	NotifyDuration Duration     `yaml:"notify_duration"`
	WebhookURL     string       `yaml:"webhook_url"`
	WebhookRetries int          `yaml:"webhook_retries"`
	Encode         EncodeConfig `yaml:"encode"`
	Export         ExportConfig `yaml:"export"`
}

// Duration is a wrapper around time.Duration that supports YAML unmarshalling
// from human-readable strings like "2s", "500ms".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Defaults returns a Config populated with the values the tool ships with.
func Defaults() *Config {
	cfg := defaults()
	cfg.resolveDirs()
	return cfg
}

// defaults leaves OutputDir empty so Load can derive it from the final
// DataDir.
func defaults() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	dataDir := filepath.Join(homeDir, ".qrgen")
	return &Config{
		Port:           8556,
		DataDir:        dataDir,
		LogLevel:       "info",
		HistorySize:    3,
		NotifyDuration: Duration{2 * time.Second},
		WebhookRetries: 3,
		Encode: EncodeConfig{
			Width:           200,
			Margin:          2,
			Dark:            "#1f2937",
			Light:           "#ffffff",
			ErrorCorrection: "M",
		},
		Export: ExportConfig{
			QRSize:                 200,
			Padding:                40,
			TitleHeight:            60,
			TitlePlaceholderHeight: 20,
			WatermarkHeight:        30,
			Watermark:              "QR generated by gitanshu.world",
			Background:             "#ffffff",
			Foreground:             "#1f2937",
			WatermarkColor:         "#6b7280",
			TitleFontSize:          24,
			WatermarkFontSize:      12,
			JPEGQuality:            92,
		},
	}
}

// Load reads configuration from the YAML file at path, falling back to
// defaults if the file does not exist. A .env file next to the working
// directory is loaded into the environment when present, then QRGEN_*
// environment variables override any file or default values.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// File doesn't exist, proceed with defaults.
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.resolveDirs()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies QRGEN_* environment variable overrides to cfg.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("QRGEN_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := os.Getenv("QRGEN_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("QRGEN_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("QRGEN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("QRGEN_WEBHOOK_URL"); v != "" {
		cfg.WebhookURL = v
	}
	if v := os.Getenv("QRGEN_HISTORY_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HistorySize = n
		}
	}
	if v := os.Getenv("QRGEN_NOTIFY_DURATION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.NotifyDuration = Duration{d}
		}
	}
	if v := os.Getenv("QRGEN_WATERMARK"); v != "" {
		cfg.Export.Watermark = v
	}
	if v := os.Getenv("QRGEN_ERROR_CORRECTION"); v != "" {
		cfg.Encode.ErrorCorrection = strings.ToUpper(v)
	}
}

var hexColor = regexp.MustCompile(`^#?([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.HistorySize <= 0 {
		return fmt.Errorf("history_size must be positive, got %d", c.HistorySize)
	}
	if c.WebhookRetries < 0 {
		return fmt.Errorf("webhook_retries must not be negative, got %d", c.WebhookRetries)
	}
	if c.NotifyDuration.Duration <= 0 {
		return fmt.Errorf("notify_duration must be positive, got %s", c.NotifyDuration.Duration)
	}
	switch c.Encode.ErrorCorrection {
	case "L", "M", "Q", "H":
	default:
		return fmt.Errorf("invalid error_correction %q (want L, M, Q or H)", c.Encode.ErrorCorrection)
	}
	if c.Encode.Width <= 0 || c.Encode.Margin < 0 {
		return fmt.Errorf("invalid encode size: width=%d margin=%d", c.Encode.Width, c.Encode.Margin)
	}
	e := c.Export
	for name, v := range map[string]int{
		"qr_size":             e.QRSize,
		"title_font_size":     e.TitleFontSize,
		"watermark_font_size": e.WatermarkFontSize,
	} {
		if v <= 0 {
			return fmt.Errorf("export.%s must be positive, got %d", name, v)
		}
	}
	if e.Padding < 0 || e.TitleHeight < 0 || e.TitlePlaceholderHeight < 0 || e.WatermarkHeight < 0 {
		return fmt.Errorf("export bands must not be negative")
	}
	if e.JPEGQuality < 1 || e.JPEGQuality > 100 {
		return fmt.Errorf("export.jpeg_quality must be 1-100, got %d", e.JPEGQuality)
	}
	for name, v := range map[string]string{
		"encode.dark":            c.Encode.Dark,
		"encode.light":           c.Encode.Light,
		"export.background":      e.Background,
		"export.foreground":      e.Foreground,
		"export.watermark_color": e.WatermarkColor,
	} {
		if !hexColor.MatchString(v) {
			return fmt.Errorf("%s: invalid hex color %q", name, v)
		}
	}
	return nil
}

// resolveDirs places OutputDir under DataDir unless it was set explicitly.
func (c *Config) resolveDirs() {
	if c.OutputDir == "" {
		c.OutputDir = filepath.Join(c.DataDir, "exports")
	}
}

// EnsureDirs creates the DataDir and OutputDir if they do not already exist.
func (c *Config) EnsureDirs() error {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir %s: %w", c.DataDir, err)
	}
	if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir %s: %w", c.OutputDir, err)
	}
	return nil
}

// LedgerPath is the location of the export ledger database.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.DataDir, "exports.db")
}
