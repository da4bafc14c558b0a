package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/handiism/manga-downloader/internal/pack"
	"github.com/handiism/manga-downloader/internal/workerpool"
)

// EnvPrefix prefixes environment overrides, e.g. MANGADL_CHAPTER_WORKERS.
const EnvPrefix = "MANGADL"

// Output formats.
const (
	FormatImages = pack.FormatImages
	FormatCBZ    = pack.FormatCBZ
	FormatEPUB   = pack.FormatEPUB
)

// Formats lists the accepted values of Settings.Format.
var Formats = []string{FormatImages, FormatCBZ, FormatEPUB}

// Settings holds all configuration options.
type Settings struct {
	// Download settings
	DownloadsPath    string        `mapstructure:"downloads_path"`
	ChapterWorkers   int           `mapstructure:"chapter_workers"`
	AssetWorkers     int           `mapstructure:"asset_workers"`
	DiscoveryWorkers int           `mapstructure:"discovery_workers"`
	MaxRetries       int           `mapstructure:"max_retries"`
	Timeout          time.Duration `mapstructure:"timeout"`
	RetryBaseDelay   time.Duration `mapstructure:"retry_base_delay"`
	RetryExponent    float64       `mapstructure:"retry_exponent"`
	UserAgent        string        `mapstructure:"user_agent"`

	// Packing
	Format       string `mapstructure:"format"` // images, cbz, epub
	DeleteImages bool   `mapstructure:"delete_images"`
	MaxImageSize int    `mapstructure:"max_image_size"`

	// History and logging
	LibraryPath string `mapstructure:"library_path"`
	LogLevel    string `mapstructure:"log_level"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	return &Settings{
		DownloadsPath:    filepath.Join(homeDir, "Downloads", "manga"),
		ChapterWorkers:   2,
		AssetWorkers:     4,
		DiscoveryWorkers: 3,
		MaxRetries:       3,
		Timeout:          30 * time.Second,
		RetryBaseDelay:   time.Second,
		RetryExponent:    2,
		UserAgent:        "",

		Format:       FormatImages,
		DeleteImages: false,
		MaxImageSize: 0,

		LibraryPath: filepath.Join(dataDir(), "library.db"),
		LogLevel:    "info",
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "manga-downloader", "config.yaml")
}

// Load reads settings from the config file at path, then applies
// MANGADL_* environment variables and the changed flags of flags, in
// increasing precedence. A missing file yields the defaults. An empty path
// means DefaultPath. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Settings, error) {
	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	for key, value := range DefaultSettings().values() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key := range DefaultSettings().values() {
			if f := flags.Lookup(strings.ReplaceAll(key, "_", "-")); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", f.Name, err)
				}
			}
		}
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return settings, nil
}

// Save writes settings to path. The format follows the file extension.
func (s *Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	v := viper.New()
	for key, value := range s.values() {
		v.Set(key, value)
	}
	return v.WriteConfigAs(path)
}

// Validate rejects settings the pipeline cannot run with. Values are not
// clamped.
func (s *Settings) Validate() error {
	var errs []error
	positive := map[string]int{
		"chapter_workers":   s.ChapterWorkers,
		"asset_workers":     s.AssetWorkers,
		"discovery_workers": s.DiscoveryWorkers,
		"max_retries":       s.MaxRetries,
	}
	for _, key := range slices.Sorted(maps.Keys(positive)) {
		if positive[key] < 1 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", key, positive[key]))
		}
	}
	if s.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", s.Timeout))
	}
	if s.RetryBaseDelay < 0 {
		errs = append(errs, fmt.Errorf("retry_base_delay must not be negative, got %s", s.RetryBaseDelay))
	}
	if s.RetryExponent < 1 {
		errs = append(errs, fmt.Errorf("retry_exponent must be at least 1, got %g", s.RetryExponent))
	}
	if !slices.Contains(Formats, s.Format) {
		errs = append(errs, fmt.Errorf("format must be one of %s, got %q", strings.Join(Formats, ", "), s.Format))
	}
	if s.MaxImageSize < 0 {
		errs = append(errs, fmt.Errorf("max_image_size must not be negative, got %d", s.MaxImageSize))
	}
	return errors.Join(errs...)
}

// Backoff returns the retry delay policy.
func (s *Settings) Backoff() workerpool.Backoff {
	return workerpool.Backoff{Base: s.RetryBaseDelay, Factor: s.RetryExponent}
}

func (s *Settings) values() map[string]any {
	return map[string]any{
		"downloads_path":    s.DownloadsPath,
		"chapter_workers":   s.ChapterWorkers,
		"asset_workers":     s.AssetWorkers,
		"discovery_workers": s.DiscoveryWorkers,
		"max_retries":       s.MaxRetries,
		"timeout":           s.Timeout.String(),
		"retry_base_delay":  s.RetryBaseDelay.String(),
		"retry_exponent":    s.RetryExponent,
		"user_agent":        s.UserAgent,
		"format":            s.Format,
		"delete_images":     s.DeleteImages,
		"max_image_size":    s.MaxImageSize,
		"library_path":      s.LibraryPath,
		"log_level":         s.LogLevel,
	}
}

func dataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "manga-downloader")
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".local", "share", "manga-downloader")
}

// Field is one setting as shown to users.
type Field struct {
	Key   string
	Value string
}

// Fields returns every setting in key order.
func (s *Settings) Fields() []Field {
	values := s.values()
	fields := make([]Field, 0, len(values))
	for _, key := range slices.Sorted(maps.Keys(values)) {
		fields = append(fields, Field{Key: key, Value: fmt.Sprint(values[key])})
	}
	return fields
}

// RegisterFlags defines one flag per setting on fs, named after the
// setting key with dashes, e.g. --chapter-workers. Load picks up the flags
// that were changed.
func RegisterFlags(fs *pflag.FlagSet) {
	d := DefaultSettings()
	fs.StringP("downloads-path", "o", d.DownloadsPath, "root directory for downloaded series")
	fs.Int("chapter-workers", d.ChapterWorkers, "chapters downloaded concurrently")
	fs.Int("asset-workers", d.AssetWorkers, "pages downloaded concurrently per chapter")
	fs.Int("discovery-workers", d.DiscoveryWorkers, "chapter pages scanned concurrently")
	fs.Int("max-retries", d.MaxRetries, "attempts per file")
	fs.Duration("timeout", d.Timeout, "timeout of a single file attempt")
	fs.Duration("retry-base-delay", d.RetryBaseDelay, "delay before the second attempt")
	fs.Float64("retry-exponent", d.RetryExponent, "growth factor of the retry delay")
	fs.String("user-agent", d.UserAgent, "User-Agent header (empty for the built-in one)")
	fs.StringP("format", "f", d.Format, "output format: "+strings.Join(Formats, ", "))
	fs.Bool("delete-images", d.DeleteImages, "delete page images after packing")
	fs.Int("max-image-size", d.MaxImageSize, "scale packed pages to fit this many pixels (0 keeps size)")
	fs.String("library-path", d.LibraryPath, "run history database (empty disables history)")
	fs.String("log-level", d.LogLevel, "log level: debug, info, warn, error")
}
