// Package config loads scan settings from an optional TOML file and builds
// the run's logger.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// Log selects the logger's level and output format.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the complete set of scan settings.
type Config struct {
	Root   string `toml:"root"`
	Output string `toml:"output"`
	// Workers bounds concurrent component tasks; 0 means runtime.NumCPU().
	Workers int `toml:"workers"`
	// MaxArchives caps archive discovery; 0 means no cap.
	MaxArchives       int      `toml:"max_archives"`
	ArchiveExtensions []string `toml:"archive_extensions"`
	// CacheDir enables the decoded-archive cache when set.
	CacheDir string `toml:"cache_dir"`
	// MetricsFile receives the run's metrics in text exposition format when set.
	MetricsFile string `toml:"metrics_file"`
	Log         Log    `toml:"log"`
}

var (
	levels  = []string{"debug", "info", "warn", "error"}
	formats = []string{"text", "logfmt", "json"}
)

// Default returns the settings used when neither a file nor flags say otherwise.
func Default() Config {
	return Config{
		ArchiveExtensions: []string{"jar"},
		Log:               Log{Level: "info", Format: "text"},
	}
}

// Load returns Default overlaid with the TOML file at path. An empty path
// yields the defaults. Keys the file sets but Config does not know are an
// error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// EffectiveWorkers resolves Workers to a positive count.
func (c Config) EffectiveWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// Validate reports every problem with c at once.
func (c Config) Validate() error {
	var errs []error
	if c.Root == "" {
		errs = append(errs, errors.New("root is required"))
	}
	if c.Output == "" {
		errs = append(errs, errors.New("output is required"))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.MaxArchives < 0 {
		errs = append(errs, fmt.Errorf("max_archives must not be negative, got %d", c.MaxArchives))
	}
	if len(c.ArchiveExtensions) == 0 {
		errs = append(errs, errors.New("archive_extensions must not be empty"))
	}
	for _, ext := range c.ArchiveExtensions {
		if strings.TrimPrefix(ext, ".") == "" {
			errs = append(errs, errors.New("archive_extensions contains an empty extension"))
			break
		}
	}
	if !slices.Contains(levels, strings.ToLower(c.Log.Level)) {
		errs = append(errs, fmt.Errorf("log.level %q is not one of %s", c.Log.Level, strings.Join(levels, ", ")))
	}
	if !slices.Contains(formats, strings.ToLower(c.Log.Format)) {
		errs = append(errs, fmt.Errorf("log.format %q is not one of %s", c.Log.Format, strings.Join(formats, ", ")))
	}
	return errors.Join(errs...)
}
