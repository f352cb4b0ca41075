// Package config loads rbdl settings from an optional TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agleyzer/rbdl/internal/fetch"
	"github.com/pelletier/go-toml/v2"
)

const (
	defaultFFmpeg        = "ffmpeg"
	defaultFetchTimeout  = 30 * time.Second
	defaultSubtitleCodec = "mov_text"
)

// Config holds the settings for a download.
type Config struct {
	// BaseURL is the streaming endpoint "{ID}.m3u8" is joined with
	BaseURL string `toml:"base_url"`
	// FFmpeg is the ffmpeg executable, looked up in PATH when not absolute
	FFmpeg string `toml:"ffmpeg"`
	// FetchTimeout bounds the manifest request, e.g. "30s"
	FetchTimeout Duration `toml:"fetch_timeout"`
	// SubtitleCodec is the codec subtitle tracks are transcoded to
	SubtitleCodec string `toml:"subtitle_codec"`
	// Overwrite lets ffmpeg replace an existing output file
	Overwrite bool `toml:"overwrite"`
}

// Duration is a time.Duration written as a Go duration string in TOML.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		BaseURL:       fetch.DefaultBaseURL,
		FFmpeg:        defaultFFmpeg,
		FetchTimeout:  Duration(defaultFetchTimeout),
		SubtitleCodec: defaultSubtitleCodec,
	}
}

// DefaultPath returns the per-user configuration file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "rbdl", "config.toml"), nil
}

// Load reads the configuration file at path. An empty path means the
// default location, which is allowed to be missing; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		defaultPath, err := DefaultPath()
		if err != nil {
			return &cfg, nil
		}
		path = defaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, nil
}

// Validate checks the configuration and fills in defaults for empty values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = fetch.DefaultBaseURL
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url %q: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url %q must be an http or https URL", c.BaseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		return fmt.Errorf("base_url %q must end with a slash", c.BaseURL)
	}

	if c.FetchTimeout < 0 {
		return fmt.Errorf("fetch_timeout must be positive, got %s", time.Duration(c.FetchTimeout))
	}

	// Set defaults
	if c.FetchTimeout == 0 {
		c.FetchTimeout = Duration(defaultFetchTimeout)
	}
	if strings.TrimSpace(c.FFmpeg) == "" {
		c.FFmpeg = defaultFFmpeg
	}
	if strings.TrimSpace(c.SubtitleCodec) == "" {
		c.SubtitleCodec = defaultSubtitleCodec
	}

	return nil
}
