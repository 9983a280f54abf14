// Package config provides configuration loading from YAML files.
package config

import (
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding file values.
const (
	EnvStreamDomains   = "RELAYTUNE_STREAM_DOMAINS"
	EnvMetadataDomains = "RELAYTUNE_METADATA_DOMAINS"
	EnvStatusAddr      = "RELAYTUNE_STATUS_ADDR"
)

// UI modes.
const (
	UIModeTUI      = "tui"
	UIModeHeadless = "headless"
)

// Config represents the application configuration.
type Config struct {
	Backends BackendsConfig          `yaml:"backends"`
	Playback PlaybackConfig          `yaml:"playback"`
	Filters  map[string]FilterConfig `yaml:"filters"`
	UI       UIConfig                `yaml:"ui"`
	Status   StatusConfig            `yaml:"status"`
	Log      LogConfig               `yaml:"log"`
}

// BackendsConfig represents the stream and metadata backends.
type BackendsConfig struct {
	Stream            FamilyConfig `yaml:"stream"`
	Metadata          FamilyConfig `yaml:"metadata"`
	RequestTimeoutMs  int          `yaml:"request_timeout_ms" default:"5000" validate:"gte=100,lte=60000"`
	RequestsPerSecond float64      `yaml:"requests_per_second" default:"10" validate:"gte=0"`
	RankOnRefresh     bool         `yaml:"rank_on_refresh"`
	GenreCacheSize    int          `yaml:"genre_cache_size" default:"1024" validate:"gte=1"`
}

// FamilyConfig represents one backend family's mirror list.
type FamilyConfig struct {
	Domains      []string `yaml:"domains" validate:"min=1,dive,url"`
	Index        int      `yaml:"index" validate:"gte=0"`
	DirectoryURL string   `yaml:"directory_url" validate:"omitempty,url"`
}

// PlaybackConfig represents playback behaviour.
type PlaybackConfig struct {
	BaseVolume              int  `yaml:"base_volume" default:"50" validate:"gte=0,lte=100"`
	ShufflePlaylist         bool `yaml:"shuffle_playlist"`
	PlayOnlyRecommendations bool `yaml:"play_only_recommendations"`
	MaxRepairAttempts       int  `yaml:"max_repair_attempts" default:"3" validate:"gte=1,lte=10"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Settings map[string]any `yaml:"settings,omitempty"`
}

// UIConfig represents the presentation layer.
type UIConfig struct {
	Mode string `yaml:"mode" default:"tui" validate:"oneof=tui headless"`
}

// StatusConfig represents the local status server. An empty address
// disables it.
type StatusConfig struct {
	Addr string `yaml:"addr" validate:"omitempty,hostname_port"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Debug bool   `yaml:"debug"`
	File  string `yaml:"file" default:"relaytune.log"`
}

// Default mirrors used when the file lists none.
var (
	DefaultStreamDomains   = []string{"https://pipedapi.kavin.rocks", "https://piped-api.garudalinux.org"}
	DefaultMetadataDomains = []string{"https://invidious.garudalinux.org", "https://yewtu.be"}
)

// Load loads configuration from a YAML file.
// A missing file yields the defaults. Environment variables take
// precedence over file values.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only.
	default:
		return nil, errors.Wrap(err, "failed to read config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	cfg.applyDomainDefaults()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv(EnvStreamDomains); v != "" {
		c.Backends.Stream.Domains = splitList(v)
		c.Backends.Stream.Index = 0
	}
	if v := os.Getenv(EnvMetadataDomains); v != "" {
		c.Backends.Metadata.Domains = splitList(v)
		c.Backends.Metadata.Index = 0
	}
	if v := os.Getenv(EnvStatusAddr); v != "" {
		c.Status.Addr = v
	}
}

func (c *Config) applyDomainDefaults() {
	if len(c.Backends.Stream.Domains) == 0 {
		c.Backends.Stream.Domains = append([]string(nil), DefaultStreamDomains...)
	}
	if len(c.Backends.Metadata.Domains) == 0 {
		c.Backends.Metadata.Domains = append([]string(nil), DefaultMetadataDomains...)
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.TrimRight(part, "/"))
		}
	}
	return out
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if c.Backends.Stream.Index >= len(c.Backends.Stream.Domains) {
		return errors.Newf("backends.stream.index (%d) is out of range (domains: %d)", c.Backends.Stream.Index, len(c.Backends.Stream.Domains))
	}
	if c.Backends.Metadata.Index >= len(c.Backends.Metadata.Domains) {
		return errors.Newf("backends.metadata.index (%d) is out of range (domains: %d)", c.Backends.Metadata.Index, len(c.Backends.Metadata.Domains))
	}

	return nil
}

// RequestTimeout returns the per-request backend timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Backends.RequestTimeoutMs) * time.Millisecond
}

// FilterSettings returns the settings of every configured filter.
func (c *Config) FilterSettings() map[string]map[string]any {
	settings := make(map[string]map[string]any, len(c.Filters))
	for name, f := range c.Filters {
		settings[name] = f.Settings
	}
	return settings
}

// IsHeadless reports whether the terminal UI is disabled.
func (c *Config) IsHeadless() bool {
	return c.UI.Mode == UIModeHeadless
}
