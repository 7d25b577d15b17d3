package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`

	// External API (secrets come from the environment)
	APIKey          string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	APIBaseURL      string `mapstructure:"api_base_url" yaml:"api_base_url"`
	FetchTimeoutSec int    `mapstructure:"fetch_timeout_sec" yaml:"fetch_timeout_sec"`

	// Charts
	GroupDisplayCap int `mapstructure:"group_display_cap" yaml:"group_display_cap"`
	HistogramBins   int `mapstructure:"histogram_bins" yaml:"histogram_bins"`

	// Upload limits
	MaxUploadMB int `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	MaxRows     int `mapstructure:"max_rows" yaml:"max_rows"`

	// Memoization and sessions
	CacheTTLSec     int `mapstructure:"cache_ttl_sec" yaml:"cache_ttl_sec"`
	CacheMaxEntries int `mapstructure:"cache_max_entries" yaml:"cache_max_entries"`
	SessionTTLMin   int `mapstructure:"session_ttl_min" yaml:"session_ttl_min"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	SeqURL   string `mapstructure:"seq_url" yaml:"seq_url"`
	// DBPath enables the sqlite activity log when set.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// Addr is the listen address.
func (c *Global) Addr() string { return net.JoinHostPort(c.Host, strconv.Itoa(c.Port)) }

func (c *Global) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSec) * time.Second
}

func (c *Global) CacheTTL() time.Duration { return time.Duration(c.CacheTTLSec) * time.Second }

func (c *Global) SessionTTL() time.Duration { return time.Duration(c.SessionTTLMin) * time.Minute }

func (c *Global) MaxUploadBytes() int64 { return int64(c.MaxUploadMB) << 20 }

// Validate rejects values the server cannot run with.
func (c *Global) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.GroupDisplayCap < 1 {
		errs = append(errs, fmt.Errorf("group_display_cap must be positive, got %d", c.GroupDisplayCap))
	}
	if c.HistogramBins < 0 {
		errs = append(errs, fmt.Errorf("histogram_bins must not be negative, got %d", c.HistogramBins))
	}
	if c.MaxUploadMB < 1 {
		errs = append(errs, fmt.Errorf("max_upload_mb must be positive, got %d", c.MaxUploadMB))
	}
	if c.FetchTimeoutSec < 1 {
		errs = append(errs, fmt.Errorf("fetch_timeout_sec must be positive, got %d", c.FetchTimeoutSec))
	}
	return errors.Join(errs...)
}

// DefaultPath is ~/.dataloom/config.yaml, or "" when the home dir is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".dataloom", "config.yaml")
}

// Save writes the configuration as YAML to cfgFile (DefaultPath when empty),
// creating the directory if necessary. The API key is never written.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		path = DefaultPath()
		if path == "" {
			return errors.New("resolve home dir: no config path")
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	out := *c
	out.APIKey = ""
	b, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. PORT, API_KEY and API_BASE_URL
// are read unprefixed; every key also accepts a DATALOOM_ variable.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DATALOOM")
	v.AutomaticEnv()
	for key, env := range map[string]string{"port": "PORT", "api_key": "API_KEY", "api_base_url": "API_BASE_URL"} {
		if err := v.BindEnv(key, "DATALOOM_"+env, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	// Defaults
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8501)
	v.SetDefault("api_key", "")
	v.SetDefault("api_base_url", "")
	v.SetDefault("fetch_timeout_sec", 30)
	v.SetDefault("group_display_cap", 20)
	v.SetDefault("histogram_bins", 0)
	v.SetDefault("max_upload_mb", 200)
	v.SetDefault("max_rows", 1_000_000)
	v.SetDefault("cache_ttl_sec", 3600)
	v.SetDefault("cache_max_entries", 128)
	v.SetDefault("session_ttl_min", 60)
	v.SetDefault("log_level", "info")
	v.SetDefault("seq_url", "")
	v.SetDefault("db_path", "")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".dataloom"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &c, nil
}
