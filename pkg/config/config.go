package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cuemby/cadence/pkg/types"
)

// Config keys
const (
	KeyAPIURL          = "api_url"
	KeyWSURL           = "ws_url"
	KeyToken           = "token"
	KeyDataDir         = "data_dir"
	KeyCodec           = "codec"
	KeyLogLevel        = "log.level"
	KeyLogJSON         = "log.json"
	KeyInitialInterval = "reconnect.initial_interval"
	KeyMaxAttempts     = "reconnect.max_attempts"
	KeyRequestTimeout  = "request_timeout"
	KeyMetricsAddr     = "metrics_addr"

	envPrefix = "CADENCE"
)

// Config is the resolved client configuration
type Config struct {
	APIURL         string          `mapstructure:"api_url"`
	WSURL          string          `mapstructure:"ws_url"`
	Token          string          `mapstructure:"token"`
	DataDir        string          `mapstructure:"data_dir"`
	Codec          string          `mapstructure:"codec"`
	Log            LogConfig       `mapstructure:"log"`
	Reconnect      ReconnectConfig `mapstructure:"reconnect"`
	RequestTimeout time.Duration   `mapstructure:"request_timeout"`
	MetricsAddr    string          `mapstructure:"metrics_addr"`
}

// LogConfig configures pkg/log
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// ReconnectConfig configures the channel backoff
type ReconnectConfig struct {
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
}

// DefaultDataDir returns $HOME/.cadence, or .cadence when there is no home
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cadence"
	}
	return filepath.Join(home, ".cadence")
}

// SetDefaults registers every key with its default on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIURL, "http://localhost:8000")
	v.SetDefault(KeyWSURL, "ws://localhost:8000")
	v.SetDefault(KeyToken, "")
	v.SetDefault(KeyDataDir, DefaultDataDir())
	v.SetDefault(KeyCodec, "json")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogJSON, false)
	v.SetDefault(KeyInitialInterval, 2*time.Second)
	v.SetDefault(KeyMaxAttempts, 10)
	v.SetDefault(KeyRequestTimeout, 10*time.Second)
	v.SetDefault(KeyMetricsAddr, "")
}

// Load resolves the configuration from defaults, an optional YAML file and
// CADENCE_* environment variables, in increasing priority. Flags bound to
// v before Load win over all three. An explicit configFile must exist; the
// default $DATA_DIR/config.yaml is optional.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(v.GetString(KeyDataDir))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values Load cannot fix up
func (c *Config) Validate() error {
	if err := checkURL(c.APIURL, "http", "https"); err != nil {
		return fmt.Errorf("invalid %s: %w", KeyAPIURL, err)
	}
	if err := checkURL(c.WSURL, "ws", "wss"); err != nil {
		return fmt.Errorf("invalid %s: %w", KeyWSURL, err)
	}
	switch c.Codec {
	case "json", "legacy":
	default:
		return fmt.Errorf("invalid %s %q: want json or legacy", KeyCodec, c.Codec)
	}
	if c.Reconnect.InitialInterval <= 0 {
		return fmt.Errorf("invalid %s: must be positive", KeyInitialInterval)
	}
	if c.Reconnect.MaxAttempts <= 0 {
		return fmt.Errorf("invalid %s: must be positive", KeyMaxAttempts)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("invalid %s: must be positive", KeyRequestTimeout)
	}
	if c.DataDir == "" {
		return fmt.Errorf("invalid %s: must not be empty", KeyDataDir)
	}
	return nil
}

func checkURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%q must be an absolute %s URL", raw, strings.Join(schemes, "/"))
}

// LoadDraft reads a session draft from a YAML file
func LoadDraft(path string) (types.SessionDraft, error) {
	var draft types.SessionDraft

	data, err := os.ReadFile(path)
	if err != nil {
		return draft, fmt.Errorf("failed to read draft: %w", err)
	}
	if err := yaml.Unmarshal(data, &draft); err != nil {
		return draft, fmt.Errorf("failed to parse draft: %w", err)
	}
	if draft.Name == "" {
		return draft, fmt.Errorf("draft %s: name is required", path)
	}
	return draft, nil
}
