package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BaseURLKey      = "api.base_url"
	TimeoutKey      = "api.timeout"
	RateLimitKey    = "api.rate_limit"
	BurstKey        = "api.burst"
	LogLevelKey     = "log.level"
	LogFormatKey    = "log.format"
	ProfilesPathKey = "profiles.path"
	SecretsDirKey   = "secrets.dir"
	SecretsKindKey  = "secrets.backend"

	DefaultBaseURL = "http://localhost:8001/api"
	DefaultTimeout = 30 * time.Second

	SecretsAuto = "auto"
	SecretsPass = "pass"
	SecretsFile = "file"

	envPrefix = "WASELNI"
	configDir = ".waselni"
)

// Settings is the resolved process configuration.
type Settings struct {
	BaseURL      string
	Timeout      time.Duration
	RateLimit    float64
	Burst        int
	LogLevel     string
	LogFormat    string
	ProfilesPath string
	SecretsDir   string
	// SecretsKind selects pass, file, or pass with file fallback (auto).
	SecretsKind string
}

// Load reads ~/.waselni/config.toml (or configFile when given) and WASELNI_*
// environment overrides. A missing default config file is not an error.
func Load(home, configFile string) (*viper.Viper, error) {
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
	}

	cfg := viper.New()
	root := filepath.Join(home, configDir)

	cfg.SetDefault(BaseURLKey, DefaultBaseURL)
	cfg.SetDefault(TimeoutKey, DefaultTimeout)
	cfg.SetDefault(RateLimitKey, 10.0)
	cfg.SetDefault(BurstKey, 5)
	cfg.SetDefault(LogLevelKey, "warn")
	cfg.SetDefault(LogFormatKey, "text")
	cfg.SetDefault(ProfilesPathKey, filepath.Join(root, "profiles.toml"))
	cfg.SetDefault(SecretsDirKey, filepath.Join(root, "secrets"))
	cfg.SetDefault(SecretsKindKey, SecretsAuto)

	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	if configFile != "" {
		cfg.SetConfigFile(configFile)
	} else {
		cfg.SetConfigName("config")
		cfg.SetConfigType("toml")
		cfg.AddConfigPath(root)
	}

	if err := cfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return cfg, nil
}

func Resolve(cfg *viper.Viper) (Settings, error) {
	settings := Settings{
		BaseURL:      strings.TrimSpace(cfg.GetString(BaseURLKey)),
		Timeout:      cfg.GetDuration(TimeoutKey),
		RateLimit:    cfg.GetFloat64(RateLimitKey),
		Burst:        cfg.GetInt(BurstKey),
		LogLevel:     cfg.GetString(LogLevelKey),
		LogFormat:    cfg.GetString(LogFormatKey),
		ProfilesPath: cfg.GetString(ProfilesPathKey),
		SecretsDir:   cfg.GetString(SecretsDirKey),
		SecretsKind:  strings.ToLower(strings.TrimSpace(cfg.GetString(SecretsKindKey))),
	}

	if settings.BaseURL == "" {
		return Settings{}, fmt.Errorf("%s is empty", BaseURLKey)
	}
	if settings.Timeout <= 0 {
		return Settings{}, fmt.Errorf("%s must be positive, got %s", TimeoutKey, settings.Timeout)
	}
	if settings.RateLimit < 0 {
		return Settings{}, fmt.Errorf("%s must not be negative", RateLimitKey)
	}
	switch settings.SecretsKind {
	case SecretsAuto, SecretsPass, SecretsFile:
	default:
		return Settings{}, fmt.Errorf("%s must be one of auto, pass, file, got %q", SecretsKindKey, settings.SecretsKind)
	}
	if settings.RateLimit > 0 && settings.Burst < 1 {
		settings.Burst = 1
	}

	return settings, nil
}
