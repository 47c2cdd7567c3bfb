package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Validation modes, one per command.
const (
	ModeServe   = "serve"
	ModeAssess  = "assess"
	ModeOffline = "offline"
	ModeStore   = "store"
)

// Narration providers.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Config holds the full application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Auth      AuthConfig      `yaml:"auth" mapstructure:"auth"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Models    ModelsConfig    `yaml:"models" mapstructure:"models"`
	Risk      RiskConfig      `yaml:"risk" mapstructure:"risk"`
	Narration NarrationConfig `yaml:"narration" mapstructure:"narration"`
	Gemini    GeminiConfig    `yaml:"gemini" mapstructure:"gemini"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port                int      `yaml:"port" mapstructure:"port"`
	CORSOrigins         []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	ShutdownTimeoutSecs int      `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
}

// AuthConfig holds the bearer token verification settings.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	Audience  string `yaml:"audience" mapstructure:"audience"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ModelsConfig locates the statistical model artifacts.
type ModelsConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// RiskConfig holds the partition thresholds, in percent.
type RiskConfig struct {
	VisibleThreshold float64 `yaml:"visible_threshold" mapstructure:"visible_threshold"`
	LowRiskFloor     float64 `yaml:"low_risk_floor" mapstructure:"low_risk_floor"`
}

// NarrationConfig configures the narration gateway.
type NarrationConfig struct {
	Provider           string        `yaml:"provider" mapstructure:"provider"`
	TimeoutSecs        int           `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Temperature        float64       `yaml:"temperature" mapstructure:"temperature"`
	InsightTemperature float64       `yaml:"insight_temperature" mapstructure:"insight_temperature"`
	RequestsPerMinute  int           `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	Circuit            CircuitConfig `yaml:"circuit" mapstructure:"circuit"`
}

// CircuitConfig configures the narration circuit breaker.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from ./config.yaml, if present, and environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile reads configuration from path and environment. An empty path
// falls back to an optional config.yaml in the working directory; an explicit
// path must exist.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("CARDIORISK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173", "http://127.0.0.1:5173"})
	v.SetDefault("server.shutdown_timeout_secs", 15)
	v.SetDefault("auth.audience", "authenticated")
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("models.dir", "artifacts")
	v.SetDefault("risk.visible_threshold", 30.0)
	v.SetDefault("risk.low_risk_floor", 20.0)
	v.SetDefault("narration.provider", ProviderGemini)
	v.SetDefault("narration.timeout_secs", 120)
	v.SetDefault("narration.temperature", 0.1)
	v.SetDefault("narration.insight_temperature", 0.2)
	v.SetDefault("narration.requests_per_minute", 60)
	v.SetDefault("narration.circuit.failure_threshold", 5)
	v.SetDefault("narration.circuit.reset_timeout_secs", 30)
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Secrets have no default but must be known keys for env overrides.
	for _, key := range []string{"auth.jwt_secret", "store.database_url", "gemini.key", "anthropic.key", "anthropic.base_url"} {
		v.SetDefault(key, "")
	}

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs and reports every problem at once.
func (c *Config) Validate(mode string) error {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	checkRisk := func() {
		r := c.Risk
		if r.LowRiskFloor < 0 || r.LowRiskFloor >= r.VisibleThreshold || r.VisibleThreshold > 100 {
			add("risk thresholds must satisfy 0 <= low_risk_floor < visible_threshold <= 100")
		}
		if c.Models.Dir == "" {
			add("models.dir is required")
		}
	}
	checkNarration := func() {
		switch c.Narration.Provider {
		case ProviderGemini:
			if c.Gemini.Key == "" {
				add("gemini.key is required")
			}
		case ProviderAnthropic:
			if c.Anthropic.Key == "" {
				add("anthropic.key is required")
			}
		default:
			add("narration.provider must be %q or %q, got %q", ProviderGemini, ProviderAnthropic, c.Narration.Provider)
		}
		if c.Narration.TimeoutSecs <= 0 {
			add("narration.timeout_secs must be > 0")
		}
		if c.Narration.RequestsPerMinute < 0 {
			add("narration.requests_per_minute must be >= 0")
		}
	}
	checkStore := func() {
		if c.Store.DatabaseURL == "" {
			add("store.database_url is required")
		}
	}

	switch mode {
	case ModeServe:
		if c.Server.Port <= 0 {
			add("server.port must be > 0")
		}
		if c.Auth.JWTSecret == "" {
			add("auth.jwt_secret is required")
		}
		checkStore()
		checkRisk()
		checkNarration()
	case ModeAssess:
		checkRisk()
		checkNarration()
	case ModeOffline:
		checkRisk()
	case ModeStore:
		checkStore()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
