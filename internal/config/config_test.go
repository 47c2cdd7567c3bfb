package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173", "http://127.0.0.1:5173"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "authenticated", cfg.Auth.Audience)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "artifacts", cfg.Models.Dir)
	assert.InDelta(t, 30.0, cfg.Risk.VisibleThreshold, 0.001)
	assert.InDelta(t, 20.0, cfg.Risk.LowRiskFloor, 0.001)
	assert.Equal(t, "gemini", cfg.Narration.Provider)
	assert.Equal(t, 120, cfg.Narration.TimeoutSecs)
	assert.InDelta(t, 0.1, cfg.Narration.Temperature, 0.001)
	assert.InDelta(t, 0.2, cfg.Narration.InsightTemperature, 0.001)
	assert.Equal(t, 60, cfg.Narration.RequestsPerMinute)
	assert.Equal(t, 5, cfg.Narration.Circuit.FailureThreshold)
	assert.Equal(t, 30, cfg.Narration.Circuit.ResetTimeoutSecs)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, "https://generativelanguage.googleapis.com", cfg.Gemini.BaseURL)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.Equal(t, int64(2048), cfg.Anthropic.MaxTokens)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
  database_url: /var/lib/cardiorisk/reports.db
log:
  level: debug
  format: console
server:
  port: 9090
risk:
  visible_threshold: 40
narration:
  provider: anthropic
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "/var/lib/cardiorisk/reports.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.InDelta(t, 40.0, cfg.Risk.VisibleThreshold, 0.001)
	assert.Equal(t, "anthropic", cfg.Narration.Provider)
	// Defaults still apply for unset values
	assert.InDelta(t, 20.0, cfg.Risk.LowRiskFloor, 0.001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("CARDIORISK_STORE_DRIVER", "postgres")
	t.Setenv("CARDIORISK_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("CARDIORISK_SERVER_PORT", "3000")
	t.Setenv("CARDIORISK_GEMINI_KEY", "g-key")
	t.Setenv("CARDIORISK_NARRATION_TIMEOUT_SECS", "45")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "g-key", cfg.Gemini.Key)
	assert.Equal(t, 45, cfg.Narration.TimeoutSecs)
}

func TestLoadFile_ExplicitPath(t *testing.T) {
	chdirTemp(t)

	path := filepath.Join(t.TempDir(), "prod.yaml")
	yaml := `
models:
  dir: /opt/cardiorisk/models
risk:
  low_risk_floor: 15
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/cardiorisk/models", cfg.Models.Dir)
	assert.InDelta(t, 15.0, cfg.Risk.LowRiskFloor, 0.001)
	assert.InDelta(t, 30.0, cfg.Risk.VisibleThreshold, 0.001)
}

func TestLoadFile_MissingExplicitPath(t *testing.T) {
	chdirTemp(t)

	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Auth.JWTSecret = "secret"
	cfg.Store.DatabaseURL = "postgres://localhost/cardiorisk"
	cfg.Models.Dir = "artifacts"
	cfg.Risk = RiskConfig{VisibleThreshold: 30, LowRiskFloor: 20}
	cfg.Narration.Provider = ProviderGemini
	cfg.Narration.TimeoutSecs = 120
	cfg.Gemini.Key = "g-key"
	return cfg
}

func TestValidateServe_AllPresent(t *testing.T) {
	assert.NoError(t, validDefaults().Validate(ModeServe))
}

func TestValidateServe_MissingFields(t *testing.T) {
	cfg := validDefaults()
	cfg.Auth.JWTSecret = ""
	cfg.Store.DatabaseURL = ""
	cfg.Gemini.Key = ""
	cfg.Server.Port = 0

	err := cfg.Validate(ModeServe)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.jwt_secret is required")
	assert.Contains(t, err.Error(), "store.database_url is required")
	assert.Contains(t, err.Error(), "gemini.key is required")
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidate_ProviderKey(t *testing.T) {
	cfg := validDefaults()
	cfg.Narration.Provider = ProviderAnthropic

	err := cfg.Validate(ModeAssess)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")

	cfg.Anthropic.Key = "sk-ant"
	assert.NoError(t, cfg.Validate(ModeAssess))

	cfg.Narration.Provider = "openai"
	err = cfg.Validate(ModeAssess)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "narration.provider must be")
}

func TestValidateOffline_NeedsNoCredentials(t *testing.T) {
	cfg := &Config{Models: ModelsConfig{Dir: "artifacts"}, Risk: RiskConfig{VisibleThreshold: 30, LowRiskFloor: 20}}
	assert.NoError(t, cfg.Validate(ModeOffline))
}

func TestValidateStore(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate(ModeStore)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "reports.db"
	assert.NoError(t, cfg.Validate(ModeStore))
}

func TestValidateRiskThresholds(t *testing.T) {
	tests := []struct {
		name           string
		visible, floor float64
		wantErr        bool
	}{
		{"defaults", 30, 20, false},
		{"floor equals visible", 30, 30, true},
		{"negative floor", 30, -1, true},
		{"visible above 100", 101, 20, true},
		{"zero floor", 50, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			cfg.Risk = RiskConfig{VisibleThreshold: tt.visible, LowRiskFloor: tt.floor}
			err := cfg.Validate(ModeOffline)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "risk thresholds")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
