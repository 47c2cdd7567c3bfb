package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/cardiorisk/cardiorisk/internal/config"
	"github.com/cardiorisk/cardiorisk/internal/estimator"
	"github.com/cardiorisk/cardiorisk/internal/monitoring"
	"github.com/cardiorisk/cardiorisk/internal/narration"
	"github.com/cardiorisk/cardiorisk/internal/report"
	"github.com/cardiorisk/cardiorisk/internal/resilience"
	"github.com/cardiorisk/cardiorisk/internal/risk"
	"github.com/cardiorisk/cardiorisk/internal/store"
	"github.com/cardiorisk/cardiorisk/pkg/anthropic"
	"github.com/cardiorisk/cardiorisk/pkg/gemini"
)

// appEnv holds everything the serve and assess commands share.
type appEnv struct {
	Engine   *risk.Engine
	Narrator *narration.Narrator
	Store    store.Store // may be nil
	Metrics  *monitoring.Metrics
	Service  *report.Service
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initApp validates cfg for mode, loads the models and builds the service.
// withStore opens and migrates the configured store. Callers should defer
// env.Close().
func initApp(ctx context.Context, mode string, withStore bool) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	eng, err := initEngine(cfg)
	if err != nil {
		return nil, err
	}

	env := &appEnv{Engine: eng, Metrics: monitoring.NewMetrics()}
	if mode == config.ModeOffline {
		return env, nil
	}

	n, err := initNarrator(cfg)
	if err != nil {
		return nil, err
	}
	env.Narrator = n

	if withStore {
		st, err := initStore(ctx)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
		env.Store = st
	}

	env.Service = report.NewService(env.Engine, env.Narrator, env.Store, env.Metrics)
	return env, nil
}

func initEngine(c *config.Config) (*risk.Engine, error) {
	set, err := estimator.LoadDir(c.Models.Dir)
	if err != nil {
		return nil, eris.Wrap(err, "load models")
	}
	th := risk.Thresholds{VisibleAt: c.Risk.VisibleThreshold, LowRiskFloor: c.Risk.LowRiskFloor}
	eng, err := risk.NewDefaultEngine(set, th)
	if err != nil {
		return nil, eris.Wrap(err, "build engine")
	}
	zap.L().Info("models loaded",
		zap.String("dir", c.Models.Dir),
		zap.Int("estimators", eng.Size()),
	)
	return eng, nil
}

func initNarrator(c *config.Config) (*narration.Narrator, error) {
	var gen narration.Generator
	switch c.Narration.Provider {
	case config.ProviderGemini:
		opts := []gemini.Option{gemini.WithModel(c.Gemini.Model)}
		if c.Gemini.BaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(c.Gemini.BaseURL))
		}
		gen = narration.NewGeminiGenerator(gemini.NewClient(c.Gemini.Key, opts...))
	case config.ProviderAnthropic:
		opts := []anthropic.Option{anthropic.WithModel(c.Anthropic.Model)}
		if c.Anthropic.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(c.Anthropic.BaseURL))
		}
		gen = narration.NewAnthropicGenerator(anthropic.NewClient(c.Anthropic.Key, opts...), c.Anthropic.Model, c.Anthropic.MaxTokens)
	default:
		return nil, eris.Errorf("unsupported narration provider: %s", c.Narration.Provider)
	}

	return narration.New(gen, narration.Config{
		Timeout:            time.Duration(c.Narration.TimeoutSecs) * time.Second,
		Temperature:        c.Narration.Temperature,
		InsightTemperature: c.Narration.InsightTemperature,
		RequestsPerMinute:  c.Narration.RequestsPerMinute,
		VisibleThreshold:   c.Risk.VisibleThreshold,
		Breaker: resilience.NewBreakerConfig(gen.Name(),
			c.Narration.Circuit.FailureThreshold,
			c.Narration.Circuit.ResetTimeoutSecs,
		),
	}), nil
}

func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL, &store.PoolConfig{
		MaxConns: cfg.Store.MaxConns,
		MinConns: cfg.Store.MinConns,
	})
}
