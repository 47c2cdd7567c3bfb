// Package narration turns a risk bundle into plain-language text through an
// external language model, and parses what comes back.
package narration

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cardiorisk/cardiorisk/internal/model"
	"github.com/cardiorisk/cardiorisk/internal/resilience"
)

// Generator sends one prompt to a language model and returns its raw text.
type Generator interface {
	Name() string
	Generate(ctx context.Context, p Prompt) (string, error)
}

// Config controls a Narrator.
type Config struct {
	Timeout            time.Duration
	Temperature        float64
	InsightTemperature float64
	RequestsPerMinute  int
	VisibleThreshold   float64
	Breaker            resilience.BreakerConfig
}

// Narrator calls a Generator under a rate limit, a circuit breaker and a
// per-call timeout. It never retries.
type Narrator struct {
	gen     Generator
	cfg     Config
	limiter *rate.Limiter
	breaker *resilience.Breaker
}

// New creates a Narrator. Zero config values fall back to a 120 second
// timeout and an unlimited rate.
func New(gen Generator, cfg Config) *Narrator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.VisibleThreshold <= 0 {
		cfg.VisibleThreshold = 30
	}
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60)
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker.Name = gen.Name()
	}
	return &Narrator{
		gen:     gen,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		breaker: resilience.NewBreaker(cfg.Breaker),
	}
}

// Provider returns the generator name.
func (n *Narrator) Provider() string { return n.gen.Name() }

// Narrate asks the provider to explain req. Transport, status, timeout and
// open-circuit failures return an error wrapping model.ErrUpstream.
// Unreadable content is not an error: the Result comes back Degraded.
func (n *Narrator) Narrate(ctx context.Context, req model.NarrationRequest) (Result, error) {
	p, err := ReportPrompt(req, n.cfg.VisibleThreshold, n.cfg.Temperature)
	if err != nil {
		return Result{}, eris.Wrap(err, "narration: build prompt")
	}

	raw, err := n.call(ctx, p)
	if err != nil {
		return Result{}, err
	}

	res := Parse(raw)
	if res.Degraded {
		zap.L().Warn("narration: unparseable response, using fallback",
			zap.String("provider", n.gen.Name()),
			zap.Int("response_len", len(raw)),
		)
	}
	return res, nil
}

// Insight asks the provider to explain each disease.
func (n *Narrator) Insight(ctx context.Context, diseases []model.DiseaseEstimate) (model.Insight, error) {
	p, err := InsightPrompt(diseases, n.cfg.InsightTemperature)
	if err != nil {
		return model.Insight{}, eris.Wrap(err, "narration: build insight prompt")
	}

	raw, err := n.call(ctx, p)
	if err != nil {
		return model.Insight{}, err
	}
	return ParseInsight(raw)
}

func (n *Narrator) call(ctx context.Context, p Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	if err := n.limiter.Wait(ctx); err != nil {
		return "", eris.Wrapf(model.ErrUpstream, "narration: rate limit wait: %v", err)
	}

	start := time.Now()
	raw, err := resilience.Do(ctx, n.breaker, func(ctx context.Context) (string, error) {
		return n.gen.Generate(ctx, p)
	})
	if err != nil {
		zap.L().Error("narration: provider call failed",
			zap.String("provider", n.gen.Name()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return "", eris.Wrapf(model.ErrUpstream, "narration: %s: %v", n.gen.Name(), err)
	}

	zap.L().Debug("narration: provider call ok",
		zap.String("provider", n.gen.Name()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return raw, nil
}
