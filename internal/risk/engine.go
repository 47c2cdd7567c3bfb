// Package risk runs every registered estimator over one profile and partitions
// the resulting bundle by probability thresholds.
package risk

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cardiorisk/cardiorisk/internal/estimator"
	"github.com/cardiorisk/cardiorisk/internal/features"
	"github.com/cardiorisk/cardiorisk/internal/model"
	"github.com/cardiorisk/cardiorisk/internal/rules"
)

// Estimator produces one disease estimate from normalized factors.
type Estimator interface {
	Name() string
	Estimate(ctx context.Context, f features.Factors) (model.DiseaseEstimate, error)
}

// Engine is safe for concurrent use; it holds no per-request state.
type Engine struct {
	estimators []Estimator
	heuristic  map[string]bool
	ruleOrder  []string
	thresholds Thresholds
}

// NewEngine registers statistical estimators followed by heuristic ones. The
// registration order is the bundle order.
func NewEngine(th Thresholds, statistical, heuristic []Estimator) (*Engine, error) {
	if err := th.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		heuristic:  make(map[string]bool, len(heuristic)),
		thresholds: th,
	}
	seen := make(map[string]bool)
	add := func(est Estimator, isRule bool) error {
		if est == nil {
			return eris.New("risk: nil estimator")
		}
		name := est.Name()
		if name == "" {
			return eris.New("risk: estimator has no name")
		}
		if seen[name] {
			return eris.Errorf("risk: duplicate estimator %q", name)
		}
		seen[name] = true
		e.estimators = append(e.estimators, est)
		if isRule {
			e.heuristic[name] = true
		}
		return nil
	}

	for _, est := range statistical {
		if err := add(est, false); err != nil {
			return nil, err
		}
	}
	for _, est := range heuristic {
		if err := add(est, true); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// NewDefaultEngine wires the two statistical models and the five rules in
// canonical order.
func NewDefaultEngine(set *estimator.Set, th Thresholds) (*Engine, error) {
	if set == nil {
		return nil, eris.Wrap(model.ErrEstimator, "risk: no statistical estimators loaded")
	}
	var heuristic []Estimator
	for _, r := range rules.All() {
		heuristic = append(heuristic, r)
	}
	e, err := NewEngine(th, []Estimator{set.Cardio, set.Stroke}, heuristic)
	if err != nil {
		return nil, err
	}
	if err := e.SetRuleOrder(rules.ReportOrder); err != nil {
		return nil, err
	}
	return e, nil
}

// SetRuleOrder fixes the order RuleSubset reports heuristic estimates in.
// names must list every heuristic estimator exactly once.
func (e *Engine) SetRuleOrder(names []string) error {
	if len(names) != len(e.heuristic) {
		return eris.Errorf("risk: rule order has %d names, want %d", len(names), len(e.heuristic))
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if !e.heuristic[n] || seen[n] {
			return eris.Errorf("risk: rule order name %q is unknown or repeated", n)
		}
		seen[n] = true
	}
	e.ruleOrder = names
	return nil
}

// Thresholds returns the engine's partition thresholds.
func (e *Engine) Thresholds() Thresholds { return e.thresholds }

// Size returns the number of registered estimators.
func (e *Engine) Size() int { return len(e.estimators) }

// Aggregate validates p, normalizes it once, and runs every estimator
// concurrently. Results land in registration order regardless of completion
// order. Any estimator error aborts the run.
func (e *Engine) Aggregate(ctx context.Context, p model.PatientProfile) (model.RiskBundle, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	f := features.Normalize(p)
	bundle := make(model.RiskBundle, len(e.estimators))

	g, gctx := errgroup.WithContext(ctx)
	for i, est := range e.estimators {
		g.Go(func() error {
			res, err := est.Estimate(gctx, f)
			if err != nil {
				return eris.Wrapf(err, "risk: estimate %s", est.Name())
			}
			if res.Name != est.Name() {
				return eris.Wrapf(model.ErrEstimator, "risk: estimator %q returned %q", est.Name(), res.Name)
			}
			if res.Probability < 0 || res.Probability > 100 {
				return eris.Wrapf(model.ErrEstimator, "risk: %s probability %v out of range", res.Name, res.Probability)
			}
			bundle[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	zap.L().Debug("risk: aggregated",
		zap.Int("estimators", len(bundle)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return bundle, nil
}

// Visible returns the estimates at or above the visible threshold, in bundle order.
func (e *Engine) Visible(b model.RiskBundle) []model.DiseaseEstimate {
	return e.thresholds.Visible(b)
}

// LowRisk returns the names of estimates in the low-risk window, in bundle order.
func (e *Engine) LowRisk(b model.RiskBundle) []string {
	return e.thresholds.LowRisk(b)
}

// RuleSubset returns the estimates produced by heuristic estimators, in rule
// order when one is set and bundle order otherwise.
func (e *Engine) RuleSubset(b model.RiskBundle) []model.DiseaseEstimate {
	out := make([]model.DiseaseEstimate, 0, len(e.heuristic))
	if e.ruleOrder != nil {
		for _, name := range e.ruleOrder {
			if est, ok := b.Lookup(name); ok {
				out = append(out, est)
			}
		}
		return out
	}
	for _, est := range b {
		if e.heuristic[est.Name] {
			out = append(out, est)
		}
	}
	return out
}
