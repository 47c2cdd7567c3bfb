// Package rules implements the deterministic heuristic estimators. Each rule
// sums integer points from a list of conditions and maps the total through a
// band table onto a fixed probability.
package rules

import (
	"context"
	"math"

	"github.com/rotisserie/eris"

	"github.com/cardiorisk/cardiorisk/internal/features"
	"github.com/cardiorisk/cardiorisk/internal/model"
)

// Unbounded is the Max of the final, open-ended band.
const Unbounded = math.MaxInt

// Condition awards points when a risk factor is present.
type Condition struct {
	Name   string
	Points func(f features.Factors) int
}

// Band maps the inclusive score range [Min, Max] onto a probability percentage.
type Band struct {
	Min         int
	Max         int
	Probability float64
}

// Rule is one heuristic disease estimator.
type Rule struct {
	Disease    string
	Conditions []Condition
	Bands      []Band
}

// Name returns the disease the rule scores.
func (r Rule) Name() string { return r.Disease }

// Score sums the points of every condition.
func (r Rule) Score(f features.Factors) int {
	total := 0
	for _, c := range r.Conditions {
		total += c.Points(f)
	}
	return total
}

// Fired returns the names of the conditions that awarded points, in order.
func (r Rule) Fired(f features.Factors) []string {
	var names []string
	for _, c := range r.Conditions {
		if c.Points(f) > 0 {
			names = append(names, c.Name)
		}
	}
	return names
}

// Estimate scores f and looks the total up in the band table.
func (r Rule) Estimate(_ context.Context, f features.Factors) (model.DiseaseEstimate, error) {
	score := r.Score(f)
	for _, b := range r.Bands {
		if score >= b.Min && score <= b.Max {
			return model.DiseaseEstimate{Name: r.Disease, Probability: b.Probability}, nil
		}
	}
	return model.DiseaseEstimate{}, eris.Wrapf(model.ErrEstimator, "rules: %s score %d outside band table", r.Disease, score)
}

// Validate checks that the bands cover [0, Unbounded] without gaps or
// overlaps and that every probability is a percentage.
func (r Rule) Validate() error {
	if len(r.Bands) == 0 {
		return eris.Errorf("rules: %s has no bands", r.Disease)
	}
	next := 0
	for i, b := range r.Bands {
		if b.Min != next {
			return eris.Errorf("rules: %s band %d starts at %d, want %d", r.Disease, i, b.Min, next)
		}
		if b.Max < b.Min {
			return eris.Errorf("rules: %s band %d has max %d below min %d", r.Disease, i, b.Max, b.Min)
		}
		if b.Probability < 0 || b.Probability > 100 {
			return eris.Errorf("rules: %s band %d probability %v out of range", r.Disease, i, b.Probability)
		}
		if b.Max == Unbounded {
			if i != len(r.Bands)-1 {
				return eris.Errorf("rules: %s band %d is unbounded but not last", r.Disease, i)
			}
			return nil
		}
		next = b.Max + 1
	}
	return eris.Errorf("rules: %s last band is bounded", r.Disease)
}

// when awards pts if pred holds.
func when(name string, pts int, pred func(f features.Factors) bool) Condition {
	return Condition{
		Name: name,
		Points: func(f features.Factors) int {
			if pred(f) {
				return pts
			}
			return 0
		},
	}
}
