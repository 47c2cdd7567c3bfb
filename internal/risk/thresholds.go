package risk

import (
	"github.com/rotisserie/eris"

	"github.com/cardiorisk/cardiorisk/internal/model"
)

// Default partition thresholds, in percent.
const (
	DefaultVisibleThreshold = 30.0
	DefaultLowRiskFloor     = 20.0
)

// Thresholds partitions a bundle. Estimates at or above VisibleAt are shown with
// figures; those in [LowRiskFloor, VisibleAt) are named only.
type Thresholds struct {
	VisibleAt    float64
	LowRiskFloor float64
}

// DefaultThresholds returns the 30 / 20 split.
func DefaultThresholds() Thresholds {
	return Thresholds{VisibleAt: DefaultVisibleThreshold, LowRiskFloor: DefaultLowRiskFloor}
}

// Validate requires 0 <= LowRiskFloor < VisibleAt <= 100.
func (t Thresholds) Validate() error {
	if t.LowRiskFloor < 0 || t.LowRiskFloor >= t.VisibleAt || t.VisibleAt > 100 {
		return eris.Errorf("risk: invalid thresholds (low_risk_floor=%v visible=%v), want 0 <= floor < visible <= 100",
			t.LowRiskFloor, t.VisibleAt)
	}
	return nil
}

// Visible filters b to estimates with probability >= t.VisibleAt.
func (t Thresholds) Visible(b model.RiskBundle) []model.DiseaseEstimate {
	out := make([]model.DiseaseEstimate, 0, len(b))
	for _, e := range b {
		if e.Probability >= t.VisibleAt {
			out = append(out, e)
		}
	}
	return out
}

// LowRisk returns the names of estimates with probability in [t.LowRiskFloor, t.VisibleAt).
func (t Thresholds) LowRisk(b model.RiskBundle) []string {
	out := make([]string, 0)
	for _, e := range b {
		if e.Probability >= t.LowRiskFloor && e.Probability < t.VisibleAt {
			out = append(out, e.Name)
		}
	}
	return out
}
