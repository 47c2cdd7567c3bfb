package model

// Disease identifiers, used verbatim as DiseaseEstimate names.
const (
	DiseaseCardio          = "Cardiovascular Disease (heart/vessel issues)"
	DiseaseStroke          = "Stroke (brain blood loss)"
	DiseaseHypertension    = "Hypertension (high blood pressure)"
	DiseaseHyperlipidemia  = "Hyperlipidemia (high cholesterol)"
	DiseaseAtherosclerosis = "Atherosclerosis (artery hardening)"
	DiseaseCAD             = "Coronary Artery Disease (heart artery block)"
	DiseaseArrhythmia      = "Arrhythmia (irregular heartbeat)"
)

// CanonicalOrder is the display order of a RiskBundle.
var CanonicalOrder = []string{
	DiseaseCardio,
	DiseaseStroke,
	DiseaseHypertension,
	DiseaseHyperlipidemia,
	DiseaseAtherosclerosis,
	DiseaseCAD,
	DiseaseArrhythmia,
}

// DiseaseEstimate is one estimator's output. Probability is a percentage in [0,100].
type DiseaseEstimate struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
}

// RiskBundle is the ordered output of one aggregation run, one entry per
// registered estimator.
type RiskBundle []DiseaseEstimate

// Names returns the disease names in bundle order.
func (b RiskBundle) Names() []string {
	names := make([]string, len(b))
	for i, e := range b {
		names[i] = e.Name
	}
	return names
}

// Lookup returns the estimate with the given name.
func (b RiskBundle) Lookup(name string) (DiseaseEstimate, bool) {
	for _, e := range b {
		if e.Name == name {
			return e, true
		}
	}
	return DiseaseEstimate{}, false
}

// Clone returns a copy that shares no backing array with b.
func (b RiskBundle) Clone() RiskBundle {
	if b == nil {
		return nil
	}
	out := make(RiskBundle, len(b))
	copy(out, b)
	return out
}
