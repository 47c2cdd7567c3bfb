package estimator

import (
	"context"
	"math"
	"slices"

	"github.com/rotisserie/eris"

	"github.com/cardiorisk/cardiorisk/internal/features"
	"github.com/cardiorisk/cardiorisk/internal/model"
)

// Probability bounds applied to every statistical output before scaling to a
// percentage.
const (
	MinProbability = 0.01
	MaxProbability = 0.95
)

// ErrModelUnavailable is returned by an estimator whose artifact is not loaded.
var ErrModelUnavailable = eris.Wrap(model.ErrEstimator, "estimator: model unavailable")

// Feature schemas the shipped artifacts are trained on.
var (
	CardioSchema = []string{
		features.FeatureAgeYears,
		features.FeatureGender,
		features.FeatureSystolic,
		features.FeatureDiastolic,
		features.FeatureCholesterol,
		features.FeatureGlucose,
		features.FeatureSmoke,
		features.FeatureAlcohol,
		features.FeatureActive,
		features.FeatureHeight,
		features.FeatureWeight,
	}

	StrokeSchema = []string{
		features.FeatureAge,
		features.FeatureGender,
		features.FeatureHypertension,
		features.FeatureFamilyHeartDisease,
		features.FeatureAvgGlucose,
		features.FeatureBMI,
		features.FeatureSmokingNever,
		features.FeatureSmokingFormerly,
		features.FeatureSmokingCurrent,
		features.FeatureSmokingUnknown,
	}
)

// Logistic is a statistical estimator for one disease. The zero value, or one
// built by Unavailable, fails closed on every call.
type Logistic struct {
	disease  string
	artifact *Artifact
}

// NewLogistic validates a against schema and binds it to disease.
func NewLogistic(disease string, schema []string, a *Artifact) (*Logistic, error) {
	if a == nil {
		return nil, eris.Wrapf(model.ErrEstimator, "estimator: nil artifact for %s", disease)
	}
	if err := a.Validate(schema); err != nil {
		return nil, eris.Wrap(model.ErrEstimator, err.Error())
	}
	return &Logistic{disease: disease, artifact: a}, nil
}

// Unavailable returns an estimator for disease that always fails.
func Unavailable(disease string) *Logistic {
	return &Logistic{disease: disease}
}

// Name returns the disease this estimator scores.
func (l *Logistic) Name() string {
	if l == nil {
		return ""
	}
	return l.disease
}

// Estimate scores f and returns a percentage rounded to one decimal place.
func (l *Logistic) Estimate(ctx context.Context, f features.Factors) (model.DiseaseEstimate, error) {
	if l == nil || l.artifact == nil {
		return model.DiseaseEstimate{}, ErrModelUnavailable
	}
	if err := ctx.Err(); err != nil {
		return model.DiseaseEstimate{}, eris.Wrapf(err, "estimator: %s", l.disease)
	}

	a := l.artifact
	v, err := f.Vector(a.Features, a.Medians, a.Gender)
	if err != nil {
		return model.DiseaseEstimate{}, eris.Wrap(model.ErrEstimator, err.Error())
	}

	p, err := a.Predict(v)
	if err != nil {
		return model.DiseaseEstimate{}, err
	}

	return model.DiseaseEstimate{Name: l.disease, Probability: ToPercent(p)}, nil
}

// Predict returns the positive-class probability for v.
func (a *Artifact) Predict(v features.Vector) (float64, error) {
	if !slices.Equal(v.Names, a.Features) {
		return 0, eris.Wrapf(model.ErrEstimator, "estimator: vector %v does not match %q schema", v.Names, a.Name)
	}

	z := a.Intercept
	for i, x := range v.Values {
		if a.Scaler != nil {
			scale := a.Scaler.Scale[i]
			if scale == 0 {
				scale = 1
			}
			x = (x - a.Scaler.Mean[i]) / scale
		}
		z += a.Coefficients[i] * x
	}
	return sigmoid(z), nil
}

// ToPercent clamps p to [MinProbability, MaxProbability] and converts it to a
// percentage with one decimal place.
func ToPercent(p float64) float64 {
	if math.IsNaN(p) {
		p = MinProbability
	}
	p = min(max(p, MinProbability), MaxProbability)
	return math.Round(p*1000) / 10
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
