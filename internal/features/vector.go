package features

import (
	"github.com/rotisserie/eris"
)

// Feature names understood by Factors.Vector.
const (
	FeatureAgeYears           = "age_years"
	FeatureAge                = "age"
	FeatureGender             = "gender"
	FeatureSystolic           = "ap_hi"
	FeatureDiastolic          = "ap_lo"
	FeatureCholesterol        = "cholesterol"
	FeatureGlucose            = "gluc"
	FeatureSmoke              = "smoke"
	FeatureAlcohol            = "alco"
	FeatureActive             = "active"
	FeatureHeight             = "height"
	FeatureWeight             = "weight"
	FeatureHypertension       = "hypertension"
	FeatureFamilyHeartDisease = "family_heart_disease"
	FeatureAvgGlucose         = "avg_glucose_level"
	FeatureBMI                = "bmi"
	FeatureSmokingNever       = "smoking_never"
	FeatureSmokingFormerly    = "smoking_formerly"
	FeatureSmokingCurrent     = "smoking_current"
	FeatureSmokingUnknown     = "smoking_unknown"
)

// GenderEncoding maps each Gender onto the numeric code a model was trained with.
type GenderEncoding struct {
	Male   float64 `yaml:"male"`
	Female float64 `yaml:"female"`
	Other  float64 `yaml:"other"`
}

func (e GenderEncoding) encode(g Gender) float64 {
	switch g {
	case GenderMale:
		return e.Male
	case GenderFemale:
		return e.Female
	default:
		return e.Other
	}
}

// PopulationStats holds the training-set medians used when a categorical
// input is absent.
type PopulationStats struct {
	CholesterolMedian float64 `yaml:"cholesterol"`
	GlucoseMedian     float64 `yaml:"gluc"`
}

// Vector is an ordered, named feature vector.
type Vector struct {
	Names  []string
	Values []float64
}

// Len returns the number of features.
func (v Vector) Len() int { return len(v.Values) }

// Vector builds the feature vector described by schema, in schema order.
func (f Factors) Vector(schema []string, stats PopulationStats, enc GenderEncoding) (Vector, error) {
	v := Vector{
		Names:  make([]string, len(schema)),
		Values: make([]float64, len(schema)),
	}
	for i, name := range schema {
		val, ok := f.feature(name, stats, enc)
		if !ok {
			return Vector{}, eris.Errorf("features: unknown feature %q", name)
		}
		v.Names[i] = name
		v.Values[i] = val
	}
	return v, nil
}

func (f Factors) feature(name string, stats PopulationStats, enc GenderEncoding) (float64, bool) {
	switch name {
	case FeatureAgeYears, FeatureAge:
		return f.AgeYears, true
	case FeatureGender:
		return enc.encode(f.Gender), true
	case FeatureSystolic:
		return float64(f.SystolicBP), true
	case FeatureDiastolic:
		return float64(f.DiastolicBP), true
	case FeatureCholesterol:
		if f.CholesterolCategory == 0 {
			return stats.CholesterolMedian, true
		}
		return float64(f.CholesterolCategory), true
	case FeatureGlucose:
		if f.GlucoseCategory == 0 {
			return stats.GlucoseMedian, true
		}
		return float64(f.GlucoseCategory), true
	case FeatureSmoke:
		return flag(f.Smoker), true
	case FeatureAlcohol:
		return flag(f.Alcohol), true
	case FeatureActive:
		return flag(f.Active), true
	case FeatureHeight:
		return f.HeightCM, true
	case FeatureWeight:
		return f.WeightKG, true
	case FeatureHypertension:
		return flag(f.Hypertension), true
	case FeatureFamilyHeartDisease:
		return flag(f.FamilyHeartDisease), true
	case FeatureAvgGlucose:
		return f.AvgGlucose, true
	case FeatureBMI:
		return f.BMI, true
	case FeatureSmokingNever:
		return flag(f.Smoking == SmokingNever), true
	case FeatureSmokingFormerly:
		return flag(f.Smoking == SmokingFormerly), true
	case FeatureSmokingCurrent:
		return flag(f.Smoking == SmokingCurrent), true
	case FeatureSmokingUnknown:
		return flag(f.Smoking == SmokingUnknown), true
	}
	return 0, false
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
