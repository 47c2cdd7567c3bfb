// Package features maps raw patient profiles onto the representations each
// estimator consumes. Every optional-field default is resolved here, once per
// request, so rule and statistical estimators never handle missing data.
package features

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/cardiorisk/cardiorisk/internal/model"
)

// SmokingStatus is the fixed one-hot basis for smoking history.
type SmokingStatus int

const (
	SmokingUnknown SmokingStatus = iota
	SmokingNever
	SmokingFormerly
	SmokingCurrent
)

func (s SmokingStatus) String() string {
	switch s {
	case SmokingNever:
		return "never"
	case SmokingFormerly:
		return "formerly"
	case SmokingCurrent:
		return "current"
	default:
		return "unknown"
	}
}

// smokingAliases maps case-folded input strings to the basis.
var smokingAliases = map[string]SmokingStatus{
	"never smoked":     SmokingNever,
	"never":            SmokingNever,
	"formerly smoked":  SmokingFormerly,
	"formerly":         SmokingFormerly,
	"former":           SmokingFormerly,
	"smokes":           SmokingCurrent,
	"current":          SmokingCurrent,
	"currently smokes": SmokingCurrent,
	"n/a":              SmokingUnknown,
	"unknown":          SmokingUnknown,
}

// Gender is the normalized gender category.
type Gender int

const (
	GenderOther Gender = iota
	GenderMale
	GenderFemale
)

// CholesterolLevel grades cholesterol for the rule estimators.
type CholesterolLevel int

const (
	// CholesterolUnknown means no value was supplied. Rules treat it as no
	// evidence of elevated risk.
	CholesterolUnknown CholesterolLevel = iota
	CholesterolNormal
	CholesterolBorderline
	CholesterolHigh
)

// Cholesterol reading breakpoints in mg/dL. Graded high is strictly above
// HighCholesterolMgDL; borderline is [200, 239]. A reading of exactly 240
// grades normal, and only CholesterolAtLeastHigh counts it.
const (
	borderlineCholesterolMgDL = 200
	HighCholesterolMgDL       = 240
)

// Factors is the resolved, default-applied view of one PatientProfile.
type Factors struct {
	AgeYears    float64
	Gender      Gender
	HeightCM    float64
	WeightKG    float64
	BMI         float64
	SystolicBP  int
	DiastolicBP int

	// CholesterolCategory and GlucoseCategory are 1..3, or 0 when the input
	// was absent or outside the clinical categories. CholesterolReading is
	// the mg/dL value, or 0 for a category or no input.
	CholesterolCategory int
	GlucoseCategory     int
	Cholesterol         CholesterolLevel
	CholesterolReading  int
	AvgGlucose          float64

	Smoker             bool
	Alcohol            bool
	Active             bool
	Hypertension       bool
	FamilyHeartDisease bool
	StressLevel        int
	HighFatDiet        int
	Smoking            SmokingStatus

	Symptoms map[string]bool
}

// foldKey trims and case-folds s. A Caser is stateful, so one is created per call.
func foldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// Normalize resolves a profile into Factors. It is a pure function.
func Normalize(p model.PatientProfile) Factors {
	f := Factors{
		AgeYears:           float64(p.Age),
		Gender:             parseGender(p.Gender),
		HeightCM:           p.Height,
		WeightKG:           p.Weight,
		BMI:                resolveBMI(p),
		SystolicBP:         p.SystolicBP,
		DiastolicBP:        p.DiastolicBP,
		AvgGlucose:         p.AvgGlucoseLevel,
		Smoker:             p.Smoke == 1,
		Alcohol:            p.Alcohol == 1,
		Active:             p.Active == 1,
		Hypertension:       p.Hypertension == 1,
		FamilyHeartDisease: p.FamilyHeartDisease == 1,
		StressLevel:        clampOrdinal(p.StressLevel),
		HighFatDiet:        clampOrdinal(p.HighFatDiet),
		Smoking:            parseSmoking(p.SmokingStatus),
		Symptoms:           make(map[string]bool, len(p.Symptoms)),
	}

	if p.Cholesterol != nil {
		f.CholesterolCategory = category(*p.Cholesterol)
	}
	if p.Glucose != nil {
		f.GlucoseCategory = category(*p.Glucose)
	}
	f.Cholesterol = gradeCholesterol(p.Cholesterol)
	if p.Cholesterol != nil && category(*p.Cholesterol) == 0 {
		f.CholesterolReading = *p.Cholesterol
	}

	for _, s := range p.Symptoms {
		tag := foldKey(s)
		if tag != "" {
			f.Symptoms[tag] = true
		}
	}

	return f
}

// HasAnySymptom reports whether any of tags was reported.
func (f Factors) HasAnySymptom(tags ...string) bool {
	for _, t := range tags {
		if f.Symptoms[t] {
			return true
		}
	}
	return false
}

// CountSymptoms returns how many of tags were reported.
func (f Factors) CountSymptoms(tags ...string) int {
	n := 0
	for _, t := range tags {
		if f.Symptoms[t] {
			n++
		}
	}
	return n
}

// StageTwoBP reports systolic >= 140 or diastolic >= 90.
func (f Factors) StageTwoBP() bool {
	return f.SystolicBP >= 140 || f.DiastolicBP >= 90
}

// CholesterolAtLeastHigh reports a high category or a reading of at least
// HighCholesterolMgDL.
func (f Factors) CholesterolAtLeastHigh() bool {
	return f.Cholesterol == CholesterolHigh || f.CholesterolReading >= HighCholesterolMgDL
}

// ElevatedBP reports systolic in 120..139 or diastolic in 80..89.
func (f Factors) ElevatedBP() bool {
	return (f.SystolicBP >= 120 && f.SystolicBP <= 139) ||
		(f.DiastolicBP >= 80 && f.DiastolicBP <= 89)
}

func resolveBMI(p model.PatientProfile) float64 {
	if p.BMI != nil {
		return *p.BMI
	}
	if p.Height <= 0 {
		return 0
	}
	m := p.Height / 100
	return p.Weight / (m * m)
}

func parseGender(s string) Gender {
	switch foldKey(s) {
	case "male", "m":
		return GenderMale
	case "female", "f":
		return GenderFemale
	default:
		return GenderOther
	}
}

func parseSmoking(s string) SmokingStatus {
	if st, ok := smokingAliases[foldKey(s)]; ok {
		return st
	}
	return SmokingUnknown
}

func category(v int) int {
	if v >= 1 && v <= 3 {
		return v
	}
	return 0
}

func gradeCholesterol(v *int) CholesterolLevel {
	if v == nil {
		return CholesterolUnknown
	}
	switch c := *v; {
	case c == 1:
		return CholesterolNormal
	case c == 2:
		return CholesterolBorderline
	case c == 3:
		return CholesterolHigh
	case c > HighCholesterolMgDL:
		return CholesterolHigh
	case c >= borderlineCholesterolMgDL && c < HighCholesterolMgDL:
		return CholesterolBorderline
	default:
		return CholesterolNormal
	}
}

func clampOrdinal(v int) int {
	if v < 0 {
		return 0
	}
	if v > 2 {
		return 2
	}
	return v
}
