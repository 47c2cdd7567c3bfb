package model

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// maxSymptoms caps the number of symptom tags accepted in one profile.
const maxSymptoms = 32

// PatientProfile is the raw assessment input. Numeric fields use the caller's
// declared units: age in years, height in centimeters, weight in kilograms.
// Binary flags are 0/1 and ordinals are 0..2, matching the wire contract.
type PatientProfile struct {
	Age         int     `json:"age"`
	Gender      string  `json:"gender"`
	Height      float64 `json:"height"`
	Weight      float64 `json:"weight"`
	SystolicBP  int     `json:"systolic_bp"`
	DiastolicBP int     `json:"diastolic_bp"`

	// Cholesterol is either a clinical category (1 normal, 2 above normal,
	// 3 well above normal) or a total cholesterol reading in mg/dL.
	Cholesterol *int `json:"cholesterol,omitempty"`
	// Glucose is a clinical category (1, 2, 3).
	Glucose         *int     `json:"glucose,omitempty"`
	BMI             *float64 `json:"bmi,omitempty"`
	AvgGlucoseLevel float64  `json:"avg_glucose_level"`

	Smoke       int `json:"smoke"`
	Alcohol     int `json:"alcohol"`
	Active      int `json:"active"`
	HighFatDiet int `json:"high_fat_diet"`
	StressLevel int `json:"stress_level"`

	Hypertension       int `json:"hypertension"`
	FamilyHeartDisease int `json:"family_heart_disease"`

	Symptoms       []string `json:"symptoms"`
	SmokingStatus  string   `json:"smoking_status"`
	MedicalHistory string   `json:"medical_history"`
}

// Validate checks every schema constraint and reports all violations at once.
// The returned error wraps ErrInvalidProfile.
func (p PatientProfile) Validate() error {
	var errs []string

	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Sprintf(format, args...))
		}
	}

	check(p.Age >= 0 && p.Age <= 130, "age must be between 0 and 130, got %d", p.Age)
	check(strings.TrimSpace(p.Gender) != "", "gender is required")
	check(p.Height >= 50 && p.Height <= 272, "height must be between 50 and 272 cm, got %.1f", p.Height)
	check(p.Weight >= 2 && p.Weight <= 500, "weight must be between 2 and 500 kg, got %.1f", p.Weight)
	check(p.SystolicBP >= 50 && p.SystolicBP <= 300, "systolic_bp must be between 50 and 300, got %d", p.SystolicBP)
	check(p.DiastolicBP >= 30 && p.DiastolicBP <= 200, "diastolic_bp must be between 30 and 200, got %d", p.DiastolicBP)
	check(p.AvgGlucoseLevel >= 0 && p.AvgGlucoseLevel <= 1000, "avg_glucose_level must be between 0 and 1000, got %.1f", p.AvgGlucoseLevel)

	if p.Cholesterol != nil {
		check(*p.Cholesterol >= 0 && *p.Cholesterol <= 1000, "cholesterol must be between 0 and 1000, got %d", *p.Cholesterol)
	}
	if p.Glucose != nil {
		check(*p.Glucose >= 0 && *p.Glucose <= 1000, "glucose must be between 0 and 1000, got %d", *p.Glucose)
	}
	if p.BMI != nil {
		check(*p.BMI >= 5 && *p.BMI <= 100, "bmi must be between 5 and 100, got %.1f", *p.BMI)
	}

	flags := []struct {
		name  string
		value int
	}{
		{"smoke", p.Smoke},
		{"alcohol", p.Alcohol},
		{"active", p.Active},
		{"hypertension", p.Hypertension},
		{"family_heart_disease", p.FamilyHeartDisease},
	}
	for _, f := range flags {
		check(f.value == 0 || f.value == 1, "%s must be 0 or 1, got %d", f.name, f.value)
	}

	check(p.StressLevel >= 0 && p.StressLevel <= 2, "stress_level must be 0, 1 or 2, got %d", p.StressLevel)
	check(p.HighFatDiet >= 0 && p.HighFatDiet <= 2, "high_fat_diet must be 0, 1 or 2, got %d", p.HighFatDiet)
	check(len(p.Symptoms) <= maxSymptoms, "at most %d symptoms allowed, got %d", maxSymptoms, len(p.Symptoms))

	if len(errs) > 0 {
		return eris.Wrap(ErrInvalidProfile, strings.Join(errs, "; "))
	}
	return nil
}

// PatientSummary is the subset of a profile shared with the narration service.
type PatientSummary struct {
	Age                int      `json:"age"`
	Gender             string   `json:"gender"`
	Height             float64  `json:"height"`
	Weight             float64  `json:"weight"`
	Hypertension       int      `json:"hypertension"`
	FamilyHeartDisease int      `json:"family_heart_disease"`
	AvgGlucoseLevel    float64  `json:"avg_glucose_level"`
	BMI                *float64 `json:"bmi,omitempty"`
	SmokingStatus      string   `json:"smoking_status"`
	StressLevel        int      `json:"stress_level"`
	HighFatDiet        int      `json:"high_fat_diet"`
	MedicalHistory     string   `json:"medical_history"`
}

// Summary projects the profile onto the fields sent for narration.
func (p PatientProfile) Summary() PatientSummary {
	return PatientSummary{
		Age:                p.Age,
		Gender:             p.Gender,
		Height:             p.Height,
		Weight:             p.Weight,
		Hypertension:       p.Hypertension,
		FamilyHeartDisease: p.FamilyHeartDisease,
		AvgGlucoseLevel:    p.AvgGlucoseLevel,
		BMI:                p.BMI,
		SmokingStatus:      p.SmokingStatus,
		StressLevel:        p.StressLevel,
		HighFatDiet:        p.HighFatDiet,
		MedicalHistory:     p.MedicalHistory,
	}
}
