package rules

import (
	"github.com/cardiorisk/cardiorisk/internal/features"
	"github.com/cardiorisk/cardiorisk/internal/model"
)

// ChestSymptoms are the symptom tags that count toward coronary artery disease.
var ChestSymptoms = []string{"chest_discomfort", "shortness_of_breath", "chest_tightness"}

// RhythmSymptoms are the symptom tags that count toward arrhythmia, one point each.
var RhythmSymptoms = []string{
	"palpitations",
	"irregular_heartbeat",
	"rapid_heartbeat",
	"slow_heartbeat",
	"skipped_beats",
	"dizziness",
	"fainting",
}

// All returns the rule estimators in bundle order.
func All() []Rule {
	return []Rule{
		Hypertension(),
		Hyperlipidemia(),
		Atherosclerosis(),
		CoronaryArteryDisease(),
		Arrhythmia(),
	}
}

// ReportOrder is the order of the rule sub-report, which lists arrhythmia
// before coronary artery disease.
var ReportOrder = []string{
	model.DiseaseHypertension,
	model.DiseaseHyperlipidemia,
	model.DiseaseAtherosclerosis,
	model.DiseaseArrhythmia,
	model.DiseaseCAD,
}

// Hypertension scores blood pressure staging.
func Hypertension() Rule {
	return Rule{
		Disease: model.DiseaseHypertension,
		Conditions: []Condition{
			when("stage 2 blood pressure", 2, features.Factors.StageTwoBP),
			when("elevated blood pressure", 1, func(f features.Factors) bool {
				return !f.StageTwoBP() && f.ElevatedBP()
			}),
		},
		Bands: []Band{
			{0, 0, 10},
			{1, 1, 40},
			{2, Unbounded, 70},
		},
	}
}

// Hyperlipidemia scores the graded cholesterol level. An absent reading scores zero.
func Hyperlipidemia() Rule {
	return Rule{
		Disease: model.DiseaseHyperlipidemia,
		Conditions: []Condition{
			when("high cholesterol", 2, isHighCholesterol),
			when("borderline cholesterol", 1, func(f features.Factors) bool {
				return f.Cholesterol == features.CholesterolBorderline
			}),
		},
		Bands: []Band{
			{0, 0, 10},
			{1, 1, 35},
			{2, Unbounded, 65},
		},
	}
}

// Atherosclerosis counts classic plaque risk factors.
func Atherosclerosis() Rule {
	return Rule{
		Disease: model.DiseaseAtherosclerosis,
		Conditions: []Condition{
			when("age over 50", 1, func(f features.Factors) bool { return f.AgeYears > 50 }),
			when("smoker", 1, isSmoker),
			when("stage 2 blood pressure", 1, features.Factors.StageTwoBP),
			when("high cholesterol", 1, isHighCholesterol),
			when("family history", 1, hasFamilyHistory),
		},
		Bands: []Band{
			{0, 1, 15},
			{2, 2, 35},
			{3, 3, 60},
			{4, Unbounded, 70},
		},
	}
}

// CoronaryArteryDisease is a weighted sum over demographic, clinical,
// lifestyle and symptom factors.
func CoronaryArteryDisease() Rule {
	return Rule{
		Disease: model.DiseaseCAD,
		Conditions: []Condition{
			when("age 40 or over", 1, func(f features.Factors) bool { return f.AgeYears >= 40 }),
			when("male", 1, func(f features.Factors) bool { return f.Gender == features.GenderMale }),
			when("hypertension", 2, hasHypertension),
			when("family history", 2, hasFamilyHistory),
			when("obese", 1, func(f features.Factors) bool { return f.BMI >= 30 }),
			when("high cholesterol", 2, features.Factors.CholesterolAtLeastHigh),
			when("smoker", 2, isSmoker),
			when("alcohol", 1, func(f features.Factors) bool { return f.Alcohol }),
			when("inactive", 1, isInactive),
			{Name: "stress", Points: func(f features.Factors) int { return f.StressLevel }},
			{Name: "high fat diet", Points: func(f features.Factors) int { return f.HighFatDiet }},
			when("chest symptoms", 2, func(f features.Factors) bool { return f.HasAnySymptom(ChestSymptoms...) }),
		},
		Bands: []Band{
			{0, 0, 5},
			{1, 4, 25},
			{5, 8, 50},
			{9, 12, 70},
			{13, Unbounded, 90},
		},
	}
}

// Arrhythmia counts rhythm symptoms plus cardiac risk factors.
func Arrhythmia() Rule {
	return Rule{
		Disease: model.DiseaseArrhythmia,
		Conditions: []Condition{
			{Name: "rhythm symptoms", Points: func(f features.Factors) int { return f.CountSymptoms(RhythmSymptoms...) }},
			when("hypertension", 1, hasHypertension),
			when("family history", 1, hasFamilyHistory),
			when("smoker", 1, isSmoker),
			when("inactive", 1, isInactive),
			when("high cholesterol", 1, isHighCholesterol),
		},
		Bands: []Band{
			{0, 0, 10},
			{1, 3, 35},
			{4, 6, 55},
			{7, Unbounded, 70},
		},
	}
}

func isHighCholesterol(f features.Factors) bool { return f.Cholesterol == features.CholesterolHigh }
func isSmoker(f features.Factors) bool { return f.Smoker }
func isInactive(f features.Factors) bool { return !f.Active }
func hasHypertension(f features.Factors) bool { return f.Hypertension }
func hasFamilyHistory(f features.Factors) bool { return f.FamilyHeartDisease }
