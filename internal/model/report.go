package model

import "time"

// NarrationRequest is everything the narration service receives for one
// assessment. It is built once and not modified after sending.
type NarrationRequest struct {
	Patient PatientSummary `json:"patient"`
	Bundle  RiskBundle     `json:"bundle"`
	LowRisk []string       `json:"low_risk"`
}

// LLMReport is the narrated part of a FinalReport. PossibleDiseases always
// holds the engine's visible set, never the narration service's figures.
type LLMReport struct {
	Summary          string            `json:"summary"`
	Recommendations  []string          `json:"recommendations"`
	PossibleDiseases []DiseaseEstimate `json:"possible_diseases"`
}

// RuleReport holds the rule-estimator estimates of a run.
type RuleReport struct {
	PossibleDiseases []DiseaseEstimate `json:"possible_diseases"`
}

// FinalReport is returned to the caller of an assessment.
type FinalReport struct {
	LLMReport  LLMReport  `json:"llm_report"`
	RuleReport RuleReport `json:"rule_report"`
}

// ReportRecord is the persisted form of one assessment.
type ReportRecord struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	Input      PatientProfile `json:"input_data"`
	LLMReport  LLMReport      `json:"llm_report"`
	RuleReport RuleReport     `json:"rule_report"`
	Degraded   bool           `json:"degraded"`
	CreatedAt  time.Time      `json:"created_at"`
}

// InsightDisease explains one disease in plain language.
type InsightDisease struct {
	Name       string `json:"name"`
	Cause      string `json:"cause"`
	Importance string `json:"importance"`
}

// Insight is the cross-report explanation of recurring diseases.
type Insight struct {
	Diseases    []InsightDisease `json:"diseases"`
	GeneralNote string           `json:"general_note"`
}

// InsightRecord is the persisted form of an Insight.
type InsightRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Insight   Insight   `json:"insight"`
	CreatedAt time.Time `json:"created_at"`
}
