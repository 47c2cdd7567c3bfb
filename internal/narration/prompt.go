package narration

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cardiorisk/cardiorisk/internal/model"
)

// Prompt is one provider-neutral generation request.
type Prompt struct {
	System      string
	User        string
	Temperature float64
	// WebSearch asks providers that support it to ground the answer.
	WebSearch bool
}

const reportSystemTemplate = `You are a friendly, professional health analyst.

You receive a person's basic health information and a list of possible
cardiovascular conditions with probabilities calculated by a risk engine.

Explain the result in plain English for a non-medical reader.
- Never rename conditions and never add new ones.
- Never calculate or change probabilities.
- Quote probabilities of %[1]s%% or more exactly as given.
- Do not show numbers for anything below %[1]s%%.
- If low-risk conditions are listed, end the summary with one sentence of the
  form "Additionally, you may also keep an eye on: <names>." using names only.
  Skip that sentence when the list is empty.

Reply with one JSON object and nothing else, no markdown:
{
  "possible_diseases": [{"name": "Condition name", "probability": 0.0}],
  "summary": "Short explanation of the overall risk",
  "recommendations": [
    "Safe, actionable step",
    "Exercise suggestion with the reason",
    "Diet suggestion with the reason"
  ]
}
Recommendations must include at least two exercise and two diet suggestions,
each with a reason. Always answer in English.`

const insightSystemPrompt = `You are a creative health educator.

For each condition you are given, explain:
- "cause": the biological mechanism through a vivid everyday metaphor
  (plumbing, engines, city traffic).
- "importance": what happens to the body if it is ignored, as a short scenario.

Stay scientifically accurate. Reply with JSON only:
{
  "diseases": [{"name": "Condition name", "cause": "...", "importance": "..."}],
  "general_note": "A supportive closing remark"
}`

// ReportPrompt builds the assessment narration prompt. visible is the
// visibility threshold in percent.
func ReportPrompt(req model.NarrationRequest, visible, temperature float64) (Prompt, error) {
	bundle, err := json.MarshalIndent(req.Bundle, "", "  ")
	if err != nil {
		return Prompt{}, err
	}
	lowRisk, err := json.Marshal(req.LowRisk)
	if err != nil {
		return Prompt{}, err
	}

	p := req.Patient
	var b strings.Builder
	b.WriteString("User information:\n")
	fmt.Fprintf(&b, "- Age: %d\n", p.Age)
	fmt.Fprintf(&b, "- Gender: %s\n", p.Gender)
	fmt.Fprintf(&b, "- Height (cm): %g\n", p.Height)
	fmt.Fprintf(&b, "- Weight (kg): %g\n", p.Weight)
	fmt.Fprintf(&b, "- Hypertension: %s\n", yesNo(p.Hypertension))
	fmt.Fprintf(&b, "- Family heart disease: %s\n", yesNo(p.FamilyHeartDisease))
	fmt.Fprintf(&b, "- Average glucose level: %g\n", p.AvgGlucoseLevel)
	if p.BMI != nil {
		fmt.Fprintf(&b, "- BMI: %.1f\n", *p.BMI)
	} else {
		b.WriteString("- BMI: not provided\n")
	}
	fmt.Fprintf(&b, "- Smoking status: %s\n", orUnknown(p.SmokingStatus))
	fmt.Fprintf(&b, "- Stress level (0-2): %d\n", p.StressLevel)
	fmt.Fprintf(&b, "- High fat diet (0-2): %d\n", p.HighFatDiet)
	fmt.Fprintf(&b, "- Medical history: %s\n", orUnknown(p.MedicalHistory))
	b.WriteString("\nCalculated cardiovascular risk probabilities (percent):\n")
	b.Write(bundle)
	b.WriteString("\n\nLow-risk conditions (names only, no percentages):\n")
	b.Write(lowRisk)
	b.WriteString("\n")

	return Prompt{
		System:      fmt.Sprintf(reportSystemTemplate, fmt.Sprintf("%g", visible)),
		User:        b.String(),
		Temperature: temperature,
		WebSearch:   true,
	}, nil
}

// InsightPrompt builds the cross-report explanation prompt.
func InsightPrompt(diseases []model.DiseaseEstimate, temperature float64) (Prompt, error) {
	body, err := json.MarshalIndent(diseases, "", "  ")
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{
		System:      insightSystemPrompt,
		User:        "Conditions observed across the selected reports:\n" + string(body) + "\n",
		Temperature: temperature,
	}, nil
}

func yesNo(flag int) string {
	if flag == 1 {
		return "yes"
	}
	return "no"
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "not provided"
	}
	return s
}
