package narration

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/cardiorisk/cardiorisk/internal/model"
)

// Fallback content for a narration that could not be used.
const (
	FallbackSummary        = "Analysis could not be generated, please try again."
	FallbackRecommendation = "Please consult a professional healthcare provider."
)

// Result is the usable part of a narration response. Any disease list the
// provider returned is dropped here.
type Result struct {
	Summary         string
	Recommendations []string
	// Degraded is set when the response could not be parsed and the fallback
	// content was substituted.
	Degraded bool
}

// DegradedResult returns the fallback result.
func DegradedResult() Result {
	return Result{
		Summary:         FallbackSummary,
		Recommendations: []string{FallbackRecommendation},
		Degraded:        true,
	}
}

// Parse extracts a Result from raw provider text. It never fails: anything it
// cannot read yields DegradedResult. A missing summary or recommendation list
// is replaced by its fallback on its own.
func Parse(raw string) Result {
	span, ok := FirstObject(raw)
	if !ok {
		return DegradedResult()
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(StripControl(span)), &fields); err != nil {
		return DegradedResult()
	}

	res := Result{Summary: FallbackSummary}
	if rawSummary, ok := fields["summary"]; ok {
		var s string
		if json.Unmarshal(rawSummary, &s) == nil && strings.TrimSpace(s) != "" {
			res.Summary = strings.TrimSpace(s)
		}
	}

	if rawRecs, ok := fields["recommendations"]; ok {
		var items []any
		if json.Unmarshal(rawRecs, &items) == nil {
			for _, it := range items {
				if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
					res.Recommendations = append(res.Recommendations, strings.TrimSpace(s))
				}
			}
		}
	}
	if len(res.Recommendations) == 0 {
		res.Recommendations = []string{FallbackRecommendation}
	}
	return res
}

// ParseInsight decodes an insight response. Unlike Parse it fails on
// unreadable content.
func ParseInsight(raw string) (model.Insight, error) {
	span, ok := FirstObject(raw)
	if !ok {
		return model.Insight{}, eris.Wrap(model.ErrUpstream, "narration: no JSON object in insight response")
	}

	var in model.Insight
	if err := json.Unmarshal([]byte(StripControl(span)), &in); err != nil {
		return model.Insight{}, eris.Wrapf(model.ErrUpstream, "narration: decode insight: %v", err)
	}
	if in.Diseases == nil {
		in.Diseases = []model.InsightDisease{}
	}
	return in, nil
}

// FirstObject returns the first balanced {...} span in s. Braces inside JSON
// strings are ignored.
func FirstObject(s string) (string, bool) {
	for start := strings.IndexByte(s, '{'); start >= 0; {
		if end, ok := matchBrace(s, start); ok {
			return s[start : end+1], true
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

// matchBrace returns the index of the brace closing the one at start.
func matchBrace(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// StripControl removes ASCII control characters (0x00-0x1F and 0x7F).
func StripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7F {
			return -1
		}
		return r
	}, s)
}
