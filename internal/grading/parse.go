package grading

import (
	"encoding/json"
	"fmt"
	"strings"
)

type gradePayload struct {
	Score           float64 `json:"score"`
	Feedback        string  `json:"feedback"`
	Explanation     string  `json:"explanation"`
	IsCorrect       bool    `json:"is_correct"`
	SuggestedAnswer string  `json:"suggested_answer"`
}

// decodeResult parses a model response into the grade payload. Models
// wrap JSON in code fences or prose more often than they should, so
// after a direct parse fails we strip fences and finally fall back to
// the outermost brace pair.
func decodeResult(raw string) (*gradePayload, error) {
	text := strings.TrimSpace(raw)

	var p gradePayload
	if err := json.Unmarshal([]byte(text), &p); err == nil {
		return &p, nil
	}

	text = stripFences(text)
	if err := json.Unmarshal([]byte(text), &p); err == nil {
		return &p, nil
	}

	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &p); err == nil {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("grading response is not valid JSON: %.120s", raw)
}

// stripFences removes a surrounding markdown code fence, with or
// without a language tag.
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// clampScore keeps scores on the normalized 0..1 scale the prompts
// demand, whatever the model actually returned.
func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
