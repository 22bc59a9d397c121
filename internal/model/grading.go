package model

// Answer is one submitted answer. Multiple-choice answers arrive as
// text; spoken answers arrive as decoded audio bytes. Both may be
// present (a typed fallback alongside a recording).
type Answer struct {
	Text  string
	Audio []byte
}

// GradingResult is the outcome of one grading task. A session's result
// slot holds nil until the task resolves; after that the slot is never
// overwritten.
type GradingResult struct {
	Score            float64 `json:"score"`
	Feedback         string  `json:"feedback"`
	Explanation      string  `json:"explanation"`
	IsCorrect        bool    `json:"is_correct"`
	SuggestedAnswer  string  `json:"suggested_answer,omitempty"`
	StudentAnswer    string  `json:"student_answer,omitempty"`
	StudentAudioPath string  `json:"student_audio_path,omitempty"`
}

// DegradedResult is written into a slot when its grading task fails.
// The session stays usable: the failure shows up as a zero score with
// an explanatory message, never as a missing result.
func DegradedResult() *GradingResult {
	return &GradingResult{
		Score:       0,
		Feedback:    "Grading failed",
		Explanation: "Technical issue with AI processing",
	}
}
