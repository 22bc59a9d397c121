package model

import "fmt"

// QuestionType enumerates the four supported question kinds. The set is
// closed: grading, sectioning, and audio preparation all switch on it
// exhaustively.
type QuestionType string

const (
	QuestionTypeReadAloud      QuestionType = "read_aloud"
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeQuickResponse  QuestionType = "quick_response"
	QuestionTypeTranslation    QuestionType = "translation"
)

// ParseQuestionType validates a raw type tag from an exam file.
func ParseQuestionType(raw string) (QuestionType, error) {
	switch t := QuestionType(raw); t {
	case QuestionTypeReadAloud, QuestionTypeMultipleChoice,
		QuestionTypeQuickResponse, QuestionTypeTranslation:
		return t, nil
	}
	return "", fmt.Errorf("unknown question type %q", raw)
}

// Priority orders sections within a session, from reading aloud first
// to translation last. Lower runs earlier.
func (t QuestionType) Priority() int {
	switch t {
	case QuestionTypeReadAloud:
		return 0
	case QuestionTypeMultipleChoice:
		return 1
	case QuestionTypeQuickResponse:
		return 2
	case QuestionTypeTranslation:
		return 3
	}
	return 4
}

// SpokenPrompt reports whether the question text itself is delivered as
// synthesized speech.
func (t QuestionType) SpokenPrompt() bool {
	switch t {
	case QuestionTypeQuickResponse, QuestionTypeTranslation:
		return true
	}
	return false
}

// SpokenAnswer reports whether the student answers this question by voice.
func (t QuestionType) SpokenAnswer() bool {
	switch t {
	case QuestionTypeReadAloud, QuestionTypeQuickResponse, QuestionTypeTranslation:
		return true
	}
	return false
}

// DefaultTimeLimit is applied when an exam file omits time_limit.
func (t QuestionType) DefaultTimeLimit() int {
	switch t {
	case QuestionTypeReadAloud, QuestionTypeQuickResponse:
		return 15
	}
	return 30
}

// Question is a single exam question. Immutable once its exam is loaded.
type Question struct {
	ID              string       `json:"id" yaml:"id"`
	Type            QuestionType `json:"type" yaml:"type"`
	Text            string       `json:"text" yaml:"text"`
	Options         []string     `json:"options,omitempty" yaml:"options,omitempty"`
	ReferenceAnswer string       `json:"reference_answer,omitempty" yaml:"referenceAnswer,omitempty"`
	TimeLimit       int          `json:"time_limit" yaml:"timeLimit,omitempty"`
	Difficulty      string       `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
}
