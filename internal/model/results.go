package model

import "time"

// StartSessionResponse acknowledges session creation.
type StartSessionResponse struct {
	SessionID      string    `json:"session_id"`
	ExamTitle      string    `json:"exam_title"`
	TotalQuestions int       `json:"total_questions"`
	StartedAt      time.Time `json:"started_at"`
}

// CurrentQuestionResponse carries the question awaiting an answer.
// Instruction is present only the first time a section is entered.
// Audio paths are present once background preparation has produced them.
type CurrentQuestionResponse struct {
	Question             QuestionView        `json:"question"`
	Index                int                 `json:"index"`
	IsLast               bool                `json:"is_last"`
	Instruction          *SectionInstruction `json:"instruction,omitempty"`
	InstructionAudioPath string              `json:"instruction_audio_path,omitempty"`
	QuestionAudioPath    string              `json:"question_audio_path,omitempty"`
}

// SubmitAnswerResponse acknowledges a submission. Processing is always
// true: grading has just been scheduled.
type SubmitAnswerResponse struct {
	Index      int  `json:"index"`
	Processing bool `json:"processing"`
}

// AudioStatusResponse is the coarse audio preparation signal.
type AudioStatusResponse struct {
	Status AudioStatus `json:"status"`
}

// SessionStatusInfo is the lightweight running view of a session.
type SessionStatusInfo struct {
	SessionID      string        `json:"session_id"`
	Status         SessionStatus `json:"status"`
	CurrentIndex   int           `json:"current_index"`
	AnsweredCount  int           `json:"answered_count"`
	TotalQuestions int           `json:"total_questions"`
	Processing     bool          `json:"processing"`
	AudioStatus    AudioStatus   `json:"audio_status"`
}

// QuestionResult is one entry of the per-question result breakdown.
// Score is null while the grading task for this slot is unresolved.
type QuestionResult struct {
	QuestionID       string       `json:"question_id"`
	Type             QuestionType `json:"type"`
	Text             string       `json:"text"`
	Score            *float64     `json:"score"`
	Feedback         string       `json:"feedback,omitempty"`
	Explanation      string       `json:"explanation,omitempty"`
	IsCorrect        bool         `json:"is_correct,omitempty"`
	SuggestedAnswer  string       `json:"suggested_answer,omitempty"`
	StudentAnswer    string       `json:"student_answer,omitempty"`
	StudentAudioPath string       `json:"student_audio_path,omitempty"`
}

// SessionResults aggregates whatever has resolved so far. MaxScore
// counts one unit per resolved question, so a partially graded session
// is scored only over its resolved slots.
type SessionResults struct {
	SessionID       string           `json:"session_id"`
	ExamTitle       string           `json:"exam_title"`
	StudentName     string           `json:"student_name"`
	TotalScore      float64          `json:"total_score"`
	MaxScore        float64          `json:"max_score"`
	Percentage      float64          `json:"percentage"`
	ProcessedCount  int              `json:"processed_count"`
	TotalQuestions  int              `json:"total_questions"`
	AllProcessed    bool             `json:"all_processed"`
	PerQuestion     []QuestionResult `json:"per_question"`
	StartTime       time.Time        `json:"start_time"`
	EndTime         time.Time        `json:"end_time"`
	DurationSeconds int64            `json:"duration_seconds"`
}
