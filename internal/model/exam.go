package model

// SectionInstruction introduces a section the first time a question of
// its type is surfaced. TTS, when present, is the text actually spoken;
// it may differ from the displayed text.
type SectionInstruction struct {
	Text string `json:"text" yaml:"text"`
	TTS  string `json:"tts,omitempty" yaml:"tts,omitempty"`
}

// ExamDefinition is a fully loaded exam file. Immutable once loaded;
// sessions work on their own reordered copy of Questions.
type ExamDefinition struct {
	Title               string                               `json:"title" yaml:"title"`
	Description         string                               `json:"description" yaml:"description"`
	SectionInstructions map[QuestionType]*SectionInstruction `json:"section_instructions,omitempty" yaml:"sectionInstructions,omitempty"`
	Questions           []Question                           `json:"questions" yaml:"questions"`
}

// Instruction returns the section instruction for a question type, or
// nil when the exam file does not define one.
func (e *ExamDefinition) Instruction(t QuestionType) *SectionInstruction {
	if e.SectionInstructions == nil {
		return nil
	}
	return e.SectionInstructions[t]
}

// ExamInfo is the listing entry for one exam file on disk.
type ExamInfo struct {
	Filename      string `json:"filename"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	QuestionCount int    `json:"question_count"`
}

// QuestionView is a question as shown to the student: the reference
// answer never leaves the server.
type QuestionView struct {
	ID         string       `json:"id"`
	Type       QuestionType `json:"type"`
	Text       string       `json:"text"`
	Options    []string     `json:"options,omitempty"`
	TimeLimit  int          `json:"time_limit"`
	Difficulty string       `json:"difficulty,omitempty"`
}

// View strips grading-only fields from a question.
func (q Question) View() QuestionView {
	return QuestionView{
		ID:         q.ID,
		Type:       q.Type,
		Text:       q.Text,
		Options:    q.Options,
		TimeLimit:  q.TimeLimit,
		Difficulty: q.Difficulty,
	}
}
