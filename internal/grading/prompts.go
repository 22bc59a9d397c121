package grading

import (
	"strings"

	"github.com/echoexam/echo-backend/internal/model"
)

// All graders share one response contract so the parser stays uniform.
const responseContract = `Respond with a single JSON object and nothing else:
{
  "score": <number between 0.0 and 1.0>,
  "feedback": "<one short, encouraging sentence addressed to the student>",
  "explanation": "<one or two sentences explaining the score>",
  "is_correct": <true if the answer deserves full or near-full credit>,
  "suggested_answer": "<a model answer, when useful>"
}`

const readAloudSystem = `You are grading the read-aloud section of an English oral exam for young learners.
You will receive the text the student was asked to read and a recording of the attempt.
Judge pronunciation, completeness, and fluency. Minor hesitations are fine; missing or
garbled words lower the score. ` + responseContract

const multipleChoiceSystem = `You are grading a multiple-choice question on an English exam for young learners.
Compare the student's chosen option against the correct answer. Full credit only for the
correct choice; no partial credit. Keep feedback kind and concrete. ` + responseContract

const quickResponseSystem = `You are grading the quick-response section of an English oral exam for young learners.
You will receive a question and a recording of the student's spoken answer. Judge whether
the answer addresses the question in understandable English; grammar slips that do not
obscure meaning cost little. ` + responseContract

const translationSystem = `You are grading the oral translation section of an English exam for young learners.
You will receive a sentence to translate into English and a recording of the student's
spoken translation. Judge meaning first, then word choice and grammar. ` + responseContract

func systemPrompt(t model.QuestionType) string {
	switch t {
	case model.QuestionTypeReadAloud:
		return readAloudSystem
	case model.QuestionTypeMultipleChoice:
		return multipleChoiceSystem
	case model.QuestionTypeQuickResponse:
		return quickResponseSystem
	case model.QuestionTypeTranslation:
		return translationSystem
	}
	return responseContract
}

func userPrompt(q model.Question, answer model.Answer) string {
	var b strings.Builder

	switch q.Type {
	case model.QuestionTypeReadAloud:
		b.WriteString("The student was asked to read this text aloud:\n\n")
		b.WriteString(q.Text)
		b.WriteString("\n\nGrade the attached recording against that text.")

	case model.QuestionTypeMultipleChoice:
		b.WriteString("Question: ")
		b.WriteString(q.Text)
		b.WriteString("\n\nOptions:\n")
		if len(q.Options) == 0 {
			b.WriteString("No options provided\n")
		}
		for _, opt := range q.Options {
			b.WriteString(opt)
			b.WriteString("\n")
		}
		b.WriteString("\nCorrect answer: ")
		b.WriteString(q.ReferenceAnswer)
		b.WriteString("\nStudent answer: ")
		b.WriteString(answer.Text)

	case model.QuestionTypeQuickResponse:
		b.WriteString("The student heard this question and answered out loud:\n\n")
		b.WriteString(q.Text)
		b.WriteString("\n\nGrade the attached recording as the answer.")
		if q.ReferenceAnswer != "" {
			b.WriteString("\nAn acceptable answer would be: ")
			b.WriteString(q.ReferenceAnswer)
		}

	case model.QuestionTypeTranslation:
		b.WriteString("The student was asked to translate this sentence into English, speaking the translation out loud:\n\n")
		b.WriteString(q.Text)
		b.WriteString("\n\nGrade the attached recording as the translation.")
		if q.ReferenceAnswer != "" {
			b.WriteString("\nA reference translation: ")
			b.WriteString(q.ReferenceAnswer)
		}
	}

	return b.String()
}
