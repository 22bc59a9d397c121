package service

import (
	"fmt"
	"sort"

	"github.com/jinzhu/copier"

	"github.com/echoexam/echo-backend/internal/model"
)

// orderQuestions deep-copies the definition's questions and reorders
// them for delivery: read aloud first, then multiple choice, quick
// response, translation. Questions of the same type keep their
// authoring order, so the sequence is a stable sort on type priority.
func orderQuestions(questions []model.Question) ([]model.Question, error) {
	ordered := make([]model.Question, 0, len(questions))
	if err := copier.CopyWithOption(&ordered, &questions, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("copy questions: %w", err)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Type.Priority() < ordered[j].Type.Priority()
	})

	return ordered, nil
}
