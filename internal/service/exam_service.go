package service

import (
	"github.com/rs/zerolog"

	"github.com/echoexam/echo-backend/internal/examdef"
	"github.com/echoexam/echo-backend/internal/model"
)

// ExamService exposes the exam definition catalog.
type ExamService struct {
	exams *examdef.Loader
	log   zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(exams *examdef.Loader, log zerolog.Logger) *ExamService {
	return &ExamService{
		exams: exams,
		log:   log.With().Str("component", "exam_service").Logger(),
	}
}

// List returns metadata for every loadable exam definition.
func (s *ExamService) List() ([]model.ExamInfo, error) {
	return s.exams.List()
}

// Describe loads and validates a single definition and returns its
// metadata. The full question set stays server-side.
func (s *ExamService) Describe(filename string) (*model.ExamInfo, error) {
	def, err := s.exams.Load(filename)
	if err != nil {
		return nil, err
	}
	return &model.ExamInfo{
		Filename:      filename,
		Title:         def.Title,
		Description:   def.Description,
		QuestionCount: len(def.Questions),
	}, nil
}
