package service

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/echoexam/echo-backend/internal/examdef"
	"github.com/echoexam/echo-backend/internal/model"
	"github.com/echoexam/echo-backend/internal/registry"
)

// TaskScheduler is the background half of a session: grading tasks and
// audio preparation. Implemented by the worker orchestrator.
type TaskScheduler interface {
	ScheduleGrading(sess *model.ExamSession, q model.Question, index int, answer model.Answer)
	ScheduleAudioPrep(sess *model.ExamSession)
}

// SessionService drives the exam session state machine. State-machine
// calls never wait on grading or synthesis; those run through the
// scheduler and land in the session on their own time.
type SessionService struct {
	exams *examdef.Loader
	store registry.Store
	tasks TaskScheduler
	log   zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(exams *examdef.Loader, store registry.Store, tasks TaskScheduler, log zerolog.Logger) *SessionService {
	return &SessionService{
		exams: exams,
		store: store,
		tasks: tasks,
		log:   log.With().Str("component", "session_service").Logger(),
	}
}

// StartSession loads the exam definition, reorders its questions for
// delivery and registers a fresh session. Audio preparation is
// scheduled immediately but the response never waits for it.
func (s *SessionService) StartSession(req model.StartSessionRequest) (*model.StartSessionResponse, error) {
	def, err := s.exams.Load(req.ExamFile)
	if err != nil {
		return nil, err
	}

	ordered, err := orderQuestions(def.Questions)
	if err != nil {
		return nil, fmt.Errorf("order questions: %w", err)
	}

	name := req.StudentName
	if name == "" {
		name = "Student"
	}

	sess := model.NewExamSession(req.ExamFile, name, def, ordered, time.Now())
	s.store.Put(sess)
	s.tasks.ScheduleAudioPrep(sess)

	s.log.Info().
		Str("session_id", sess.ID.String()).
		Str("exam_file", req.ExamFile).
		Str("student", name).
		Int("questions", len(ordered)).
		Msg("Session started")

	return &model.StartSessionResponse{
		SessionID:      sess.ID.String(),
		ExamTitle:      def.Title,
		TotalQuestions: len(ordered),
		StartedAt:      sess.StartedAt,
	}, nil
}

// CurrentQuestion returns the question awaiting an answer. The first
// question of each section carries that section's instruction; the
// lookup itself marks the section as entered, so refreshing the same
// question does not repeat the instruction.
func (s *SessionService) CurrentQuestion(id uuid.UUID) (*model.CurrentQuestionResponse, error) {
	sess, ok := s.store.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}

	q, idx, ok := sess.Current()
	if !ok {
		return nil, ErrQuestionsExhausted
	}

	resp := &model.CurrentQuestionResponse{
		Question: q.View(),
		Index:    idx,
		IsLast:   idx == sess.QuestionCount()-1,
	}

	if sess.MarkSectionSeen(q.Type) {
		if instr := sess.Exam.Instruction(q.Type); instr != nil {
			resp.Instruction = instr
			if path, ok := sess.AudioPath(model.SectionAudioKey(q.Type)); ok {
				resp.InstructionAudioPath = path
			}
		}
	}
	if path, ok := sess.AudioPath(q.ID); ok {
		resp.QuestionAudioPath = path
	}

	return resp, nil
}

// SubmitAnswer accepts an answer for the current question, schedules
// its grading and moves the session forward. Whether this is the last
// question is decided before scheduling; on the last question the
// session completes and the index stays at the final position.
func (s *SessionService) SubmitAnswer(id uuid.UUID, req model.SubmitAnswerRequest) (*model.SubmitAnswerResponse, error) {
	sess, ok := s.store.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}

	q, idx, ok := sess.Current()
	if !ok {
		return nil, ErrSessionCompleted
	}

	var audio []byte
	if req.AnswerAudio != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.AnswerAudio)
		if err != nil {
			return nil, ErrBadAudioEncoding
		}
		audio = decoded
	}

	isLast := idx == sess.QuestionCount()-1
	s.tasks.ScheduleGrading(sess, q, idx, model.Answer{Text: req.AnswerText, Audio: audio})
	sess.Advance(isLast, time.Now())

	s.log.Debug().
		Str("session_id", sess.ID.String()).
		Str("question_id", q.ID).
		Int("index", idx).
		Bool("last", isLast).
		Msg("Answer accepted")

	return &model.SubmitAnswerResponse{Index: idx, Processing: true}, nil
}

// AudioStatus reports the coarse audio preparation signal.
func (s *SessionService) AudioStatus(id uuid.UUID) (*model.AudioStatusResponse, error) {
	sess, ok := s.store.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &model.AudioStatusResponse{Status: sess.AudioStatus()}, nil
}

// Status returns the running view of a session, the same snapshot the
// progress stream pushes.
func (s *SessionService) Status(id uuid.UUID) (*model.SessionStatusInfo, error) {
	sess, ok := s.store.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &model.SessionStatusInfo{
		SessionID:      sess.ID.String(),
		Status:         sess.Status(),
		CurrentIndex:   sess.CurrentIndex(),
		AnsweredCount:  sess.AnsweredCount(),
		TotalQuestions: sess.QuestionCount(),
		Processing:     sess.Processing(),
		AudioStatus:    sess.AudioStatus(),
	}, nil
}

// FinalResults aggregates whatever grading has resolved so far. Only
// resolved slots count toward the score: max score equals the resolved
// count, one unit per question. Polling before grading finishes is
// allowed and reports a partial, consistent view.
func (s *SessionService) FinalResults(id uuid.UUID) (*model.SessionResults, error) {
	sess, ok := s.store.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}

	snap := sess.ResultsSnapshot()
	perQuestion := make([]model.QuestionResult, len(snap))
	processed := 0
	totalScore := 0.0

	for i, r := range snap {
		q := sess.Questions[i]
		entry := model.QuestionResult{
			QuestionID: q.ID,
			Type:       q.Type,
			Text:       q.Text,
		}
		if r != nil {
			score := r.Score
			entry.Score = &score
			entry.Feedback = r.Feedback
			entry.Explanation = r.Explanation
			entry.IsCorrect = r.IsCorrect
			entry.SuggestedAnswer = r.SuggestedAnswer
			entry.StudentAnswer = r.StudentAnswer
			entry.StudentAudioPath = r.StudentAudioPath
			processed++
			totalScore += r.Score
		}
		perQuestion[i] = entry
	}

	maxScore := float64(processed)
	percentage := 0.0
	if maxScore > 0 {
		percentage = totalScore / maxScore * 100
	}

	endTime := time.Now()
	if fin, ok := sess.FinishedAt(); ok {
		endTime = fin
	}

	return &model.SessionResults{
		SessionID:       sess.ID.String(),
		ExamTitle:       sess.Exam.Title,
		StudentName:     sess.StudentName,
		TotalScore:      totalScore,
		MaxScore:        maxScore,
		Percentage:      percentage,
		ProcessedCount:  processed,
		TotalQuestions:  sess.QuestionCount(),
		AllProcessed:    processed == sess.QuestionCount(),
		PerQuestion:     perQuestion,
		StartTime:       sess.StartedAt,
		EndTime:         endTime,
		DurationSeconds: int64(endTime.Sub(sess.StartedAt).Seconds()),
	}, nil
}
