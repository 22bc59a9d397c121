// Package worker runs the background half of an exam session: one
// grading task per submitted answer and one audio preparation task per
// session. Tasks are fire-and-forget; nothing here ever blocks a
// state-machine call, and a scheduled task always resolves its slot.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/echoexam/echo-backend/internal/metrics"
	"github.com/echoexam/echo-backend/internal/model"
)

// Grader scores one answer. Implementations may fail; the orchestrator
// owns the conversion of failures into degraded results.
type Grader interface {
	Grade(ctx context.Context, q model.Question, answer model.Answer) (*model.GradingResult, error)
}

// AudioCache materializes one synthesized prompt and returns its
// public path.
type AudioCache interface {
	Ensure(ctx context.Context, text, voice string) (string, error)
}

// AnswerSaver persists one student recording.
type AnswerSaver interface {
	Save(sessionID, questionID string, audio []byte) (string, error)
}

// Orchestrator schedules background grading and audio preparation.
type Orchestrator struct {
	grader  Grader
	cache   AudioCache
	answers AnswerSaver

	instructionVoice string
	responseVoice    string

	log zerolog.Logger
	wg  sync.WaitGroup
}

// New creates an Orchestrator.
func New(grader Grader, cache AudioCache, answers AnswerSaver, instructionVoice, responseVoice string, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		grader:           grader,
		cache:            cache,
		answers:          answers,
		instructionVoice: instructionVoice,
		responseVoice:    responseVoice,
		log:              log.With().Str("component", "orchestrator").Logger(),
	}
}

// ScheduleGrading registers a task in the session's in-flight set and
// grades the answer in the background. The task id leaves the in-flight
// set on every exit path, and the result slot at index always resolves:
// to the collaborator's result, or to the degraded default.
func (o *Orchestrator) ScheduleGrading(sess *model.ExamSession, q model.Question, index int, answer model.Answer) {
	taskID := uuid.NewString()
	sess.TrackTask(taskID)
	o.wg.Add(1)
	go o.runGrading(taskID, sess, q, index, answer)
}

func (o *Orchestrator) runGrading(taskID string, sess *model.ExamSession, q model.Question, index int, answer model.Answer) {
	defer o.wg.Done()
	defer sess.UntrackTask(taskID)
	defer func() {
		if r := recover(); r != nil {
			o.log.Error().Interface("panic", r).Str("question_id", q.ID).Msg("Grading task panicked")
			if sess.ResultAt(index) == nil {
				sess.SetResult(index, model.DegradedResult())
			}
		}
	}()

	log := o.log.With().
		Str("session_id", sess.ID.String()).
		Str("question_id", q.ID).
		Int("index", index).
		Logger()

	// Persist the recording first: it is kept for review even when
	// grading fails.
	var studentAudioPath string
	if q.Type.SpokenAnswer() && len(answer.Audio) > 0 {
		path, err := o.answers.Save(sess.ID.String(), q.ID, answer.Audio)
		if err != nil {
			log.Warn().Err(err).Msg("Could not persist student audio")
		} else {
			studentAudioPath = path
		}
	}

	started := time.Now()
	result, err := o.grader.Grade(context.Background(), q, answer)
	if err != nil {
		log.Error().Err(err).Msg("Grading failed, writing degraded result")
		result = model.DegradedResult()
		metrics.GradingTasks.WithLabelValues("degraded").Inc()
	} else {
		metrics.GradingTasks.WithLabelValues("graded").Inc()
	}
	metrics.GradingDuration.Observe(time.Since(started).Seconds())

	if q.Type.SpokenAnswer() {
		result.StudentAudioPath = studentAudioPath
	}
	sess.SetResult(index, result)

	log.Debug().Float64("score", result.Score).Msg("Result slot resolved")
}

// ScheduleAudioPrep synthesizes every spoken asset a session needs:
// each section instruction with TTS text, then each question whose
// type is delivered as speech. Runs once, right after session start.
func (o *Orchestrator) ScheduleAudioPrep(sess *model.ExamSession) {
	o.wg.Add(1)
	go o.runAudioPrep(sess)
}

func (o *Orchestrator) runAudioPrep(sess *model.ExamSession) {
	defer o.wg.Done()

	log := o.log.With().Str("session_id", sess.ID.String()).Logger()
	started := time.Now()
	prepared, failed := 0, 0

	seen := make(map[model.QuestionType]struct{})
	for _, q := range sess.Questions {
		if _, ok := seen[q.Type]; !ok {
			seen[q.Type] = struct{}{}
			if instr := sess.Exam.Instruction(q.Type); instr != nil && instr.TTS != "" {
				if path, err := o.cache.Ensure(context.Background(), instr.TTS, o.instructionVoice); err != nil {
					failed++
					log.Warn().Err(err).Str("section", string(q.Type)).Msg("Section instruction audio failed")
				} else {
					prepared++
					sess.SetAudioPath(model.SectionAudioKey(q.Type), path)
				}
			}
		}

		if !q.Type.SpokenPrompt() {
			continue
		}
		if path, err := o.cache.Ensure(context.Background(), q.Text, o.responseVoice); err != nil {
			failed++
			log.Warn().Err(err).Str("question_id", q.ID).Msg("Question audio failed")
		} else {
			prepared++
			sess.SetAudioPath(q.ID, path)
		}
	}

	log.Info().
		Int("prepared", prepared).
		Int("failed", failed).
		Dur("took", time.Since(started)).
		Msg("Audio preparation finished")
}

// Wait blocks until every scheduled task has resolved. Used by tests
// and by graceful shutdown.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Drain waits for in-flight tasks up to the given timeout, so shutdown
// gives grading a chance to land without hanging forever.
func (o *Orchestrator) Drain(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
