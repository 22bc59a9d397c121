package model

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates exam session states.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusCompleted  SessionStatus = "COMPLETED"
)

// AudioStatus is the coarse audio preparation signal: generating until
// the first asset lands, completed afterwards. No per-asset progress.
type AudioStatus string

const (
	AudioStatusGenerating AudioStatus = "generating"
	AudioStatusCompleted  AudioStatus = "completed"
)

// SectionAudioKey names a section instruction entry in the session
// audio map; questions are keyed by their own id.
func SectionAudioKey(t QuestionType) string {
	return "section:" + string(t)
}

// ExamSession is one student's run through an exam. Questions is the
// session's own reordered copy of the definition's sequence; result
// slot i always corresponds to Questions[i].
//
// State-machine calls (current question, submit) arrive from a single
// caller, but grading and audio tasks finish on their own goroutines,
// so all mutable state below mu is accessed through methods only.
type ExamSession struct {
	ID          uuid.UUID
	ExamFile    string
	StudentName string
	Exam        *ExamDefinition
	Questions   []Question
	StartedAt   time.Time

	mu         sync.RWMutex
	status     SessionStatus
	finishedAt *time.Time
	current    int
	answered   int
	results    []*GradingResult
	seenTypes  map[QuestionType]struct{}
	inflight   map[string]struct{}
	audioPaths map[string]string
}

// NewExamSession allocates a session over an already-reordered question
// sequence. One result slot per question, all empty.
func NewExamSession(examFile, studentName string, exam *ExamDefinition, ordered []Question, now time.Time) *ExamSession {
	return &ExamSession{
		ID:          uuid.New(),
		ExamFile:    examFile,
		StudentName: studentName,
		Exam:        exam,
		Questions:   ordered,
		StartedAt:   now,
		status:      SessionStatusInProgress,
		results:     make([]*GradingResult, len(ordered)),
		seenTypes:   make(map[QuestionType]struct{}),
		inflight:    make(map[string]struct{}),
		audioPaths:  make(map[string]string),
	}
}

// QuestionCount never changes after creation.
func (s *ExamSession) QuestionCount() int {
	return len(s.Questions)
}

// Status returns the lifecycle state.
func (s *ExamSession) Status() SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// FinishedAt reports the completion timestamp, if the session completed.
func (s *ExamSession) FinishedAt() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.finishedAt == nil {
		return time.Time{}, false
	}
	return *s.finishedAt, true
}

// CurrentIndex is monotonically non-decreasing and moves only through
// Advance. After completion it stays at QuestionCount()-1.
func (s *ExamSession) CurrentIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// AnsweredCount is the number of accepted submissions.
func (s *ExamSession) AnsweredCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.answered
}

// Current returns the question awaiting an answer. ok is false once the
// session has completed: completion is the end marker, the index itself
// never passes the last question.
func (s *ExamSession) Current() (Question, int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.status == SessionStatusCompleted || s.current >= len(s.Questions) {
		return Question{}, 0, false
	}
	return s.Questions[s.current], s.current, true
}

// MarkSectionSeen records that a question type has been surfaced and
// reports whether this was the first time. The first question of the
// exam therefore always starts its section.
func (s *ExamSession) MarkSectionSeen(t QuestionType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seenTypes[t]; ok {
		return false
	}
	s.seenTypes[t] = struct{}{}
	return true
}

// Advance moves past the current question. On the last question the
// session completes: the end timestamp is set exactly once and the
// index stays at the last position instead of moving one past it.
// Downstream consumers rely on the terminal index being addressable.
func (s *ExamSession) Advance(last bool, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answered++
	if last {
		if s.status != SessionStatusCompleted {
			s.status = SessionStatusCompleted
			s.finishedAt = &now
		}
		return
	}
	s.current++
}

// TrackTask adds a grading task to the in-flight set.
func (s *ExamSession) TrackTask(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight[id] = struct{}{}
}

// UntrackTask removes a grading task from the in-flight set. Runs on
// every task exit, success or failure.
func (s *ExamSession) UntrackTask(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, id)
}

// Processing reports whether any grading task is still in flight.
func (s *ExamSession) Processing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.inflight) > 0
}

// SetResult writes a resolved result into its positional slot. Resolved
// results are never mutated afterwards.
func (s *ExamSession) SetResult(i int, r *GradingResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.results) {
		return
	}
	s.results[i] = r
}

// ResultAt returns the slot for question i, nil while unresolved.
func (s *ExamSession) ResultAt(i int) *GradingResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.results) {
		return nil
	}
	return s.results[i]
}

// ResultsSnapshot copies the slot array for aggregation. The pointed-to
// results are write-once, so sharing them is safe.
func (s *ExamSession) ResultsSnapshot() []*GradingResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make([]*GradingResult, len(s.results))
	copy(snap, s.results)
	return snap
}

// SetAudioPath records a prepared audio asset for a question or section key.
func (s *ExamSession) SetAudioPath(key, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audioPaths[key] = path
}

// AudioPath looks up a prepared asset path.
func (s *ExamSession) AudioPath(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.audioPaths[key]
	return p, ok
}

// AudioStatus is completed as soon as any asset has been prepared.
func (s *ExamSession) AudioStatus() AudioStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.audioPaths) > 0 {
		return AudioStatusCompleted
	}
	return AudioStatusGenerating
}

// StartSessionRequest is the payload for starting an exam session.
type StartSessionRequest struct {
	ExamFile    string `json:"exam_file" binding:"required,min=1,max=255"`
	StudentName string `json:"student_name" binding:"omitempty,max=100"`
}

// SubmitAnswerRequest is the payload for answering the current question.
// AnswerAudio carries a base64-encoded recording for spoken questions.
type SubmitAnswerRequest struct {
	AnswerText  string `json:"answer_text" binding:"omitempty,max=10000"`
	AnswerAudio string `json:"answer_audio" binding:"omitempty"`
}
