package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/echoexam/echo-backend/internal/model"
)

type stubGrader struct {
	mu    sync.Mutex
	calls []string

	gate    map[string]chan struct{}
	fail    map[string]bool
	panicOn map[string]bool
}

func (g *stubGrader) Grade(ctx context.Context, q model.Question, answer model.Answer) (*model.GradingResult, error) {
	if ch, ok := g.gate[q.ID]; ok {
		<-ch
	}
	g.mu.Lock()
	g.calls = append(g.calls, q.ID)
	g.mu.Unlock()
	if g.panicOn[q.ID] {
		panic("grader exploded")
	}
	if g.fail[q.ID] {
		return nil, errors.New("model unavailable")
	}
	return &model.GradingResult{Score: 1, Feedback: "Good job", IsCorrect: true, StudentAnswer: answer.Text}, nil
}

type stubCache struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (c *stubCache) Ensure(ctx context.Context, text, voice string) (string, error) {
	c.mu.Lock()
	c.calls = append(c.calls, text+"|"+voice)
	c.mu.Unlock()
	if c.fail[text] {
		return "", errors.New("synthesis unavailable")
	}
	return "/audio_cache/tts/" + text + ".mp3", nil
}

func (c *stubCache) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

type stubAnswers struct {
	mu    sync.Mutex
	saved int
	fail  bool
}

func (a *stubAnswers) Save(sessionID, questionID string, audio []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail {
		return "", errors.New("disk full")
	}
	a.saved++
	return "/audio_cache/student_answers/" + sessionID + "/" + questionID + ".mp3", nil
}

func newTestOrchestrator(g Grader, c AudioCache, a AnswerSaver) *Orchestrator {
	return New(g, c, a, "Cherry", "Serena", zerolog.Nop())
}

func sessionWith(exam *model.ExamDefinition) *model.ExamSession {
	return model.NewExamSession("unit5.yaml", "Student", exam, exam.Questions, time.Now())
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestGradingResolvesSlotsPositionally(t *testing.T) {
	exam := &model.ExamDefinition{
		Title: "Unit 5 Oral Exam",
		Questions: []model.Question{
			{ID: "q1", Type: model.QuestionTypeMultipleChoice, Text: "Pick one", Options: []string{"a", "b"}, ReferenceAnswer: "a"},
			{ID: "q2", Type: model.QuestionTypeMultipleChoice, Text: "Pick another", Options: []string{"a", "b"}, ReferenceAnswer: "b"},
		},
	}
	sess := sessionWith(exam)

	grader := &stubGrader{gate: map[string]chan struct{}{"q1": make(chan struct{})}}
	o := newTestOrchestrator(grader, &stubCache{}, &stubAnswers{})

	o.ScheduleGrading(sess, exam.Questions[0], 0, model.Answer{Text: "a"})
	o.ScheduleGrading(sess, exam.Questions[1], 1, model.Answer{Text: "b"})

	if !sess.Processing() {
		t.Fatal("expected tasks in flight right after scheduling")
	}

	// The second submission lands while the first is still being graded.
	waitFor(t, "second slot to resolve", func() bool { return sess.ResultAt(1) != nil })
	if sess.ResultAt(0) != nil {
		t.Fatal("first slot resolved while its grader was blocked")
	}
	if got := sess.ResultAt(1).StudentAnswer; got != "b" {
		t.Fatalf("slot 1 holds answer %q, want %q", got, "b")
	}

	close(grader.gate["q1"])
	o.Wait()

	if got := sess.ResultAt(0).StudentAnswer; got != "a" {
		t.Fatalf("slot 0 holds answer %q, want %q", got, "a")
	}
	if sess.Processing() {
		t.Fatal("in-flight set not emptied after completion")
	}
}

func TestGradingFailureWritesDegradedResult(t *testing.T) {
	exam := &model.ExamDefinition{
		Title: "Unit 5 Oral Exam",
		Questions: []model.Question{
			{ID: "q1", Type: model.QuestionTypeMultipleChoice, Text: "Pick one", Options: []string{"a", "b"}, ReferenceAnswer: "a"},
		},
	}
	sess := sessionWith(exam)

	o := newTestOrchestrator(&stubGrader{fail: map[string]bool{"q1": true}}, &stubCache{}, &stubAnswers{})
	o.ScheduleGrading(sess, exam.Questions[0], 0, model.Answer{Text: "b"})
	o.Wait()

	got := sess.ResultAt(0)
	if got == nil {
		t.Fatal("slot left unresolved after grading failure")
	}
	if got.Score != 0 || got.Feedback != "Grading failed" || got.Explanation != "Technical issue with AI processing" {
		t.Fatalf("unexpected degraded result: %+v", got)
	}
	if sess.Processing() {
		t.Fatal("failed task left in the in-flight set")
	}
}

func TestStudentAudioKeptWhenGradingFails(t *testing.T) {
	exam := &model.ExamDefinition{
		Title: "Unit 5 Oral Exam",
		Questions: []model.Question{
			{ID: "q1", Type: model.QuestionTypeQuickResponse, Text: "What day is it today?"},
		},
	}
	sess := sessionWith(exam)

	answers := &stubAnswers{}
	o := newTestOrchestrator(&stubGrader{fail: map[string]bool{"q1": true}}, &stubCache{}, answers)
	o.ScheduleGrading(sess, exam.Questions[0], 0, model.Answer{Audio: []byte("mp3-bytes")})
	o.Wait()

	got := sess.ResultAt(0)
	if got == nil {
		t.Fatal("slot left unresolved")
	}
	if got.Feedback != "Grading failed" {
		t.Fatalf("expected degraded result, got %+v", got)
	}
	if got.StudentAudioPath == "" {
		t.Fatal("student recording path dropped from degraded result")
	}
	if answers.saved != 1 {
		t.Fatalf("saved %d recordings, want 1", answers.saved)
	}
}

func TestGradingPanicResolvesSlot(t *testing.T) {
	exam := &model.ExamDefinition{
		Title: "Unit 5 Oral Exam",
		Questions: []model.Question{
			{ID: "q1", Type: model.QuestionTypeMultipleChoice, Text: "Pick one", Options: []string{"a", "b"}, ReferenceAnswer: "a"},
		},
	}
	sess := sessionWith(exam)

	o := newTestOrchestrator(&stubGrader{panicOn: map[string]bool{"q1": true}}, &stubCache{}, &stubAnswers{})
	o.ScheduleGrading(sess, exam.Questions[0], 0, model.Answer{Text: "a"})
	o.Wait()

	got := sess.ResultAt(0)
	if got == nil {
		t.Fatal("panicking task left its slot unresolved")
	}
	if got.Feedback != "Grading failed" {
		t.Fatalf("expected degraded result after panic, got %+v", got)
	}
	if sess.Processing() {
		t.Fatal("panicking task left in the in-flight set")
	}
}

func TestAudioPrepPreparesSectionsAndSpokenPrompts(t *testing.T) {
	exam := &model.ExamDefinition{
		Title: "Unit 5 Oral Exam",
		SectionInstructions: map[model.QuestionType]*model.SectionInstruction{
			model.QuestionTypeReadAloud:     {Text: "Read each sentence aloud.", TTS: "Read each sentence aloud."},
			model.QuestionTypeQuickResponse: {Text: "Answer in English.", TTS: "Answer each question in English."},
		},
		Questions: []model.Question{
			{ID: "ra1", Type: model.QuestionTypeReadAloud, Text: "The weather is nice today."},
			{ID: "qr1", Type: model.QuestionTypeQuickResponse, Text: "What day is it today?"},
			{ID: "qr2", Type: model.QuestionTypeQuickResponse, Text: "How do you go to school?"},
		},
	}
	sess := sessionWith(exam)

	cache := &stubCache{}
	o := newTestOrchestrator(&stubGrader{}, cache, &stubAnswers{})
	o.ScheduleAudioPrep(sess)
	o.Wait()

	for _, key := range []string{
		model.SectionAudioKey(model.QuestionTypeReadAloud),
		model.SectionAudioKey(model.QuestionTypeQuickResponse),
		"qr1",
		"qr2",
	} {
		if _, ok := sess.AudioPath(key); !ok {
			t.Errorf("no audio prepared for %q", key)
		}
	}
	if _, ok := sess.AudioPath("ra1"); ok {
		t.Error("read aloud prompt synthesized, should be displayed only")
	}
	if got := sess.AudioStatus(); got != model.AudioStatusCompleted {
		t.Fatalf("audio status = %q, want %q", got, model.AudioStatusCompleted)
	}

	cache.mu.Lock()
	defer cache.mu.Unlock()
	for _, call := range cache.calls {
		switch {
		case strings.HasPrefix(call, "Read each sentence aloud.|"), strings.HasPrefix(call, "Answer each question in English.|"):
			if !strings.HasSuffix(call, "|Cherry") {
				t.Errorf("instruction synthesized with wrong voice: %s", call)
			}
		default:
			if !strings.HasSuffix(call, "|Serena") {
				t.Errorf("question prompt synthesized with wrong voice: %s", call)
			}
		}
	}
}

func TestAudioPrepContinuesPastFailures(t *testing.T) {
	exam := &model.ExamDefinition{
		Title: "Unit 5 Oral Exam",
		Questions: []model.Question{
			{ID: "qr1", Type: model.QuestionTypeQuickResponse, Text: "What day is it today?"},
			{ID: "qr2", Type: model.QuestionTypeQuickResponse, Text: "How do you go to school?"},
		},
	}
	sess := sessionWith(exam)

	cache := &stubCache{fail: map[string]bool{"What day is it today?": true}}
	o := newTestOrchestrator(&stubGrader{}, cache, &stubAnswers{})
	o.ScheduleAudioPrep(sess)
	o.Wait()

	if _, ok := sess.AudioPath("qr1"); ok {
		t.Error("failed synthesis still produced an audio path")
	}
	if _, ok := sess.AudioPath("qr2"); !ok {
		t.Error("failure on one asset stopped preparation of the rest")
	}
	if cache.callCount() != 2 {
		t.Fatalf("cache called %d times, want 2", cache.callCount())
	}
	if got := sess.AudioStatus(); got != model.AudioStatusCompleted {
		t.Fatalf("audio status = %q, want %q", got, model.AudioStatusCompleted)
	}
}

func TestDrainTimesOutOnStuckTask(t *testing.T) {
	exam := &model.ExamDefinition{
		Title: "Unit 5 Oral Exam",
		Questions: []model.Question{
			{ID: "q1", Type: model.QuestionTypeMultipleChoice, Text: "Pick one", Options: []string{"a", "b"}, ReferenceAnswer: "a"},
		},
	}
	sess := sessionWith(exam)

	gate := make(chan struct{})
	grader := &stubGrader{gate: map[string]chan struct{}{"q1": gate}}
	o := newTestOrchestrator(grader, &stubCache{}, &stubAnswers{})
	o.ScheduleGrading(sess, exam.Questions[0], 0, model.Answer{Text: "a"})

	if o.Drain(20 * time.Millisecond) {
		t.Fatal("drain reported success while a task was blocked")
	}
	close(gate)
	if !o.Drain(2 * time.Second) {
		t.Fatal("drain did not finish after the task unblocked")
	}
}
