package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/echoexam/echo-backend/internal/config"
	"github.com/echoexam/echo-backend/internal/examdef"
	"github.com/echoexam/echo-backend/internal/handler"
	"github.com/echoexam/echo-backend/internal/model"
	"github.com/echoexam/echo-backend/internal/registry"
	"github.com/echoexam/echo-backend/internal/router"
	"github.com/echoexam/echo-backend/internal/service"
	"github.com/echoexam/echo-backend/internal/validator"
)

const unit5Exam = `exam:
  title: "Unit 5 Oral Exam"
  description: "Reading, choices and translation"
  sectionInstructions:
    read_aloud:
      text: "Read each sentence aloud."
      tts: "Now, read each sentence aloud."
    multiple_choice:
      text: "Choose the best answer."
  questions:
    - id: t0
      type: translation
      text: "我喜欢读书。"
    - id: ra1
      type: read_aloud
      text: "The quick brown fox."
    - id: mc2
      type: multiple_choice
      text: "How do you greet someone?"
      options: ["Hello", "Goodbye"]
      referenceAnswer: "Hello"
    - id: ra3
      type: read_aloud
      text: "She sells sea shells."
`

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	validator.Setup()
	os.Exit(m.Run())
}

// stubScheduler records scheduling calls instead of running tasks, so
// handler tests observe only the synchronous half of the session.
type stubScheduler struct {
	mu        sync.Mutex
	graded    []int
	audioPrep int
}

func (s *stubScheduler) ScheduleGrading(sess *model.ExamSession, q model.Question, index int, answer model.Answer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graded = append(s.graded, index)
}

func (s *stubScheduler) ScheduleAudioPrep(sess *model.ExamSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audioPrep++
}

func (s *stubScheduler) gradedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.graded)
}

// newTestRouter builds the full HTTP surface over a temp exams
// directory seeded with unit5.yaml.
func newTestRouter(t *testing.T) (*gin.Engine, *stubScheduler) {
	t.Helper()
	r, sched, _ := buildTestRouter(t)
	return r, sched
}

// newTestRouterWithPaths additionally exposes the temp data directory
// for tests that plant extra exam files.
func newTestRouterWithPaths(t *testing.T) (*config.Paths, *gin.Engine) {
	t.Helper()
	r, _, paths := buildTestRouter(t)
	return paths, r
}

func buildTestRouter(t *testing.T) (*gin.Engine, *stubScheduler, *config.Paths) {
	t.Helper()

	paths := config.NewPaths(t.TempDir())
	if err := paths.EnsureAll(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	writeExam(t, paths, "unit5.yaml", unit5Exam)

	cfg := &config.Config{
		GinMode:          gin.TestMode,
		SessionStartRate: 1000,
	}

	log := zerolog.Nop()
	exams := examdef.NewLoader(paths.ExamsDir(), log)
	store := registry.NewMemoryStore(0, log)
	sched := &stubScheduler{}

	examService := service.NewExamService(exams, log)
	sessionService := service.NewSessionService(exams, store, sched, log)

	handlers := &router.Handlers{
		Exam:    handler.NewExamHandler(examService, log),
		Session: handler.NewSessionHandler(sessionService, log),
		WS:      handler.NewWSHandler(sessionService, log, nil),
		System:  handler.NewSystemHandler(store),
	}
	return router.SetupRouter(handlers, cfg, paths), sched, paths
}

func writeExam(t *testing.T, paths *config.Paths, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(paths.ExamsDir(), name), []byte(content), 0o644); err != nil {
		t.Fatalf("write exam file: %v", err)
	}
}

// envelope mirrors the response wire format with the payload left raw.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
	Metadata struct {
		RequestID string `json:"request_id"`
		Timestamp string `json:"timestamp"`
	} `json:"metadata"`
}

func doGET(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doPOST(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v\nbody: %s", err, w.Body.String())
	}
	return env
}

// dataAs unmarshals the envelope payload into v.
func dataAs(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data: %v\ndata: %s", err, env.Data)
	}
}

// wantError asserts status code and typed error code in one place.
func wantError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) envelope {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d\nbody: %s", w.Code, status, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	if env.Error == nil {
		t.Fatalf("expected error body, got: %s", w.Body.String())
	}
	if env.Error.Code != code {
		t.Fatalf("error code = %q, want %q", env.Error.Code, code)
	}
	return env
}

// startSession creates a session over unit5.yaml and returns its id.
func startSession(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := doPOST(t, r, "/api/v1/sessions", map[string]string{
		"exam_file":    "unit5.yaml",
		"student_name": "Mei",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("start session status = %d\nbody: %s", w.Code, w.Body.String())
	}
	var resp struct {
		SessionID string `json:"session_id"`
	}
	dataAs(t, decodeEnvelope(t, w), &resp)
	if resp.SessionID == "" {
		t.Fatal("empty session_id")
	}
	return resp.SessionID
}

func TestRequestIDEchoedInMetadata(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exams", nil)
	req.Header.Set("X-Request-ID", "trace-me-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	env := decodeEnvelope(t, w)
	if env.Metadata.RequestID != "trace-me-42" {
		t.Errorf("request_id = %q, want trace-me-42", env.Metadata.RequestID)
	}
	if got := w.Header().Get("X-Request-ID"); got != "trace-me-42" {
		t.Errorf("X-Request-ID header = %q, want trace-me-42", got)
	}
}

func TestRequestIDGeneratedWhenAbsent(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doGET(t, r, "/api/v1/exams")
	env := decodeEnvelope(t, w)
	if env.Metadata.RequestID == "" {
		t.Error("request_id missing from metadata")
	}
}
