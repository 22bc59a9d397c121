package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/echoexam/echo-backend/internal/examdef"
	"github.com/echoexam/echo-backend/internal/model"
	"github.com/echoexam/echo-backend/internal/response"
	"github.com/echoexam/echo-backend/internal/service"
	"github.com/echoexam/echo-backend/internal/validator"
)

// SessionHandler handles the exam session lifecycle endpoints.
type SessionHandler struct {
	sessions *service.SessionService
	log      zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions *service.SessionService, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		log:      log.With().Str("component", "session_handler").Logger(),
	}
}

// sessionID parses the :id path parameter and fails the request itself
// when it is not a UUID.
func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// Start godoc
// POST /api/v1/sessions
// Starts a session over an exam file. Audio preparation begins in the
// background; the client polls audio-status or listens on the progress
// stream for it.
func (h *SessionHandler) Start(c *gin.Context) {
	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resp, err := h.sessions.StartSession(req)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp)
}

// CurrentQuestion godoc
// GET /api/v1/sessions/:id/question
func (h *SessionHandler) CurrentQuestion(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	resp, err := h.sessions.CurrentQuestion(id)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// SubmitAnswer godoc
// POST /api/v1/sessions/:id/answers
// Accepts the answer for the current question and acks immediately;
// grading happens in the background.
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resp, err := h.sessions.SubmitAnswer(id, req)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// AudioStatus godoc
// GET /api/v1/sessions/:id/audio-status
func (h *SessionHandler) AudioStatus(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	resp, err := h.sessions.AudioStatus(id)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// Status godoc
// GET /api/v1/sessions/:id/status
func (h *SessionHandler) Status(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	resp, err := h.sessions.Status(id)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// FinalResults godoc
// GET /api/v1/sessions/:id/results
// May be polled before grading finishes; the aggregate then covers
// only the resolved questions and all_processed is false.
func (h *SessionHandler) FinalResults(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	resp, err := h.sessions.FinalResults(id)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// fail maps service errors onto HTTP statuses and typed error codes.
func (h *SessionHandler) fail(c *gin.Context, err error) {
	var verr *examdef.ValidationError
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
	case errors.Is(err, service.ErrQuestionsExhausted):
		response.Fail(c, http.StatusNotFound, response.ErrNoCurrentQuestion)
	case errors.Is(err, service.ErrSessionCompleted):
		response.Fail(c, http.StatusConflict, response.ErrSessionCompleted)
	case errors.Is(err, service.ErrBadAudioEncoding):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidAudio)
	case errors.Is(err, examdef.ErrExamNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
	case errors.As(err, &verr):
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrInvalidExam,
			map[string]string{"exam_file": strings.Join(verr.Problems, "; ")})
	default:
		h.log.Error().Err(err).Msg("Unhandled session error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
