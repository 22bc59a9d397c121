package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/echoexam/echo-backend/internal/examdef"
	"github.com/echoexam/echo-backend/internal/response"
	"github.com/echoexam/echo-backend/internal/service"
)

// ExamHandler handles the exam catalog endpoints.
type ExamHandler struct {
	exams *service.ExamService
	log   zerolog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(exams *service.ExamService, log zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		exams: exams,
		log:   log.With().Str("component", "exam_handler").Logger(),
	}
}

// ListExams godoc
// GET /api/v1/exams
// Lists every loadable exam file in the exams directory.
func (h *ExamHandler) ListExams(c *gin.Context) {
	exams, err := h.exams.List()
	if err != nil {
		h.log.Error().Err(err).Msg("Listing exam files failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// DescribeExam godoc
// GET /api/v1/exams/:filename
// Loads and validates one exam file and returns its metadata. The
// questions themselves are only ever surfaced one at a time through a
// session.
func (h *ExamHandler) DescribeExam(c *gin.Context) {
	info, err := h.exams.Describe(c.Param("filename"))
	if err != nil {
		var verr *examdef.ValidationError
		switch {
		case errors.Is(err, examdef.ErrExamNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
		case errors.As(err, &verr):
			response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrInvalidExam,
				map[string]string{"exam_file": strings.Join(verr.Problems, "; ")})
		default:
			h.log.Error().Err(err).Msg("Describing exam file failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, info)
}
