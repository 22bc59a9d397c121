package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation   ErrCode = "VALIDATION_ERROR"
	ErrInvalidID    ErrCode = "INVALID_ID"
	ErrInvalidAudio ErrCode = "INVALID_AUDIO_ENCODING"
	ErrInvalidExam  ErrCode = "INVALID_EXAM_FILE"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrExamNotFound      ErrCode = "EXAM_NOT_FOUND"
	ErrSessionNotFound   ErrCode = "SESSION_NOT_FOUND"
	ErrNoCurrentQuestion ErrCode = "NO_CURRENT_QUESTION"

	// ─── Session state ─────────────────────────────────────────────────
	ErrSessionCompleted ErrCode = "SESSION_COMPLETED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid session id format."
	case ErrInvalidAudio:
		return "Answer audio must be base64 encoded."
	case ErrInvalidExam:
		return "The exam file is invalid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrExamNotFound:
		return "Exam file not found."
	case ErrSessionNotFound:
		return "Exam session not found."
	case ErrNoCurrentQuestion:
		return "There is no current question. The exam has been completed."

	// ─── Session state ─────────────────────────────────────────────────
	case ErrSessionCompleted:
		return "This exam session is already completed."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
