package service

import "errors"

// Sentinel errors of the session API. Handlers map these to HTTP
// status codes; everything else surfaces as an internal error.
var (
	// ErrSessionNotFound means the id is not in the registry, either
	// never created or already evicted.
	ErrSessionNotFound = errors.New("session not found")

	// ErrQuestionsExhausted means the sequence has been fully surfaced
	// and there is no current question to fetch.
	ErrQuestionsExhausted = errors.New("no question past the end of the exam")

	// ErrSessionCompleted rejects submissions to a completed session.
	ErrSessionCompleted = errors.New("session already completed")

	// ErrBadAudioEncoding rejects answer audio that does not decode as
	// base64.
	ErrBadAudioEncoding = errors.New("answer audio is not valid base64")
)
