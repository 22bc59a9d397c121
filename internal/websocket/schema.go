package websocket

import "github.com/echoexam/echo-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventProgress Event = "progress"
	EventError    Event = "error"
	EventPong     Event = "pong"
)

// ProgressEvent carries a session snapshot. One is pushed on connect,
// then whenever the snapshot changes: index moves, grading tasks start
// or land, audio preparation completes, the session finishes.
type ProgressEvent struct {
	Event    Event                    `json:"event"`
	Snapshot *model.SessionStatusInfo `json:"snapshot"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
