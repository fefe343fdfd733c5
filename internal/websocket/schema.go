package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave Action = "autosave"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// RequestPayload carries any client action. QID and Answer are only set
// for autosave.
type RequestPayload struct {
	Action Action `json:"action"`
	QID    string `json:"q_id"`
	Answer string `json:"ans"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventSaved     Event = "saved"
	EventTick      Event = "tick"
	EventSubmitted Event = "submitted"
	EventPong      Event = "pong"
)

type SavedResponse struct {
	Event Event  `json:"event"`
	QID   string `json:"q_id"`
}

// TickResponse is the periodic server-clock broadcast. Remaining is clamped
// at zero once the deadline has passed.
type TickResponse struct {
	Event            Event   `json:"event"`
	RemainingSeconds float64 `json:"remaining_seconds"`
}

// SubmittedResponse closes out the session with the finalized score.
type SubmittedResponse struct {
	Event      Event   `json:"event"`
	Trigger    string  `json:"trigger"`
	RawScore   int     `json:"raw_score"`
	TotalMarks int     `json:"total_marks"`
	Percentage float64 `json:"percentage"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
