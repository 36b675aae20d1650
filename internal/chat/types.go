package chat

import "errors"

// ErrUpstream is returned when the hosted text-generation endpoint fails
// (network error, timeout, or content rejection). The turn that triggered it
// is never appended to the transcript.
var ErrUpstream = errors.New("chat upstream error")

// Roles of a transcript turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in a session transcript.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}
