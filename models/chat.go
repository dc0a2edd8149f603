package models

// ChatRequest is the payload of the chat endpoint (one conversational turn).
type ChatRequest struct {
	Message   string        `json:"message" binding:"required"`
	SessionID int           `json:"session_id"`
	Context   TenantContext `json:"context"`
}

// ChatResponse is the reply for one turn. URL is set when the agent has a
// medium to attach (e.g. a meeting link).
type ChatResponse struct {
	Reply     string `json:"reply"`
	URL       string `json:"url,omitempty"`
	SessionID int    `json:"session_id"`
}

// ChatMessage is one stored history entry for a session.
type ChatMessage struct {
	Role string `json:"role"` // "user" or "model"
	Text string `json:"text"`
}
