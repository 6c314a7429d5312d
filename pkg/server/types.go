package server

const (
	HealthPath   = "/api/health"
	ChatPath     = "/api/chat"
	ResearchPath = "/api/research"
	MetricsPath  = "/metrics"
)

// timestampLayout renders UTC times with millisecond precision, e.g.
// 2026-01-02T03:04:05.000Z.
const timestampLayout = "2006-01-02T15:04:05.000Z"

type HealthResponse struct {
	Status    string `json:"status"`
	Provider  string `json:"provider"`
	Timestamp string `json:"timestamp"`
}

type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

type ChatRequest struct {
	Message             string        `json:"message"`
	ConversationHistory []ChatMessage `json:"conversationHistory,omitempty"`
}

type ChatResponse struct {
	Reply     string `json:"reply"`
	Provider  string `json:"provider"`
	Timestamp string `json:"timestamp"`
}

type ResearchRequest struct {
	Topic string `json:"topic"`
}

// ResearchMetadata carries the intermediate stage outputs of a run.
type ResearchMetadata struct {
	Research string `json:"research"`
	Summary  string `json:"summary"`
	Critique string `json:"critique"`
}

type ResearchResponse struct {
	Report    string           `json:"report"`
	Metadata  ResearchMetadata `json:"metadata"`
	Provider  string           `json:"provider"`
	Timestamp string           `json:"timestamp"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
