package types

// ChatRequest is the body of POST /api/chat and POST /api/chat/stream.
type ChatRequest struct {
	// Required user message.
	// example: How do I make carbonara?
	Message string `json:"message" example:"How do I make carbonara?"`
	// Expert to answer with. Defaults to the server's default expert.
	// example: cooking
	ModelID string `json:"model_id,omitempty" example:"cooking"`
	// Previous exchanges, oldest first. The server keeps no conversation state.
	History []Turn `json:"history,omitempty"`
	// Maximum number of new tokens to generate.
	// example: 500
	MaxTokens int `json:"max_tokens,omitempty" example:"500"`
	// Sampling temperature; absent means the server default, 0 means greedy.
	// example: 0.7
	Temperature *float64 `json:"temperature,omitempty" example:"0.7"`
}

// ChatResponse is returned by POST /api/chat.
type ChatResponse struct {
	// Generated reply with the end-of-turn marker removed.
	Response string `json:"response"`
	// Display name of the expert that answered.
	// example: Chef
	Model string `json:"model" example:"Chef"`
}

// StreamEvent is one server-sent event of POST /api/chat/stream.
// Exactly one of the fields is set.
type StreamEvent struct {
	Token string `json:"token,omitempty"`
	Done  bool   `json:"done,omitempty"`
	Error string `json:"error,omitempty"`
}

// ModelsResponse is returned by GET /api/models.
type ModelsResponse struct {
	// Enabled experts whose adapters are present on disk.
	Models []Expert `json:"models"`
	// Resident expert id, null when nothing is loaded.
	Current *string `json:"current"`
}

// SelectRequest is the body of POST /api/model/select.
type SelectRequest struct {
	// example: history
	ModelID string `json:"model_id" example:"history"`
}

// SelectResponse is returned by POST /api/model/select.
type SelectResponse struct {
	Success bool   `json:"success"`
	Model   Expert `json:"model"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	// example: ok
	Status string `json:"status" example:"ok"`
	// Ids of resident experts (zero or one entry).
	LoadedModels []string `json:"loaded_models"`
	// Resident expert id, null when nothing is loaded.
	CurrentModel *string `json:"current_model"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: message is required
	Error string `json:"error" example:"message is required"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
