package model

// WorkflowState stores per-invocation state for the tutor graph.
// Concurrency model:
//   - Registered as graph local state via compose.WithGenLocalState, so every
//     request gets its own instance.
//   - All reads/writes happen inside eino state handlers
//     (WithStatePreHandler, WithStatePostHandler, compose.ProcessState), which
//     eino serializes; no mutex is required.
//   - Each node writes only the fields it owns (noted per field).
type WorkflowState struct {
	RequestID   string    // retrieve_state
	UserID      string    // retrieve_state
	SessionID   string    // retrieve_state
	Message     string    // retrieve_state
	ChatHistory []Message // retrieve_state

	UserInfo            *UserInfo           // retrieve_state
	EducationalContext  *EducationalContext // analyze_educational_context
	Intent              Intent              // analyze_intent
	ExtractedParameters ExtractedParameters // extract_<tool>_params
	APIResponse         *ToolResponse       // dispatch_to_api; nil for unknown intent
	FinalResponse       string              // format_response

	// Accumulated LLM cost (USD) across model invocations for this request
	TotalCostUSD float64
}

// ChatRequest is the inbound chat payload and the graph input.
type ChatRequest struct {
	RequestID   string    `json:"-"`
	UserID      string    `json:"user_id"`
	SessionID   string    `json:"session_id"`
	Message     string    `json:"message"`
	ChatHistory []Message `json:"chat_history"`
}

// ChatResponse is the graph output and the /chat response body.
type ChatResponse struct {
	Response               string              `json:"response"`
	ToolUsed               *string             `json:"tool_used"`
	Data                   map[string]any      `json:"data"`
	EducationalContextUsed *EducationalContext `json:"educational_context_used"`
}
