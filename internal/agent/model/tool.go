package model

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is one chat history turn as exchanged with clients and tool services.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ExtractedParameters is the open, tool-specific parameter map.
type ExtractedParameters map[string]any

// ToolRequest is the body POSTed to {tool}/invoke.
type ToolRequest struct {
	ToolName            string              `json:"tool_name"`
	UserInfo            UserInfo            `json:"user_info"`
	ChatHistory         []Message           `json:"chat_history"`
	ExtractedParameters ExtractedParameters `json:"extracted_parameters"`
	EducationalContext  EducationalContext  `json:"educational_context"`
}

// ToolResponse is returned by every tool service.
type ToolResponse struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
	Error   string         `json:"error,omitempty"`
}

// FailedToolResponse synthesizes an unsuccessful response; it carries no data.
func FailedToolResponse(msg string) *ToolResponse {
	return &ToolResponse{Success: false, Error: msg}
}
