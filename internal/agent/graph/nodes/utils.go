package nodes

import (
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/ai-tutor-orchestrator/server/internal/agent/graph/conversations"
	"github.com/ai-tutor-orchestrator/server/internal/agent/graph/prompts"
	"github.com/ai-tutor-orchestrator/server/internal/agent/graph/tools"
	"github.com/ai-tutor-orchestrator/server/internal/agent/model"
)

// ===== Small helpers to keep handlers simple/readable =====

// promptVars snapshots the request facts a prompt needs from state.
func promptVars(mm *conversations.MessagesManager, s *model.WorkflowState) prompts.Vars {
	ectx := model.DefaultEducationalContext()
	if s.EducationalContext != nil {
		ectx = *s.EducationalContext
	}
	return prompts.Vars{
		Message:     s.Message,
		ChatHistory: mm.BuildHistoryContext(s.ChatHistory),
		UserInfo:    mm.BuildProfileContext(s.UserInfo),
		Context:     ectx,
	}
}

// toolRequest assembles the outbound payload from state.
func toolRequest(s *model.WorkflowState) model.ToolRequest {
	req := model.ToolRequest{
		ToolName:            s.Intent.String(),
		ChatHistory:         s.ChatHistory,
		ExtractedParameters: s.ExtractedParameters,
		EducationalContext:  model.DefaultEducationalContext(),
	}
	if req.ChatHistory == nil {
		req.ChatHistory = []model.Message{}
	}
	if req.ExtractedParameters == nil {
		req.ExtractedParameters = model.ExtractedParameters{}
	}
	if s.UserInfo != nil {
		req.UserInfo = *s.UserInfo
	}
	if s.EducationalContext != nil {
		req.EducationalContext = *s.EducationalContext
	}
	return req
}

// toolCallMessage wraps a tool request as the assistant tool call consumed by the ToolsNode.
func toolCallMessage(requestID string, req model.ToolRequest) (*schema.Message, error) {
	args, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal tool request: %w", err)
	}
	return schema.AssistantMessage("", []schema.ToolCall{{
		ID:   "call_" + requestID,
		Type: "function",
		Function: schema.FunctionCall{
			Name:      req.ToolName,
			Arguments: string(args),
		},
	}}), nil
}

// toolResult extracts the single tool response from ToolsNode output.
func toolResult(msgs []*schema.Message) *model.ToolResponse {
	for _, m := range msgs {
		if m == nil || m.Role != schema.Tool {
			continue
		}
		return tools.DecodeResponse(m.Content)
	}
	return nil
}
