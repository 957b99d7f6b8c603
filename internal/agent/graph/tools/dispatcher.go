package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/ai-tutor-orchestrator/server/internal/agent/model"
	logx "github.com/ai-tutor-orchestrator/server/pkg/logger"
)

const (
	DefaultTimeout = 60 * time.Second

	msgToolNotConfigured = "Tool not configured"
)

var toolDescriptions = map[model.Intent]string{
	model.IntentFlashcard: "Generates study flashcards for a topic, adapted to the student's level.",
	model.IntentNote:      "Produces structured study notes for a topic in the requested style.",
	model.IntentConcept:   "Explains a single concept at the requested depth.",
	model.IntentQuiz:      "Builds a practice quiz with the requested number and type of questions.",
}

// Dispatcher forwards tool requests to the configured tool services. Each service is
// exposed as an eino InvokableTool named after its intent, so it can sit behind a
// ToolsNode and be observed by tool callbacks.
type Dispatcher struct {
	client *http.Client
	tools  map[model.Intent]tool.InvokableTool
}

// NewDispatcher builds one tool per intent with a non-empty base URL.
func NewDispatcher(endpoints map[model.Intent]string, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	d := &Dispatcher{
		client: &http.Client{Timeout: timeout},
		tools:  map[model.Intent]tool.InvokableTool{},
	}
	for intent, base := range endpoints {
		base = strings.TrimRight(strings.TrimSpace(base), "/")
		if base == "" || !intent.IsTool() {
			continue
		}
		d.tools[intent] = d.newServiceTool(intent, base)
	}
	return d
}

func (d *Dispatcher) newServiceTool(intent model.Intent, base string) tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: intent.String(),
			Desc: toolDescriptions[intent],
		},
		func(ctx context.Context, in *model.ToolRequest) (*model.ToolResponse, error) {
			// Failures are reported inside the response so the graph keeps running.
			return d.invoke(ctx, base, in), nil
		},
	)
}

// Tools lists the registered service tools for a ToolsNode.
func (d *Dispatcher) Tools() []tool.BaseTool {
	out := make([]tool.BaseTool, 0, len(d.tools))
	for _, intent := range model.ToolIntents {
		if t, ok := d.tools[intent]; ok {
			out = append(out, t)
		}
	}
	return out
}

// UnknownToolHandler answers tool calls for services without an endpoint.
func (d *Dispatcher) UnknownToolHandler(_ context.Context, name, _ string) (string, error) {
	logx.Warn().Str("tool_name", name).Msg("tool service not configured")
	return EncodeResponse(model.FailedToolResponse(msgToolNotConfigured)), nil
}

func (d *Dispatcher) invoke(ctx context.Context, base string, in *model.ToolRequest) *model.ToolResponse {
	if in == nil {
		in = &model.ToolRequest{}
	}
	start := time.Now()
	url := base + "/invoke"

	body, err := json.Marshal(in)
	if err != nil {
		return model.FailedToolResponse(fmt.Sprintf("Connection error: %v", err))
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return model.FailedToolResponse(fmt.Sprintf("Connection error: %v", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(httpReq)
	if err != nil {
		logx.Warn().Err(err).Str("tool_name", in.ToolName).Str("url", url).Msg("tool service unreachable")
		return model.FailedToolResponse(fmt.Sprintf("Connection error: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logx.Warn().Int("status", resp.StatusCode).Str("tool_name", in.ToolName).Msg("tool service returned error status")
		return model.FailedToolResponse(fmt.Sprintf("API server error: %d", resp.StatusCode))
	}

	var out model.ToolResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return model.FailedToolResponse(fmt.Sprintf("Connection error: %v", err))
	}
	if out.Success && out.Data == nil {
		out.Data = map[string]any{}
	}

	logx.Debug().
		Str("tool_name", in.ToolName).
		Bool("success", out.Success).
		Dur("elapsed", time.Since(start)).
		Msg("tool service responded")
	return &out
}

// EncodeResponse renders a response as the tool output string.
func EncodeResponse(r *model.ToolResponse) string {
	b, err := json.Marshal(r)
	if err != nil {
		return `{"success":false,"error":"Connection error: encode response"}`
	}
	return string(b)
}

// DecodeResponse parses a tool output string back into a response.
func DecodeResponse(s string) *model.ToolResponse {
	var out model.ToolResponse
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return model.FailedToolResponse(fmt.Sprintf("Connection error: %v", err))
	}
	if out.Success && out.Data == nil {
		out.Data = map[string]any{}
	}
	return &out
}
