package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/samber/lo"

	"github.com/ai-tutor-orchestrator/server/internal/agent/graph/conversations"
	"github.com/ai-tutor-orchestrator/server/internal/agent/graph/extractors"
	"github.com/ai-tutor-orchestrator/server/internal/agent/graph/intents"
	"github.com/ai-tutor-orchestrator/server/internal/agent/graph/learner"
	"github.com/ai-tutor-orchestrator/server/internal/agent/graph/prompts"
	"github.com/ai-tutor-orchestrator/server/internal/agent/graph/responses"
	"github.com/ai-tutor-orchestrator/server/internal/agent/model"
	logx "github.com/ai-tutor-orchestrator/server/pkg/logger"
)

const (
	NodeRetrieveState    = "retrieve_state"
	NodeAnalyzeContext   = "analyze_educational_context"
	NodeAnalyzeIntent    = "analyze_intent"
	NodeExtractFlashcard = "extract_flashcard_params"
	NodeExtractNote      = "extract_note_params"
	NodeExtractConcept   = "extract_concept_params"
	NodeExtractQuiz      = "extract_quiz_params"
	NodeDispatchToAPI    = "dispatch_to_api"
	NodeFormatResponse   = "format_response"
)

// ExtractNodes maps every tool intent to its parameter extraction node.
var ExtractNodes = map[model.Intent]string{
	model.IntentFlashcard: NodeExtractFlashcard,
	model.IntentNote:      NodeExtractNote,
	model.IntentConcept:   NodeExtractConcept,
	model.IntentQuiz:      NodeExtractQuiz,
}

// =========== retrieve_state ===========

// NewRetrieveStatePreHandler seeds a fresh state from the request
func NewRetrieveStatePreHandler() func(context.Context, model.ChatRequest, *model.WorkflowState) (model.ChatRequest, error) {
	return func(ctx context.Context, in model.ChatRequest, s *model.WorkflowState) (model.ChatRequest, error) {
		s.RequestID = in.RequestID
		s.UserID = in.UserID
		s.SessionID = in.SessionID
		s.Message = in.Message
		s.ChatHistory = in.ChatHistory
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewRetrieveStateNode loads the student profile. An unknown user aborts the run.
func NewRetrieveStateNode(profiles model.ProfileRepository) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.ChatRequest) (*model.UserProfile, error) {
		profile, err := profiles.GetProfile(ctx, in.UserID)
		if err != nil {
			logx.Error().Err(err).Str("request_id", in.RequestID).Str("user_id", in.UserID).Msg("Error loading user profile")
			return nil, fmt.Errorf("load user profile: %w", err)
		}
		return profile, nil
	})
}

// NewRetrieveStatePostHandler stores the profile's descriptive fields in state
func NewRetrieveStatePostHandler() func(context.Context, *model.UserProfile, *model.WorkflowState) (*model.UserProfile, error) {
	return func(ctx context.Context, out *model.UserProfile, s *model.WorkflowState) (*model.UserProfile, error) {
		if out != nil {
			info := out.Info()
			s.UserInfo = &info
		}
		return out, nil
	}
}

// =========== analyze_educational_context ===========

// NewAnalyzeContextNode re-reads the profile and infers the learning context.
// Any failure degrades to the default context.
func NewAnalyzeContextNode(profiles model.ProfileRepository) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in *model.UserProfile) (model.EducationalContext, error) {
		var userID, message, requestID string
		_ = compose.ProcessState(ctx, func(_ context.Context, s *model.WorkflowState) error {
			userID, message, requestID = s.UserID, s.Message, s.RequestID
			return nil
		})

		profile, err := profiles.GetProfile(ctx, userID)
		if err != nil || profile == nil {
			logx.Warn().Err(err).Str("request_id", requestID).Str("user_id", userID).
				Msg("Profile re-fetch failed; using default educational context")
			return model.DefaultEducationalContext(), nil
		}

		ectx := learner.Infer(message, *profile)
		logx.Debug().
			Str("request_id", requestID).
			Str("emotional_state", string(ectx.EmotionalState)).
			Str("teaching_style", string(ectx.TeachingStyle)).
			Int("mastery_level", ectx.MasteryLevel).
			Str("difficulty", ectx.InferredDifficulty).
			Msg("Educational context inferred")
		return ectx, nil
	})
}

func NewAnalyzeContextPostHandler() func(context.Context, model.EducationalContext, *model.WorkflowState) (model.EducationalContext, error) {
	return func(ctx context.Context, out model.EducationalContext, s *model.WorkflowState) (model.EducationalContext, error) {
		s.EducationalContext = &out
		return out, nil
	}
}

// =========== analyze_intent ===========

// NewAnalyzeIntentNode classifies the request into a tool intent
func NewAnalyzeIntentNode(mm *conversations.MessagesManager, classifier *intents.Classifier) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.EducationalContext) (model.Intent, error) {
		var (
			vars      prompts.Vars
			requestID string
		)
		_ = compose.ProcessState(ctx, func(_ context.Context, s *model.WorkflowState) error {
			vars = promptVars(mm, s)
			requestID = s.RequestID
			return nil
		})

		res := classifier.Classify(ctx, vars)
		_ = compose.ProcessState(ctx, func(_ context.Context, s *model.WorkflowState) error {
			s.TotalCostUSD += res.CostUSD
			return nil
		})

		logx.Debug().
			Str("request_id", requestID).
			Str("intent", res.Intent.String()).
			Str("source", string(res.Source)).
			Float64("cost_usd", res.CostUSD).
			Msg("Intent classified")
		return res.Intent, nil
	})
}

func NewAnalyzeIntentPostHandler() func(context.Context, model.Intent, *model.WorkflowState) (model.Intent, error) {
	return func(ctx context.Context, out model.Intent, s *model.WorkflowState) (model.Intent, error) {
		s.Intent = out
		return out, nil
	}
}

// NewRouteCondition sends tool intents to their extraction node and unknown straight to formatting
func NewRouteCondition() func(context.Context, model.Intent) (string, error) {
	return func(ctx context.Context, intent model.Intent) (string, error) {
		if node, ok := ExtractNodes[intent]; ok {
			logx.Debug().Str("intent", intent.String()).Str("next", node).Msg("Routing to parameter extraction")
			return node, nil
		}
		logx.Debug().Str("intent", intent.String()).Msg("No tool matched - routing to response formatting")
		return NodeFormatResponse, nil
	}
}

// NewRouteEndNodes lists every node the route condition may pick
func NewRouteEndNodes() map[string]bool {
	ends := lo.SliceToMap(lo.Values(ExtractNodes), func(node string) (string, bool) {
		return node, true
	})
	ends[NodeFormatResponse] = true
	return ends
}

// =========== extract_<tool>_params ===========

// NewExtractParamsNode extracts parameters for one tool and emits the tool call for dispatch
func NewExtractParamsNode(intent model.Intent, mm *conversations.MessagesManager, extractor *extractors.Extractor) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.Intent) (*schema.Message, error) {
		var (
			vars      prompts.Vars
			requestID string
		)
		_ = compose.ProcessState(ctx, func(_ context.Context, s *model.WorkflowState) error {
			vars = promptVars(mm, s)
			requestID = s.RequestID
			return nil
		})

		res := extractor.Extract(ctx, intent, vars)

		var req model.ToolRequest
		_ = compose.ProcessState(ctx, func(_ context.Context, s *model.WorkflowState) error {
			s.ExtractedParameters = res.Parameters
			s.TotalCostUSD += res.CostUSD
			req = toolRequest(s)
			return nil
		})

		logx.Debug().
			Str("request_id", requestID).
			Str("intent", intent.String()).
			Bool("fallback", res.Fallback).
			Int("param_count", len(res.Parameters)).
			Msg("Parameters extracted")

		return toolCallMessage(requestID, req)
	})
}

// =========== dispatch_to_api ===========

// NewDispatchPostHandler stores the tool service reply in state
func NewDispatchPostHandler() func(context.Context, []*schema.Message, *model.WorkflowState) ([]*schema.Message, error) {
	return func(ctx context.Context, out []*schema.Message, s *model.WorkflowState) ([]*schema.Message, error) {
		s.APIResponse = toolResult(out)
		if s.APIResponse != nil {
			logx.Debug().
				Str("request_id", s.RequestID).
				Str("intent", s.Intent.String()).
				Bool("success", s.APIResponse.Success).
				Str("error", s.APIResponse.Error).
				Msg("Tool service dispatched")
		}
		return out, nil
	}
}

// =========== format_response ===========

// NewFormatResponseNode renders the reply. It is reached from the route branch (unknown
// intent) and from dispatch, so its input is untyped and everything comes from state.
func NewFormatResponseNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ any) (model.ChatResponse, error) {
		var resp model.ChatResponse
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.WorkflowState) error {
			ectx := model.DefaultEducationalContext()
			if s.EducationalContext != nil {
				ectx = *s.EducationalContext
			}
			intent := s.Intent
			if intent == "" {
				intent = model.IntentUnknown
			}

			s.FinalResponse = responses.Format(intent, s.APIResponse, ectx)

			toolUsed := intent.String()
			resp = model.ChatResponse{
				Response:               s.FinalResponse,
				ToolUsed:               &toolUsed,
				EducationalContextUsed: &ectx,
			}
			if s.APIResponse != nil && s.APIResponse.Success {
				resp.Data = s.APIResponse.Data
			}

			logx.Info().
				Str("request_id", s.RequestID).
				Str("user_id", s.UserID).
				Str("session_id", s.SessionID).
				Str("intent", toolUsed).
				Float64("total_cost_usd", s.TotalCostUSD).
				Msg("Response formatted")
			return nil
		})
		if err != nil {
			return model.ChatResponse{}, fmt.Errorf("failed to access state: %w", err)
		}
		return resp, nil
	})
}
