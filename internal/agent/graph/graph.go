package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"

	"github.com/ai-tutor-orchestrator/server/internal/agent/graph/conversations"
	"github.com/ai-tutor-orchestrator/server/internal/agent/graph/extractors"
	"github.com/ai-tutor-orchestrator/server/internal/agent/graph/intents"
	"github.com/ai-tutor-orchestrator/server/internal/agent/graph/nodes"
	"github.com/ai-tutor-orchestrator/server/internal/agent/graph/observers"
	"github.com/ai-tutor-orchestrator/server/internal/agent/graph/tools"
	"github.com/ai-tutor-orchestrator/server/internal/agent/model"
	logx "github.com/ai-tutor-orchestrator/server/pkg/logger"
)

// Runner executes the compiled tutor graph for one chat request.
type Runner interface {
	Invoke(ctx context.Context, in model.ChatRequest) (model.ChatResponse, error)
}

// Config holds everything needed to compose the full tutor graph end-to-end.
// This is a convenience layer over GraphConfig that also constructs the stage components.
type Config struct {
	// ChatModels is optional; without it intent and parameters use rule-based fallbacks.
	ChatModels   *nodes.ChatModels
	Profiles     model.ProfileRepository
	Sessions     model.SessionRepository // optional
	Tools        model.ToolsConfig
	HistoryTurns int
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	Profiles        model.ProfileRepository
	MessagesManager *conversations.MessagesManager
	Classifier      *intents.Classifier
	Extractor       *extractors.Extractor
	Dispatcher      *tools.Dispatcher
}

// GraphBuilder handles the construction of the tutor graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.ChatRequest, model.ChatResponse]
}

type graphRunner struct {
	runnable compose.Runnable[model.ChatRequest, model.ChatResponse]
	mm       *conversations.MessagesManager
}

func (r *graphRunner) Invoke(ctx context.Context, in model.ChatRequest) (model.ChatResponse, error) {
	if in.RequestID == "" {
		in.RequestID = uuid.NewString()
	}
	start := time.Now()

	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		logx.Error().Err(err).Str("request_id", in.RequestID).Str("user_id", in.UserID).Msg("Graph invocation failed")
		return model.ChatResponse{}, err
	}

	toolUsed := ""
	if out.ToolUsed != nil {
		toolUsed = *out.ToolUsed
	}
	// Transcript persistence never fails the request.
	if err := r.mm.SaveTurn(ctx, in.SessionID, model.SessionTurn{
		UserMessage: in.Message,
		Response:    out.Response,
		ToolUsed:    toolUsed,
		RequestID:   in.RequestID,
	}); err != nil {
		logx.Warn().Err(err).Str("request_id", in.RequestID).Str("session_id", in.SessionID).Msg("Failed to save session turn")
	}

	logx.Debug().Str("request_id", in.RequestID).Dur("elapsed", time.Since(start)).Msg("Graph invocation finished")
	return out, nil
}

// BuildTutorGraph composes the stage components, builds the graph, and returns a Runner.
func BuildTutorGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.Profiles == nil {
		return nil, fmt.Errorf("profile repository is nil")
	}

	var (
		classifier *intents.Classifier
		extractor  *extractors.Extractor
	)
	if cfg.ChatModels != nil {
		classifier = intents.NewClassifier(cfg.ChatModels.Intent, cfg.ChatModels.ModelName)
		extractor = extractors.NewExtractor(cfg.ChatModels.Params, cfg.ChatModels.ModelName)
	} else {
		logx.Warn().Msg("No chat model configured; intent and parameters use rule-based fallbacks")
		classifier = intents.NewClassifier(nil, "")
		extractor = extractors.NewExtractor(nil, "")
	}

	mm := conversations.NewMessagesManager(cfg.Sessions, cfg.HistoryTurns)

	runnable, err := BuildGraph(ctx, &GraphConfig{
		Profiles:        cfg.Profiles,
		MessagesManager: mm,
		Classifier:      classifier,
		Extractor:       extractor,
		Dispatcher:      tools.NewDispatcher(cfg.Tools.Endpoints(), cfg.Tools.Timeout),
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Tutor graph built successfully")
	return &graphRunner{runnable: runnable, mm: mm}, nil
}

// BuildGraph constructs and returns the compiled tutor graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.ChatRequest, model.ChatResponse], error) {
	// Basic config validation
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.Profiles == nil {
		return nil, fmt.Errorf("profile repository is nil")
	}
	if config.MessagesManager == nil {
		return nil, fmt.Errorf("messages manager is nil")
	}
	if config.Classifier == nil || config.Extractor == nil || config.Dispatcher == nil {
		return nil, fmt.Errorf("stage components are not properly initialized")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.ChatRequest, model.ChatResponse](
			compose.WithGenLocalState(func(ctx context.Context) *model.WorkflowState {
				return &model.WorkflowState{}
			}),
		),
	}

	if err := builder.addNodes(ctx); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes(ctx context.Context) error {
	cfg := b.config

	b.graph.AddLambdaNode(nodes.NodeRetrieveState,
		nodes.NewRetrieveStateNode(cfg.Profiles),
		compose.WithStatePreHandler(nodes.NewRetrieveStatePreHandler()),
		compose.WithStatePostHandler(nodes.NewRetrieveStatePostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeAnalyzeContext,
		nodes.NewAnalyzeContextNode(cfg.Profiles),
		compose.WithStatePostHandler(nodes.NewAnalyzeContextPostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeAnalyzeIntent,
		nodes.NewAnalyzeIntentNode(cfg.MessagesManager, cfg.Classifier),
		compose.WithStatePostHandler(nodes.NewAnalyzeIntentPostHandler()),
	)

	for _, intent := range model.ToolIntents {
		b.graph.AddLambdaNode(nodes.ExtractNodes[intent],
			nodes.NewExtractParamsNode(intent, cfg.MessagesManager, cfg.Extractor),
		)
	}

	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:               cfg.Dispatcher.Tools(),
		ExecuteSequentially: true,
		UnknownToolsHandler: cfg.Dispatcher.UnknownToolHandler,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Failed to create tools node")
		return fmt.Errorf("failed to create tools node: %w", err)
	}
	b.graph.AddToolsNode(nodes.NodeDispatchToAPI, toolsNode,
		compose.WithStatePostHandler(nodes.NewDispatchPostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeFormatResponse,
		nodes.NewFormatResponseNode(),
	)
	return nil
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeRetrieveState},
		{nodes.NodeRetrieveState, nodes.NodeAnalyzeContext},
		{nodes.NodeAnalyzeContext, nodes.NodeAnalyzeIntent},
		{nodes.NodeExtractFlashcard, nodes.NodeDispatchToAPI},
		{nodes.NodeExtractNote, nodes.NodeDispatchToAPI},
		{nodes.NodeExtractConcept, nodes.NodeDispatchToAPI},
		{nodes.NodeExtractQuiz, nodes.NodeDispatchToAPI},
		{nodes.NodeDispatchToAPI, nodes.NodeFormatResponse},
		{nodes.NodeFormatResponse, compose.END},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			logx.Error().Err(err).Str("from", edge[0]).Str("to", edge[1]).Msg("Error adding edge")
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	routeBranch := compose.NewGraphBranch(nodes.NewRouteCondition(), nodes.NewRouteEndNodes())
	if err := b.graph.AddBranch(nodes.NodeAnalyzeIntent, routeBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding intent route branch")
		return fmt.Errorf("error adding intent route branch: %w", err)
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.ChatRequest, model.ChatResponse], error) {
	// The pipeline is acyclic; the bound only guards against wiring mistakes.
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(20), compose.WithGraphName("tutor"))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
