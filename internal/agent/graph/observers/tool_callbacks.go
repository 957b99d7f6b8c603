package observers

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/tool"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/ai-tutor-orchestrator/server/pkg/logger"
)

// newToolHandler logs tool service dispatches.
func newToolHandler() *callbackHelper.ToolCallbackHandler {
	return &callbackHelper.ToolCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *tool.CallbackInput) context.Context {
			ev := logx.Debug().Str("tool_name", runName(info))
			if input != nil {
				ev = ev.Str("arguments", clip(input.ArgumentsInJSON))
			}
			ev.Msg("tool dispatch start")
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *tool.CallbackOutput) context.Context {
			ev := logx.Debug().Str("tool_name", runName(info))
			if output != nil {
				ev = ev.Str("response", clip(output.Response))
			}
			ev.Msg("tool dispatch end")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Warn().Err(err).Str("tool_name", runName(info)).Msg("tool dispatch failed")
			return ctx
		},
	}
}
