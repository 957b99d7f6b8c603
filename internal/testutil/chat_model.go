// Package testutil provides deterministic stand-ins for graph dependencies in tests.
package testutil

import (
	"context"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Reply is one scripted model answer.
type Reply struct {
	Content string
	Err     error
	Usage   *schema.TokenUsage
}

// ChatModel answers Generate calls from a script. When the script is exhausted
// the last reply repeats. Respond, if set, takes precedence over the script.
type ChatModel struct {
	Script  []Reply
	Respond func(input []*schema.Message) Reply

	mu    sync.Mutex
	calls [][]*schema.Message
}

func NewChatModel(replies ...Reply) *ChatModel {
	return &ChatModel{Script: replies}
}

func (f *ChatModel) Generate(_ context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	f.mu.Lock()
	idx := len(f.calls)
	f.calls = append(f.calls, input)
	f.mu.Unlock()

	var r Reply
	switch {
	case f.Respond != nil:
		r = f.Respond(input)
	case len(f.Script) == 0:
		r = Reply{}
	case idx < len(f.Script):
		r = f.Script[idx]
	default:
		r = f.Script[len(f.Script)-1]
	}
	if r.Err != nil {
		return nil, r.Err
	}
	msg := schema.AssistantMessage(r.Content, nil)
	if r.Usage != nil {
		msg.ResponseMeta = &schema.ResponseMeta{Usage: r.Usage}
	}
	return msg, nil
}

func (f *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// Calls returns the number of Generate invocations.
func (f *ChatModel) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// LastInput returns the messages passed to the most recent call.
func (f *ChatModel) LastInput() []*schema.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

var _ einomodel.BaseChatModel = (*ChatModel)(nil)
