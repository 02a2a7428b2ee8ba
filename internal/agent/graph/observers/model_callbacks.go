package observers

import (
	"context"
	"strings"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/shipchat-core/server/pkg/logger"
)

// newModelHandler builds a typed ModelCallbackHandler that logs the message
// context going into each model call and the assistant reply coming out.
func newModelHandler() *callbackHelper.ModelCallbackHandler {
	return &callbackHelper.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *model.CallbackInput) context.Context {
			logx.Debug().Str("type", info.Type).Str("node", info.Name).Msg("model start")
			if input != nil && len(input.Messages) > 0 {
				if um := lastUserContent(input.Messages); um != "" {
					logx.Debug().Str("node", info.Name).Str("user", um).Msg("model input")
				}
				for i, m := range input.Messages {
					if m == nil {
						continue
					}
					content := strings.TrimSpace(m.Content)
					if content == "" {
						continue
					}
					logx.Debug().
						Int("idx", i).
						Str("role", string(m.Role)).
						Str("content", content).
						Msg("model context")
				}
			}
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *model.CallbackOutput) context.Context {
			logx.Debug().Str("type", info.Type).Str("node", info.Name).Msg("model end")
			if output != nil && output.Message != nil {
				content := strings.TrimSpace(output.Message.Content)
				if content != "" {
					logx.Debug().Str("node", info.Name).Str("assistant", content).Msg("model output")
				}
				if len(output.Message.ToolCalls) > 0 {
					for _, tc := range output.Message.ToolCalls {
						logx.Debug().
							Str("node", info.Name).
							Str("tool", tc.Function.Name).
							Str("args", tc.Function.Arguments).
							Msg("model requested tool call")
					}
				}
			}
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("type", info.Type).Str("node", info.Name).Msg("model error")
			return ctx
		},
	}
}

func lastUserContent(msgs []*schema.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m == nil {
			continue
		}
		if m.Role == schema.User {
			return strings.TrimSpace(m.Content)
		}
	}
	return ""
}
