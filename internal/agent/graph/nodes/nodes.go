package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/shipchat-core/server/internal/agent/graph/conversations"
	"github.com/shipchat-core/server/internal/agent/graph/parsers"
	"github.com/shipchat-core/server/internal/agent/graph/prompts"
	"github.com/shipchat-core/server/internal/agent/model"
	errx "github.com/shipchat-core/server/internal/core/error"
	logx "github.com/shipchat-core/server/pkg/logger"
)

// Graph node names.
const (
	NodeInputConverter      = "InputConverter"
	NodeExtractionChatModel = "ExtractionChatModel"
	NodeParser              = "Parser"
	NodeClarification       = "Clarification"
	NodeResponseAssembler   = "ResponseAssembler"
	NodeResponseChatModel   = "ResponseChatModel"
	NodeToolExecutor        = "ToolExecutor"
)

// NewInputConverterPreHandler creates the pre-handler for InputConverter node
func NewInputConverterPreHandler() func(context.Context, model.QueryInput, *model.AppState) (model.QueryInput, error) {
	return func(ctx context.Context, in model.QueryInput, s *model.AppState) (model.QueryInput, error) {
		if s.UserID == "" {
			s.UserID = in.UserID
		}
		if s.SessionID == "" {
			s.SessionID = in.SessionID
		}
		// Reset tool call counter and limit flag for each new query
		s.ToolCallCount = 0
		s.ToolCallLimitReached = false
		s.ToolCallIDSeq = 0
		// Reset accumulated total cost for each new query
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewInputConverterNode creates the InputConverter node that prepares the
// slot-extraction model call: it persists the user turn, assembles the
// recent-history analysis block, and pairs it with the extraction system prompt.
func NewInputConverterNode(mm *conversations.MessagesManager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.QueryInput) ([]*schema.Message, error) {
		conversationCtx, err := mm.ProcessExtractionMessage(ctx, input.UserID, input.SessionID, input.Query)
		if err != nil {
			return nil, fmt.Errorf("error getting conversation context: %w", err)
		}

		// Generate system prompt via Eino prompt component (enables prompt callbacks)
		systemPrompt, err := prompts.RenderExtractionSystem(ctx)
		if err != nil {
			return nil, fmt.Errorf("render extraction system prompt: %w", err)
		}

		messages := []*schema.Message{
			schema.SystemMessage(systemPrompt),
			schema.UserMessage(conversationCtx),
		}

		return messages, nil
	})
}

// NewExtractionChatModelPostHandler computes and logs usage cost for the extraction model.
func NewExtractionChatModelPostHandler(modelName string) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.AppState) (*schema.Message, error) {
		recordUsageCost(out, state, modelName, NodeExtractionChatModel)
		return out, nil
	}
}

// NewParserNode creates the Parser node for the extraction model response.
// Parse failures never fail the graph run: the turn is downgraded to a
// clarification asking the user to rephrase.
func NewParserNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, resp *schema.Message) (model.ExtractionResult, error) {
		result, err := parsers.ParseExtraction(resp.Content)
		if err != nil {
			logx.Error().Err(err).Msg("Error parsing extraction response")
			return model.ExtractionResult{
				ParseFailed:              true,
				MissingFieldsExplanation: errx.ExtractionParseMessage,
			}, nil
		}
		if result == nil {
			logx.Error().Msg("Parsing returned nil result")
			return model.ExtractionResult{
				ParseFailed:              true,
				MissingFieldsExplanation: errx.ExtractionParseMessage,
			}, nil
		}
		return *result, nil
	})
}

// NewParserPostHandler creates the post-handler for Parser node
func NewParserPostHandler() func(context.Context, model.ExtractionResult, *model.AppState) (model.ExtractionResult, error) {
	return func(ctx context.Context, out model.ExtractionResult, state *model.AppState) (model.ExtractionResult, error) {
		// Save extraction to state for the response assembler
		result := out
		state.Extraction = &result

		logx.Debug().
			Str("user_id", state.UserID).
			Str("session_id", state.SessionID).
			Bool("info_complete", out.InfoComplete).
			Bool("parse_failed", out.ParseFailed).
			Msg("Extraction result evaluated")
		return out, nil
	}
}

// NewClarificationCondition routes incomplete or unparseable extractions back
// to the user instead of running tools.
func NewClarificationCondition() func(context.Context, model.ExtractionResult) (string, error) {
	return func(ctx context.Context, input model.ExtractionResult) (string, error) {
		if input.NeedsClarification() {
			logx.Debug().
				Bool("parse_failed", input.ParseFailed).
				Msg("Routing to Clarification - shipment details incomplete")
			return NodeClarification, nil
		}
		logx.Debug().Msg("Routing to Response Assembler - shipment details complete")
		return NodeResponseAssembler, nil
	}
}

// NewClarificationNode creates the Clarification node. It turns the
// extraction model's explanation of what is missing into the assistant reply
// for this turn and persists it so the next turn sees it as history.
func NewClarificationNode(mm *conversations.MessagesManager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.ExtractionResult) (*schema.Message, error) {
		explanation := strings.TrimSpace(input.MissingFieldsExplanation)
		if explanation == "" {
			explanation = "Could you share the sender address, recipient address, and parcel dimensions and weight for this shipment?"
		}

		var userID, sessionID string
		compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			userID = state.UserID
			sessionID = state.SessionID
			return nil
		})

		if err := mm.SaveResponse(ctx, userID, sessionID, explanation); err != nil {
			logx.Error().
				Str("user_id", userID).
				Str("session_id", sessionID).
				Err(err).
				Msg("Error saving clarification response")
		}

		return schema.AssistantMessage(explanation, nil), nil
	})
}

// NewResponseAssemblerNode creates the ResponseAssembler node for building response context
func NewResponseAssemblerNode(
	mm *conversations.MessagesManager,
	responsePromptConfig *model.ResponsePromptConfig,
) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, extraction model.ExtractionResult) ([]*schema.Message, error) {
		// Get data from state
		var data model.ResponseData
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			if state.Extraction == nil {
				return fmt.Errorf("missing extraction result in state")
			}
			data = model.ResponseData{
				Extraction: *state.Extraction,
				UserID:     state.UserID,
				SessionID:  state.SessionID,
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		// Generate system prompt with the extracted shipment via Eino prompt component
		respSysPrompt, err := prompts.RenderResponseSystem(ctx, *responsePromptConfig, &data.Extraction)
		if err != nil {
			return nil, fmt.Errorf("generate response prompt: %w", err)
		}

		// Build context with conversation history
		messages, err := mm.BuildResponseContext(ctx, data.UserID, data.SessionID, respSysPrompt)
		if err != nil {
			return nil, fmt.Errorf("build response context: %w", err)
		}

		return messages, nil
	})
}

// NewResponseChatModelPreHandler creates the pre-handler for ResponseChatModel node
func NewResponseChatModelPreHandler(maxToolCalls int) func(context.Context, []*schema.Message, *model.AppState) ([]*schema.Message, error) {
	return func(ctx context.Context, in []*schema.Message, state *model.AppState) ([]*schema.Message, error) {
		// Heuristic fix for Gemini OpenAI-compat: ensure tool results carry tool_call_id
		if len(in) > 0 {
			last := in[len(in)-1]
			if last != nil && last.Role == schema.Tool && strings.TrimSpace(last.ToolCallID) == "" {
				// Try to find the most recent assistant tool call id from history
				for i := len(state.History) - 1; i >= 0; i-- {
					msg := state.History[i]
					if msg == nil || msg.Role != schema.Assistant || len(msg.ToolCalls) == 0 {
						continue
					}
					id := msg.ToolCalls[0].ID
					if strings.TrimSpace(id) != "" {
						last.ToolCallID = id
					}
					break
				}
			}
		}

		state.History = append(state.History, in...)

		if checkAndMarkToolLimit(state, maxToolCalls) {
			maxToolCalls = normalizeMaxToolCalls(maxToolCalls)
			wrapUp := &schema.Message{
				Role: schema.System,
				Content: fmt.Sprintf(
					"SYSTEM NOTICE: You have reached the maximum tool call limit (%d). "+
						"Please synthesize a helpful response using the information you've already gathered. "+
						"Acknowledge any limitations in your response if you couldn't complete all necessary tool calls.",
					maxToolCalls,
				),
			}
			state.History = append(state.History, wrapUp)
		}

		logx.Debug().Msg("AI thinking...")

		return state.History, nil
	}
}

// NewResponseChatModelPostHandler creates the post-handler for ResponseChatModel node
func NewResponseChatModelPostHandler(
	mm *conversations.MessagesManager,
	modelName string,
) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.AppState) (*schema.Message, error) {
		recordUsageCost(out, state, modelName, NodeResponseChatModel)

		// Normalize tool calls: some providers (Gemini OpenAI-compat) may omit tool_call IDs.
		if out != nil && len(out.ToolCalls) > 0 {
			for i := range out.ToolCalls {
				if strings.TrimSpace(out.ToolCalls[i].ID) == "" {
					state.ToolCallIDSeq++
					out.ToolCalls[i].ID = fmt.Sprintf("call_%d", state.ToolCallIDSeq)
				}
			}
		}

		state.History = append(state.History, out)

		if len(out.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(out.ToolCalls)).Msg("Calling tools")
		} else {
			logx.Debug().Msg("AI response ready")
		}

		// Save only when it's a final assistant message (no further tool calls),
		// or when we've reached the tool-call limit but still have a content response.
		if out.Role == schema.Assistant && (len(out.ToolCalls) == 0 || state.ToolCallLimitReached) && strings.TrimSpace(out.Content) != "" {
			if err := mm.SaveResponse(ctx, state.UserID, state.SessionID, out.Content); err != nil {
				logx.Error().
					Str("user_id", state.UserID).
					Str("session_id", state.SessionID).
					Err(err).
					Msg("Error saving assistant response in postHandlerResponse")
			} else {
				logx.Debug().
					Str("user_id", state.UserID).
					Str("session_id", state.SessionID).
					Msg("Successfully saved assistant response")
			}
		}

		return out, nil
	}
}

// recordUsageCost attaches per-call token cost to the message Extra and
// accumulates into the state running total.
func recordUsageCost(out *schema.Message, state *model.AppState, modelName, nodeName string) {
	if !model.CostEnabled() || out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	pricing := model.ResolvePricing(modelName)
	inC, outC, totalC := model.ComputeCost(out.ResponseMeta.Usage, pricing)
	if out.Extra == nil {
		out.Extra = map[string]any{}
	}
	out.Extra["usage_cost"] = map[string]any{
		"currency":          "USD",
		"model":             modelName,
		"prompt_tokens":     out.ResponseMeta.Usage.PromptTokens,
		"completion_tokens": out.ResponseMeta.Usage.CompletionTokens,
		"total_tokens":      out.ResponseMeta.Usage.TotalTokens,
		"input_cost":        inC,
		"output_cost":       outC,
		"total_cost":        totalC,
	}
	logx.Debug().
		Str("user_id", state.UserID).
		Str("session_id", state.SessionID).
		Str("node", nodeName).
		Str("model", modelName).
		Int("prompt_tokens", out.ResponseMeta.Usage.PromptTokens).
		Int("completion_tokens", out.ResponseMeta.Usage.CompletionTokens).
		Int("total_tokens", out.ResponseMeta.Usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")

	state.TotalCostUSD += totalC
	out.Extra["usage_cost_total_usd"] = state.TotalCostUSD
}

// NewToolExecutorCondition creates the condition function for tool execution routing
func NewToolExecutorCondition() func(context.Context, *schema.Message) (string, error) {
	return func(ctx context.Context, input *schema.Message) (string, error) {
		// Check if tool limit was reached
		var limitReached bool
		compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			limitReached = state.ToolCallLimitReached
			return nil
		})

		if limitReached {
			logx.Debug().Msg("Tool limit reached previously - routing to end")
			return compose.END, nil
		}

		if len(input.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(input.ToolCalls)).Msg("Routing to ToolExecutor")
			return NodeToolExecutor, nil
		}

		logx.Debug().Msg("No tool calls - continuing to end")
		return compose.END, nil
	}
}

// NewToolExecutorPreHandler creates the pre-handler for ToolExecutor node
func NewToolExecutorPreHandler(maxToolCalls int) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, in *schema.Message, state *model.AppState) (*schema.Message, error) {
		// Increment tool call counter
		exceeded := incrementToolCallAndCheck(state, maxToolCalls)

		logx.Debug().
			Int("tool_call_count", state.ToolCallCount).
			Str("user_id", state.UserID).
			Str("session_id", state.SessionID).
			Msg("Tool execution attempt")

		if exceeded {
			maxToolCalls = normalizeMaxToolCalls(maxToolCalls)
			logx.Warn().
				Int("tool_call_count", state.ToolCallCount).
				Int("max_tool_calls", maxToolCalls).
				Str("user_id", state.UserID).
				Str("session_id", state.SessionID).
				Msg("Tool call limit exceeded - flagging and continuing")
			return in, nil
		}

		return in, nil
	}
}
