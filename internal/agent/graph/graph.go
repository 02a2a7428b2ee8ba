package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/shipchat-core/server/internal/agent/graph/conversations"
	"github.com/shipchat-core/server/internal/agent/graph/nodes"
	"github.com/shipchat-core/server/internal/agent/graph/observers"
	"github.com/shipchat-core/server/internal/agent/graph/tools"
	"github.com/shipchat-core/server/internal/agent/model"
	errx "github.com/shipchat-core/server/internal/core/error"
	"github.com/shipchat-core/server/internal/orders"
	"github.com/shipchat-core/server/internal/ship360"
	logx "github.com/shipchat-core/server/pkg/logger"
)

// Runner is a thin wrapper to execute the compiled graph with the public QueryInput.
type Runner interface {
	Invoke(ctx context.Context, in model.QueryInput) (string, error)
}

// Config holds everything needed to compose the full response graph end-to-end.
// This is a convenience layer over GraphConfig that also constructs ChatModels and MessagesManager.
type Config struct {
	APIKey           string
	BaseURL          string
	ExtractionModel  model.ExtractionModelConfig
	ResponseModel    model.ResponseModelConfig
	ResponsePrompt   model.ResponsePromptConfig
	Conversation     model.ConversationConfig
	ConversationRepo model.ConversationRepository
	Orders           *orders.Index
	Ship360          *ship360.Client
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	ChatModels           *nodes.ChatModels
	MessagesManager      *conversations.MessagesManager
	ResponsePromptConfig *model.ResponsePromptConfig
	ToolMaxCalls         int
	ToolDeps             tools.Deps
}

// GraphBuilder handles the construction of the agent conversation graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.QueryInput, *schema.Message]
}

type graphRunner struct {
	runnable compose.Runnable[model.QueryInput, *schema.Message]
}

func (r *graphRunner) Invoke(ctx context.Context, in model.QueryInput) (string, error) {
	out, err := r.runnable.Invoke(ctx, model.QueryInput{
		UserID:    in.UserID,
		SessionID: in.SessionID,
		Query:     in.Query,
	}, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		logx.Error().
			Str("user_id", in.UserID).
			Str("session_id", in.SessionID).
			Err(err).
			Msg("Graph invocation failed")
		// Degrade to a safe user-facing message rather than surfacing internals
		return errx.UserMessage(err), nil
	}
	if out == nil {
		return "", nil
	}
	// Best-effort print Extra (e.g., usage_cost) if present
	if len(out.Extra) > 0 {
		if b, err := json.MarshalIndent(out.Extra, "", "  "); err == nil {
			fmt.Printf("Extra: %s\n", string(b))
		}
	}
	return out.Content, nil
}

// BuildResponseGraph composes ChatModels, MessagesManager, builds the graph, and returns a Runner.
func BuildResponseGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.ConversationRepo == nil {
		return nil, fmt.Errorf("conversation repo is nil")
	}
	if cfg.Orders == nil {
		return nil, fmt.Errorf("order index is nil")
	}
	if cfg.Ship360 == nil {
		return nil, fmt.Errorf("shipping client is nil")
	}

	// Create chat models
	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		APIKey:           cfg.APIKey,
		BaseURL:          cfg.BaseURL,
		ExtractionConfig: &cfg.ExtractionModel,
		RespConfig:       &cfg.ResponseModel,
	})
	if err != nil {
		return nil, err
	}

	// Create messages manager
	mm := conversations.NewMessagesManager(cfg.ConversationRepo, cfg.Conversation)

	// Build runnable graph
	runnable, err := BuildGraph(ctx, &GraphConfig{
		ChatModels:           cms,
		MessagesManager:      mm,
		ResponsePromptConfig: &cfg.ResponsePrompt,
		ToolMaxCalls:         cfg.Conversation.Tools.MaxCalls,
		ToolDeps: tools.Deps{
			Orders:  cfg.Orders,
			Ship360: cfg.Ship360,
		},
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Response graph built successfully")
	return &graphRunner{runnable: runnable}, nil
}

// BuildGraph constructs and returns the compiled agent graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.QueryInput, *schema.Message], error) {
	// Basic config validation
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModels == nil || config.ChatModels.Extraction == nil || config.ChatModels.Response == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	if config.MessagesManager == nil {
		return nil, fmt.Errorf("messages manager is nil")
	}
	if config.ResponsePromptConfig == nil {
		return nil, fmt.Errorf("response prompt config is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.QueryInput, *schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
				return &model.AppState{}
			}),
		),
	}

	if err := builder.setupTools(ctx); err != nil {
		return nil, err
	}

	builder.addNodes()
	builder.addEdges()

	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// setupTools configures the shipping tools and binds them to the response model
func (b *GraphBuilder) setupTools(ctx context.Context) error {
	shippingTools := tools.GetShippingTools(b.config.ToolDeps)
	toolInfos, err := tools.GetToolInfos(ctx, shippingTools)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to get tool infos")
		return fmt.Errorf("failed to get tool infos: %w", err)
	}

	if err := b.config.ChatModels.BindToolsToResponseModel(ctx, toolInfos); err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools to response model")
		return fmt.Errorf("failed to bind tools to response model: %w", err)
	}

	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:               shippingTools,
		ExecuteSequentially: true,
		UnknownToolsHandler: func(ctx context.Context, name, input string) (string, error) {
			// Gracefully handle hallucinated or malformed tool calls (e.g., empty name)
			logx.Warn().
				Str("tool_name", name).
				Str("arguments", input).
				Msg("Unknown or invalid tool call; returning fallback result")
			// Return a compact, structured message the model can use to proceed
			return fmt.Sprintf("{\"error\":\"unknown_tool\",\"name\":%q,\"note\":\"ignored\"}", name), nil
		},
		ToolArgumentsHandler: sanitizeToolArguments,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Failed to create tools node")
		return fmt.Errorf("failed to create tools node: %w", err)
	}

	b.graph.AddToolsNode(nodes.NodeToolExecutor, toolsNode,
		compose.WithStatePreHandler(nodes.NewToolExecutorPreHandler(b.config.ToolMaxCalls)),
	)

	return nil
}

// sanitizeToolArguments normalizes model-produced tool arguments before
// dispatch. Best-effort only; it never fails hard.
func sanitizeToolArguments(ctx context.Context, name, arguments string) (string, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(arguments), &m); err != nil {
		// keep original if not JSON
		return arguments, nil
	}

	trimString := func(key string) {
		if v, ok := m[key]; ok {
			switch vv := v.(type) {
			case string:
				m[key] = strings.TrimSpace(vv)
			default:
				m[key] = strings.TrimSpace(fmt.Sprint(v))
			}
		}
	}

	switch name {
	case tools.ToolRateShop:
		trimString("order_id")
		trimString("duration_operator")
		// max_price / duration_value: coerce numeric strings the model
		// sometimes produces
		if v, ok := m["max_price"]; ok {
			if s, isStr := v.(string); isStr {
				if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
					m["max_price"] = f
				} else {
					delete(m, "max_price")
				}
			}
		}
		if v, ok := m["duration_value"]; ok {
			if s, isStr := v.(string); isStr {
				if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
					m["duration_value"] = n
				} else {
					delete(m, "duration_value")
				}
			}
		}
	case tools.ToolCreateLabel:
		trimString("order_id")
		trimString("carrier_account_id")
		trimString("service_id")
		trimString("label_size")
	case tools.ToolTrackShipment:
		trimString("tracking_number")
		trimString("carrier")
	case tools.ToolCancel:
		trimString("shipment_id")
	case tools.ToolGetOrder:
		trimString("order_id")
	case tools.ToolListShipments:
		trimString("start_date")
		trimString("end_date")
		// page/size arrive as numbers or strings; the API takes strings
		for _, key := range []string{"page", "size"} {
			if v, ok := m[key]; ok {
				switch vv := v.(type) {
				case string:
					m[key] = strings.TrimSpace(vv)
				case float64:
					m[key] = strconv.Itoa(int(vv))
				default:
					delete(m, key)
				}
			}
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		// fallback to original
		return arguments, nil
	}
	return string(b), nil
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() {
	b.graph.AddLambdaNode(nodes.NodeInputConverter,
		nodes.NewInputConverterNode(b.config.MessagesManager),
		compose.WithStatePreHandler(nodes.NewInputConverterPreHandler()),
	)

	b.graph.AddChatModelNode(nodes.NodeExtractionChatModel,
		nodes.NewExtractionChatModelNode(b.config.ChatModels.Extraction),
		compose.WithStatePostHandler(nodes.NewExtractionChatModelPostHandler(b.config.ChatModels.ExtractionModelName)),
	)

	b.graph.AddLambdaNode(nodes.NodeParser,
		nodes.NewParserNode(),
		compose.WithStatePostHandler(nodes.NewParserPostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeClarification,
		nodes.NewClarificationNode(b.config.MessagesManager),
	)

	b.graph.AddLambdaNode(nodes.NodeResponseAssembler,
		nodes.NewResponseAssemblerNode(b.config.MessagesManager, b.config.ResponsePromptConfig),
	)

	b.graph.AddChatModelNode(nodes.NodeResponseChatModel,
		nodes.NewResponseChatModelNode(b.config.ChatModels.Response),
		compose.WithStatePreHandler(nodes.NewResponseChatModelPreHandler(b.config.ToolMaxCalls)),
		compose.WithStatePostHandler(nodes.NewResponseChatModelPostHandler(b.config.MessagesManager, b.config.ChatModels.ResponseModelName)),
	)
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeInputConverter},
		{nodes.NodeInputConverter, nodes.NodeExtractionChatModel},
		{nodes.NodeExtractionChatModel, nodes.NodeParser},
		{nodes.NodeClarification, compose.END},
		{nodes.NodeResponseAssembler, nodes.NodeResponseChatModel},
		{nodes.NodeToolExecutor, nodes.NodeResponseChatModel},
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	clarificationBranch := compose.NewGraphBranch(
		nodes.NewClarificationCondition(),
		map[string]bool{
			nodes.NodeClarification:     true,
			nodes.NodeResponseAssembler: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeParser, clarificationBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding clarification branch")
		return fmt.Errorf("error adding clarification branch: %w", err)
	}

	decisionBranch := compose.NewGraphBranch(
		nodes.NewToolExecutorCondition(),
		map[string]bool{
			nodes.NodeToolExecutor: true,
			compose.END:            true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeResponseChatModel, decisionBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding decision branch")
		return fmt.Errorf("error adding decision branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.QueryInput, *schema.Message], error) {
	// Limit total run steps to avoid infinite loops in branching or tool retries
	maxSteps := 10 + b.config.ToolMaxCalls*2
	if maxSteps < 20 {
		maxSteps = 20
	}

	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
