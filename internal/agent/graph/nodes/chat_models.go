package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/shipchat-core/server/internal/agent/model"
	logx "github.com/shipchat-core/server/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	APIKey           string
	BaseURL          string
	ExtractionConfig *model.ExtractionModelConfig
	RespConfig       *model.ResponseModelConfig
}

// ChatModels holds both Extraction and Response chat models
type ChatModels struct {
	Extraction          *gemini.ChatModel
	Response            *gemini.ChatModel
	ExtractionModelName string
	ResponseModelName   string
}

// NewChatModels creates both Extraction and Response chat models with the given configuration
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {

	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	// Extraction model: low temperature, JSON-only output
	chatModelExtraction, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.ExtractionConfig.Model,
		Temperature: &config.ExtractionConfig.Temperature,
		MaxTokens:   &config.ExtractionConfig.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  genai.Ptr(int32(2000)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating extraction model")
		return nil, fmt.Errorf("error creating extraction model: %w", err)
	}

	// Response model: the tool-calling conversational model
	chatModelResponse, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.RespConfig.Model,
		Temperature: &config.RespConfig.Temperature,
		MaxTokens:   &config.RespConfig.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  genai.Ptr(int32(2000)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating response model")
		return nil, fmt.Errorf("error creating response model: %w", err)
	}

	return &ChatModels{
		Extraction:          chatModelExtraction,
		Response:            chatModelResponse,
		ExtractionModelName: config.ExtractionConfig.Model,
		ResponseModelName:   config.RespConfig.Model,
	}, nil
}

// BindToolsToResponseModel binds the shipping tools to the response chat model
func (cm *ChatModels) BindToolsToResponseModel(ctx context.Context, tools []*schema.ToolInfo) error {
	err := cm.Response.BindTools(tools)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools")
		return fmt.Errorf("failed to bind tools: %w", err)
	}

	logx.Debug().Msg("Successfully bound tools to response model")
	return nil
}

// NewExtractionChatModelNode creates a wrapper for the extraction chat model to be used as a node
func NewExtractionChatModelNode(chatModel *gemini.ChatModel) *gemini.ChatModel {
	return chatModel
}

// NewResponseChatModelNode creates a wrapper for the response chat model to be used as a node
func NewResponseChatModelNode(chatModel *gemini.ChatModel) *gemini.ChatModel {
	return chatModel
}
