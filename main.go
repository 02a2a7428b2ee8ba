package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/shipchat-core/server/internal/agent/graph"
	"github.com/shipchat-core/server/internal/agent/model"
	"github.com/shipchat-core/server/internal/agent/repo"
	"github.com/shipchat-core/server/internal/core"
	"github.com/shipchat-core/server/internal/orders"
	"github.com/shipchat-core/server/internal/ship360"
	logx "github.com/shipchat-core/server/pkg/logger"
	pkgredis "github.com/shipchat-core/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the shipping agent,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Shipping provider
	Ship360 ship360.Config

	// Orders file override; empty uses the embedded seed index
	OrdersPath string `envconfig:"ORDERS_PATH"`

	// Infrastructure (only needed when CONVERSATION_BACKEND=redis)
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Extraction   model.ExtractionModelConfig
	Response     model.ResponseModelConfig
	Prompt       model.ResponsePromptConfig
	Conversation model.ConversationConfig
}

func main() {
	ctx := context.Background()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(envCfg.Environment)})

	ttl, err := time.ParseDuration(envCfg.Conversation.TTL)
	if err != nil {
		log.Fatalf("Invalid CONVERSATION_TTL '%s': %v", envCfg.Conversation.TTL, err)
	}
	sweepInterval, err := time.ParseDuration(envCfg.Conversation.SweepInterval)
	if err != nil {
		log.Fatalf("Invalid CONVERSATION_SWEEP_INTERVAL '%s': %v", envCfg.Conversation.SweepInterval, err)
	}

	// Conversation backend: in-process thread store by default, Redis when
	// configured for multi-instance deployments.
	var conversationRepo model.ConversationRepository
	switch envCfg.Conversation.Backend {
	case "redis":
		rdb, err := envCfg.Redis.New()
		if err != nil {
			log.Fatalf("Failed to initialise Redis client: %v", err)
		}
		defer rdb.Close()
		conversationRepo = repo.NewRedisConversationRepository(rdb, ttl)
		logx.Info().Msg("Using Redis conversation backend")
	default:
		store := repo.NewThreadStore(ttl)
		store.StartSweeper(ctx, sweepInterval)
		conversationRepo = store
		logx.Info().Dur("ttl", ttl).Dur("sweep_interval", sweepInterval).Msg("Using in-memory conversation backend")
	}

	orderIndex, err := orders.Load(envCfg.OrdersPath)
	if err != nil {
		log.Fatalf("Failed to load order index: %v", err)
	}
	logx.Info().Int("orders", orderIndex.Len()).Msg("Order index loaded")

	shipClient := ship360.New(envCfg.Ship360)

	cfg := graph.Config{
		APIKey:           envCfg.APIKey,
		BaseURL:          envCfg.BaseURL,
		ExtractionModel:  envCfg.Extraction,
		ResponseModel:    envCfg.Response,
		ResponsePrompt:   envCfg.Prompt,
		Conversation:     envCfg.Conversation,
		ConversationRepo: conversationRepo,
		Orders:           orderIndex,
		Ship360:          shipClient,
	}

	runner, err := graph.BuildResponseGraph(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to build graph: %v", err)
	}

	testQueries := []struct {
		description string
		query       string
	}{
		{
			description: "Rate shop for a known order",
			query:       "What are my cheapest shipping options for order ORD-1001?",
		},
		{
			description: "Constrain by price and delivery window",
			query:       "Only show options under $15 that deliver in 3 days or less.",
		},
		{
			description: "Create a label for the selected option",
			query:       "Go ahead and create the label with the first option.",
		},
		{
			description: "Track the new shipment",
			query:       "Can you track that package for me?",
		},
	}

	userID := "demo-user"
	sessionID := "demo-session-1"

	for i, test := range testQueries {
		fmt.Printf("\nTurn %d: %s\n", i+1, test.description)
		fmt.Printf("Query: %q\n", test.query)
		fmt.Println("Processing...")

		response, err := runner.Invoke(ctx, model.QueryInput{
			UserID:    userID,
			SessionID: sessionID,
			Query:     test.query,
		})
		if err != nil {
			log.Fatalf("Failed to invoke graph for turn %d: %v", i+1, err)
		}

		fmt.Printf("Response %d: %s\n", i+1, response)
		fmt.Println("-----------------------------------------------")

		// slight delay between turns for readability
		time.Sleep(500 * time.Millisecond)
	}

	fmt.Println("All conversation turns completed.")
}
