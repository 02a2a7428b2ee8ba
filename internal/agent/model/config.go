package model

// ================ Config ================

// ConversationConfig controls history retention and tool budgets.
type ConversationConfig struct {
	TTL           string `envconfig:"CONVERSATION_TTL" default:"1h"`
	SweepInterval string `envconfig:"CONVERSATION_SWEEP_INTERVAL" default:"10m"`
	Backend       string `envconfig:"CONVERSATION_BACKEND" default:"memory"`
	Extraction    struct {
		MaxTurns int `envconfig:"CONVERSATION_EXTRACTION_MAX_TURNS" default:"5"`
	}
	Tools struct {
		MaxCalls int `envconfig:"CONVERSATION_TOOL_MAX_CALLS" default:"10"`
	}
}

// ExtractionModelConfig configures the slot-extraction model. Low temperature
// keeps the JSON output stable.
type ExtractionModelConfig struct {
	Model       string  `envconfig:"EXTRACTION_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"EXTRACTION_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"EXTRACTION_TEMPERATURE" default:"0.1"`
}

// ResponseModelConfig configures the tool-calling response model.
type ResponseModelConfig struct {
	Model       string  `envconfig:"RESPONSE_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"RESPONSE_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"RESPONSE_TEMPERATURE" default:"0.4"`
}

// ResponsePromptConfig parameterises the response system prompt.
type ResponsePromptConfig struct {
	BusinessName        string `envconfig:"PROMPT_BUSINESS_NAME" default:"Ship360"`
	MaxDisplayedOptions int    `envconfig:"PROMPT_MAX_DISPLAYED_OPTIONS" default:"10"`
}
