package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/extraction_prompt.txt
var extractionSystemPrompt string

// RenderExtractionSystem renders the slot-extraction system prompt via the
// Eino prompt component. This triggers Prompt callbacks and returns the final
// system prompt string.
func RenderExtractionSystem(ctx context.Context) (string, error) {
	// Replace known tokens only so the JSON skeleton in the template stays
	// untouched.
	content := strings.NewReplacer(
		"{CURRENT_DATE}", time.Now().Format("2006-01-02"),
	).Replace(extractionSystemPrompt)

	// Wrap via Eino prompt component using a messages placeholder to emit callbacks
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(content)},
	})
	if err != nil {
		return "", fmt.Errorf("extraction prompt callbacks: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("extraction prompt callbacks: empty result")
	}
	return msgs[0].Content, nil
}
