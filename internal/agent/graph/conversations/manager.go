package conversations

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/shipchat-core/server/internal/agent/model"
)

// MessagesManager mediates between graph nodes and the conversation
// repository: it persists each turn and shapes history into model contexts.
type MessagesManager struct {
	conversationRepo   model.ConversationRepository
	extractionMaxTurns int
}

func NewMessagesManager(conversationRepo model.ConversationRepository, config model.ConversationConfig) *MessagesManager {
	return &MessagesManager{
		conversationRepo:   conversationRepo,
		extractionMaxTurns: config.Extraction.MaxTurns,
	}
}

// ProcessExtractionMessage saves the user's message and builds the context
// block the extraction model analyses: recent turns plus the current message.
// Multi-turn slot filling depends on this context, so a user who supplies an
// address in one turn and a parcel in the next still extracts a complete
// descriptor.
func (cm *MessagesManager) ProcessExtractionMessage(ctx context.Context, userID, sessionID, query string) (string, error) {
	userMsg := schema.UserMessage(query)
	if err := cm.conversationRepo.AddMessage(ctx, userID, sessionID, userMsg); err != nil {
		return "", err
	}

	history, err := cm.conversationRepo.LoadHistory(ctx, userID, sessionID)
	if err != nil {
		return "", err
	}

	conversationContext := cm.buildExtractionContext(history.Messages)

	var fullContext strings.Builder
	fullContext.WriteString(conversationContext)
	fullContext.WriteString("\n<current_message_to_analyze>\n")
	fullContext.WriteString("UserMessage(" + query + ")\n")
	fullContext.WriteString("</current_message_to_analyze>")

	return fullContext.String(), nil
}

func (cm *MessagesManager) buildExtractionContext(messages []*schema.Message) string {
	recentMessages := trimTail(messages, cm.extractionMaxTurns)

	var contextBuilder strings.Builder
	contextBuilder.WriteString("<conversation_context>\n")

	for _, msg := range recentMessages {
		if msg == nil || msg.Content == "" {
			continue
		}
		switch msg.Role {
		case schema.User:
			contextBuilder.WriteString("UserMessage(" + msg.Content + ")\n")
		case schema.Assistant:
			contextBuilder.WriteString("AssistantMessage(" + msg.Content + ")\n")
		}
	}

	contextBuilder.WriteString("</conversation_context>")
	return contextBuilder.String()
}

// BuildResponseContext prepends the system prompt to the full stored history.
func (cm *MessagesManager) BuildResponseContext(ctx context.Context, userID, sessionID, systemPrompt string) ([]*schema.Message, error) {
	history, err := cm.conversationRepo.LoadHistory(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
	}

	messages = append(messages, history.Messages...)

	return messages, nil
}

// SaveResponse persists the assistant's reply for the turn.
func (cm *MessagesManager) SaveResponse(ctx context.Context, userID, sessionID, content string) error {
	assistantMsg := schema.AssistantMessage(content, nil)
	return cm.conversationRepo.AddMessage(ctx, userID, sessionID, assistantMsg)
}

// trimTail returns a copy of the most recent maxTurns messages.
func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if len(messages) <= maxTurns {
		result := make([]*schema.Message, len(messages))
		copy(result, messages)
		return result
	}
	source := messages[len(messages)-maxTurns:]
	result := make([]*schema.Message, len(source))
	copy(result, source)
	return result
}
