package conversations

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipchat-core/server/internal/agent/model"
	"github.com/shipchat-core/server/internal/agent/repo"
)

func newManager(maxTurns int) (*MessagesManager, *repo.ThreadStore) {
	store := repo.NewThreadStore(time.Hour)
	cfg := model.ConversationConfig{}
	cfg.Extraction.MaxTurns = maxTurns
	return NewMessagesManager(store, cfg), store
}

func TestProcessExtractionMessageSavesAndBuildsContext(t *testing.T) {
	mm, store := newManager(5)
	ctx := context.Background()

	block, err := mm.ProcessExtractionMessage(ctx, "u1", "s1", "Ship order ORD-1001 to Chicago")
	require.NoError(t, err)

	assert.Contains(t, block, "<conversation_context>")
	assert.Contains(t, block, "UserMessage(Ship order ORD-1001 to Chicago)")
	assert.Contains(t, block, "<current_message_to_analyze>")

	count, err := store.MessageCount(ctx, "u1", "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestProcessExtractionMessageIncludesPriorTurns(t *testing.T) {
	mm, _ := newManager(5)
	ctx := context.Background()

	_, err := mm.ProcessExtractionMessage(ctx, "u1", "s1", "I need to ship a package")
	require.NoError(t, err)
	require.NoError(t, mm.SaveResponse(ctx, "u1", "s1", "Where is it going?"))

	block, err := mm.ProcessExtractionMessage(ctx, "u1", "s1", "To 1 Main St, New York NY 10001")
	require.NoError(t, err)

	assert.Contains(t, block, "UserMessage(I need to ship a package)")
	assert.Contains(t, block, "AssistantMessage(Where is it going?)")
	assert.Contains(t, block, "UserMessage(To 1 Main St, New York NY 10001)")
}

func TestExtractionContextTrimsOldTurns(t *testing.T) {
	mm, _ := newManager(2)
	ctx := context.Background()

	_, err := mm.ProcessExtractionMessage(ctx, "u1", "s1", "turn one")
	require.NoError(t, err)
	_, err = mm.ProcessExtractionMessage(ctx, "u1", "s1", "turn two")
	require.NoError(t, err)
	block, err := mm.ProcessExtractionMessage(ctx, "u1", "s1", "turn three")
	require.NoError(t, err)

	assert.NotContains(t, block, "UserMessage(turn one)")
	assert.Contains(t, block, "UserMessage(turn two)")
	assert.Contains(t, block, "UserMessage(turn three)")
}

func TestBuildResponseContext(t *testing.T) {
	mm, _ := newManager(5)
	ctx := context.Background()

	_, err := mm.ProcessExtractionMessage(ctx, "u1", "s1", "hello")
	require.NoError(t, err)
	require.NoError(t, mm.SaveResponse(ctx, "u1", "s1", "hi, how can I help?"))

	messages, err := mm.BuildResponseContext(ctx, "u1", "s1", "SYSTEM PROMPT")
	require.NoError(t, err)

	require.Len(t, messages, 3)
	assert.Equal(t, "SYSTEM PROMPT", messages[0].Content)
	assert.Equal(t, "hello", messages[1].Content)
	assert.Equal(t, "hi, how can I help?", messages[2].Content)
}
