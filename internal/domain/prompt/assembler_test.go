package prompt_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coachchat/ai-bridge/internal/domain/chat"
	"coachchat/ai-bridge/internal/domain/prompt"
)

func TestAssemble_SystemTurnFirst(t *testing.T) {
	turns := prompt.Assemble("remembers goals", nil, "hello")

	require.NotEmpty(t, turns)
	assert.Equal(t, chat.RoleSystem, turns[0].Role)
	assert.True(t, strings.Contains(turns[0].Content, "remembers goals"))

	systemCount := 0
	for _, turn := range turns {
		if turn.Role == chat.RoleSystem {
			systemCount++
		}
	}
	assert.Equal(t, 1, systemCount)
}

func TestAssemble_AppendsNewUserTurn(t *testing.T) {
	history := []chat.Turn{
		{Role: chat.RoleUser, Content: "earlier question"},
		{Role: chat.RoleAssistant, Content: "earlier answer"},
	}

	turns := prompt.Assemble("", history, "new question")

	require.Len(t, turns, 4)
	assert.Equal(t, chat.Turn{Role: chat.RoleUser, Content: "new question"}, turns[3])
}

func TestAssemble_SkipsDuplicateLastUserTurn(t *testing.T) {
	history := []chat.Turn{
		{Role: chat.RoleAssistant, Content: "answer"},
		{Role: chat.RoleUser, Content: "repeated"},
	}

	turns := prompt.Assemble("", history, "repeated")

	require.Len(t, turns, 3)
	assert.Equal(t, chat.Turn{Role: chat.RoleUser, Content: "repeated"}, turns[2])
}

func TestAssemble_NoSkipWhenLastTurnIsAssistant(t *testing.T) {
	history := []chat.Turn{
		{Role: chat.RoleAssistant, Content: "repeated"},
	}

	turns := prompt.Assemble("", history, "repeated")

	require.Len(t, turns, 3)
	assert.Equal(t, chat.RoleUser, turns[2].Role)
}

func TestAssemble_NoSkipWhenTextDiffers(t *testing.T) {
	history := []chat.Turn{
		{Role: chat.RoleUser, Content: "almost the same"},
	}

	turns := prompt.Assemble("", history, "almost the same!")

	require.Len(t, turns, 3)
	assert.Equal(t, "almost the same!", turns[2].Content)
}

func TestAssemble_PreservesHistoryOrder(t *testing.T) {
	history := []chat.Turn{
		{Role: chat.RoleUser, Content: "a"},
		{Role: chat.RoleAssistant, Content: "b"},
		{Role: chat.RoleUser, Content: "c"},
	}

	turns := prompt.Assemble("", history, "d")

	require.Len(t, turns, 5)
	assert.Equal(t, "a", turns[1].Content)
	assert.Equal(t, "b", turns[2].Content)
	assert.Equal(t, "c", turns[3].Content)
}

func TestToLLM(t *testing.T) {
	msgs := prompt.ToLLM([]chat.Turn{
		{Role: chat.RoleSystem, Content: "sys"},
		{Role: chat.RoleUser, Content: "hi"},
	})

	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "hi", msgs[1].Content)
}
