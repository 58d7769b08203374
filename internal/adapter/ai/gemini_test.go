package ai

import (
	"testing"

	"github.com/Nitindeep65/gemini-clone-2.0/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestChatContents_MapsRolesAndAppendsUserMessage(t *testing.T) {
	history := []domain.Message{
		{Text: "hi", Role: domain.RoleUser},
		{Text: "hello", Role: domain.RoleAI},
	}

	contents := chatContents(history, "how are you?")
	require.Len(t, contents, 3)

	assert.Equal(t, string(genai.RoleUser), contents[0].Role)
	require.Len(t, contents[0].Parts, 1)
	assert.Equal(t, "hi", contents[0].Parts[0].Text)

	assert.Equal(t, string(genai.RoleModel), contents[1].Role)
	assert.Equal(t, "hello", contents[1].Parts[0].Text)

	assert.Equal(t, string(genai.RoleUser), contents[2].Role)
	assert.Equal(t, "how are you?", contents[2].Parts[0].Text)
}

func TestChatContents_EmptyHistory(t *testing.T) {
	contents := chatContents(nil, "first message")
	require.Len(t, contents, 1)
	assert.Equal(t, string(genai.RoleUser), contents[0].Role)
	assert.Equal(t, "first message", contents[0].Parts[0].Text)
}

func TestNewGeminiCompleter_RequiresAPIKey(t *testing.T) {
	_, err := NewGeminiCompleter(t.Context(), "", "gemini-pro")
	require.Error(t, err)
}
