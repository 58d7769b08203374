package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/Nitindeep65/gemini-clone-2.0/internal/domain"
	"google.golang.org/genai"
)

// GeminiCompleter implements port.Completer using Google's Gemini API.
type GeminiCompleter struct {
	client *genai.Client
	model  string
}

// NewGeminiCompleter creates a new Gemini-backed completer.
func NewGeminiCompleter(ctx context.Context, apiKey, model string) (*GeminiCompleter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if model == "" {
		model = "gemini-pro"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &GeminiCompleter{client: client, model: model}, nil
}

// ModelName returns the model identifier.
func (g *GeminiCompleter) ModelName() string {
	return g.model
}

// chatContents maps the conversation history onto Gemini content turns and
// appends the new user message as the final turn.
func chatContents(history []domain.Message, userMessage string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, msg := range history {
		role := genai.Role(genai.RoleUser)
		if msg.Role == domain.RoleAI {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Text, role))
	}
	return append(contents, genai.NewContentFromText(userMessage, genai.RoleUser))
}

// Chat continues a conversation with the full prior history.
func (g *GeminiCompleter) Chat(ctx context.Context, history []domain.Message, userMessage string) (string, error) {
	contents := chatContents(history, userMessage)

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.7),
		MaxOutputTokens: 2048,
	})
	if err != nil {
		return "", fmt.Errorf("gemini chat: %w", err)
	}

	reply := result.Text()
	if reply == "" {
		return "", fmt.Errorf("gemini chat: empty response")
	}
	return reply, nil
}

// Search answers a single-shot query with recent queries folded into the prompt.
func (g *GeminiCompleter) Search(ctx context.Context, query string, recentQueries []string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a helpful AI assistant. The user is asking: %q\n\n", query)
	if len(recentQueries) > 0 {
		recent := recentQueries
		if len(recent) > 5 {
			recent = recent[len(recent)-5:]
		}
		fmt.Fprintf(&b, "Previous search context: %s\n\n", strings.Join(recent, ", "))
	}
	b.WriteString("Please provide a comprehensive and helpful response. If this is a search query, provide relevant information, facts, and context.")

	contents := []*genai.Content{
		genai.NewContentFromText(b.String(), genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini search: %w", err)
	}

	reply := result.Text()
	if reply == "" {
		return "", fmt.Errorf("gemini search: empty response")
	}
	return reply, nil
}
