package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Nitindeep65/gemini-clone-2.0/internal/domain"
)

// OllamaConfig holds the configuration for an Ollama chat endpoint.
type OllamaConfig struct {
	BaseURL string // e.g. http://localhost:11434 or https://api.ollama.com
	Model   string // e.g. qwen3
	Token   string // Bearer token for Ollama Cloud (empty = no auth)
}

// OllamaCompleter implements port.Completer using the Ollama REST API.
// Useful as a local, keyless alternative to the hosted Gemini backend.
type OllamaCompleter struct {
	cfg        OllamaConfig
	httpClient *http.Client
}

// NewOllamaCompleter creates a new Ollama-backed completer.
func NewOllamaCompleter(cfg OllamaConfig) *OllamaCompleter {
	return &OllamaCompleter{
		cfg:        cfg,
		httpClient: &http.Client{},
	}
}

// ModelName returns the chat model identifier.
func (o *OllamaCompleter) ModelName() string {
	return o.cfg.Model
}

// Chat continues a conversation with the full prior history.
func (o *OllamaCompleter) Chat(ctx context.Context, history []domain.Message, userMessage string) (string, error) {
	messages := make([]map[string]string, 0, len(history)+1)
	for _, msg := range history {
		role := "user"
		if msg.Role == domain.RoleAI {
			role = "assistant"
		}
		messages = append(messages, map[string]string{"role": role, "content": msg.Text})
	}
	messages = append(messages, map[string]string{"role": "user", "content": userMessage})

	return o.complete(ctx, messages)
}

// Search answers a single-shot query with recent queries folded into the prompt.
func (o *OllamaCompleter) Search(ctx context.Context, query string, recentQueries []string) (string, error) {
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

	messages := []map[string]string{
		{"role": "user", "content": b.String()},
	}
	return o.complete(ctx, messages)
}

// complete posts a messages array to /api/chat and decodes the reply.
func (o *OllamaCompleter) complete(ctx context.Context, messages []map[string]string) (string, error) {
	payload := map[string]any{
		"model":    o.cfg.Model,
		"messages": messages,
		"stream":   false,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("ollama: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+"/api/chat", bytes.NewReader(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("ollama: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+o.cfg.Token)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(body))
	}

	var decoded struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("ollama chat decode: %w", err)
	}

	return decoded.Message.Content, nil
}
