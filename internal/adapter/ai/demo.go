package ai

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/Nitindeep65/gemini-clone-2.0/internal/domain"
)

// DemoCompleter is the fallback backend when no API key is configured.
// It returns canned responses so the chat flow stays usable end to end.
type DemoCompleter struct{}

// NewDemoCompleter creates the demo backend.
func NewDemoCompleter() *DemoCompleter {
	return &DemoCompleter{}
}

// ModelName returns "demo".
func (d *DemoCompleter) ModelName() string {
	return "demo"
}

// Chat returns a canned reply echoing the user's message.
func (d *DemoCompleter) Chat(_ context.Context, _ []domain.Message, userMessage string) (string, error) {
	responses := []string{
		fmt.Sprintf("I'm currently in demo mode since no valid Google API key is configured. For now, I can respond to your message: %q. This is a demo response to show how the chat interface works!", userMessage),
		fmt.Sprintf("Demo response: I understand you're asking about %q. In demo mode, I can show you how the conversation flows, but I need a real API key to provide actual AI responses.", userMessage),
		fmt.Sprintf("Thanks for your message about %q. I'm running in demo mode right now. Just add your Google API key to get real AI responses!", userMessage),
	}
	return responses[rand.Intn(len(responses))], nil
}

// Search returns a canned search reply including recent-query context.
func (d *DemoCompleter) Search(_ context.Context, query string, recentQueries []string) (string, error) {
	contextLine := "No previous searches"
	if len(recentQueries) > 0 {
		recent := recentQueries
		if len(recent) > 3 {
			recent = recent[len(recent)-3:]
		}
		contextLine = "Previous searches: " + strings.Join(recent, ", ")
	}
	return fmt.Sprintf("Demo search results for %q. I'm currently in demo mode since no valid Google API key is configured. Search history context: %s.", query, contextLine), nil
}
