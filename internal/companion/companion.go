// Package companion provides the core abstractions shared by the conversation
// store, the simulated response engine and the chat loop.
//
// Nothing in this module talks to a real AI provider. Replies come from a
// Responder, and the only Responder shipped is the simulator.
package companion

import (
	"context"
	"strings"
)

// Responder produces an assistant reply for a user message.
// history holds the turns that precede message, oldest first.
//
// Example usage:
//
//	engine := simulator.NewEngine()
//	reply, err := engine.Respond(ctx, "Ciao!", nil)
type Responder interface {
	Respond(ctx context.Context, message string, history []Turn) (string, error)
}

// Turn is a role/content pair, the shape a chat completion API expects in its
// "messages" array.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// DefaultTitle is the title of a conversation before its first user message.
const DefaultTitle = "New conversation"

// MaxTitleLength is the maximum number of characters of a derived title.
const MaxTitleLength = 50

// ExtractTitle derives a conversation title from a user message.
// The content is trimmed; anything longer than MaxTitleLength characters is cut
// to MaxTitleLength-3 characters followed by "...".
//
// Example:
//
//	title := ExtractTitle("  Ciao!  ")
//	// title = "Ciao!"
func ExtractTitle(content string) string {
	cleaned := []rune(strings.TrimSpace(content))
	if len(cleaned) <= MaxTitleLength {
		return string(cleaned)
	}
	return string(cleaned[:MaxTitleLength-3]) + "..."
}
