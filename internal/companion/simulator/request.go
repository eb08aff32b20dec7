package simulator

import "github.com/capitancloud/ai-text-companion/internal/companion"

// Request mirrors the body a chat completion API would receive. It is only
// built for display and logging.
type Request struct {
	Model       string           `json:"model"`
	Messages    []companion.Turn `json:"messages"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens"`
}

const (
	SimulatedModel = "gpt-4-simulated"
	SystemPrompt   = "Sei AI Text Companion, un assistente amichevole."
)

// NewRequest builds the illustrative request for message: system prompt,
// then history, then the new user message.
func NewRequest(message string, history []companion.Turn) Request {
	messages := make([]companion.Turn, 0, len(history)+2)
	messages = append(messages, companion.Turn{Role: "system", Content: SystemPrompt})
	messages = append(messages, history...)
	messages = append(messages, companion.Turn{Role: string(companion.RoleUser), Content: message})

	return Request{
		Model:       SimulatedModel,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   1000,
	}
}
