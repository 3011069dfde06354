package ai

import "context"

// AI is the language backend. It knows nothing about chats, rooms or storage.
type AI interface {
	GetReply(
		ctx context.Context,
		systemPrompt string,
		history []Message,
	) (string, error)
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is the dialog format shared by every prompt.
type Message struct {
	Role string // "user" | "assistant" | "system"
	Text string
}
