package assistant

import "github.com/wolfman30/appointment-assistant/internal/llm"

// Role tags the author of a turn.
type Role string

const (
	RoleUser   Role = "user"
	RoleSystem Role = "system"
)

// ConversationTurn is one message of the transcript the caller owns.
type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func userTurn(content string) ConversationTurn {
	return ConversationTurn{Role: RoleUser, Content: content}
}

func systemTurn(content string) ConversationTurn {
	return ConversationTurn{Role: RoleSystem, Content: content}
}

func toMessages(turns []ConversationTurn) []llm.Message {
	messages := make([]llm.Message, 0, len(turns))
	for _, turn := range turns {
		messages = append(messages, llm.Message{Role: string(turn.Role), Content: turn.Content})
	}
	return messages
}
