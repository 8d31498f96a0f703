// Package llm adapts hosted completion endpoints to a single tool-calling
// contract used by the assistant.
package llm

import "context"

// Message roles understood by every provider.
const (
	RoleUser      = "user"
	RoleSystem    = "system"
	RoleAssistant = "assistant"
)

// ToolChoice controls whether the model may call a declared tool.
type ToolChoice string

const (
	// ToolChoiceAuto lets the model decide between answering and calling a tool.
	ToolChoiceAuto ToolChoice = "auto"
	// ToolChoiceNone forbids tool calls.
	ToolChoiceNone ToolChoice = "none"
)

// Message is one entry of the transcript sent to the model.
type Message struct {
	Role    string
	Content string
}

// ToolDefinition declares a callable function. Parameters is a JSON schema
// object and is forwarded to providers as-is.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// CompletionRequest is a single chat completion with optional tools.
type CompletionRequest struct {
	// Model overrides the provider's configured model when set.
	Model      string
	System     []string
	Messages   []Message
	Tools      []ToolDefinition
	ToolChoice ToolChoice
}

// ToolCall is a model request to run a declared tool. Arguments holds the
// JSON-encoded argument object.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// TokenUsage reports token consumption for a completion.
type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

// Completion is the model's answer: free text, tool calls or both.
type Completion struct {
	Text       string
	ToolCalls  []ToolCall
	StopReason string
	Usage      TokenUsage
}

// FirstToolCall returns the first requested tool call, if any.
func (c Completion) FirstToolCall() (ToolCall, bool) {
	if len(c.ToolCalls) == 0 {
		return ToolCall{}, false
	}
	return c.ToolCalls[0], true
}

// Provider produces completions from a hosted model.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, req CompletionRequest) (Completion, error)

func (f ProviderFunc) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	return f(ctx, req)
}
