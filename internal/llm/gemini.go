package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/wolfman30/appointment-assistant/internal/resilience"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider produces completions with Gemini function calling.
type GeminiProvider struct {
	client  *genai.Client
	modelID string
}

// NewGeminiProvider creates a Gemini-backed Provider.
func NewGeminiProvider(ctx context.Context, apiKey, modelID string) (*GeminiProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("llm: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("llm: failed to create gemini client: %w", err)
	}
	return &GeminiProvider{client: client, modelID: modelID}, nil
}

// Close releases the underlying client.
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

func (p *GeminiProvider) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	modelID := p.modelID
	if req.Model != "" {
		modelID = req.Model
	}
	model := p.client.GenerativeModel(modelID)

	if len(req.System) > 0 {
		if systemText := strings.Join(req.System, "\n\n"); strings.TrimSpace(systemText) != "" {
			model.SystemInstruction = genai.NewUserContent(genai.Text(systemText))
		}
	}
	if len(req.Tools) > 0 && req.ToolChoice != ToolChoiceNone {
		model.Tools = geminiTools(req.Tools)
		model.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingAuto},
		}
	}

	history, last, err := geminiHistory(req.Messages)
	if err != nil {
		return Completion{}, resilience.Permanent(err)
	}
	cs := model.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return Completion{}, fmt.Errorf("llm: gemini completion failed: %w", err)
	}
	return geminiCompletion(resp)
}

// geminiHistory splits the transcript into chat history and the final message.
// System turns are the model's side of the dialog.
func geminiHistory(messages []Message) ([]*genai.Content, string, error) {
	if len(messages) == 0 {
		return nil, "", errors.New("llm: gemini requires at least one message")
	}
	history := make([]*genai.Content, 0, len(messages)-1)
	for _, msg := range messages[:len(messages)-1] {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		role := "user"
		if msg.Role == RoleSystem || msg.Role == RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	return history, messages[len(messages)-1].Content, nil
}

func geminiTools(tools []ToolDefinition) []*genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  geminiSchema(tool.Parameters),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// geminiSchema converts the JSON-schema subset used by tool declarations.
func geminiSchema(raw map[string]any) *genai.Schema {
	if raw == nil {
		return nil
	}
	schema := &genai.Schema{}
	if t, ok := raw["type"].(string); ok {
		switch t {
		case "object":
			schema.Type = genai.TypeObject
		case "string":
			schema.Type = genai.TypeString
		case "number":
			schema.Type = genai.TypeNumber
		case "integer":
			schema.Type = genai.TypeInteger
		case "boolean":
			schema.Type = genai.TypeBoolean
		case "array":
			schema.Type = genai.TypeArray
		}
	}
	if desc, ok := raw["description"].(string); ok {
		schema.Description = desc
	}
	if props, ok := raw["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema, len(props))
		for name, prop := range props {
			if propMap, ok := prop.(map[string]any); ok {
				schema.Properties[name] = geminiSchema(propMap)
			}
		}
	}
	if items, ok := raw["items"].(map[string]any); ok {
		schema.Items = geminiSchema(items)
	}
	switch required := raw["required"].(type) {
	case []string:
		schema.Required = append([]string(nil), required...)
	case []any:
		for _, r := range required {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	return schema
}

func geminiCompletion(resp *genai.GenerateContentResponse) (Completion, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return Completion{}, errors.New("llm: gemini returned no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return Completion{}, errors.New("llm: gemini returned empty content")
	}

	var completion Completion
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			text.WriteString(string(v))
		case genai.FunctionCall:
			call, err := geminiToolCall(v)
			if err != nil {
				return Completion{}, err
			}
			completion.ToolCalls = append(completion.ToolCalls, call)
		case *genai.FunctionCall:
			call, err := geminiToolCall(*v)
			if err != nil {
				return Completion{}, err
			}
			completion.ToolCalls = append(completion.ToolCalls, call)
		}
	}
	completion.Text = text.String()
	completion.StopReason = candidate.FinishReason.String()
	if resp.UsageMetadata != nil {
		completion.Usage = TokenUsage{
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:  resp.UsageMetadata.TotalTokenCount,
		}
	}
	return completion, nil
}

func geminiToolCall(fc genai.FunctionCall) (ToolCall, error) {
	args := fc.Args
	if args == nil {
		args = map[string]any{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return ToolCall{}, fmt.Errorf("llm: gemini function args: %w", err)
	}
	return ToolCall{Name: fc.Name, Arguments: string(raw)}, nil
}
