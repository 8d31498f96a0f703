package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o"

var openAITracer = otel.Tracer("assistant.internal.llm.openai")

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIProvider produces completions with OpenAI chat completions and function tools.
type OpenAIProvider struct {
	client chatClient
	model  string
}

// NewOpenAIClient builds an API client, optionally against a compatible base URL.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return openai.NewClientWithConfig(cfg)
}

// NewOpenAIProvider returns an OpenAI-backed Provider.
func NewOpenAIProvider(client chatClient, model string) *OpenAIProvider {
	if client == nil {
		panic("llm: openai chat client cannot be nil")
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIProvider{client: client, model: model}
}

func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	ctx, span := openAITracer.Start(ctx, "llm.openai.complete", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	model := p.model
	if req.Model != "" {
		model = req.Model
	}
	span.SetAttributes(attribute.String("assistant.llm.model", model))

	messages := make([]openai.ChatCompletionMessage, 0, len(req.System)+len(req.Messages))
	for _, block := range req.System {
		if strings.TrimSpace(block) == "" {
			continue
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: block})
	}
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content})
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = make([]openai.Tool, 0, len(req.Tools))
		for _, tool := range req.Tools {
			chatReq.Tools = append(chatReq.Tools, openai.Tool{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        tool.Name,
					Description: tool.Description,
					Parameters:  tool.Parameters,
				},
			})
		}
		if req.ToolChoice != "" {
			chatReq.ToolChoice = string(req.ToolChoice)
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		span.RecordError(err)
		return Completion{}, fmt.Errorf("llm: openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		err := errors.New("llm: openai returned no choices")
		span.RecordError(err)
		return Completion{}, err
	}

	choice := resp.Choices[0]
	out := Completion{
		Text:       choice.Message.Content,
		StopReason: string(choice.FinishReason),
		Usage: TokenUsage{
			InputTokens:  int32(resp.Usage.PromptTokens),
			OutputTokens: int32(resp.Usage.CompletionTokens),
			TotalTokens:  int32(resp.Usage.TotalTokens),
		},
	}
	for _, call := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	span.SetAttributes(attribute.Int("assistant.llm.tool_calls", len(out.ToolCalls)))
	return out, nil
}
