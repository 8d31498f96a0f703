package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/appointment-assistant/internal/resilience"
)

var bedrockTracer = otel.Tracer("assistant.internal.llm.bedrock")

type bedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockProvider produces completions with the Bedrock Converse API and tool use.
type BedrockProvider struct {
	api     bedrockConverseAPI
	modelID string
}

func NewBedrockProvider(api bedrockConverseAPI, modelID string) *BedrockProvider {
	if api == nil {
		panic("llm: bedrock converse client cannot be nil")
	}
	return &BedrockProvider{api: api, modelID: modelID}
}

func (p *BedrockProvider) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	modelID := p.modelID
	if req.Model != "" {
		modelID = req.Model
	}
	if strings.TrimSpace(modelID) == "" {
		return Completion{}, resilience.Permanent(errors.New("llm: bedrock model id is required"))
	}

	ctx, span := bedrockTracer.Start(ctx, "llm.bedrock.converse", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("assistant.llm.model", modelID))

	system, messages, err := bedrockMessages(req)
	if err != nil {
		span.RecordError(err)
		return Completion{}, resilience.Permanent(err)
	}

	out, err := p.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId:    aws.String(modelID),
		System:     system,
		Messages:   messages,
		ToolConfig: bedrockToolConfig(req.Tools, req.ToolChoice),
	})
	if err != nil {
		span.RecordError(err)
		return Completion{}, fmt.Errorf("llm: bedrock converse failed: %w", err)
	}

	completion, err := bedrockCompletion(out)
	if err != nil {
		span.RecordError(err)
		return Completion{}, err
	}
	span.SetAttributes(attribute.Int("assistant.llm.tool_calls", len(completion.ToolCalls)))
	return completion, nil
}

// bedrockMessages maps the transcript onto Converse messages. Converse only
// knows user and assistant roles and requires them to alternate, so system
// turns in the transcript (the assistant's side of the dialog) become assistant
// content and consecutive turns of the same role are merged.
func bedrockMessages(req CompletionRequest) ([]brtypes.SystemContentBlock, []brtypes.Message, error) {
	system := make([]brtypes.SystemContentBlock, 0, len(req.System))
	for _, block := range req.System {
		if strings.TrimSpace(block) == "" {
			continue
		}
		system = append(system, &brtypes.SystemContentBlockMemberText{Value: block})
	}

	messages := make([]brtypes.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}

		// Roles other than system/assistant come from the caller's history and
		// are sent as user content.
		role := brtypes.ConversationRoleUser
		if msg.Role == RoleSystem || msg.Role == RoleAssistant {
			role = brtypes.ConversationRoleAssistant
		}

		block := &brtypes.ContentBlockMemberText{Value: msg.Content}
		if n := len(messages); n > 0 && messages[n-1].Role == role {
			messages[n-1].Content = append(messages[n-1].Content, block)
			continue
		}
		if len(messages) == 0 && role == brtypes.ConversationRoleAssistant {
			// Converse must open with a user message.
			system = append(system, &brtypes.SystemContentBlockMemberText{Value: msg.Content})
			continue
		}
		messages = append(messages, brtypes.Message{
			Role:    role,
			Content: []brtypes.ContentBlock{block},
		})
	}
	if len(messages) == 0 {
		return nil, nil, errors.New("llm: bedrock requires at least one user message")
	}
	return system, messages, nil
}

func bedrockToolConfig(tools []ToolDefinition, choice ToolChoice) *brtypes.ToolConfiguration {
	if len(tools) == 0 || choice == ToolChoiceNone {
		return nil
	}
	specs := make([]brtypes.Tool, 0, len(tools))
	for _, tool := range tools {
		specs = append(specs, &brtypes.ToolMemberToolSpec{
			Value: brtypes.ToolSpecification{
				Name:        aws.String(tool.Name),
				Description: aws.String(tool.Description),
				InputSchema: &brtypes.ToolInputSchemaMemberJson{
					Value: document.NewLazyDocument(tool.Parameters),
				},
			},
		})
	}
	return &brtypes.ToolConfiguration{
		Tools:      specs,
		ToolChoice: &brtypes.ToolChoiceMemberAuto{Value: brtypes.AutoToolChoice{}},
	}
}

func bedrockCompletion(out *bedrockruntime.ConverseOutput) (Completion, error) {
	if out == nil {
		return Completion{}, errors.New("llm: bedrock response is nil")
	}
	msgOut, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return Completion{}, errors.New("llm: bedrock response did not include a message output")
	}

	var completion Completion
	var text strings.Builder
	for _, block := range msgOut.Value.Content {
		switch v := block.(type) {
		case *brtypes.ContentBlockMemberText:
			text.WriteString(v.Value)
		case *brtypes.ContentBlockMemberToolUse:
			args := []byte("{}")
			if v.Value.Input != nil {
				raw, err := v.Value.Input.MarshalSmithyDocument()
				if err != nil {
					return Completion{}, fmt.Errorf("llm: bedrock tool input: %w", err)
				}
				args = raw
			}
			completion.ToolCalls = append(completion.ToolCalls, ToolCall{
				ID:        aws.ToString(v.Value.ToolUseId),
				Name:      aws.ToString(v.Value.Name),
				Arguments: string(args),
			})
		}
	}
	completion.Text = text.String()
	if completion.Text == "" && len(completion.ToolCalls) == 0 {
		return Completion{}, errors.New("llm: bedrock response contained no text or tool use")
	}

	completion.StopReason = string(out.StopReason)
	if out.Usage != nil {
		completion.Usage = TokenUsage{
			InputTokens:  int32OrZero(out.Usage.InputTokens),
			OutputTokens: int32OrZero(out.Usage.OutputTokens),
			TotalTokens:  int32OrZero(out.Usage.TotalTokens),
		}
	}
	return completion, nil
}

func int32OrZero(v *int32) int32 {
	if v == nil {
		return 0
	}
	return *v
}
