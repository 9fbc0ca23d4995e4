//go:build bedrock

package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"
	"go.opentelemetry.io/otel/trace"

	"devteam-ai/internal/domain"
	"devteam-ai/internal/infra/config"
	"devteam-ai/internal/infra/tracer"
)

const defaultBedrockMaxTokens = 4096

// bedrockConverseAPI is the slice of the Bedrock runtime client we call.
type bedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockProvider implements domain.LLMProvider via the AWS Bedrock Converse API.
type BedrockProvider struct {
	name   string
	model  string
	client bedrockConverseAPI
	logger *slog.Logger
}

// NewBedrockProvider uses the default AWS credential chain for cfg.Region.
func NewBedrockProvider(ctx context.Context, cfg config.ProviderConfig, logger *slog.Logger) (*BedrockProvider, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newBedrockProviderWithClient(cfg.Name, cfg.Model, bedrockruntime.NewFromConfig(awsCfg), logger), nil
}

func newBedrockProviderWithClient(name, model string, client bedrockConverseAPI, logger *slog.Logger) *BedrockProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &BedrockProvider{name: name, model: model, client: client, logger: logger}
}

// Chat implements domain.LLMProvider.
func (p *BedrockProvider) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	// The provider's own model wins; agent.model only fills the gap.
	if p.model != "" {
		req.Model = p.model
	}

	ctx, span := tracer.StartSpan(ctx, "llm.chat",
		trace.WithAttributes(
			tracer.StringAttr("llm.provider", p.name),
			tracer.StringAttr("llm.model", req.Model),
		),
	)
	defer span.End()

	output, err := p.client.Converse(ctx, toBedrockConverseInput(req))
	if err != nil {
		err = mapBedrockError(err)
		tracer.RecordError(span, err)
		return nil, domain.WrapOp(p.name, err)
	}

	result, err := fromBedrockConverseOutput(output, req.Model)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, domain.WrapOp(p.name, err)
	}
	setUsageAttrs(span, result.Usage)
	tracer.SetOK(span)
	logChatCompleted(p.logger, p.name, result)

	return result, nil
}

// Name implements domain.LLMProvider.
func (p *BedrockProvider) Name() string { return p.name }

// toBedrockConverseInput lifts every system message into the System blocks;
// Converse only accepts user and assistant turns in Messages.
func toBedrockConverseInput(req domain.ChatRequest) *bedrockruntime.ConverseInput {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultBedrockMaxTokens
	}
	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(req.Model),
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(int32(maxTokens)),
			Temperature: aws.Float32(float32(req.Temperature)),
		},
	}

	for _, m := range req.Messages {
		block := &types.ContentBlockMemberText{Value: m.Content}
		switch m.Role {
		case domain.RoleSystem:
			input.System = append(input.System, &types.SystemContentBlockMemberText{Value: m.Content})
		case domain.RoleAssistant:
			input.Messages = append(input.Messages, types.Message{
				Role:    types.ConversationRoleAssistant,
				Content: []types.ContentBlock{block},
			})
		default:
			input.Messages = append(input.Messages, types.Message{
				Role:    types.ConversationRoleUser,
				Content: []types.ContentBlock{block},
			})
		}
	}
	return input
}

func fromBedrockConverseOutput(output *bedrockruntime.ConverseOutput, model string) (*domain.ChatResponse, error) {
	outMsg, ok := output.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return nil, fmt.Errorf("%w: no message in converse output", domain.ErrMalformedResponse)
	}

	var text strings.Builder
	for _, block := range outMsg.Value.Content {
		if b, ok := block.(*types.ContentBlockMemberText); ok {
			text.WriteString(b.Value)
		}
	}

	now := time.Now()
	result := &domain.ChatResponse{
		Model:     model,
		CreatedAt: now,
		Message: domain.Message{
			Role:      domain.RoleAssistant,
			Content:   text.String(),
			Timestamp: now,
		},
	}
	if output.Usage != nil {
		in := int(aws.ToInt32(output.Usage.InputTokens))
		out := int(aws.ToInt32(output.Usage.OutputTokens))
		result.Usage = domain.Usage{PromptTokens: in, CompletionTokens: out, TotalTokens: in + out}
	}
	return result, nil
}

func mapBedrockError(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %v", domain.ErrProviderError, err)
	}

	msg := err.Error()
	switch code := apiErr.ErrorCode(); {
	case code == "ThrottlingException" || code == "TooManyRequestsException":
		return fmt.Errorf("%w: %s", domain.ErrRateLimit, msg)
	case code == "AccessDeniedException" || code == "UnrecognizedClientException":
		return fmt.Errorf("%w: %s", domain.ErrAuthInvalid, msg)
	case code == "ValidationException" && strings.Contains(msg, "too long"):
		return fmt.Errorf("%w: %s", domain.ErrContextOverflow, msg)
	case code == "ValidationException":
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, msg)
	case code == "ModelTimeoutException":
		return fmt.Errorf("%w: %s", domain.ErrTimeout, msg)
	default:
		return fmt.Errorf("%w: %s", domain.ErrProviderError, msg)
	}
}
