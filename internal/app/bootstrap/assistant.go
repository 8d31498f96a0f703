package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/appointment-assistant/internal/assistant"
	"github.com/wolfman30/appointment-assistant/internal/booking"
	appconfig "github.com/wolfman30/appointment-assistant/internal/config"
	"github.com/wolfman30/appointment-assistant/internal/llm"
	"github.com/wolfman30/appointment-assistant/internal/observability/metrics"
	"github.com/wolfman30/appointment-assistant/internal/resilience"
	"github.com/wolfman30/appointment-assistant/pkg/logging"
)

// MetricsJob names the Pushgateway job metrics are grouped under.
const MetricsJob = "appointment_assistant"

// Runtime holds everything a process needs to serve invocations.
type Runtime struct {
	Handler *assistant.Handler
	Pusher  *metrics.Pusher
	closers []io.Closer
}

// Close releases provider clients.
func (r *Runtime) Close() error {
	var errs []error
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BuildRuntime wires the assistant handler and its collaborators from config.
func BuildRuntime(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("bootstrap: invalid config: %w", err)
	}

	rt := &Runtime{}
	provider, err := BuildProvider(ctx, cfg, awsCfg, logger, rt)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	invoker := booking.WithPolicy(
		booking.NewLambdaInvoker(lambda.NewFromConfig(awsCfg), cfg.BookingFunctionName),
		resilience.SingleRetry(cfg.BookingTimeout, cfg.RetryBackoff),
		logger,
	)

	reg := prometheus.NewRegistry()
	rt.Pusher = metrics.NewPusher(cfg.MetricsPushgatewayURL, MetricsJob, reg)
	rt.Handler = assistant.New(provider, invoker, logger,
		assistant.WithLocation(cfg.Location()),
		assistant.WithSystemPrompt(cfg.SystemPrompt),
		assistant.WithMetrics(metrics.NewAssistantMetrics(reg)),
	)

	logger.Info("assistant runtime ready",
		"llm_provider", cfg.LLMProvider,
		"llm_fallback_provider", cfg.LLMFallbackProvider,
		"booking_function", cfg.BookingFunctionName,
		"timezone", cfg.Location().String(),
		"metrics_push", rt.Pusher != nil,
	)
	return rt, nil
}

// BuildProvider returns the configured completion provider, wrapped in the
// call policy and, when configured, a fallback provider.
func BuildProvider(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger, rt *Runtime) (llm.Provider, error) {
	policy := resilience.SingleRetry(cfg.LLMTimeout, cfg.RetryBackoff)

	primary, err := newProvider(ctx, cfg.LLMProvider, cfg, awsCfg, rt)
	if err != nil {
		return nil, err
	}
	provider := llm.Provider(llm.WithPolicy(primary, policy, logger))

	if cfg.LLMFallbackProvider != "" {
		secondary, err := newProvider(ctx, cfg.LLMFallbackProvider, cfg, awsCfg, rt)
		if err != nil {
			return nil, err
		}
		provider = llm.NewFallbackProvider(provider, llm.WithPolicy(secondary, policy, logger), logger)
	}
	return provider, nil
}

func newProvider(ctx context.Context, name string, cfg *appconfig.Config, awsCfg aws.Config, rt *Runtime) (llm.Provider, error) {
	switch name {
	case "openai":
		return llm.NewOpenAIProvider(llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL), cfg.OpenAIModel), nil
	case "bedrock":
		return llm.NewBedrockProvider(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID), nil
	case "gemini":
		provider, err := llm.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		if rt != nil {
			rt.closers = append(rt.closers, provider)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("bootstrap: unsupported llm provider %q", name)
	}
}
