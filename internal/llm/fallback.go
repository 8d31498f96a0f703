package llm

import (
	"context"

	"github.com/wolfman30/appointment-assistant/pkg/logging"
)

// FallbackProvider wraps a primary provider with a fallback.
// If the primary fails, the same request is sent to the fallback.
type FallbackProvider struct {
	primary  Provider
	fallback Provider
	logger   *logging.Logger
}

// NewFallbackProvider creates a fallback-enabled provider.
// If fallback is nil, only the primary is used.
func NewFallbackProvider(primary, fallback Provider, logger *logging.Logger) *FallbackProvider {
	if primary == nil {
		panic("llm: primary provider cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackProvider{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (p *FallbackProvider) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	resp, err := p.primary.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}

	p.logger.Warn("primary LLM failed, attempting fallback",
		"error", err.Error(),
		"fallback_available", p.fallback != nil,
	)
	if p.fallback == nil || ctx.Err() != nil {
		return Completion{}, err
	}

	// The configured model belongs to the primary provider.
	req.Model = ""
	fallbackResp, fallbackErr := p.fallback.Complete(ctx, req)
	if fallbackErr != nil {
		p.logger.Error("fallback LLM also failed",
			"primary_error", err.Error(),
			"fallback_error", fallbackErr.Error(),
		)
		return Completion{}, fallbackErr
	}

	p.logger.Info("fallback LLM succeeded after primary failure")
	return fallbackResp, nil
}
