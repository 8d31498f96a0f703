package llm

import (
	"context"

	"github.com/wolfman30/appointment-assistant/internal/resilience"
	"github.com/wolfman30/appointment-assistant/pkg/logging"
)

// ResilientProvider applies a timeout and retry policy to every completion.
type ResilientProvider struct {
	next   Provider
	policy resilience.Policy
}

// WithPolicy decorates next with the given policy.
func WithPolicy(next Provider, policy resilience.Policy, logger *logging.Logger) *ResilientProvider {
	if next == nil {
		panic("llm: provider cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if policy.OnRetry == nil {
		policy.OnRetry = func(attempt int, err error) {
			logger.Warn("completion failed, retrying", "attempt", attempt, "error", err)
		}
	}
	return &ResilientProvider{next: next, policy: policy}
}

func (p *ResilientProvider) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	return resilience.Do(ctx, p.policy, func(ctx context.Context) (Completion, error) {
		return p.next.Complete(ctx, req)
	})
}
