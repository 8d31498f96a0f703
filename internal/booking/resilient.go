package booking

import (
	"context"

	"github.com/wolfman30/appointment-assistant/internal/resilience"
	"github.com/wolfman30/appointment-assistant/pkg/logging"
)

// ResilientInvoker retries undelivered booking calls under a resilience policy.
// A delivered call that reports failure is never retried.
type ResilientInvoker struct {
	next   Invoker
	policy resilience.Policy
}

// WithPolicy decorates next with the given policy.
func WithPolicy(next Invoker, policy resilience.Policy, logger *logging.Logger) *ResilientInvoker {
	if next == nil {
		panic("booking: invoker cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if policy.OnRetry == nil {
		policy.OnRetry = func(attempt int, err error) {
			logger.Warn("booking invoke failed, retrying", "attempt", attempt, "error", err)
		}
	}
	return &ResilientInvoker{next: next, policy: policy}
}

func (r *ResilientInvoker) Invoke(ctx context.Context, req AppointmentRequest) (Result, error) {
	return resilience.Do(ctx, r.policy, func(ctx context.Context) (Result, error) {
		return r.next.Invoke(ctx, req)
	})
}
