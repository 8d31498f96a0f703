package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/appointment-assistant/internal/resilience"
	"github.com/wolfman30/appointment-assistant/pkg/logging"
)

type scriptedProvider struct {
	calls   int
	lastReq CompletionRequest
	results []Completion
	errs    []error
}

func (s *scriptedProvider) Complete(_ context.Context, req CompletionRequest) (Completion, error) {
	idx := s.calls
	s.calls++
	s.lastReq = req
	var out Completion
	var err error
	if idx < len(s.results) {
		out = s.results[idx]
	}
	if idx < len(s.errs) {
		err = s.errs[idx]
	}
	return out, err
}

func TestFallbackProvider_UsesPrimaryWhenHealthy(t *testing.T) {
	primary := &scriptedProvider{results: []Completion{{Text: "primary"}}}
	fallback := &scriptedProvider{}
	got, err := NewFallbackProvider(primary, fallback, logging.Default()).Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "primary", got.Text)
	assert.Zero(t, fallback.calls)
}

func TestFallbackProvider_FallsBackOnError(t *testing.T) {
	primary := &scriptedProvider{errs: []error{errors.New("rate limited")}}
	fallback := &scriptedProvider{results: []Completion{{Text: "fallback"}}}
	got, err := NewFallbackProvider(primary, fallback, nil).Complete(context.Background(), CompletionRequest{Model: "primary-model"})
	require.NoError(t, err)
	assert.Equal(t, "fallback", got.Text)
	assert.Empty(t, fallback.lastReq.Model)
}

func TestFallbackProvider_ReturnsErrors(t *testing.T) {
	primaryErr := errors.New("primary down")
	_, err := NewFallbackProvider(&scriptedProvider{errs: []error{primaryErr}}, nil, nil).Complete(context.Background(), CompletionRequest{})
	require.ErrorIs(t, err, primaryErr)

	fallbackErr := errors.New("fallback down")
	_, err = NewFallbackProvider(
		&scriptedProvider{errs: []error{primaryErr}},
		&scriptedProvider{errs: []error{fallbackErr}},
		nil,
	).Complete(context.Background(), CompletionRequest{})
	require.ErrorIs(t, err, fallbackErr)
}

func TestResilientProvider_RetriesOnce(t *testing.T) {
	next := &scriptedProvider{
		errs:    []error{errors.New("502"), nil},
		results: []Completion{{}, {Text: "recovered"}},
	}
	got, err := WithPolicy(next, resilience.SingleRetry(time.Second, time.Millisecond), nil).Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "recovered", got.Text)
	assert.Equal(t, 2, next.calls)
}

func TestResilientProvider_SkipsRetryForUnbuildableRequest(t *testing.T) {
	api := &stubConverseAPI{}
	bedrock := NewBedrockProvider(api, "model")
	calls := 0
	counted := ProviderFunc(func(ctx context.Context, req CompletionRequest) (Completion, error) {
		calls++
		return bedrock.Complete(ctx, req)
	})
	provider := WithPolicy(counted, resilience.SingleRetry(time.Second, time.Millisecond), nil)

	_, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "   "}},
	})
	require.ErrorContains(t, err, "at least one user message")
	assert.True(t, resilience.IsPermanent(err))
	assert.Equal(t, 1, calls)
	assert.Nil(t, api.lastReq)
}

func TestProviderFunc(t *testing.T) {
	var p Provider = ProviderFunc(func(context.Context, CompletionRequest) (Completion, error) {
		return Completion{Text: "fn"}, nil
	})
	got, err := p.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "fn", got.Text)
}
