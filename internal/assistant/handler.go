// Package assistant turns a chat message into an updated conversation
// transcript, booking appointments through the remote booking function when
// the model asks for it.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/appointment-assistant/internal/booking"
	"github.com/wolfman30/appointment-assistant/internal/llm"
	"github.com/wolfman30/appointment-assistant/internal/observability/metrics"
	"github.com/wolfman30/appointment-assistant/pkg/logging"
)

var tracer = otel.Tracer("assistant.internal.assistant")

const (
	outcomeTextReply = "text_reply"
	outcomeError     = "error"
)

// Clock supplies the current time. It is read once per invocation.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Handler runs one assistant invocation per event.
type Handler struct {
	provider llm.Provider
	invoker  booking.Invoker
	logger   *logging.Logger
	clock    Clock
	location *time.Location
	system   []string
	metrics  *metrics.AssistantMetrics
}

// Option customizes a Handler.
type Option func(*Handler)

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(h *Handler) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// WithLocation sets the time zone appointments and timestamps are expressed in.
func WithLocation(loc *time.Location) Option {
	return func(h *Handler) {
		if loc != nil {
			h.location = loc
		}
	}
}

// WithSystemPrompt sends instructions ahead of the transcript. They are never
// appended to the transcript itself.
func WithSystemPrompt(prompt string) Option {
	return func(h *Handler) {
		if prompt != "" {
			h.system = []string{prompt}
		}
	}
}

// WithMetrics records invocation outcomes.
func WithMetrics(m *metrics.AssistantMetrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// New wires the handler to its collaborators.
func New(provider llm.Provider, invoker booking.Invoker, logger *logging.Logger, opts ...Option) *Handler {
	if provider == nil {
		panic("assistant: completion provider cannot be nil")
	}
	if invoker == nil {
		panic("assistant: booking invoker cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	h := &Handler{
		provider: provider,
		invoker:  invoker,
		logger:   logger,
		clock:    SystemClock,
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle is the Lambda entrypoint: it normalizes the raw event and processes it.
func (h *Handler) Handle(ctx context.Context, event json.RawMessage) ([]ConversationTurn, error) {
	logger := h.logger.With("request_id", requestID(ctx))

	req, err := NormalizeEvent(event)
	if err != nil {
		logger.Error("rejected invocation event", "error", err)
		h.metrics.ObserveInvocation("", outcomeError)
		return nil, err
	}
	return h.process(ctx, req, logger)
}

// Process runs an already-normalized request.
func (h *Handler) Process(ctx context.Context, req Request) ([]ConversationTurn, error) {
	return h.process(ctx, req, h.logger.With("request_id", requestID(ctx)))
}

func (h *Handler) process(ctx context.Context, req Request, logger *logging.Logger) (turns []ConversationTurn, err error) {
	ctx, span := tracer.Start(ctx, "assistant.handle", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()
	span.SetAttributes(
		attribute.String("assistant.variant", string(req.Variant)),
		attribute.Int("assistant.history_length", len(req.History)),
	)
	logger = logger.With("variant", string(req.Variant))

	outcome := outcomeError
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.String("assistant.outcome", outcome))
		h.metrics.ObserveInvocation(string(req.Variant), outcome)
	}()

	now := h.clock.Now().In(h.location)

	content := req.Text
	if req.StampTimestamp {
		content = timestampTag(now) + " " + content
	}
	turns = make([]ConversationTurn, 0, len(req.History)+3)
	turns = append(turns, req.History...)
	turns = append(turns, userTurn(content))

	completion, err := h.complete(ctx, turns)
	if err != nil {
		logger.Error("completion request failed", "error", err)
		return nil, fmt.Errorf("assistant: completion failed: %w", err)
	}

	call, ok := completion.FirstToolCall()
	if !ok || call.Name != SetAppointmentToolName {
		if ok {
			logger.Warn("ignoring unknown tool call", "tool", call.Name)
		}
		logger.Info("replying with model text", "outcome", outcomeTextReply)
		outcome = outcomeTextReply
		return append(turns, systemTurn(completion.Text)), nil
	}

	appointment, err := ParseAppointmentArguments(call.Arguments)
	if err != nil {
		logger.Error("tool arguments could not be parsed", "tool", call.Name, "error", err)
		return nil, err
	}
	turns = append(turns, systemTurn(functionCalledMessage(appointment)))

	result := h.book(ctx, appointment, now, logger)
	outcome = result.Kind.String()
	return append(turns, systemTurn(result.Message())), nil
}

func (h *Handler) complete(ctx context.Context, turns []ConversationTurn) (llm.Completion, error) {
	start := time.Now()
	completion, err := h.provider.Complete(ctx, llm.CompletionRequest{
		System:     h.system,
		Messages:   toMessages(turns),
		Tools:      []llm.ToolDefinition{SetAppointmentTool},
		ToolChoice: llm.ToolChoiceAuto,
	})
	status := "ok"
	if err != nil {
		status = "error"
	}
	h.metrics.ObserveCompletion(status, time.Since(start).Seconds())
	return completion, err
}

// book validates the appointment and, when it passes, calls the booking function.
func (h *Handler) book(ctx context.Context, req booking.AppointmentRequest, now time.Time, logger *logging.Logger) BookingOutcome {
	logger = logger.With("appointment_day", req.Day, "appointment_hour", req.Hour)

	if !ValidCedula(req.Cedula) {
		logger.Info("appointment rejected", "outcome", OutcomeInvalidCedula.String())
		return BookingOutcome{Kind: OutcomeInvalidCedula, Request: req}
	}

	appointmentTime, err := AppointmentTime(req.Day, req.Hour, h.location)
	if err != nil {
		logger.Info("appointment rejected", "outcome", OutcomeInvalidDateTime.String(), "error", err)
		return BookingOutcome{Kind: OutcomeInvalidDateTime, Request: req, Err: err}
	}

	switch checkSchedule(appointmentTime, now) {
	case slotInPast:
		logger.Info("appointment rejected", "outcome", OutcomePastTime.String(), "now", now.Format(time.RFC3339))
		return BookingOutcome{Kind: OutcomePastTime, Request: req}
	case slotTooSoon:
		logger.Info("appointment rejected", "outcome", OutcomeTooSoon.String(), "now", now.Format(time.RFC3339))
		return BookingOutcome{Kind: OutcomeTooSoon, Request: req}
	}

	result, err := h.invoker.Invoke(ctx, req)
	switch {
	case err != nil:
		logger.Error("booking function unreachable", "outcome", OutcomeBookingFailed.String(), "error", err)
		h.metrics.ObserveBooking("error")
		return BookingOutcome{Kind: OutcomeBookingFailed, Request: req, Err: err}
	case !result.Succeeded():
		logger.Warn("booking function reported failure",
			"outcome", OutcomeBookingFailed.String(),
			"status_code", result.StatusCode,
			"function_error", result.FunctionError,
		)
		h.metrics.ObserveBooking("failure")
		return BookingOutcome{Kind: OutcomeBookingFailed, Request: req, Result: &result}
	default:
		logger.Info("appointment booked", "outcome", OutcomeBooked.String())
		h.metrics.ObserveBooking("success")
		return BookingOutcome{Kind: OutcomeBooked, Request: req, Result: &result}
	}
}

func requestID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	return uuid.NewString()
}

// IsInvalidEvent reports whether err was caused by a malformed event.
func IsInvalidEvent(err error) bool {
	var target *InvalidEventError
	return errors.As(err, &target)
}
