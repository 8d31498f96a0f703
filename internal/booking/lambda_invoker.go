package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultFunctionName is the booking function deployed alongside the assistant.
const DefaultFunctionName = "setAppointment"

var bookingTracer = otel.Tracer("assistant.internal.booking")

type lambdaInvokeAPI interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// LambdaInvoker calls the booking function synchronously through the Lambda API.
type LambdaInvoker struct {
	api          lambdaInvokeAPI
	functionName string
}

// NewLambdaInvoker returns an Invoker backed by the given Lambda client.
func NewLambdaInvoker(api lambdaInvokeAPI, functionName string) *LambdaInvoker {
	if api == nil {
		panic("booking: lambda client cannot be nil")
	}
	if strings.TrimSpace(functionName) == "" {
		functionName = DefaultFunctionName
	}
	return &LambdaInvoker{api: api, functionName: functionName}
}

// Invoke runs the booking function in request-response mode.
func (i *LambdaInvoker) Invoke(ctx context.Context, req AppointmentRequest) (Result, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.invoke", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("assistant.booking.function", i.functionName))

	payload, err := json.Marshal(req)
	if err != nil {
		span.RecordError(err)
		return Result{}, fmt.Errorf("booking: marshal request: %w", err)
	}

	out, err := i.api.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(i.functionName),
		InvocationType: lambdatypes.InvocationTypeRequestResponse,
		Payload:        payload,
	})
	if err != nil {
		span.RecordError(err)
		return Result{}, fmt.Errorf("booking: invoke %s: %w", i.functionName, err)
	}
	if out == nil {
		err := errors.New("booking: lambda returned no output")
		span.RecordError(err)
		return Result{}, err
	}

	result := Result{
		StatusCode:    out.StatusCode,
		FunctionError: aws.ToString(out.FunctionError),
		Payload:       out.Payload,
	}
	span.SetAttributes(
		attribute.Int("assistant.booking.status_code", int(result.StatusCode)),
		attribute.Bool("assistant.booking.function_error", result.FunctionError != ""),
	)
	return result, nil
}
