// Package booking invokes the remote appointment-booking function on behalf of
// the assistant. The assistant never talks to a calendar directly; it hands the
// validated request to the booking function and reports what came back.
package booking

import (
	"context"
	"net/http"
)

// AppointmentRequest is the payload the booking function expects. Field order
// matches the JSON the assistant echoes into the transcript.
type AppointmentRequest struct {
	Day      string `json:"day"`
	Hour     string `json:"hour"`
	FullName string `json:"fullName"`
	Cedula   string `json:"cedula"`
}

// Result is the raw outcome of a delivered invocation.
type Result struct {
	// StatusCode is the invoke status reported by the runtime (200 for a
	// completed request-response call).
	StatusCode int32
	// FunctionError is set when the function ran but raised an error.
	FunctionError string
	// Payload is whatever the function returned, if anything.
	Payload []byte
}

// Succeeded reports whether the booking function accepted the appointment.
func (r Result) Succeeded() bool {
	return r.StatusCode == http.StatusOK && r.FunctionError == ""
}

// Invoker sends an appointment to the booking function and waits for the result.
// A returned error means the call was not delivered; a delivered call that failed
// is reported through Result.
type Invoker interface {
	Invoke(ctx context.Context, req AppointmentRequest) (Result, error)
}
