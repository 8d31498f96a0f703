package assistant

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/appointment-assistant/internal/booking"
	"github.com/wolfman30/appointment-assistant/internal/llm"
)

// SetAppointmentToolName is the only tool the assistant acts on.
const SetAppointmentToolName = "set_appointment"

// SetAppointmentTool is declared to the model on every completion. Descriptions
// must stay byte-for-byte, typos included.
var SetAppointmentTool = llm.ToolDefinition{
	Name:        SetAppointmentToolName,
	Description: "Set the appoinment for the client. Call this everytime you know the client wants to set an appoinment, for example when a customer says 'I want to set an appoinment'.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"day": map[string]any{
				"type":        "string",
				"description": "The day of the appoinment in the format YYYY-MM-DD, if the today is greater than the day of the appoinment, the appoinment will be set for the next day.",
			},
			"hour": map[string]any{
				"type":        "string",
				"description": "The hour of the appoinment in the format HH:MM.",
			},
			"fullName": map[string]any{
				"type":        "string",
				"description": "The full name of the client.",
			},
			"cedula": map[string]any{
				"type":        "string",
				"description": "The cedula of the client, it must be a string in the format xxx-xxxxxxx-x where x is a number",
			},
		},
		"required": []string{"day", "hour", "fullName", "cedula"},
	},
}

// ParseAppointmentArguments decodes the JSON argument object of a set_appointment
// call. Scalar fields are taken as text, so a cedula sent as a number is still
// validated as a cedula. Objects and arrays in place of a field are malformed.
func ParseAppointmentArguments(arguments string) (booking.AppointmentRequest, error) {
	if strings.TrimSpace(arguments) == "" {
		arguments = "{}"
	}
	malformed := func(err error) error {
		return &MalformedToolArgumentsError{Tool: SetAppointmentToolName, Arguments: arguments, Err: err}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(arguments), &fields); err != nil {
		return booking.AppointmentRequest{}, malformed(err)
	}

	var req booking.AppointmentRequest
	for name, dst := range map[string]*string{
		"day":      &req.Day,
		"hour":     &req.Hour,
		"fullName": &req.FullName,
		"cedula":   &req.Cedula,
	} {
		value, err := scalarText(fields[name])
		if err != nil {
			return booking.AppointmentRequest{}, malformed(fmt.Errorf("field %s: %w", name, err))
		}
		*dst = value
	}
	return req, nil
}

// scalarText renders a JSON scalar as text. Missing and null values are empty.
func scalarText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{':
		return "", errors.New("expected a string, got an object")
	case '[':
		return "", errors.New("expected a string, got an array")
	default:
		return string(raw), nil
	}
}

// encodeArguments renders the request as compact JSON without HTML escaping,
// so names with accents or ampersands read naturally in the transcript.
func encodeArguments(req booking.AppointmentRequest) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(req); err != nil {
		return "{}"
	}
	return strings.TrimRight(buf.String(), "\n")
}
