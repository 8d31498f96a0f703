package assistant

import (
	"fmt"

	"github.com/wolfman30/appointment-assistant/internal/booking"
)

// OutcomeKind enumerates how a set_appointment call ended.
type OutcomeKind int

const (
	OutcomeInvalidCedula OutcomeKind = iota + 1
	OutcomeInvalidDateTime
	OutcomePastTime
	OutcomeTooSoon
	OutcomeBooked
	OutcomeBookingFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeInvalidCedula:
		return "invalid_cedula"
	case OutcomeInvalidDateTime:
		return "invalid_datetime"
	case OutcomePastTime:
		return "past_time"
	case OutcomeTooSoon:
		return "too_soon"
	case OutcomeBooked:
		return "booked"
	case OutcomeBookingFailed:
		return "booking_failed"
	default:
		return "unknown"
	}
}

// Rejected reports whether the request was refused before reaching the booking function.
func (k OutcomeKind) Rejected() bool {
	switch k {
	case OutcomeInvalidCedula, OutcomeInvalidDateTime, OutcomePastTime, OutcomeTooSoon:
		return true
	default:
		return false
	}
}

// BookingOutcome is the result of handling one set_appointment call. It only
// ever reaches the caller as the system turn produced by Message.
type BookingOutcome struct {
	Kind    OutcomeKind
	Request booking.AppointmentRequest
	// Result is set when the booking function was reached.
	Result *booking.Result
	// Err is set when the booking function could not be reached.
	Err error
}

// Message is the user-facing text appended to the transcript.
func (o BookingOutcome) Message() string {
	switch o.Kind {
	case OutcomeInvalidCedula:
		return "La cédula proporcionada no es válida. Asegúrate de que esté en el formato xxx-xxxxxxx-x."
	case OutcomeInvalidDateTime:
		return "La fecha u hora proporcionada no es válida. Usa el formato YYYY-MM-DD para el día y HH:MM para la hora."
	case OutcomePastTime:
		return "Lo siento, no puedo agendar una cita para una hora que ya pasó."
	case OutcomeTooSoon:
		return "Lo siento, no puedo agendar una cita para dentro de una hora."
	case OutcomeBooked:
		return fmt.Sprintf("Cita agendada para el día %s a las %s a nombre de %s con cédula %s",
			o.Request.Day, o.Request.Hour, o.Request.FullName, o.Request.Cedula)
	case OutcomeBookingFailed:
		return bookingFailedMessage
	default:
		return bookingFailedMessage
	}
}

const bookingFailedMessage = "Lo siento, no pude agendar la cita, por favor intenta de nuevo más tarde."

func functionCalledMessage(req booking.AppointmentRequest) string {
	return fmt.Sprintf("Función llamada: %s con los argumentos: %s", SetAppointmentToolName, encodeArguments(req))
}
