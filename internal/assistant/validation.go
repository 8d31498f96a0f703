package assistant

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// MinimumLeadTime is the shortest notice accepted for a new appointment.
const MinimumLeadTime = time.Hour

var cedulaPattern = regexp.MustCompile(`^\d{3}-?\d{7}-?\d{1}$`)

// ValidCedula reports whether s has the xxx-xxxxxxx-x shape (separators optional).
func ValidCedula(s string) bool {
	return cedulaPattern.MatchString(s)
}

var appointmentLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// AppointmentTime combines a YYYY-MM-DD day and an HH:MM hour in loc.
func AppointmentTime(day, hour string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	value := strings.TrimSpace(day) + " " + strings.TrimSpace(hour)
	for _, layout := range appointmentLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("assistant: cannot parse appointment time %q", value)
}

// scheduleCheck classifies an appointment slot relative to now.
type scheduleCheck int

const (
	slotBookable scheduleCheck = iota
	slotInPast
	slotTooSoon
)

// checkSchedule compares at minute precision; the seconds of now are dropped
// since appointments can only be requested to the minute.
func checkSchedule(appointment, now time.Time) scheduleCheck {
	now = now.Truncate(time.Minute)
	if appointment.Before(now) {
		return slotInPast
	}
	if appointment.Sub(now) < MinimumLeadTime {
		return slotTooSoon
	}
	return slotBookable
}

// timestampTag renders the {YYYY-MM-DD - HH:MM} marker prefixed to session messages.
func timestampTag(now time.Time) string {
	return now.Format("{2006-01-02 - 15:04}")
}
