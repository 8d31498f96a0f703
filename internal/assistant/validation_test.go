package assistant

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidCedula(t *testing.T) {
	tests := []struct {
		cedula string
		valid  bool
	}{
		{"001-2345678-9", true},
		{"00123456789", true},
		{"001-23456789", true},
		{"0012345678-9", true},
		{"12345678", false},
		{"abc-1234567-9", false},
		{"001-2345678-99", false},
		{"001--2345678-9", false},
		{" 001-2345678-9", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidCedula(tt.cedula); got != tt.valid {
			t.Errorf("ValidCedula(%q) = %v, want %v", tt.cedula, got, tt.valid)
		}
	}
}

func TestAppointmentTime(t *testing.T) {
	loc, err := time.LoadLocation("America/Santo_Domingo")
	require.NoError(t, err)

	got, err := AppointmentTime("2024-01-02", "09:15", loc)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 1, 2, 13, 15, 0, 0, time.UTC)))

	got, err = AppointmentTime(" 2024-01-02 ", "9:15:30", nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 9, 15, 30, 0, time.UTC), got)

	for _, bad := range [][2]string{{"02/01/2024", "09:00"}, {"2024-01-02", "9am"}, {"2024-13-01", "09:00"}, {"", ""}} {
		_, err := AppointmentTime(bad[0], bad[1], time.UTC)
		assert.Error(t, err, bad)
	}
}

func TestCheckSchedule(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name        string
		appointment time.Time
		want        scheduleCheck
	}{
		{"thirty minutes ahead", time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC), slotTooSoon},
		{"previous day", time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC), slotInPast},
		{"right now", now, slotTooSoon},
		{"exactly one hour", now.Add(MinimumLeadTime), slotBookable},
		{"tomorrow", now.Add(24 * time.Hour), slotBookable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkSchedule(tt.appointment, now))
		})
	}
}

func TestCheckSchedule_IgnoresSeconds(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 59, 999, time.UTC)
	tests := []struct {
		name        string
		appointment time.Time
		want        scheduleCheck
	}{
		{"same minute", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), slotTooSoon},
		{"exactly one hour", time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC), slotBookable},
		{"previous minute", time.Date(2024, 1, 1, 9, 59, 0, 0, time.UTC), slotInPast},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkSchedule(tt.appointment, now))
		})
	}
}

func TestTimestampTag(t *testing.T) {
	assert.Equal(t, "{2024-03-05 - 07:08}", timestampTag(time.Date(2024, 3, 5, 7, 8, 9, 0, time.UTC)))
}

func TestParseAppointmentArguments(t *testing.T) {
	req, err := ParseAppointmentArguments(`{"day":"2024-01-02","hour":"10:00","fullName":"Ana","cedula":"001-2345678-9","extra":true}`)
	require.NoError(t, err)
	assert.Equal(t, "Ana", req.FullName)

	req, err = ParseAppointmentArguments("")
	require.NoError(t, err)
	assert.Empty(t, req.Cedula)

	for _, bad := range []string{`{"day": "2024-01-02",`, `["2024-01-02"]`, `{"day": {"y": 2024}}`, `{"cedula": [1, 2]}`} {
		_, err = ParseAppointmentArguments(bad)
		var malformed *MalformedToolArgumentsError
		require.True(t, errors.As(err, &malformed), bad)
		assert.NotNil(t, errors.Unwrap(err), bad)
	}
}

func TestParseAppointmentArguments_ScalarFieldsBecomeText(t *testing.T) {
	req, err := ParseAppointmentArguments(`{"day":"2024-01-02","hour":"10:00","fullName":null,"cedula":40212345678}`)
	require.NoError(t, err)
	assert.Equal(t, "40212345678", req.Cedula)
	assert.Equal(t, "", req.FullName)

	req, err = ParseAppointmentArguments(`{"day":20240102,"hour":true,"fullName":"José","cedula":"4021234567"}`)
	require.NoError(t, err)
	assert.Equal(t, "20240102", req.Day)
	assert.Equal(t, "true", req.Hour)
}

func TestOutcomeKinds(t *testing.T) {
	kinds := []OutcomeKind{OutcomeInvalidCedula, OutcomeInvalidDateTime, OutcomePastTime, OutcomeTooSoon, OutcomeBooked, OutcomeBookingFailed}
	seen := map[string]bool{}
	for _, k := range kinds {
		assert.NotEqual(t, "unknown", k.String())
		assert.False(t, seen[k.String()], "duplicate label %s", k)
		seen[k.String()] = true
		assert.NotEmpty(t, BookingOutcome{Kind: k}.Message())
	}
	assert.True(t, OutcomeTooSoon.Rejected())
	assert.False(t, OutcomeBookingFailed.Rejected())
	assert.Equal(t, bookingFailedMessage, BookingOutcome{}.Message())
}

func TestSetAppointmentToolDeclaration(t *testing.T) {
	props, ok := SetAppointmentTool.Parameters["properties"].(map[string]any)
	require.True(t, ok)
	for _, field := range []string{"day", "hour", "fullName", "cedula"} {
		assert.Contains(t, props, field)
	}
	assert.Equal(t, []string{"day", "hour", "fullName", "cedula"}, SetAppointmentTool.Parameters["required"])
	day := props["day"].(map[string]any)
	assert.Contains(t, day["description"], "the appoinment will be set for the next day")
}
