package hr_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hr-go/internal/hr"
)

func strPtr(s string) *string { return &s }

// parseRecord decodes a stored record document.
func parseRecord(t *testing.T, doc string) *hr.Hindrance {
	t.Helper()
	var h hr.Hindrance
	require.NoError(t, json.Unmarshal([]byte(doc), &h))
	return &h
}

func TestDeriveStatus(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		h    *hr.Hindrance
		sla  int
		want hr.Status
	}{
		{
			name: "within threshold",
			h:    &hr.Hindrance{Status: hr.StatusActive, StartDate: "2024-01-10"},
			sla:  5,
			want: hr.StatusActive,
		},
		{
			name: "past threshold",
			h:    &hr.Hindrance{Status: hr.StatusActive, StartDate: "2024-01-09"},
			sla:  5,
			want: hr.StatusOverdue,
		},
		{
			name: "stored overdue with young start reverts to active",
			h:    &hr.Hindrance{Status: hr.StatusOverdue, StartDate: "2024-01-14"},
			sla:  5,
			want: hr.StatusActive,
		},
		{
			name: "removal date wins over stored status",
			h:    &hr.Hindrance{Status: hr.StatusPendingApproval, StartDate: "2023-01-01", RemovalDate: strPtr("2023-02-01")},
			sla:  5,
			want: hr.StatusResolved,
		},
		{
			name: "stored resolved without removal date",
			h:    &hr.Hindrance{Status: hr.StatusResolved, StartDate: "2023-01-01"},
			sla:  5,
			want: hr.StatusResolved,
		},
		{
			name: "pending approval is never overdue",
			h:    &hr.Hindrance{Status: hr.StatusPendingApproval, StartDate: "2023-01-01"},
			sla:  5,
			want: hr.StatusPendingApproval,
		},
		{
			name: "empty removal date is not removed",
			h:    &hr.Hindrance{StartDate: "2024-01-01", RemovalDate: strPtr("")},
			sla:  5,
			want: hr.StatusOverdue,
		},
		{
			name: "missing start date",
			h:    &hr.Hindrance{Status: hr.StatusActive},
			sla:  0,
			want: hr.StatusActive,
		},
		{
			name: "larger threshold",
			h:    &hr.Hindrance{StartDate: "2024-01-01"},
			sla:  30,
			want: hr.StatusActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hr.DeriveStatus(tt.h, tt.sla, now))
		})
	}
}

func TestDeriveStatus_ChangesWithClock(t *testing.T) {
	h := &hr.Hindrance{Status: hr.StatusActive, StartDate: "2024-01-10"}
	day := time.Date(2024, 1, 15, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, hr.StatusActive, hr.DeriveStatus(h, 5, day))
	assert.Equal(t, hr.StatusOverdue, hr.DeriveStatus(h, 5, day.Add(2*time.Minute)))
}

func TestDaysSince(t *testing.T) {
	now := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, hr.DaysSince("2024-03-01", now))
	assert.Equal(t, 1, hr.DaysSince("2024-02-29", now))
	assert.Equal(t, 60, hr.DaysSince("2024-01-01", now))
	assert.Equal(t, 1, hr.DaysSince("2024-02-29T23:00:00Z", now))
	assert.Equal(t, -2, hr.DaysSince("2024-03-03", now))
	assert.Equal(t, 0, hr.DaysSince("", now))
	assert.Equal(t, 0, hr.DaysSince("yesterday", now))
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 3, hr.DaysBetween("2024-01-01", "2024-01-04"))
	assert.Equal(t, 3, hr.DaysBetween("2024-01-04", "2024-01-01"))
	assert.Equal(t, 0, hr.DaysBetween("2024-01-04", ""))
	assert.Equal(t, 0, hr.DaysBetween("", "2024-01-04"))
	assert.Equal(t, 366, hr.DaysBetween("2024-01-01", "2025-01-01"))
}

func TestParseDate(t *testing.T) {
	d, ok := hr.ParseDate("2024-02-29")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d)
	assert.Equal(t, "2024-02-29", hr.FormatDate(d))

	_, ok = hr.ParseDate("2023-02-29")
	assert.False(t, ok)
	_, ok = hr.ParseDate("29-02-2024")
	assert.False(t, ok)
	_, ok = hr.ParseDate("2024")
	assert.False(t, ok)
}
