package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	calendar "google.golang.org/api/calendar/v3"
)

func TestParseTime(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	tests := []struct {
		name       string
		value      string
		loc        *time.Location
		want       time.Time
		wantAllDay bool
		wantErr    bool
	}{
		{name: "empty", value: ""},
		{name: "rfc3339 keeps offset", value: "2025-08-30T14:00:00+02:00", loc: kolkata,
			want: time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC)},
		{name: "local seconds in zone", value: "2025-08-30T14:00:00", loc: kolkata,
			want: time.Date(2025, 8, 30, 14, 0, 0, 0, kolkata)},
		{name: "local minutes in utc", value: "2025-08-30T14:00", loc: time.UTC,
			want: time.Date(2025, 8, 30, 14, 0, 0, 0, time.UTC)},
		{name: "nil location is local", value: "2025-08-30T14:00",
			want: time.Date(2025, 8, 30, 14, 0, 0, 0, time.Local)},
		{name: "space separated", value: "2025-08-30 14:00", loc: kolkata,
			want: time.Date(2025, 8, 30, 14, 0, 0, 0, kolkata)},
		{name: "date only", value: "2025-08-30", loc: kolkata,
			want: time.Date(2025, 8, 30, 0, 0, 0, 0, kolkata), wantAllDay: true},
		{name: "garbage", value: "30th Aug 2025", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, allDay, err := ParseTime(tt.value, tt.loc)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidEvent)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
			assert.Equal(t, tt.wantAllDay, allDay)
		})
	}
}

func TestNeedsLocation(t *testing.T) {
	assert.False(t, NeedsLocation(""))
	assert.False(t, NeedsLocation("2025-09-01T15:00:00Z"))
	assert.False(t, NeedsLocation("2025-09-01"))
	assert.True(t, NeedsLocation("2025-09-01T15:00"))
	assert.True(t, NeedsLocation("2025-09-01 15:00:00"))
}

func TestLoadLocation(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	loc, err := LoadLocation("", nil)
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = LoadLocation("", kolkata)
	require.NoError(t, err)
	assert.Equal(t, kolkata, loc)

	loc, err = LoadLocation("Europe/Berlin", kolkata)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())

	_, err = LoadLocation("Mars/Olympus", nil)
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestToEventDateTime_ZoneFromLocation(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	dt := toEventDateTime(time.Date(2025, 9, 1, 15, 0, 0, 0, berlin), "", false)
	assert.Equal(t, "2025-09-01T15:00:00+02:00", dt.DateTime)
	assert.Equal(t, "Europe/Berlin", dt.TimeZone)

	dt = toEventDateTime(time.Date(2025, 9, 1, 15, 0, 0, 0, time.Local), "", false)
	assert.Empty(t, dt.TimeZone)
}

func TestEventInput_Validate(t *testing.T) {
	start := time.Date(2025, 8, 30, 14, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		input   EventInput
		wantErr bool
	}{
		{name: "valid", input: EventInput{Summary: "Sync", Start: start, End: start.Add(time.Hour)}},
		{name: "missing summary", input: EventInput{Start: start, End: start.Add(time.Hour)}, wantErr: true},
		{name: "missing end", input: EventInput{Summary: "Sync", Start: start}, wantErr: true},
		{name: "end before start", input: EventInput{Summary: "Sync", Start: start, End: start.Add(-time.Hour)}, wantErr: true},
		{name: "bad attendee", input: EventInput{Summary: "Sync", Start: start, End: start.Add(time.Hour),
			Attendees: []Attendee{{Email: "Anuj"}}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidEvent)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestToEventSummary_Nil(t *testing.T) {
	assert.Equal(t, EventSummary{}, toEventSummary(nil))
}

func TestToEventSummary_TimeZone(t *testing.T) {
	s := toEventSummary(&calendar.Event{
		Start: &calendar.EventDateTime{DateTime: "2025-09-01T09:00:00+02:00", TimeZone: "Europe/Berlin"},
		End:   &calendar.EventDateTime{DateTime: "2025-09-01T09:30:00+02:00", TimeZone: "Europe/Berlin"},
	})
	assert.Equal(t, "Europe/Berlin", s.TimeZone)
}

func TestToEventSummary_PrefersVideoEntryPoint(t *testing.T) {
	s := toEventSummary(&calendar.Event{
		HangoutLink: "https://meet.google.com/old",
		ConferenceData: &calendar.ConferenceData{EntryPoints: []*calendar.EntryPoint{
			{EntryPointType: "video", Uri: "https://meet.google.com/new"},
		}},
	})
	assert.Equal(t, "https://meet.google.com/new", s.MeetingLink)
}
