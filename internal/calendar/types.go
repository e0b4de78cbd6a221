package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// ErrInvalidEvent wraps validation failures of event input.
var ErrInvalidEvent = errors.New("invalid event")

// Attendee is a guest to invite.
type Attendee struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

// EventInput carries the fields of a new event, or the fields to change on
// an existing one. Zero values mean "not set".
type EventInput struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	// TimeZone is an IANA name. Empty means the location of Start.
	TimeZone  string
	AllDay    bool
	Attendees []Attendee
	// AddMeet requests a Google Meet conference for the event.
	AddMeet bool
}

// Validate checks the fields required to create an event.
func (in EventInput) Validate() error {
	if strings.TrimSpace(in.Summary) == "" {
		return fmt.Errorf("%w: summary is required", ErrInvalidEvent)
	}
	if in.Start.IsZero() || in.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidEvent)
	}
	if !in.End.After(in.Start) {
		return fmt.Errorf("%w: end must be after start", ErrInvalidEvent)
	}
	for _, a := range in.Attendees {
		if !strings.Contains(a.Email, "@") {
			return fmt.Errorf("%w: attendee %q has no valid email", ErrInvalidEvent, a.Email)
		}
	}
	return nil
}

// ListOptions narrows ListEvents.
type ListOptions struct {
	Query   string
	TimeMin time.Time
	TimeMax time.Time
	// MaxResults caps the number of events; 0 means DefaultMaxResults.
	MaxResults int64
}

// DefaultMaxResults bounds a listing when the caller gives no limit.
const DefaultMaxResults = 25

// EventSummary is the view of an event handed back to the model.
type EventSummary struct {
	ID          string         `json:"id"`
	Summary     string         `json:"summary"`
	Description string         `json:"description,omitempty"`
	Location    string         `json:"location,omitempty"`
	Status      string         `json:"status"`
	Organizer   string         `json:"organizer,omitempty"`
	Start       time.Time      `json:"start"`
	End         time.Time      `json:"end"`
	TimeZone    string         `json:"timeZone,omitempty"`
	AllDay      bool           `json:"allDay,omitempty"`
	Attendees   []AttendeeInfo `json:"attendees,omitempty"`
	MeetingLink string         `json:"meetingLink,omitempty"`
	HTMLLink    string         `json:"htmlLink,omitempty"`
	EventType   string         `json:"eventType,omitempty"`
}

// AttendeeInfo is an attendee together with their reply.
type AttendeeInfo struct {
	Email          string `json:"email"`
	DisplayName    string `json:"displayName,omitempty"`
	ResponseStatus string `json:"responseStatus,omitempty"`
	Organizer      bool   `json:"organizer,omitempty"`
}

const dateLayout = "2006-01-02"

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTime parses a timestamp from the model. RFC 3339 values keep their
// offset; zone-less values are read in loc (time.Local if nil). A bare date
// is reported with allDay set.
func ParseTime(value string, loc *time.Location) (t time.Time, allDay bool, err error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, false, nil
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, false, nil
		}
	}
	if t, err := time.ParseInLocation(dateLayout, value, loc); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("%w: cannot parse time %q", ErrInvalidEvent, value)
}

// NeedsLocation reports whether value is a wall-clock time without offset,
// so ParseTime depends on the location it is given.
func NeedsLocation(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	if _, err := time.Parse(time.RFC3339, value); err == nil {
		return false
	}
	_, err := time.Parse(dateLayout, value)
	return err != nil
}

// LoadLocation resolves an IANA zone name. An empty name yields fallback,
// or time.Local when fallback is nil.
func LoadLocation(tz string, fallback *time.Location) (*time.Location, error) {
	if tz == "" {
		if fallback == nil {
			return time.Local, nil
		}
		return fallback, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown time zone %q", ErrInvalidEvent, tz)
	}
	return loc, nil
}

func toEventDateTime(t time.Time, tz string, allDay bool) *calendar.EventDateTime {
	if allDay {
		return &calendar.EventDateTime{Date: t.Format(dateLayout)}
	}
	if tz == "" {
		// time.Local has no IANA name; the offset in DateTime is enough.
		if name := t.Location().String(); name != "Local" {
			tz = name
		}
	}
	return &calendar.EventDateTime{DateTime: t.Format(time.RFC3339), TimeZone: tz}
}

func toEventAttendees(in []Attendee) []*calendar.EventAttendee {
	out := make([]*calendar.EventAttendee, 0, len(in))
	for _, a := range in {
		out = append(out, &calendar.EventAttendee{Email: a.Email, DisplayName: a.DisplayName})
	}
	return out
}

func parseEventDateTime(dt *calendar.EventDateTime) (time.Time, bool) {
	if dt == nil {
		return time.Time{}, false
	}
	if dt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, dt.DateTime); err == nil {
			return t, false
		}
	}
	if dt.Date != "" {
		if t, err := time.Parse(dateLayout, dt.Date); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func toEventSummary(event *calendar.Event) EventSummary {
	if event == nil {
		return EventSummary{}
	}
	summary := EventSummary{
		ID:          event.Id,
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location,
		Status:      event.Status,
		HTMLLink:    event.HtmlLink,
		EventType:   event.EventType,
		MeetingLink: event.HangoutLink,
	}
	summary.Start, summary.AllDay = parseEventDateTime(event.Start)
	summary.End, _ = parseEventDateTime(event.End)
	if event.Start != nil {
		summary.TimeZone = event.Start.TimeZone
	}

	if event.Organizer != nil {
		summary.Organizer = event.Organizer.Email
	}
	for _, att := range event.Attendees {
		summary.Attendees = append(summary.Attendees, AttendeeInfo{
			Email:          att.Email,
			DisplayName:    att.DisplayName,
			ResponseStatus: att.ResponseStatus,
			Organizer:      att.Organizer,
		})
	}
	if event.ConferenceData != nil {
		for _, ep := range event.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" {
				summary.MeetingLink = ep.Uri
				break
			}
		}
	}
	return summary
}
