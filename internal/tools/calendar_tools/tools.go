package calendar_tools

import (
	"fmt"
	"time"

	"github.com/teemow/calagent/internal/calendar"
	"github.com/teemow/calagent/internal/server"
	"github.com/teemow/calagent/internal/tools/common"
)

const (
	CreateEventFailure = "Sorry, I couldn't create the event."
	GetEventsFailure   = "Sorry, I couldn't fetch your events."
	UpdateEventFailure = "Sorry, I couldn't update the event."
	DeleteEventFailure = "Sorry, I couldn't delete the event."

	// NoEventsFound is returned by get_events when nothing matches.
	NoEventsFound = "No upcoming events found."
)

// RegisterCalendarTools adds the event tools to reg.
func RegisterCalendarTools(reg *common.Registry, sc *server.ServerContext) error {
	for _, t := range eventTools(sc) {
		if err := reg.Add(common.Instrumented(t, sc)); err != nil {
			return fmt.Errorf("failed to register %s: %w", t.Name, err)
		}
	}
	return nil
}

// parseRange parses start and end. Bare dates on both sides make an
// all-day range, and an all-day range ending on its start day covers that
// day. Zone-less values are read in loc.
func parseRange(startStr, endStr string, loc *time.Location) (start, end time.Time, allDay bool, err error) {
	start, startAllDay, err := calendar.ParseTime(startStr, loc)
	if err != nil {
		return start, end, false, err
	}
	end, endAllDay, err := calendar.ParseTime(endStr, loc)
	if err != nil {
		return start, end, false, err
	}
	if startStr != "" && endStr != "" && startAllDay != endAllDay {
		return start, end, false, fmt.Errorf("%w: start and end must both be dates or both be times", calendar.ErrInvalidEvent)
	}
	allDay = startAllDay || endAllDay
	if allDay && !start.IsZero() && end.Equal(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, allDay, nil
}

func formatEvent(verb string, event *calendar.EventSummary) string {
	result := fmt.Sprintf("Event %s: %s\n", verb, event.Summary)
	result += fmt.Sprintf("ID: %s\n", event.ID)
	if event.AllDay {
		result += fmt.Sprintf("Date: %s\n", event.Start.Format(time.DateOnly))
	} else {
		result += fmt.Sprintf("Start: %s\n", event.Start.Format(time.RFC3339))
		result += fmt.Sprintf("End: %s\n", event.End.Format(time.RFC3339))
	}
	if event.Location != "" {
		result += fmt.Sprintf("Location: %s\n", event.Location)
	}
	if len(event.Attendees) > 0 {
		result += fmt.Sprintf("Attendees: %d\n", len(event.Attendees))
	}
	if event.MeetingLink != "" {
		result += fmt.Sprintf("Google Meet: %s\n", event.MeetingLink)
	}
	if event.HTMLLink != "" {
		result += fmt.Sprintf("Link: %s\n", event.HTMLLink)
	}
	return result
}
