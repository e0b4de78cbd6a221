package calendar_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/teemow/calagent/internal/calendar"
	"github.com/teemow/calagent/internal/instrumentation"
	"github.com/teemow/calagent/internal/server"
	"github.com/teemow/calagent/internal/tools/common"
)

// CreateEventArgs are the arguments of create_event.
type CreateEventArgs struct {
	Summary     string              `json:"summary" jsonschema_description:"Event title"`
	Start       string              `json:"start" jsonschema_description:"Start time, RFC3339 (2025-09-01T14:00:00+02:00) or local time in timeZone (2025-09-01T14:00). A bare date makes an all-day event."`
	End         string              `json:"end" jsonschema_description:"End time, same format as start"`
	TimeZone    string              `json:"timeZone,omitempty" jsonschema_description:"IANA time zone such as Europe/Berlin. Defaults to the user's local time zone."`
	Description string              `json:"description,omitempty" jsonschema_description:"Event description"`
	Location    string              `json:"location,omitempty" jsonschema_description:"Event location"`
	Attendees   []calendar.Attendee `json:"attendees,omitempty" jsonschema_description:"Guests to invite. Use get_email to look up addresses by name."`
	// Nil means true.
	AddGoogleMeet *bool `json:"addGoogleMeet,omitempty" jsonschema_description:"Attach a Google Meet link (default true)"`
}

// GetEventsArgs are the arguments of get_events.
type GetEventsArgs struct {
	Query      string `json:"q,omitempty" jsonschema_description:"Free text matched against summary, description, location and attendees"`
	TimeMin    string `json:"timeMin,omitempty" jsonschema_description:"Lower bound of event end times, RFC3339 or local time. Defaults to now."`
	TimeMax    string `json:"timeMax,omitempty" jsonschema_description:"Upper bound of event start times, RFC3339 or local time"`
	MaxResults int64  `json:"maxResults,omitempty" jsonschema_description:"Maximum number of events (default 25)"`
}

// UpdateEventArgs are the arguments of update_event. Unset fields keep
// their current value.
type UpdateEventArgs struct {
	EventID     string              `json:"eventId" jsonschema_description:"ID of the event, as returned by get_events"`
	Summary     string              `json:"summary,omitempty" jsonschema_description:"New title"`
	Start       string              `json:"start,omitempty" jsonschema_description:"New start time. If end is omitted the duration is kept."`
	End         string              `json:"end,omitempty" jsonschema_description:"New end time"`
	TimeZone    string              `json:"timeZone,omitempty" jsonschema_description:"IANA time zone for start and end. Defaults to the event's time zone."`
	Description string              `json:"description,omitempty" jsonschema_description:"New description"`
	Location    string              `json:"location,omitempty" jsonschema_description:"New location"`
	Attendees   []calendar.Attendee `json:"attendees,omitempty" jsonschema_description:"Replaces the guest list"`
	// Unlike create_event, false by default.
	AddGoogleMeet bool `json:"addGoogleMeet,omitempty" jsonschema_description:"Attach a Google Meet link if the event has none"`
}

// DeleteEventArgs are the arguments of delete_event.
type DeleteEventArgs struct {
	EventID string `json:"eventId" jsonschema_description:"ID of the event, as returned by get_events"`
}

func eventTools(sc *server.ServerContext) []common.Tool {
	return []common.Tool{
		{
			Name:           "create_event",
			Description:    "Create an event in the user's primary Google Calendar and invite the attendees. Adds a Google Meet link unless addGoogleMeet is false.",
			InputSchema:    common.GenerateSchema[CreateEventArgs](),
			FailureMessage: CreateEventFailure,
			Service:        instrumentation.ServiceCalendar,
			Operation:      instrumentation.OperationCreate,
			Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
				return handleCreateEvent(ctx, args, sc)
			},
		},
		{
			Name:           "get_events",
			Description:    "List upcoming events from the user's primary Google Calendar, optionally filtered by text and time range. Returns a JSON array.",
			InputSchema:    common.GenerateSchema[GetEventsArgs](),
			FailureMessage: GetEventsFailure,
			Service:        instrumentation.ServiceCalendar,
			Operation:      instrumentation.OperationList,
			Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
				return handleGetEvents(ctx, args, sc)
			},
		},
		{
			Name:           "update_event",
			Description:    "Change fields of an existing event. Only the given fields change; attendees are notified.",
			InputSchema:    common.GenerateSchema[UpdateEventArgs](),
			FailureMessage: UpdateEventFailure,
			Service:        instrumentation.ServiceCalendar,
			Operation:      instrumentation.OperationUpdate,
			Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
				return handleUpdateEvent(ctx, args, sc)
			},
		},
		{
			Name:           "delete_event",
			Description:    "Delete an event from the user's primary Google Calendar and notify attendees.",
			InputSchema:    common.GenerateSchema[DeleteEventArgs](),
			FailureMessage: DeleteEventFailure,
			Service:        instrumentation.ServiceCalendar,
			Operation:      instrumentation.OperationDelete,
			Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
				return handleDeleteEvent(ctx, args, sc)
			},
		},
	}
}

func handleCreateEvent(ctx context.Context, raw json.RawMessage, sc *server.ServerContext) (string, error) {
	args, err := common.DecodeArgs[CreateEventArgs](raw)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(args.Start) == "" || strings.TrimSpace(args.End) == "" {
		return "", fmt.Errorf("%w: start and end are required", calendar.ErrInvalidEvent)
	}
	loc, err := calendar.LoadLocation(args.TimeZone, sc.Location())
	if err != nil {
		return "", err
	}
	start, end, allDay, err := parseRange(args.Start, args.End, loc)
	if err != nil {
		return "", err
	}

	input := calendar.EventInput{
		Summary:     args.Summary,
		Description: args.Description,
		Location:    args.Location,
		Start:       start,
		End:         end,
		TimeZone:    args.TimeZone,
		AllDay:      allDay,
		Attendees:   args.Attendees,
		AddMeet:     args.AddGoogleMeet == nil || *args.AddGoogleMeet,
	}

	client, err := sc.CalendarClient()
	if err != nil {
		return "", err
	}
	event, err := client.CreateEvent(ctx, input)
	if err != nil {
		return "", err
	}
	return formatEvent("created", event), nil
}

func handleGetEvents(ctx context.Context, raw json.RawMessage, sc *server.ServerContext) (string, error) {
	args, err := common.DecodeArgs[GetEventsArgs](raw)
	if err != nil {
		return "", err
	}
	opts := calendar.ListOptions{Query: args.Query, MaxResults: args.MaxResults}
	if opts.TimeMin, _, err = calendar.ParseTime(args.TimeMin, sc.Location()); err != nil {
		return "", err
	}
	if opts.TimeMax, _, err = calendar.ParseTime(args.TimeMax, sc.Location()); err != nil {
		return "", err
	}

	client, err := sc.CalendarClient()
	if err != nil {
		return "", err
	}
	events, err := client.ListEvents(ctx, opts)
	if err != nil {
		return "", err
	}
	if len(events) == 0 {
		return NoEventsFound, nil
	}
	return common.JSONResult(events)
}

func handleUpdateEvent(ctx context.Context, raw json.RawMessage, sc *server.ServerContext) (string, error) {
	args, err := common.DecodeArgs[UpdateEventArgs](raw)
	if err != nil {
		return "", err
	}
	client, err := sc.CalendarClient()
	if err != nil {
		return "", err
	}
	loc, err := updateLocation(ctx, client, args, sc)
	if err != nil {
		return "", err
	}
	start, end, allDay, err := parseRange(args.Start, args.End, loc)
	if err != nil {
		return "", err
	}

	input := calendar.EventInput{
		Summary:     args.Summary,
		Description: args.Description,
		Location:    args.Location,
		Start:       start,
		End:         end,
		TimeZone:    args.TimeZone,
		AllDay:      allDay,
		Attendees:   args.Attendees,
		AddMeet:     args.AddGoogleMeet,
	}

	event, err := client.UpdateEvent(ctx, args.EventID, input)
	if err != nil {
		return "", err
	}
	return formatEvent("updated", event), nil
}

// updateLocation picks the zone for wall-clock times in an update: the
// explicit timeZone, else the event's own zone, else the session zone.
func updateLocation(ctx context.Context, client *calendar.Client, args UpdateEventArgs, sc *server.ServerContext) (*time.Location, error) {
	if args.TimeZone != "" || !(calendar.NeedsLocation(args.Start) || calendar.NeedsLocation(args.End)) {
		return calendar.LoadLocation(args.TimeZone, sc.Location())
	}
	existing, err := client.GetEvent(ctx, args.EventID)
	if err != nil {
		return nil, err
	}
	if existing.TimeZone == "" {
		return sc.Location(), nil
	}
	return calendar.LoadLocation(existing.TimeZone, sc.Location())
}

func handleDeleteEvent(ctx context.Context, raw json.RawMessage, sc *server.ServerContext) (string, error) {
	args, err := common.DecodeArgs[DeleteEventArgs](raw)
	if err != nil {
		return "", err
	}
	client, err := sc.CalendarClient()
	if err != nil {
		return "", err
	}
	if err := client.DeleteEvent(ctx, args.EventID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Event %s deleted.", args.EventID), nil
}
