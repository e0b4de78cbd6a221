package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// PrimaryCalendar is the calendar id of the authorized user's own calendar.
const PrimaryCalendar = "primary"

// Client wraps the Calendar service for one calendar.
type Client struct {
	svc        *calendar.Service
	calendarID string
	now        func() time.Time
}

// NewClient creates a client for calendarID. Pass option.WithHTTPClient
// with an authorized client; tests also pass option.WithEndpoint.
func NewClient(ctx context.Context, calendarID string, opts ...option.ClientOption) (*Client, error) {
	if calendarID == "" {
		calendarID = PrimaryCalendar
	}
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return &Client{svc: svc, calendarID: calendarID, now: time.Now}, nil
}

// ListEvents returns single (expanded) events ordered by start time. A zero
// TimeMin means now.
func (c *Client) ListEvents(ctx context.Context, opts ListOptions) ([]EventSummary, error) {
	timeMin := opts.TimeMin
	if timeMin.IsZero() {
		timeMin = c.now()
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	call := c.svc.Events.List(c.calendarID).
		Context(ctx).
		TimeMin(timeMin.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxResults)
	if !opts.TimeMax.IsZero() {
		call = call.TimeMax(opts.TimeMax.Format(time.RFC3339))
	}
	if q := strings.TrimSpace(opts.Query); q != "" {
		call = call.Q(q)
	}

	events, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	summaries := make([]EventSummary, 0, len(events.Items))
	for _, event := range events.Items {
		summaries = append(summaries, toEventSummary(event))
	}
	return summaries, nil
}

// GetEvent fetches one event by id.
func (c *Client) GetEvent(ctx context.Context, eventID string) (*EventSummary, error) {
	if eventID == "" {
		return nil, fmt.Errorf("%w: event id is required", ErrInvalidEvent)
	}
	event, err := c.svc.Events.Get(c.calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	summary := toEventSummary(event)
	return &summary, nil
}

// CreateEvent inserts a new event and emails the attendees.
func (c *Client) CreateEvent(ctx context.Context, input EventInput) (*EventSummary, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Location:    input.Location,
		Start:       toEventDateTime(input.Start, input.TimeZone, input.AllDay),
		End:         toEventDateTime(input.End, input.TimeZone, input.AllDay),
	}
	if len(input.Attendees) > 0 {
		event.Attendees = toEventAttendees(input.Attendees)
	}

	call := c.svc.Events.Insert(c.calendarID, event).Context(ctx).SendUpdates("all")
	if input.AddMeet {
		event.ConferenceData = c.meetRequest()
		call = call.ConferenceDataVersion(1)
	}

	created, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	summary := toEventSummary(created)
	return &summary, nil
}

// UpdateEvent changes the set fields of input on an existing event. When
// only the start moves, the end moves with it so the duration is kept.
// Attendees, when given, replace the existing list.
func (c *Client) UpdateEvent(ctx context.Context, eventID string, input EventInput) (*EventSummary, error) {
	if eventID == "" {
		return nil, fmt.Errorf("%w: event id is required", ErrInvalidEvent)
	}
	existing, err := c.svc.Events.Get(c.calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get existing event: %w", err)
	}

	if input.Summary != "" {
		existing.Summary = input.Summary
	}
	if input.Description != "" {
		existing.Description = input.Description
	}
	if input.Location != "" {
		existing.Location = input.Location
	}
	if len(input.Attendees) > 0 {
		existing.Attendees = toEventAttendees(input.Attendees)
	}

	if err := mergeTimes(existing, input); err != nil {
		return nil, err
	}

	call := c.svc.Events.Update(c.calendarID, eventID, existing).Context(ctx).SendUpdates("all")
	if input.AddMeet && existing.HangoutLink == "" && existing.ConferenceData == nil {
		existing.ConferenceData = c.meetRequest()
		call = call.ConferenceDataVersion(1)
	}

	updated, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	summary := toEventSummary(updated)
	return &summary, nil
}

// DeleteEvent removes an event and notifies its attendees.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	if eventID == "" {
		return fmt.Errorf("%w: event id is required", ErrInvalidEvent)
	}
	if err := c.svc.Events.Delete(c.calendarID, eventID).Context(ctx).SendUpdates("all").Do(); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

func mergeTimes(existing *calendar.Event, input EventInput) error {
	if input.Start.IsZero() && input.End.IsZero() {
		return nil
	}
	tz := input.TimeZone
	if tz == "" && existing.Start != nil {
		tz = existing.Start.TimeZone
	}

	oldStart, _ := parseEventDateTime(existing.Start)
	oldEnd, _ := parseEventDateTime(existing.End)
	start, end := oldStart, oldEnd
	if !input.Start.IsZero() {
		start = input.Start
		if input.End.IsZero() && !oldStart.IsZero() && !oldEnd.IsZero() {
			end = start.Add(oldEnd.Sub(oldStart))
		}
	}
	if !input.End.IsZero() {
		end = input.End
	}
	if !end.After(start) {
		return fmt.Errorf("%w: end must be after start", ErrInvalidEvent)
	}

	existing.Start = toEventDateTime(start, tz, input.AllDay)
	existing.End = toEventDateTime(end, tz, input.AllDay)
	return nil
}

func (c *Client) meetRequest() *calendar.ConferenceData {
	return &calendar.ConferenceData{
		CreateRequest: &calendar.CreateConferenceRequest{
			RequestId:             fmt.Sprintf("calagent-%d", c.now().UnixNano()),
			ConferenceSolutionKey: &calendar.ConferenceSolutionKey{Type: "hangoutsMeet"},
		},
	}
}
