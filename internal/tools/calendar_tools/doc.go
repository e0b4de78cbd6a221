// Package calendar_tools provides the event tools of the assistant:
// create_event, get_events, update_event and delete_event. All of them
// act on the primary calendar of the authorized Google account and send
// updates to attendees.
package calendar_tools
