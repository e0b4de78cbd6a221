// Package calendar wraps the Google Calendar v3 API for the assistant's
// event tools.
//
// All operations act on one calendar (normally "primary") and notify
// attendees of every change. Times coming from the model are parsed with
// ParseTime, which accepts RFC 3339 as well as zone-less local timestamps
// read in a caller-supplied location.
//
//	hc := google.NewHTTPClient(ctx, conf, tok, nil)
//	client, err := calendar.NewClient(ctx, "primary", option.WithHTTPClient(hc))
//	if err != nil {
//	    return err
//	}
//	events, err := client.ListEvents(ctx, calendar.ListOptions{Query: "standup"})
package calendar
