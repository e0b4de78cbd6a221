package agent

import (
	"fmt"
	"time"
)

// DefaultName is used when no assistant name is configured.
const DefaultName = "Assistant"

const promptTemplate = `You are %s, a helpful assistant that manages the user's Google Calendar and can search the web.
The current date and time is %s (%s, UTC%s).
Use the tools to look up, create, update and delete events. Resolve people's names to email addresses with get_email before inviting them.
Use web_search for questions about current information. When a tool reports a failure, tell the user plainly.`

// SystemPrompt renders the system message for a turn starting at now.
// The time is given without offset in now's location, followed by the
// zone name and UTC offset.
func SystemPrompt(name string, now time.Time) string {
	if name == "" {
		name = DefaultName
	}
	zone, _ := now.Zone()
	return fmt.Sprintf(promptTemplate,
		name,
		now.Format("2006-01-02T15:04:05"),
		locationName(now.Location(), zone),
		now.Format("-07:00"))
}

func locationName(loc *time.Location, zone string) string {
	if name := loc.String(); name != "" && name != "Local" {
		return name
	}
	return zone
}
