package google

// Scopes requested during authorization. Calendar is read-write; contacts
// are only read to resolve attendee names to addresses.
var Scopes = []string{
	"https://www.googleapis.com/auth/calendar",
	"https://www.googleapis.com/auth/contacts.readonly",
	"https://www.googleapis.com/auth/contacts.other.readonly",
	"https://www.googleapis.com/auth/directory.readonly",
}
