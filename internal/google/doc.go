// Package google handles OAuth2 for the Google APIs the assistant calls.
//
// Tokens come from a TokenProvider. The chat and serve commands chain a
// StaticTokenProvider (GOOGLE_ACCESS_TOKEN / GOOGLE_REFRESH_TOKEN) in front
// of a FileTokenProvider that reads what `calagent auth` saved under the
// user cache directory. NewHTTPClient turns the token into an authorized
// client that refreshes it as needed.
package google
