// Package contacts resolves a person's name to an email address.
//
// Two sources are consulted in order: a local YAML directory (fast, works
// offline, lets the user pin addresses) and the Google People API, which
// searches personal contacts, "other contacts" (people the user has
// emailed) and, for Workspace accounts, the domain directory.
package contacts
