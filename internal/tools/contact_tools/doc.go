// Package contact_tools provides get_email, which resolves a person's name
// to an email address from the local contacts file and Google Contacts.
package contact_tools
