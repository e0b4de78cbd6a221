// Package chat implements the interactive turn loop: read a line, run the
// agent graph on it and print the reply.
//
// Input comes from a readline prompt with history when stdin is a terminal
// and from plain line scanning otherwise, so piped scripts work too.
package chat
