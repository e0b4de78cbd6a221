// Package conversation defines the message history exchanged between the
// user, the model and the tools, and the checkpoint store that keeps that
// history per thread.
//
// Histories are append-only. A checkpoint write that drops or rewrites an
// earlier message fails with ErrNotAppendOnly.
package conversation
