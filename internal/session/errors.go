package session

import "errors"

// Caller usage errors. The session itself is unaffected by any of these.
var (
	ErrNotFound          = errors.New("session not found")
	ErrAlreadyCompleted  = errors.New("session already completed")
	ErrNoPendingQuestion = errors.New("no pending question")
	ErrTooManySessions   = errors.New("too many active sessions")
)

// ErrCancelled is delivered to a caller whose pending turn was resolved by
// session cancellation instead of a prompt.
var ErrCancelled = errors.New("session cancelled")
