package flow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput reports an event that does not fit the current step.
	ErrInvalidInput = errors.New("invalid input")
	// ErrBusy reports an event rejected because the user's previous event is still running.
	ErrBusy = errors.New("busy")
	// ErrCollaboratorTimeout reports an AI or storage call that exceeded its deadline.
	ErrCollaboratorTimeout = errors.New("collaborator timeout")
	// ErrCollaboratorFailure reports an AI or storage call that failed.
	ErrCollaboratorFailure = errors.New("collaborator failure")
	// ErrSessionExpired reports that the previous session idled out and a fresh one was started.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionGone reports a collaborator result discarded because its session no longer exists.
	ErrSessionGone = errors.New("session gone")
)

// Kind classifies flow errors for logging and user feedback.
type Kind string

const (
	KindInvalidInput Kind = "invalid_input"
	KindBusy         Kind = "busy"
	KindTimeout      Kind = "collaborator_timeout"
	KindFailure      Kind = "collaborator_failure"
	KindExpired      Kind = "session_expired"
	KindGone         Kind = "session_gone"
)

var sentinels = map[Kind]error{
	KindInvalidInput: ErrInvalidInput,
	KindBusy:         ErrBusy,
	KindTimeout:      ErrCollaboratorTimeout,
	KindFailure:      ErrCollaboratorFailure,
	KindExpired:      ErrSessionExpired,
	KindGone:         ErrSessionGone,
}

// Error is the typed error returned alongside an instruction.
// errors.Is matches both the kind sentinel and the wrapped cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	base := sentinels[e.Kind]
	if base == nil {
		base = errors.New(string(e.Kind))
	}
	if e.Err == nil {
		return fmt.Sprintf("flow %s: %v", e.Op, base)
	}
	return fmt.Sprintf("flow %s: %v: %v", e.Op, base, e.Err)
}

// Unwrap exposes the kind sentinel and the cause.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if base := sentinels[e.Kind]; base != nil {
		out = append(out, base)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Code returns the stable error code used by handler summaries.
func (e *Error) Code() string { return string(e.Kind) }

// Retryable reports whether repeating the same action may succeed.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindBusy, KindTimeout, KindFailure:
		return true
	}
	return false
}

// KindOf extracts the flow error kind, or "" for foreign errors.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
