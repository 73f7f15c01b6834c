// Package approval holds the approval request state machine. Persistence and
// locking are the caller's concern; this package only decides whether a
// transition is legal and what it produces.
package approval

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound          = errors.New("approval request not found")
	ErrInvalidTransition = errors.New("invalid approval transition")
	ErrMissingReason     = errors.New("rejection reason is required")
)

// Status of an approval request. Approved and Rejected are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseStatus is case-insensitive; the empty string is not a status.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusRejected:
		return StatusRejected, nil
	}
	return "", fmt.Errorf("unknown approval status %q", s)
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Action is a decision taken by an approver.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Target returns the status an action moves a pending request to.
func (a Action) Target() (Status, error) {
	switch a {
	case ActionApprove:
		return StatusApproved, nil
	case ActionReject:
		return StatusRejected, nil
	}
	return "", fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, a)
}

// Decision is the outcome of a legal transition.
type Decision struct {
	From      Status
	To        Status
	Comments  string
	DecidedAt time.Time
}

// Transition validates applying action to a request currently in status
// current. Reject requires a non-blank comment, checked before the status so
// a missing reason never depends on the stored state.
func Transition(current Status, action Action, comments string, now time.Time) (Decision, error) {
	to, err := action.Target()
	if err != nil {
		return Decision{}, err
	}

	comments = strings.TrimSpace(comments)
	if action == ActionReject && comments == "" {
		return Decision{}, ErrMissingReason
	}

	if current != StatusPending {
		return Decision{}, fmt.Errorf("%w: approval request is already %s", ErrInvalidTransition, current)
	}

	return Decision{From: current, To: to, Comments: comments, DecidedAt: now}, nil
}
