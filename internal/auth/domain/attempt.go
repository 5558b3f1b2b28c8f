package domain

import "time"

// Outcome is the result of an authentication attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	// OutcomePending marks an admitted attempt whose outcome is not known yet.
	OutcomePending Outcome = "pending"
)

// AttemptRecord is one authentication attempt seen by an abuse guard.
type AttemptRecord struct {
	ClientKey string
	At        time.Time
	Outcome   Outcome
}
