package models

import (
	"time"
)

// IntentStatus represents the current state of a payment record
type IntentStatus string

const (
	StatusCreated        IntentStatus = "created"
	StatusRequiresAction IntentStatus = "requires_action"
	StatusSucceeded      IntentStatus = "succeeded"
	StatusFailed         IntentStatus = "failed"
)

// statusRank orders statuses along the state machine. Terminal states share
// the highest rank so neither can replace the other.
var statusRank = map[IntentStatus]int{
	StatusCreated:        0,
	StatusRequiresAction: 1,
	StatusSucceeded:      2,
	StatusFailed:         2,
}

// IsTerminal reports whether no further transitions may leave this status
func (s IntentStatus) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// IsValid reports whether s is one of the recognized statuses
func (s IntentStatus) IsValid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransitionTo reports whether moving from s to target is a legal,
// strictly forward transition. Terminal states accept nothing; equal-rank
// replays are rejected so late or duplicated deliveries cannot regress
// or churn a record.
func (s IntentStatus) CanTransitionTo(target IntentStatus) bool {
	if s.IsTerminal() {
		return false
	}
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[target]
	if !ok {
		return false
	}
	return to > from
}

// AllowedPriorStatuses returns the set of statuses from which target is a
// legal transition. The set is used verbatim as the predicate of the
// conditional status update, which makes terminal-state protection and
// ordering a single atomic storage operation.
func AllowedPriorStatuses(target IntentStatus) []string {
	var allowed []string
	for _, s := range []IntentStatus{StatusCreated, StatusRequiresAction, StatusSucceeded, StatusFailed} {
		if s.CanTransitionTo(target) {
			allowed = append(allowed, string(s))
		}
	}
	return allowed
}

// PaymentRecord is the durable, single-source-of-truth record for one
// processor intent. ID is the processor-assigned intent id; amount and
// currency never change after creation.
type PaymentRecord struct {
	ID        string
	Amount    int64 // minor currency units
	Currency  string
	Status    IntentStatus
	Metadata  map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}
