package entity

import (
	"fmt"
	"strings"
)

// Status is the mastery level of a word. UNSAVED is a sentinel for descriptions
// that were never persisted.
type Status string

const (
	StatusUnsaved  Status = "UNSAVED"
	StatusNew      Status = "NEW"
	StatusLearned  Status = "LEARNED"
	StatusKnown    Status = "KNOWN"
	StatusMastered Status = "MASTERED"
)

// statusOrder lists every level from lowest to highest.
var statusOrder = []Status{StatusUnsaved, StatusNew, StatusLearned, StatusKnown, StatusMastered}

// PersistedStatuses returns the levels a stored word can rest in, lowest first.
func PersistedStatuses() []Status {
	return append([]Status(nil), statusOrder[1:]...)
}

// StatusRank returns the position of s in the level order, or -1 if unknown.
func StatusRank(s Status) int {
	for i, candidate := range statusOrder {
		if candidate == s {
			return i
		}
	}
	return -1
}

// NextStatus returns the level above s. The top level maps to itself.
func NextStatus(s Status) Status {
	rank := StatusRank(s)
	if rank < 0 || rank == len(statusOrder)-1 {
		return s
	}
	return statusOrder[rank+1]
}

// PreviousStatus returns the level below s, never going under NEW.
// UNSAVED and NEW map to themselves.
func PreviousStatus(s Status) Status {
	rank := StatusRank(s)
	floor := StatusRank(StatusNew)
	if rank <= floor {
		return s
	}
	return statusOrder[rank-1]
}

// ParseStatus converts a case-insensitive level name into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if StatusRank(s) < 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}
