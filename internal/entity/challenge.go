package entity

import "time"

// Challenge is a single-use riddle issued for one word.
type Challenge struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Description string    `json:"description"`
	Word        string    `json:"word"`
	Language    Language  `json:"language"`
	Tries       int       `json:"tries"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the challenge outlived its time-to-live.
func (c Challenge) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// TestChallenge is what the learner sees: the riddle and the id to answer it with.
type TestChallenge struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Verdict is the classification of a single guess.
type Verdict string

const (
	VerdictCorrect   Verdict = "CORRECT"
	VerdictPartial   Verdict = "PARTIAL"
	VerdictIncorrect Verdict = "INCORRECT"
)

// Terminal reports whether the verdict consumes the challenge.
func (v Verdict) Terminal() bool {
	return v == VerdictCorrect || v == VerdictIncorrect
}

// TestResult is returned for every guess. Word and statuses are only set on terminal verdicts,
// Hint only on PARTIAL.
type TestResult struct {
	Result    Verdict `json:"result"`
	Word      string  `json:"word,omitempty"`
	Hint      string  `json:"hint,omitempty"`
	OldStatus *Status `json:"old_status,omitempty"`
	NewStatus *Status `json:"new_status,omitempty"`
}

// TestStatistics counts the testable words per mastery level.
type TestStatistics struct {
	Available map[Status]int `json:"available"`
}
