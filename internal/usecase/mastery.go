package usecase

import (
	"time"

	"github.com/samber/lo"

	"github.com/eslsoft/oghmai/internal/entity"
)

// Transition is the outcome of recording one test result on a word.
type Transition struct {
	Word      entity.Word
	OldStatus entity.Status
	NewStatus entity.Status
}

// Changed reports whether the mastery level moved.
func (t Transition) Changed() bool { return t.OldStatus != t.NewStatus }

// ApplyResult records a pass or fail on a copy of word and moves its level when
// the last three results agree. The proof window is cleared only when the
// level actually changes.
func ApplyResult(word entity.Word, passed bool, now time.Time) Transition {
	next := word.Clone()
	oldStatus := next.Status

	window := append(next.TestResults, passed)
	if len(window) > entity.MaxTestResults {
		window = window[len(window)-entity.MaxTestResults:]
	}
	next.TestResults = window
	tested := now
	next.LastTestedAt = &tested

	if len(window) == entity.MaxTestResults {
		switch {
		case lo.EveryBy(window, func(r bool) bool { return r }):
			next.Status = entity.NextStatus(oldStatus)
		case lo.NoneBy(window, func(r bool) bool { return r }):
			next.Status = entity.PreviousStatus(oldStatus)
		}
		if next.Status != oldStatus {
			next.TestResults = []bool{}
		}
	}

	return Transition{Word: next, OldStatus: oldStatus, NewStatus: next.Status}
}
