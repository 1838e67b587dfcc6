package entity

import (
	"testing"
	"time"
)

func TestReviewIntervalsIsTestable(t *testing.T) {
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	ago := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}
	intervals := DefaultReviewIntervals()

	cases := []struct {
		name string
		word Word
		want bool
	}{
		{"never tested", Word{Status: StatusNew}, true},
		{"new tested 25h ago", Word{Status: StatusNew, LastTestedAt: ago(25 * time.Hour)}, true},
		{"new tested 1h ago", Word{Status: StatusNew, LastTestedAt: ago(time.Hour)}, false},
		{"new tested exactly 1 day ago", Word{Status: StatusNew, LastTestedAt: ago(24 * time.Hour)}, true},
		{"known tested 6 days ago", Word{Status: StatusKnown, LastTestedAt: ago(6 * 24 * time.Hour)}, false},
		{"mastered tested 15 days ago", Word{Status: StatusMastered, LastTestedAt: ago(15 * 24 * time.Hour)}, true},
		{"unsaved is never testable", Word{Status: StatusUnsaved}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := intervals.IsTestable(tc.word, now); got != tc.want {
				t.Fatalf("IsTestable = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestReviewIntervalsStatusesOrdered(t *testing.T) {
	got := DefaultReviewIntervals().Statuses()
	want := []Status{StatusNew, StatusLearned, StatusKnown, StatusMastered}
	if len(got) != len(want) {
		t.Fatalf("expected %d statuses, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: want %s got %s", i, want[i], got[i])
		}
	}
}

func TestWordNormalizeTruncatesWindow(t *testing.T) {
	w := Word{Word: "  Gatto ", Language: "IT", TestResults: []bool{true, false, true, true}}
	w.Normalize(time.Now())
	if w.Word != "gatto" || w.Language != LanguageItalian {
		t.Fatalf("unexpected key after normalize: %q %q", w.Word, w.Language)
	}
	if len(w.TestResults) != MaxTestResults {
		t.Fatalf("expected window of %d, got %d", MaxTestResults, len(w.TestResults))
	}
	if w.TestResults[0] != false {
		t.Fatalf("oldest entry should have been dropped: %v", w.TestResults)
	}
	if w.Status != StatusNew {
		t.Fatalf("expected NEW default status, got %s", w.Status)
	}
}
