package entity

import (
	"strings"
	"time"
)

// MaxTestResults is the size of the sliding proof window kept on a word.
const MaxTestResults = 3

// MeaningType is the grammatical category of a single sense.
type MeaningType string

const (
	MeaningNoun         MeaningType = "NOUN"
	MeaningVerb         MeaningType = "VERB"
	MeaningAdjective    MeaningType = "ADJECTIVE"
	MeaningAdverb       MeaningType = "ADVERB"
	MeaningPronoun      MeaningType = "PRONOUN"
	MeaningPreposition  MeaningType = "PREPOSITION"
	MeaningConjunction  MeaningType = "CONJUNCTION"
	MeaningInterjection MeaningType = "INTERJECTION"
	MeaningExpression   MeaningType = "EXPRESSION"
	MeaningOther        MeaningType = "OTHER"
)

var meaningTypes = map[MeaningType]struct{}{
	MeaningNoun: {}, MeaningVerb: {}, MeaningAdjective: {}, MeaningAdverb: {}, MeaningPronoun: {},
	MeaningPreposition: {}, MeaningConjunction: {}, MeaningInterjection: {}, MeaningExpression: {}, MeaningOther: {},
}

// NormalizeMeaningType maps free-form model output onto a known type, defaulting to OTHER.
func NormalizeMeaningType(raw string) MeaningType {
	t := MeaningType(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := meaningTypes[t]; ok {
		return t
	}
	return MeaningOther
}

// Meaning is one sense of a word.
type Meaning struct {
	Translation string      `json:"translation"`
	Definition  string      `json:"definition"`
	Examples    []string    `json:"examples"`
	Type        MeaningType `json:"type"`
}

// WordDescription is the structured output of the generation pipeline before it is saved.
type WordDescription struct {
	Word     string    `json:"word"`
	Language Language  `json:"language"`
	Meanings []Meaning `json:"meanings"`
}

// Word is a vocabulary entry owned by a single user.
type Word struct {
	UserID       string     `json:"user_id"`
	Word         string     `json:"word"`
	Language     Language   `json:"language"`
	Meanings     []Meaning  `json:"meanings"`
	CreatedAt    time.Time  `json:"created_at"`
	Status       Status     `json:"status"`
	LastTestedAt *time.Time `json:"last_tested_at,omitempty"`
	TestResults  []bool     `json:"test_results"`
	Version      int64      `json:"version"`
}

// Normalize ensures defaults & constraints before persistence.
func (w *Word) Normalize(now time.Time) {
	w.Word = NormalizeWordToken(w.Word)
	w.Language = Language(w.Language.Code())
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	if w.Status == "" || w.Status == StatusUnsaved {
		w.Status = StatusNew
	}
	if w.Meanings == nil {
		w.Meanings = []Meaning{}
	}
	for i := range w.Meanings {
		w.Meanings[i].Type = NormalizeMeaningType(string(w.Meanings[i].Type))
		if w.Meanings[i].Examples == nil {
			w.Meanings[i].Examples = []string{}
		}
	}
	if w.TestResults == nil {
		w.TestResults = []bool{}
	}
	if len(w.TestResults) > MaxTestResults {
		w.TestResults = w.TestResults[len(w.TestResults)-MaxTestResults:]
	}
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (w Word) Clone() Word {
	out := w
	out.Meanings = cloneMeanings(w.Meanings)
	out.TestResults = append([]bool(nil), w.TestResults...)
	if w.LastTestedAt != nil {
		t := *w.LastTestedAt
		out.LastTestedAt = &t
	}
	return out
}

// Description projects the word onto the shape exchanged with the generation pipeline.
func (w Word) Description() WordDescription {
	return WordDescription{Word: w.Word, Language: w.Language, Meanings: cloneMeanings(w.Meanings)}
}

// NewWordFromDescription builds an unsaved word for the given user.
func NewWordFromDescription(userID string, desc WordDescription) Word {
	return Word{
		UserID:      userID,
		Word:        NormalizeWordToken(desc.Word),
		Language:    Language(desc.Language.Code()),
		Meanings:    cloneMeanings(desc.Meanings),
		Status:      StatusUnsaved,
		TestResults: []bool{},
	}
}

func cloneMeanings(in []Meaning) []Meaning {
	if in == nil {
		return nil
	}
	out := make([]Meaning, len(in))
	for i, m := range in {
		out[i] = m
		out[i].Examples = append([]string(nil), m.Examples...)
	}
	return out
}
