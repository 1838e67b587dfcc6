package entity

import "strings"

// Language represents a learning language using ISO 639-1 codes.
type Language string

const (
	LanguageUnspecified Language = ""
	LanguageEnglish     Language = "en"
	LanguageItalian     Language = "it"
	LanguageSpanish     Language = "es"
	LanguageFrench      Language = "fr"
	LanguageGerman      Language = "de"
	LanguagePortuguese  Language = "pt"
	LanguageJapanese    Language = "ja"
)

// Code returns the lowercase language code (without defaulting).
func (l Language) Code() string {
	return strings.ToLower(strings.TrimSpace(string(l)))
}

// CodeOrDefault returns the language code, falling back to def when unspecified.
func (l Language) CodeOrDefault(def Language) string {
	if l.Code() == "" {
		return def.Code()
	}
	return l.Code()
}

// ParseLanguage converts an arbitrary string into a Language value.
// Any two-letter alphabetic code is accepted; the model decides what it knows.
func ParseLanguage(code string) (Language, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return LanguageUnspecified, nil
	}
	if len(code) != 2 || !isASCIILetters(code) {
		return LanguageUnspecified, ErrInvalidLanguage
	}
	return Language(code), nil
}

// NormalizeWordToken trims and lowercases a word so that keys and guesses compare equal.
func NormalizeWordToken(word string) string {
	trimmed := strings.TrimSpace(word)
	if trimmed == "" {
		return ""
	}
	return strings.ToLower(trimmed)
}

func isASCIILetters(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
