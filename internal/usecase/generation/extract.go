package generation

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/eslsoft/oghmai/internal/entity"
)

// ExtractJSON returns the span from the first '{' to the last '}' of a reply,
// dropping any chatter or code fences the model wrapped around the object.
func ExtractJSON(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("%w: no JSON object in reply", ErrMalformedOutput)
	}
	return raw[start : end+1], nil
}

type meaningReply struct {
	Translation string   `json:"translation" validate:"required_without=Definition"`
	Definition  string   `json:"definition" validate:"required_without=Translation"`
	Examples    []string `json:"examples"`
	Type        string   `json:"type"`
}

// descriptionReply accepts both the current multi-meaning shape and the older
// flat shape with a single translation and definition at the top level.
type descriptionReply struct {
	Word        string         `json:"word" validate:"required"`
	Language    string         `json:"language"`
	Meanings    []meaningReply `json:"meanings" validate:"omitempty,dive"`
	Translation string         `json:"translation"`
	Definition  string         `json:"definition"`
	Examples    []string       `json:"examples"`
}

func parseDescription(raw string, fallback entity.Language, v *validator.Validate) (*entity.WordDescription, error) {
	body, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	var reply descriptionReply
	if err := json.Unmarshal([]byte(body), &reply); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if len(reply.Meanings) == 0 && (reply.Translation != "" || reply.Definition != "") {
		reply.Meanings = []meaningReply{{
			Translation: reply.Translation,
			Definition:  reply.Definition,
			Examples:    reply.Examples,
			Type:        string(entity.MeaningOther),
		}}
	}
	if err := v.Struct(reply); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if len(reply.Meanings) == 0 {
		return nil, fmt.Errorf("%w: no meanings", ErrMalformedOutput)
	}

	lang, err := entity.ParseLanguage(reply.Language)
	if err != nil || lang == entity.LanguageUnspecified {
		lang = fallback
	}
	word := entity.NormalizeWordToken(reply.Word)
	if word == "" {
		return nil, fmt.Errorf("%w: empty headword", ErrMalformedOutput)
	}

	return &entity.WordDescription{
		Word:     word,
		Language: lang,
		Meanings: lo.Map(reply.Meanings, func(m meaningReply, _ int) entity.Meaning {
			return entity.Meaning{
				Translation: strings.TrimSpace(m.Translation),
				Definition:  strings.TrimSpace(m.Definition),
				Examples: lo.Filter(lo.Map(m.Examples, func(e string, _ int) string {
					return strings.TrimSpace(e)
				}), func(e string, _ int) bool { return e != "" }),
				Type: entity.NormalizeMeaningType(m.Type),
			}
		}),
	}, nil
}

type closeReply struct {
	Close *bool `json:"close" validate:"required"`
}

// parseCloseness reads the judge's verdict. JSON is preferred, a bare yes/no is tolerated.
func parseCloseness(raw string, v *validator.Validate) (bool, error) {
	if body, err := ExtractJSON(raw); err == nil {
		var reply closeReply
		if err := json.Unmarshal([]byte(body), &reply); err == nil && v.Struct(reply) == nil {
			return *reply.Close, nil
		}
	}
	first := strings.ToLower(strings.Trim(strings.TrimSpace(raw), ".!\"'` "))
	if fields := strings.Fields(first); len(fields) > 0 {
		first = strings.Trim(fields[0], ".,!\"'`")
	}
	switch first {
	case "yes", "true", "si", "sì":
		return true, nil
	case "no", "false":
		return false, nil
	}
	return false, fmt.Errorf("%w: unreadable closeness verdict %q", ErrMalformedOutput, raw)
}

// cleanText trims whitespace and wrapping quotes from a free-text reply.
func cleanText(raw string) string {
	text := strings.TrimSpace(raw)
	for len(text) >= 2 {
		first, last := text[0], text[len(text)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') || (first == '`' && last == '`') {
			text = strings.TrimSpace(text[1 : len(text)-1])
			continue
		}
		break
	}
	return text
}

// revealsWord reports whether text contains the answer as a whole word or phrase.
func revealsWord(text, word string) bool {
	needle := tokenize(word)
	if needle == "" {
		return false
	}
	return strings.Contains(" "+tokenize(text)+" ", " "+needle+" ")
}

func tokenize(s string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}
