// Package generation turns free-form text generation output into validated
// structured data. Every call to the model is treated as unreliable: replies
// are extracted, repaired and re-sampled within a fixed attempt budget.
package generation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/go-playground/validator/v10"

	"github.com/eslsoft/oghmai/internal/entity"
)

var (
	// ErrNoResult is returned once the attempt budget is exhausted without an acceptable reply.
	ErrNoResult = errors.New("generation produced no usable result")
	// ErrMalformedOutput marks a reply that could not be parsed or validated.
	ErrMalformedOutput = errors.New("malformed model output")
)

// Template names resolved through the TemplateStore.
const (
	TemplateDescribeWord           = "describe_word"
	TemplateDescribeWordExclusions = "describe_word_exclusions"
	TemplateCleanupJSON            = "cleanup_json"
	TemplateAddOtherMeanings       = "add_other_meanings"
	TemplateIsClose                = "is_close"
	TemplateHint                   = "hint"
	CategoryRiddle                 = "riddle"
)

// Generator is the text generation service: prompt in, free-form text out.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error)
}

// TemplateStore provides prompt text by name or at random from a named group.
type TemplateStore interface {
	Load(name string) (string, error)
	LoadRandom(category string) (string, error)
}

// Config tunes sampling and the retry budget.
type Config struct {
	MaxAttempts      int
	Temperature      float64
	JudgeTemperature float64
	MaxTokens        int
}

// DefaultConfig mirrors the production defaults.
func DefaultConfig() Config {
	return Config{MaxAttempts: 3, Temperature: 0.7, JudgeTemperature: 0.2, MaxTokens: 500}
}

// Pipeline is the resilient generation pipeline.
type Pipeline struct {
	gen       Generator
	templates TemplateStore
	validate  *validator.Validate
	cfg       Config
}

// New builds a pipeline. Zero values in cfg fall back to DefaultConfig.
func New(gen Generator, templates TemplateStore, cfg Config) *Pipeline {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = def.Temperature
	}
	if cfg.JudgeTemperature <= 0 {
		cfg.JudgeTemperature = def.JudgeTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	return &Pipeline{gen: gen, templates: templates, validate: validator.New(), cfg: cfg}
}

func (p *Pipeline) renderNamed(name string, data any) (string, error) {
	text, err := p.templates.Load(name)
	if err != nil {
		return "", fmt.Errorf("load template %s: %w", name, err)
	}
	return render(name, text, data)
}

func render(name, text string, data any) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.String(), nil
}

var languageNames = map[entity.Language]string{
	entity.LanguageEnglish:    "English",
	entity.LanguageItalian:    "Italian",
	entity.LanguageSpanish:    "Spanish",
	entity.LanguageFrench:     "French",
	entity.LanguageGerman:     "German",
	entity.LanguagePortuguese: "Portuguese",
	entity.LanguageJapanese:   "Japanese",
}

func languageName(lang entity.Language) string {
	if name, ok := languageNames[entity.Language(lang.Code())]; ok {
		return name
	}
	return strings.ToUpper(lang.Code())
}
