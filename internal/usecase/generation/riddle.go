package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/eslsoft/oghmai/internal/entity"
	"github.com/eslsoft/oghmai/internal/infrastructure/logging"
)

var errRevealsAnswer = errors.New("reply reveals the answer")

// CreateRiddle writes a short riddle whose answer is word. A random prompt
// variant is drawn for every attempt.
func (p *Pipeline) CreateRiddle(ctx context.Context, word string, lang entity.Language) (string, error) {
	data := map[string]any{
		"Word":     word,
		"Language": languageName(lang),
		"Code":     lang.Code(),
	}
	log := logging.FromContext(ctx).WithField("word", word)
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := p.templates.LoadRandom(CategoryRiddle)
		if err != nil {
			return "", fmt.Errorf("load riddle template: %w", err)
		}
		prompt, err := render(CategoryRiddle, text, data)
		if err != nil {
			return "", err
		}
		riddle, err := p.sampleText(ctx, prompt, p.cfg.Temperature, word)
		if err == nil {
			return riddle, nil
		}
		log.WithError(err).WithField("attempt", attempt).Warn("riddle attempt rejected")
	}
	return "", ErrNoResult
}

// IsGuessClose asks the model whether guess is near enough to word to deserve a hint.
// Any failure is returned to the caller, which decides how to degrade.
func (p *Pipeline) IsGuessClose(ctx context.Context, riddle, word, guess string, lang entity.Language) (bool, error) {
	prompt, err := p.renderNamed(TemplateIsClose, map[string]any{
		"Riddle":   riddle,
		"Word":     word,
		"Guess":    guess,
		"Language": languageName(lang),
	})
	if err != nil {
		return false, err
	}
	raw, err := p.gen.Generate(ctx, prompt, p.cfg.JudgeTemperature, p.cfg.MaxTokens)
	if err != nil {
		return false, fmt.Errorf("generate: %w", err)
	}
	return parseCloseness(raw, p.validate)
}

// GenerateHint nudges the learner from guess towards word without naming it.
func (p *Pipeline) GenerateHint(ctx context.Context, riddle, word, guess string, lang entity.Language) (string, error) {
	prompt, err := p.renderNamed(TemplateHint, map[string]any{
		"Riddle":   riddle,
		"Word":     word,
		"Guess":    guess,
		"Language": languageName(lang),
	})
	if err != nil {
		return "", err
	}
	log := logging.FromContext(ctx).WithField("word", word)
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		hint, err := p.sampleText(ctx, prompt, p.cfg.Temperature, word)
		if err == nil {
			return hint, nil
		}
		log.WithError(err).WithField("attempt", attempt).Warn("hint attempt rejected")
	}
	return "", ErrNoResult
}

func (p *Pipeline) sampleText(ctx context.Context, prompt string, temperature float64, answer string) (string, error) {
	raw, err := p.gen.Generate(ctx, prompt, temperature, p.cfg.MaxTokens)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	text := cleanText(raw)
	if text == "" {
		return "", fmt.Errorf("%w: empty reply", ErrMalformedOutput)
	}
	if revealsWord(text, answer) {
		return "", errRevealsAnswer
	}
	return text, nil
}
