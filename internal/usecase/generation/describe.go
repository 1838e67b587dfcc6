package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/oghmai/internal/entity"
	"github.com/eslsoft/oghmai/internal/infrastructure/logging"
)

var (
	errExcludedWord  = errors.New("reply names an excluded word")
	errHeadwordDrift = errors.New("reply describes a different headword")
)

// DescribeWord asks the model which word matches definition. Words listed in
// exclusions are rejected and re-sampled so the learner can ask "another word".
func (p *Pipeline) DescribeWord(ctx context.Context, definition string, exclusions []string, lang entity.Language) (*entity.WordDescription, error) {
	definition = strings.TrimSpace(definition)
	if definition == "" {
		return nil, entity.ErrInvalidDefinition
	}
	excluded := lo.Uniq(lo.Filter(lo.Map(exclusions, func(w string, _ int) string {
		return entity.NormalizeWordToken(w)
	}), func(w string, _ int) bool { return w != "" }))

	data := map[string]any{
		"Definition": definition,
		"Language":   languageName(lang),
		"Code":       lang.Code(),
	}
	name := TemplateDescribeWord
	if len(excluded) > 0 {
		name = TemplateDescribeWordExclusions
		data["Exclusions"] = strings.Join(excluded, ", ")
	}
	prompt, err := p.renderNamed(name, data)
	if err != nil {
		return nil, err
	}

	return p.describe(ctx, prompt, lang, func(desc *entity.WordDescription) error {
		if lo.Contains(excluded, desc.Word) {
			return fmt.Errorf("%w: %s", errExcludedWord, desc.Word)
		}
		return nil
	})
}

// AddOtherMeanings asks the model to extend desc with senses it does not list yet.
// A reply for any other headword is discarded.
func (p *Pipeline) AddOtherMeanings(ctx context.Context, desc entity.WordDescription) (*entity.WordDescription, error) {
	headword := entity.NormalizeWordToken(desc.Word)
	if headword == "" {
		return nil, entity.ErrInvalidWord
	}
	current, err := json.Marshal(desc)
	if err != nil {
		return nil, fmt.Errorf("marshal description: %w", err)
	}
	prompt, err := p.renderNamed(TemplateAddOtherMeanings, map[string]any{
		"Word":        headword,
		"Language":    languageName(desc.Language),
		"Code":        desc.Language.Code(),
		"Description": string(current),
	})
	if err != nil {
		return nil, err
	}

	log := logging.FromContext(ctx).WithField("word", headword)
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		enriched, err := p.describe(ctx, prompt, desc.Language, acceptAny)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.WithError(err).WithField("attempt", attempt).Warn("enrichment round failed")
			continue
		}
		if enriched.Word != headword {
			log.WithError(errHeadwordDrift).WithFields(logrus.Fields{
				"attempt": attempt,
				"got":     enriched.Word,
			}).Warn("discarding enrichment")
			continue
		}
		enriched.Language = desc.Language
		return enriched, nil
	}
	return nil, ErrNoResult
}

func acceptAny(*entity.WordDescription) error { return nil }

// describe runs the sample, repair and accept loop shared by the description calls.
func (p *Pipeline) describe(ctx context.Context, prompt string, lang entity.Language, accept func(*entity.WordDescription) error) (*entity.WordDescription, error) {
	log := logging.FromContext(ctx)
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		desc, err := p.sampleDescription(ctx, prompt, lang)
		if err == nil {
			err = accept(desc)
		}
		if err == nil {
			return desc, nil
		}
		log.WithError(err).WithField("attempt", attempt).Warn("description attempt rejected")
	}
	return nil, ErrNoResult
}

// sampleDescription makes one generation call and, if the reply cannot be
// parsed, a single repair call fed with the broken reply.
func (p *Pipeline) sampleDescription(ctx context.Context, prompt string, lang entity.Language) (*entity.WordDescription, error) {
	raw, err := p.gen.Generate(ctx, prompt, p.cfg.Temperature, p.cfg.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	desc, parseErr := parseDescription(raw, lang, p.validate)
	if parseErr == nil {
		return desc, nil
	}

	repair, err := p.renderNamed(TemplateCleanupJSON, map[string]any{
		"Reply": raw,
		"Error": parseErr.Error(),
	})
	if err != nil {
		return nil, err
	}
	cleaned, err := p.gen.Generate(ctx, repair, p.cfg.JudgeTemperature, p.cfg.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("cleanup: %w", err)
	}
	desc, err = parseDescription(cleaned, lang, p.validate)
	if err != nil {
		return nil, fmt.Errorf("after cleanup: %w", err)
	}
	return desc, nil
}
