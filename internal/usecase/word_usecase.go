package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/eslsoft/oghmai/internal/entity"
	"github.com/eslsoft/oghmai/internal/infrastructure/logging"
	"github.com/eslsoft/oghmai/internal/repository"
	"github.com/eslsoft/oghmai/pkg/filterexpr"
)

// WordDescriber is the part of the generation pipeline that produces word descriptions.
type WordDescriber interface {
	DescribeWord(ctx context.Context, definition string, exclusions []string, lang entity.Language) (*entity.WordDescription, error)
	AddOtherMeanings(ctx context.Context, desc entity.WordDescription) (*entity.WordDescription, error)
}

// DescribeRequest asks which word matches a definition.
type DescribeRequest struct {
	Definition string
	Exclusions []string
	Language   entity.Language
}

// ListWordsInput carries the raw filter and order clauses of a list call.
type ListWordsInput struct {
	repository.Pagination
	repository.FilterOrder

	Language entity.Language
}

// WordUsecase defines business logic for a learner's vocabulary.
type WordUsecase interface {
	DescribeWord(ctx context.Context, userID string, req DescribeRequest) (*entity.Word, error)
	SaveWord(ctx context.Context, userID string, desc entity.WordDescription, allowOverwrite bool) (*entity.Word, error)
	GetWord(ctx context.Context, userID string, lang entity.Language, word string) (*entity.Word, error)
	ListWords(ctx context.Context, userID string, in ListWordsInput) ([]entity.Word, error)
	DeleteWord(ctx context.Context, userID string, lang entity.Language, word string) error
	RestoreWord(ctx context.Context, userID string, lang entity.Language, word string) (*entity.Word, error)
	AddOtherMeanings(ctx context.Context, userID string, lang entity.Language, word string) (*entity.Word, error)
}

const (
	_defaultLimit = int32(20)
	_maxLimit     = int32(10000)
)

var wordOrderKeys = []string{"word", "created_at", "last_tested_at", "status"}

type wordUsecase struct {
	repo        repository.WordRepository
	describer   WordDescriber
	defaultLang entity.Language
	retention   time.Duration
	clock       func() time.Time
}

// NewWordUsecase wires the vocabulary usecase. retention is how long deleted words stay restorable.
func NewWordUsecase(repo repository.WordRepository, describer WordDescriber, defaultLang entity.Language, retention time.Duration) WordUsecase {
	if defaultLang == entity.LanguageUnspecified {
		defaultLang = entity.LanguageItalian
	}
	return &wordUsecase{
		repo:        repo,
		describer:   describer,
		defaultLang: defaultLang,
		retention:   retention,
		clock:       time.Now,
	}
}

func (u *wordUsecase) language(lang entity.Language) entity.Language {
	return entity.Language(lang.CodeOrDefault(u.defaultLang))
}

func (u *wordUsecase) DescribeWord(ctx context.Context, userID string, req DescribeRequest) (*entity.Word, error) {
	if userID == "" {
		return nil, entity.ErrInvalidUserID
	}
	lang := u.language(req.Language)
	desc, err := u.describer.DescribeWord(ctx, req.Definition, req.Exclusions, lang)
	if err != nil {
		return nil, err
	}

	word := entity.NewWordFromDescription(userID, *desc)
	stored, err := u.repo.Get(ctx, userID, word.Language, word.Word)
	switch {
	case err == nil:
		word.Status = stored.Status
	case errors.Is(err, entity.ErrWordNotFound):
	default:
		return nil, fmt.Errorf("lookup stored word: %w", err)
	}
	return &word, nil
}

func (u *wordUsecase) SaveWord(ctx context.Context, userID string, desc entity.WordDescription, allowOverwrite bool) (*entity.Word, error) {
	if userID == "" {
		return nil, entity.ErrInvalidUserID
	}
	if entity.NormalizeWordToken(desc.Word) == "" {
		return nil, entity.ErrInvalidWord
	}
	if _, err := entity.ParseLanguage(string(desc.Language)); err != nil {
		return nil, err
	}
	desc.Language = u.language(desc.Language)
	desc.Meanings = normalizeMeanings(desc.Meanings)
	if len(desc.Meanings) == 0 {
		return nil, fmt.Errorf("%w: at least one meaning is required", entity.ErrInvalidDefinition)
	}

	word := entity.NewWordFromDescription(userID, desc)
	word.Normalize(u.clock())
	saved, err := u.repo.Save(ctx, &word, allowOverwrite)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).WithField("word", saved.Word).Info("word saved")
	return saved, nil
}

func (u *wordUsecase) GetWord(ctx context.Context, userID string, lang entity.Language, word string) (*entity.Word, error) {
	if userID == "" {
		return nil, entity.ErrInvalidUserID
	}
	word = entity.NormalizeWordToken(word)
	if word == "" {
		return nil, entity.ErrInvalidWord
	}
	return u.repo.Get(ctx, userID, u.language(lang), word)
}

func (u *wordUsecase) ListWords(ctx context.Context, userID string, in ListWordsInput) ([]entity.Word, error) {
	if userID == "" {
		return nil, entity.ErrInvalidUserID
	}
	query := &repository.ListWordQuery{
		Pagination:  in.Pagination,
		FilterOrder: in.FilterOrder,
		UserID:      userID,
		Language:    entity.Language(in.Language.Code()),
	}
	if query.PageSize <= 0 {
		query.PageSize = _defaultLimit
	}
	if query.PageSize > _maxLimit {
		query.PageSize = _maxLimit
	}
	if err := filterexpr.Apply(in.GetFilter(), wordFilterSchema(&query.Where)); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrInvalidFilter, err)
	}
	order, err := filterexpr.ParseOrder(in.GetOrderBy(), wordOrderKeys, []filterexpr.OrderTerm{{Key: "created_at", Desc: true}})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrInvalidFilter, err)
	}
	query.Order = order
	return u.repo.List(ctx, query)
}

// wordFilterSchema binds the list filter language onto a repository filter.
func wordFilterSchema(where *repository.WordFilter) filterexpr.Schema {
	return filterexpr.Schema{
		"status": {
			Kind: filterexpr.KindString,
			Ops:  []filterexpr.Op{filterexpr.OpEQ, filterexpr.OpIN},
			Apply: func(op filterexpr.Op, v any) error {
				var raw []string
				if op == filterexpr.OpIN {
					raw = v.([]string)
				} else {
					raw = []string{v.(string)}
				}
				for _, s := range raw {
					status, err := entity.ParseStatus(s)
					if err != nil {
						return err
					}
					where.Statuses = append(where.Statuses, status)
				}
				return nil
			},
		},
		"word": {
			Kind: filterexpr.KindString,
			Ops:  []filterexpr.Op{filterexpr.OpSW},
			Apply: func(_ filterexpr.Op, v any) error {
				where.Prefix = entity.NormalizeWordToken(v.(string))
				return nil
			},
		},
		"created_at": {
			Kind: filterexpr.KindTimestamp,
			Ops:  []filterexpr.Op{filterexpr.OpGTE, filterexpr.OpLTE},
			Apply: func(op filterexpr.Op, v any) error {
				ts := v.(time.Time)
				if op == filterexpr.OpGTE {
					where.CreatedAfter = &ts
				} else {
					where.CreatedBefore = &ts
				}
				return nil
			},
		},
		"meanings": {
			Kind: filterexpr.KindNumber,
			Ops:  []filterexpr.Op{filterexpr.OpLTE},
			Apply: func(_ filterexpr.Op, v any) error {
				n := int(v.(float64))
				if n < 1 {
					return errors.New("meanings bound must be at least 1")
				}
				where.MaxMeanings = n
				return nil
			},
		},
	}
}

func (u *wordUsecase) DeleteWord(ctx context.Context, userID string, lang entity.Language, word string) error {
	if userID == "" {
		return entity.ErrInvalidUserID
	}
	word = entity.NormalizeWordToken(word)
	if word == "" {
		return entity.ErrInvalidWord
	}
	return u.repo.Delete(ctx, userID, u.language(lang), word, u.clock().Add(u.retention))
}

func (u *wordUsecase) RestoreWord(ctx context.Context, userID string, lang entity.Language, word string) (*entity.Word, error) {
	if userID == "" {
		return nil, entity.ErrInvalidUserID
	}
	word = entity.NormalizeWordToken(word)
	if word == "" {
		return nil, entity.ErrInvalidWord
	}
	return u.repo.Undelete(ctx, userID, u.language(lang), word, u.clock())
}

// AddOtherMeanings enriches a stored word. Test progress made while the model
// was busy is kept: only the meanings are replaced.
func (u *wordUsecase) AddOtherMeanings(ctx context.Context, userID string, lang entity.Language, word string) (*entity.Word, error) {
	current, err := u.GetWord(ctx, userID, lang, word)
	if err != nil {
		return nil, err
	}
	enriched, err := u.describer.AddOtherMeanings(ctx, current.Description())
	if err != nil {
		return nil, err
	}
	meanings := normalizeMeanings(enriched.Meanings)
	if len(meanings) == 0 {
		return current, nil
	}

	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		next := current.Clone()
		next.Meanings = meanings
		updated, err := u.repo.Update(ctx, &next)
		if err == nil {
			logging.FromContext(ctx).WithField("word", updated.Word).
				WithField("meanings", len(updated.Meanings)).Info("word enriched")
			return updated, nil
		}
		if !errors.Is(err, entity.ErrStaleWord) {
			return nil, err
		}
		if current, err = u.repo.Get(ctx, userID, next.Language, next.Word); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("enrich word: %w", entity.ErrStaleWord)
}

// normalizeMeanings drops senses without text and de-duplicates examples.
func normalizeMeanings(in []entity.Meaning) []entity.Meaning {
	out := make([]entity.Meaning, 0, len(in))
	for _, m := range in {
		m.Translation = strings.TrimSpace(m.Translation)
		m.Definition = strings.TrimSpace(m.Definition)
		if m.Translation == "" && m.Definition == "" {
			continue
		}
		m.Examples = lo.Uniq(lo.Compact(lo.Map(m.Examples, func(e string, _ int) string {
			return strings.TrimSpace(e)
		})))
		m.Type = entity.NormalizeMeaningType(string(m.Type))
		out = append(out, m)
	}
	return out
}
