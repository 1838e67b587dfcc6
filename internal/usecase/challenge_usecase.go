package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/oghmai/internal/entity"
	"github.com/eslsoft/oghmai/internal/infrastructure/logging"
	"github.com/eslsoft/oghmai/internal/repository"
)

// maxUpdateAttempts bounds reload-and-reapply cycles when a concurrent writer wins.
const maxUpdateAttempts = 3

// ChallengeGenerator is the part of the generation pipeline used while testing.
type ChallengeGenerator interface {
	CreateRiddle(ctx context.Context, word string, lang entity.Language) (string, error)
	IsGuessClose(ctx context.Context, riddle, word, guess string, lang entity.Language) (bool, error)
	GenerateHint(ctx context.Context, riddle, word, guess string, lang entity.Language) (string, error)
}

// ChallengeConfig holds the lifecycle limits.
type ChallengeConfig struct {
	TTL       time.Duration
	MaxMisses int
}

// ChallengeUsecase runs the riddle test lifecycle.
type ChallengeUsecase interface {
	NextChallenge(ctx context.Context, userID string, lang entity.Language) (*entity.TestChallenge, error)
	CreateChallenge(ctx context.Context, userID string, lang entity.Language, word string) (*entity.TestChallenge, error)
	ValidateGuess(ctx context.Context, userID, challengeID, guess string) (*entity.TestResult, error)
	Statistics(ctx context.Context, userID string, lang entity.Language) (*entity.TestStatistics, error)
}

type challengeUsecase struct {
	words      repository.WordRepository
	challenges repository.ChallengeRepository
	scheduler  ReviewScheduler
	gen        ChallengeGenerator
	ttl        time.Duration
	maxMisses  int
	clock      func() time.Time
	newID      func() string
}

// NewChallengeUsecase wires the lifecycle. Non-positive limits fall back to one hour and two misses.
func NewChallengeUsecase(
	words repository.WordRepository,
	challenges repository.ChallengeRepository,
	scheduler ReviewScheduler,
	gen ChallengeGenerator,
	cfg ChallengeConfig,
) ChallengeUsecase {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.MaxMisses < 0 {
		cfg.MaxMisses = 2
	}
	return &challengeUsecase{
		words:      words,
		challenges: challenges,
		scheduler:  scheduler,
		gen:        gen,
		ttl:        cfg.TTL,
		maxMisses:  cfg.MaxMisses,
		clock:      time.Now,
		newID:      uuid.NewString,
	}
}

func (u *challengeUsecase) NextChallenge(ctx context.Context, userID string, lang entity.Language) (*entity.TestChallenge, error) {
	word, err := u.scheduler.PickNext(ctx, userID, lang)
	if err != nil {
		return nil, err
	}
	return u.issue(ctx, word)
}

func (u *challengeUsecase) CreateChallenge(ctx context.Context, userID string, lang entity.Language, word string) (*entity.TestChallenge, error) {
	if userID == "" {
		return nil, entity.ErrInvalidUserID
	}
	stored, err := u.words.Get(ctx, userID, lang, word)
	if err != nil {
		return nil, err
	}
	return u.issue(ctx, stored)
}

func (u *challengeUsecase) issue(ctx context.Context, word *entity.Word) (*entity.TestChallenge, error) {
	riddle, err := u.gen.CreateRiddle(ctx, word.Word, word.Language)
	if err != nil {
		return nil, fmt.Errorf("create riddle: %w", err)
	}
	now := u.clock()
	challenge := &entity.Challenge{
		ID:          u.newID(),
		UserID:      word.UserID,
		Description: riddle,
		Word:        word.Word,
		Language:    word.Language,
		CreatedAt:   now,
		ExpiresAt:   now.Add(u.ttl),
	}
	if err := u.challenges.Store(ctx, challenge); err != nil {
		return nil, fmt.Errorf("store challenge: %w", err)
	}
	logging.FromContext(ctx).WithFields(logrus.Fields{
		"challenge_id": challenge.ID,
		"word":         challenge.Word,
	}).Info("challenge issued")
	return &entity.TestChallenge{ID: challenge.ID, Description: challenge.Description}, nil
}

func (u *challengeUsecase) ValidateGuess(ctx context.Context, userID, challengeID, guess string) (*entity.TestResult, error) {
	if userID == "" {
		return nil, entity.ErrInvalidUserID
	}
	guess = entity.NormalizeWordToken(guess)
	if guess == "" {
		return nil, entity.ErrInvalidGuess
	}
	challenge, err := u.challenges.Load(ctx, userID, challengeID)
	if err != nil {
		return nil, err
	}
	ctx = logging.WithFields(ctx, logrus.Fields{"challenge_id": challenge.ID, "word": challenge.Word})

	if guess == entity.NormalizeWordToken(challenge.Word) {
		return u.conclude(ctx, challenge, true)
	}
	if challenge.Tries < u.maxMisses && u.isClose(ctx, challenge, guess) {
		tries, err := u.challenges.IncrementTries(ctx, userID, challengeID)
		if err != nil {
			return nil, fmt.Errorf("count partial guess: %w", err)
		}
		// A concurrent partial may have used up the last retry.
		if tries > u.maxMisses {
			return u.conclude(ctx, challenge, false)
		}
		hint, err := u.gen.GenerateHint(ctx, challenge.Description, challenge.Word, guess, challenge.Language)
		if err != nil {
			logging.FromContext(ctx).WithError(err).Warn("hint unavailable")
			hint = ""
		}
		return &entity.TestResult{Result: entity.VerdictPartial, Hint: hint}, nil
	}
	return u.conclude(ctx, challenge, false)
}

// isClose fails closed: an unreadable or failed oracle answer counts as not close.
func (u *challengeUsecase) isClose(ctx context.Context, challenge *entity.Challenge, guess string) bool {
	closeEnough, err := u.gen.IsGuessClose(ctx, challenge.Description, challenge.Word, guess, challenge.Language)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Warn("closeness oracle failed")
		return false
	}
	return closeEnough
}

// conclude claims the challenge first so that only one terminal guess is scored.
func (u *challengeUsecase) conclude(ctx context.Context, challenge *entity.Challenge, passed bool) (*entity.TestResult, error) {
	if err := u.challenges.Delete(ctx, challenge.UserID, challenge.ID); err != nil {
		return nil, fmt.Errorf("consume challenge: %w", err)
	}
	tr, err := u.recordResult(ctx, challenge, passed)
	if err != nil {
		return nil, err
	}

	verdict := entity.VerdictIncorrect
	if passed {
		verdict = entity.VerdictCorrect
	}
	logging.FromContext(ctx).WithFields(logrus.Fields{
		"result":     verdict,
		"old_status": tr.OldStatus,
		"new_status": tr.NewStatus,
	}).Info("challenge concluded")

	oldStatus, newStatus := tr.OldStatus, tr.NewStatus
	return &entity.TestResult{
		Result:    verdict,
		Word:      challenge.Word,
		OldStatus: &oldStatus,
		NewStatus: &newStatus,
	}, nil
}

func (u *challengeUsecase) recordResult(ctx context.Context, challenge *entity.Challenge, passed bool) (Transition, error) {
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		word, err := u.words.Get(ctx, challenge.UserID, challenge.Language, challenge.Word)
		if err != nil {
			return Transition{}, fmt.Errorf("load word: %w", err)
		}
		tr := ApplyResult(*word, passed, u.clock())
		if _, err := u.words.Update(ctx, &tr.Word); err != nil {
			if errors.Is(err, entity.ErrStaleWord) {
				logging.FromContext(ctx).WithField("attempt", attempt).Warn("word changed concurrently, reapplying result")
				continue
			}
			return Transition{}, fmt.Errorf("update word: %w", err)
		}
		return tr, nil
	}
	return Transition{}, fmt.Errorf("record result: %w", entity.ErrStaleWord)
}

func (u *challengeUsecase) Statistics(ctx context.Context, userID string, lang entity.Language) (*entity.TestStatistics, error) {
	return u.scheduler.Statistics(ctx, userID, lang)
}
