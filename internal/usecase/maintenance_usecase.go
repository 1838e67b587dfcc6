package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/oghmai/internal/infrastructure/logging"
	"github.com/eslsoft/oghmai/internal/repository"
)

// PurgeReport counts what a maintenance pass removed.
type PurgeReport struct {
	RecycledWords     int64
	ExpiredChallenges int64
}

// MaintenanceUsecase removes data whose retention has lapsed.
type MaintenanceUsecase interface {
	Purge(ctx context.Context) (*PurgeReport, error)
}

type maintenanceUsecase struct {
	words      repository.WordRepository
	challenges repository.ChallengeRepository
	clock      func() time.Time
}

func NewMaintenanceUsecase(words repository.WordRepository, challenges repository.ChallengeRepository) MaintenanceUsecase {
	return &maintenanceUsecase{words: words, challenges: challenges, clock: time.Now}
}

func (u *maintenanceUsecase) Purge(ctx context.Context) (*PurgeReport, error) {
	now := u.clock()
	words, err := u.words.PurgeRecycled(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("purge recycle bin: %w", err)
	}
	challenges, err := u.challenges.PurgeExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("purge expired challenges: %w", err)
	}
	report := &PurgeReport{RecycledWords: words, ExpiredChallenges: challenges}
	logging.FromContext(ctx).WithFields(logrus.Fields{
		"recycled_words":     report.RecycledWords,
		"expired_challenges": report.ExpiredChallenges,
	}).Info("purge finished")
	return report, nil
}
