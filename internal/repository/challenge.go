package repository

import (
	"context"
	"time"

	"github.com/eslsoft/oghmai/internal/entity"
)

// ChallengeRepository stores open challenges. Implementations enforce ExpiresAt:
// an expired challenge behaves exactly like a missing one.
type ChallengeRepository interface {
	Store(ctx context.Context, challenge *entity.Challenge) error
	Load(ctx context.Context, userID, challengeID string) (*entity.Challenge, error)
	// IncrementTries bumps the counter and returns the new value.
	IncrementTries(ctx context.Context, userID, challengeID string) (int, error)
	// Delete removes the challenge; entity.ErrChallengeNotFound signals it was already consumed.
	Delete(ctx context.Context, userID, challengeID string) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
