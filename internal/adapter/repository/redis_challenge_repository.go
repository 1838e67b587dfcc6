package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eslsoft/oghmai/internal/entity"
	"github.com/eslsoft/oghmai/internal/repository"
)

// incrementIfExists bumps tries only on a live key so an expired challenge is not resurrected.
var incrementIfExists = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return -1
end
return redis.call("HINCRBY", KEYS[1], "tries", 1)
`)

// RedisChallengeRepository keeps challenges as hashes that expire on their own.
type RedisChallengeRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisChallengeRepository(client *redis.Client, prefix string) repository.ChallengeRepository {
	return &RedisChallengeRepository{client: client, prefix: prefix}
}

func (r *RedisChallengeRepository) key(userID, challengeID string) string {
	return r.prefix + "challenge:" + userID + ":" + challengeID
}

func (r *RedisChallengeRepository) Store(ctx context.Context, c *entity.Challenge) error {
	key := r.key(c.UserID, c.ID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]any{
			"description": c.Description,
			"word":        c.Word,
			"language":    c.Language.Code(),
			"tries":       c.Tries,
			"created_at":  c.CreatedAt.UTC().Format(time.RFC3339Nano),
			"expires_at":  c.ExpiresAt.UTC().Format(time.RFC3339Nano),
		})
		pipe.PExpireAt(ctx, key, c.ExpiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store challenge: %w", err)
	}
	return nil
}

func (r *RedisChallengeRepository) Load(ctx context.Context, userID, challengeID string) (*entity.Challenge, error) {
	fields, err := r.client.HGetAll(ctx, r.key(userID, challengeID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load challenge: %w", err)
	}
	if len(fields) == 0 {
		return nil, entity.ErrChallengeNotFound
	}
	tries, err := strconv.Atoi(fields["tries"])
	if err != nil {
		return nil, fmt.Errorf("decode tries: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}
	expiresAt, err := time.Parse(time.RFC3339Nano, fields["expires_at"])
	if err != nil {
		return nil, fmt.Errorf("decode expires_at: %w", err)
	}
	return &entity.Challenge{
		ID:          challengeID,
		UserID:      userID,
		Description: fields["description"],
		Word:        fields["word"],
		Language:    entity.Language(fields["language"]),
		Tries:       tries,
		CreatedAt:   createdAt,
		ExpiresAt:   expiresAt,
	}, nil
}

func (r *RedisChallengeRepository) IncrementTries(ctx context.Context, userID, challengeID string) (int, error) {
	n, err := incrementIfExists.Run(ctx, r.client, []string{r.key(userID, challengeID)}).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, entity.ErrChallengeNotFound
		}
		return 0, fmt.Errorf("increment tries: %w", err)
	}
	if n < 0 {
		return 0, entity.ErrChallengeNotFound
	}
	return n, nil
}

func (r *RedisChallengeRepository) Delete(ctx context.Context, userID, challengeID string) error {
	n, err := r.client.Del(ctx, r.key(userID, challengeID)).Result()
	if err != nil {
		return fmt.Errorf("delete challenge: %w", err)
	}
	if n == 0 {
		return entity.ErrChallengeNotFound
	}
	return nil
}

// PurgeExpired is a no-op: redis drops keys at their deadline.
func (r *RedisChallengeRepository) PurgeExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}
