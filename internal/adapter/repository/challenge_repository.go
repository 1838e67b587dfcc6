package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eslsoft/oghmai/internal/entity"
	"github.com/eslsoft/oghmai/internal/repository"
)

type challengeRow struct {
	UserID      string    `db:"user_id"`
	ID          string    `db:"id"`
	Description string    `db:"description"`
	Word        string    `db:"word"`
	Language    string    `db:"language"`
	Tries       int       `db:"tries"`
	CreatedAt   time.Time `db:"created_at"`
	ExpiresAt   time.Time `db:"expires_at"`
}

// ChallengeRepository keeps open challenges in the SQL database.
type ChallengeRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewChallengeRepository(db *sqlx.DB) repository.ChallengeRepository {
	return &ChallengeRepository{db: db, now: time.Now}
}

func (r *ChallengeRepository) Store(ctx context.Context, c *entity.Challenge) error {
	row := challengeRow{
		UserID:      c.UserID,
		ID:          c.ID,
		Description: c.Description,
		Word:        c.Word,
		Language:    c.Language.Code(),
		Tries:       c.Tries,
		CreatedAt:   c.CreatedAt.UTC(),
		ExpiresAt:   c.ExpiresAt.UTC(),
	}
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO challenges
		(user_id, id, description, word, language, tries, created_at, expires_at)
		VALUES (:user_id, :id, :description, :word, :language, :tries, :created_at, :expires_at)`, row)
	if err != nil {
		return fmt.Errorf("store challenge: %w", err)
	}
	return nil
}

func (r *ChallengeRepository) Load(ctx context.Context, userID, challengeID string) (*entity.Challenge, error) {
	var row challengeRow
	query := r.db.Rebind(`SELECT user_id, id, description, word, language, tries, created_at, expires_at
		FROM challenges WHERE user_id = ? AND id = ? AND expires_at > ?`)
	if err := r.db.GetContext(ctx, &row, query, userID, challengeID, r.now().UTC()); err != nil {
		return nil, translateError(err, entity.ErrChallengeNotFound)
	}
	return &entity.Challenge{
		ID:          row.ID,
		UserID:      row.UserID,
		Description: row.Description,
		Word:        row.Word,
		Language:    entity.Language(row.Language),
		Tries:       row.Tries,
		CreatedAt:   row.CreatedAt.UTC(),
		ExpiresAt:   row.ExpiresAt.UTC(),
	}, nil
}

func (r *ChallengeRepository) IncrementTries(ctx context.Context, userID, challengeID string) (int, error) {
	var tries int
	query := r.db.Rebind(`UPDATE challenges SET tries = tries + 1
		WHERE user_id = ? AND id = ? AND expires_at > ? RETURNING tries`)
	if err := r.db.GetContext(ctx, &tries, query, userID, challengeID, r.now().UTC()); err != nil {
		return 0, translateError(err, entity.ErrChallengeNotFound)
	}
	return tries, nil
}

func (r *ChallengeRepository) Delete(ctx context.Context, userID, challengeID string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM challenges WHERE user_id = ? AND id = ? AND expires_at > ?`),
		userID, challengeID, r.now().UTC())
	if err != nil {
		return fmt.Errorf("delete challenge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete challenge: %w", err)
	}
	if n == 0 {
		return entity.ErrChallengeNotFound
	}
	return nil
}

func (r *ChallengeRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM challenges WHERE expires_at <= ?`), now.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge challenges: %w", err)
	}
	return res.RowsAffected()
}
