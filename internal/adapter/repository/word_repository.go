package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"github.com/eslsoft/oghmai/internal/entity"
	"github.com/eslsoft/oghmai/internal/infrastructure/database/types"
	"github.com/eslsoft/oghmai/internal/repository"
	"github.com/eslsoft/oghmai/pkg/filterexpr"
)

type wordRow struct {
	UserID       string            `db:"user_id"`
	Language     string            `db:"language"`
	Word         string            `db:"word"`
	Meanings     types.Meanings    `db:"meanings"`
	MeaningCount int               `db:"meaning_count"`
	CreatedAt    time.Time         `db:"created_at"`
	Status       string            `db:"status"`
	LastTestedAt sql.NullTime      `db:"last_tested_at"`
	TestResults  types.TestResults `db:"test_results"`
	Version      int64             `db:"version"`
}

type recycledRow struct {
	wordRow
	DeletedAt   time.Time `db:"deleted_at"`
	RetainUntil time.Time `db:"retain_until"`
}

const selectWordColumns = `user_id, language, word, meanings, meaning_count, created_at, status, last_tested_at, test_results, version`

const insertWordValues = `(user_id, language, word, meanings, meaning_count, created_at, status, last_tested_at, test_results, version)
VALUES (:user_id, :language, :word, :meanings, :meaning_count, :created_at, :status, :last_tested_at, :test_results, :version)`

var orderColumns = map[string]string{
	"word":           "word",
	"language":       "language",
	"created_at":     "created_at",
	"last_tested_at": "last_tested_at",
	"status":         "CASE status WHEN 'NEW' THEN 1 WHEN 'LEARNED' THEN 2 WHEN 'KNOWN' THEN 3 WHEN 'MASTERED' THEN 4 ELSE 0 END",
}

// WordRepository is the sqlx-backed store for words and the recycle bin.
type WordRepository struct {
	db *sqlx.DB
}

// NewWordRepository constructs a repository over an open database.
func NewWordRepository(db *sqlx.DB) repository.WordRepository {
	return &WordRepository{db: db}
}

func (r *WordRepository) Get(ctx context.Context, userID string, lang entity.Language, word string) (*entity.Word, error) {
	var row wordRow
	query := r.db.Rebind(`SELECT ` + selectWordColumns + ` FROM words WHERE user_id = ? AND language = ? AND word = ?`)
	if err := r.db.GetContext(ctx, &row, query, userID, lang.Code(), entity.NormalizeWordToken(word)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrWordNotFound
		}
		return nil, fmt.Errorf("get word: %w", err)
	}
	return mapWordRow(row), nil
}

func (r *WordRepository) Save(ctx context.Context, word *entity.Word, allowOverwrite bool) (*entity.Word, error) {
	row := toWordRow(word)
	row.Version = 1

	conflict := ` ON CONFLICT (user_id, language, word) DO NOTHING`
	if allowOverwrite {
		// progress survives an overwrite, only the senses are replaced
		conflict = ` ON CONFLICT (user_id, language, word) DO UPDATE SET
			meanings = excluded.meanings,
			meaning_count = excluded.meaning_count,
			version = words.version + 1`
	}
	res, err := r.db.NamedExecContext(ctx, `INSERT INTO words `+insertWordValues+conflict, row)
	if err != nil {
		return nil, fmt.Errorf("save word: %w", translateError(err, entity.ErrWordNotFound))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, entity.ErrDuplicateWord
	}
	return r.Get(ctx, row.UserID, entity.Language(row.Language), row.Word)
}

func (r *WordRepository) Update(ctx context.Context, word *entity.Word) (*entity.Word, error) {
	row := toWordRow(word)
	res, err := r.db.NamedExecContext(ctx, `UPDATE words SET
		meanings = :meanings,
		meaning_count = :meaning_count,
		status = :status,
		last_tested_at = :last_tested_at,
		test_results = :test_results,
		version = version + 1
		WHERE user_id = :user_id AND language = :language AND word = :word AND version = :version`, row)
	if err != nil {
		return nil, fmt.Errorf("update word: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update word: %w", err)
	}
	if n == 0 {
		if _, getErr := r.Get(ctx, row.UserID, entity.Language(row.Language), row.Word); getErr != nil {
			return nil, getErr
		}
		return nil, entity.ErrStaleWord
	}
	return r.Get(ctx, row.UserID, entity.Language(row.Language), row.Word)
}

func (r *WordRepository) List(ctx context.Context, q *repository.ListWordQuery) ([]entity.Word, error) {
	where := []string{"user_id = ?"}
	args := []any{q.UserID}
	if code := q.Language.Code(); code != "" {
		where = append(where, "language = ?")
		args = append(args, code)
	}
	if len(q.Where.Statuses) > 0 {
		clause, inArgs, err := sqlx.In("status IN (?)", lo.Map(q.Where.Statuses, func(s entity.Status, _ int) string {
			return string(s)
		}))
		if err != nil {
			return nil, fmt.Errorf("bind statuses: %w", err)
		}
		where = append(where, clause)
		args = append(args, inArgs...)
	}
	if q.Where.Prefix != "" {
		where = append(where, `word LIKE ? ESCAPE '\'`)
		args = append(args, escapeLike(q.Where.Prefix)+"%")
	}
	if q.Where.CreatedAfter != nil {
		where = append(where, "created_at >= ?")
		args = append(args, q.Where.CreatedAfter.UTC())
	}
	if q.Where.CreatedBefore != nil {
		where = append(where, "created_at <= ?")
		args = append(args, q.Where.CreatedBefore.UTC())
	}
	if q.Where.MaxMeanings > 0 {
		where = append(where, "meaning_count <= ?")
		args = append(args, q.Where.MaxMeanings)
	}

	query := `SELECT ` + selectWordColumns + ` FROM words WHERE ` + strings.Join(where, " AND ") + orderClause(q.Order)
	if q.PageSize > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, q.PageSize, q.Offset())
	}

	var rows []wordRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list words: %w", err)
	}
	return lo.Map(rows, func(row wordRow, _ int) entity.Word { return *mapWordRow(row) }), nil
}

// orderClause renders whitelisted order terms, always ending on the key columns.
func orderClause(terms []filterexpr.OrderTerm) string {
	parts := make([]string, 0, len(terms)+2)
	for _, t := range terms {
		col, ok := orderColumns[t.Key]
		if !ok {
			continue
		}
		dir := " ASC"
		if t.Desc {
			dir = " DESC"
		}
		parts = append(parts, col+dir)
	}
	parts = append(parts, "language ASC", "word ASC")
	return " ORDER BY " + strings.Join(parts, ", ")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// ListTestable selects due words per configured level in SQL.
func (r *WordRepository) ListTestable(ctx context.Context, userID string, lang entity.Language, intervals entity.ReviewIntervals, now time.Time) ([]entity.Word, error) {
	statuses := intervals.Statuses()
	if len(statuses) == 0 {
		return nil, nil
	}
	var (
		due  []string
		args = []any{userID, lang.Code()}
	)
	for _, status := range statuses {
		interval, _ := intervals.Interval(status)
		due = append(due, "(status = ? AND (last_tested_at IS NULL OR last_tested_at <= ?))")
		args = append(args, string(status), now.Add(-interval).UTC())
	}
	query := `SELECT ` + selectWordColumns + ` FROM words WHERE user_id = ? AND language = ? AND (` +
		strings.Join(due, " OR ") + `)`

	var rows []wordRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list testable words: %w", err)
	}
	return lo.Map(rows, func(row wordRow, _ int) entity.Word { return *mapWordRow(row) }), nil
}

func (r *WordRepository) Delete(ctx context.Context, userID string, lang entity.Language, word string, retainUntil time.Time) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		var row wordRow
		query := tx.Rebind(`SELECT ` + selectWordColumns + ` FROM words WHERE user_id = ? AND language = ? AND word = ?`)
		if err := tx.GetContext(ctx, &row, query, userID, lang.Code(), entity.NormalizeWordToken(word)); err != nil {
			return translateError(err, entity.ErrWordNotFound)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM recycled_words WHERE user_id = ? AND language = ? AND word = ?`),
			row.UserID, row.Language, row.Word); err != nil {
			return fmt.Errorf("clear recycle slot: %w", err)
		}
		rec := recycledRow{wordRow: row, DeletedAt: time.Now().UTC(), RetainUntil: retainUntil.UTC()}
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO recycled_words (user_id, language, word, meanings, meaning_count,
			created_at, status, last_tested_at, test_results, version, deleted_at, retain_until)
			VALUES (:user_id, :language, :word, :meanings, :meaning_count, :created_at, :status, :last_tested_at,
			:test_results, :version, :deleted_at, :retain_until)`, rec); err != nil {
			return fmt.Errorf("recycle word: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM words WHERE user_id = ? AND language = ? AND word = ?`),
			row.UserID, row.Language, row.Word); err != nil {
			return fmt.Errorf("delete word: %w", err)
		}
		return nil
	})
}

func (r *WordRepository) Undelete(ctx context.Context, userID string, lang entity.Language, word string, now time.Time) (*entity.Word, error) {
	var restored wordRow
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		var rec recycledRow
		query := tx.Rebind(`SELECT ` + selectWordColumns + `, deleted_at, retain_until FROM recycled_words
			WHERE user_id = ? AND language = ? AND word = ? AND retain_until > ?`)
		if err := tx.GetContext(ctx, &rec, query, userID, lang.Code(), entity.NormalizeWordToken(word), now.UTC()); err != nil {
			return translateError(err, entity.ErrWordNotFound)
		}
		res, err := tx.NamedExecContext(ctx, `INSERT INTO words `+insertWordValues+
			` ON CONFLICT (user_id, language, word) DO NOTHING`, rec.wordRow)
		if err != nil {
			return fmt.Errorf("restore word: %w", translateError(err, entity.ErrWordNotFound))
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return entity.ErrDuplicateWord
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM recycled_words WHERE user_id = ? AND language = ? AND word = ?`),
			rec.UserID, rec.Language, rec.Word); err != nil {
			return fmt.Errorf("clear recycle slot: %w", err)
		}
		restored = rec.wordRow
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mapWordRow(restored), nil
}

func (r *WordRepository) PurgeRecycled(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM recycled_words WHERE retain_until <= ?`), now.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge recycled words: %w", err)
	}
	return res.RowsAffected()
}

func (r *WordRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func toWordRow(w *entity.Word) wordRow {
	row := wordRow{
		UserID:       w.UserID,
		Language:     w.Language.Code(),
		Word:         entity.NormalizeWordToken(w.Word),
		Meanings:     types.Meanings(w.Meanings),
		MeaningCount: len(w.Meanings),
		CreatedAt:    w.CreatedAt.UTC(),
		Status:       string(w.Status),
		TestResults:  types.TestResults(w.TestResults),
		Version:      w.Version,
	}
	if w.LastTestedAt != nil {
		row.LastTestedAt = sql.NullTime{Time: w.LastTestedAt.UTC(), Valid: true}
	}
	return row
}

func mapWordRow(row wordRow) *entity.Word {
	w := &entity.Word{
		UserID:      row.UserID,
		Word:        row.Word,
		Language:    entity.Language(row.Language),
		Meanings:    []entity.Meaning(row.Meanings),
		CreatedAt:   row.CreatedAt.UTC(),
		Status:      entity.Status(row.Status),
		TestResults: []bool(row.TestResults),
		Version:     row.Version,
	}
	if row.LastTestedAt.Valid {
		t := row.LastTestedAt.Time.UTC()
		w.LastTestedAt = &t
	}
	if w.Meanings == nil {
		w.Meanings = []entity.Meaning{}
	}
	if w.TestResults == nil {
		w.TestResults = []bool{}
	}
	return w
}
