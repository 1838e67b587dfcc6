package repository

import (
	"context"
	"time"

	"github.com/eslsoft/oghmai/internal/entity"
	"github.com/eslsoft/oghmai/pkg/filterexpr"
)

// WordFilter is the storage-level filter produced from a list query.
type WordFilter struct {
	Statuses      []entity.Status
	Prefix        string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	MaxMeanings   int
}

// ListWordQuery holds parameters for listing a user's words.
type ListWordQuery struct {
	Pagination
	FilterOrder

	UserID   string
	Language entity.Language
	Where    WordFilter
	Order    []filterexpr.OrderTerm
}

// WordRepository abstracts persistence for words and the recycle bin.
type WordRepository interface {
	Get(ctx context.Context, userID string, lang entity.Language, word string) (*entity.Word, error)
	// Save creates the word, or replaces it when allowOverwrite is set.
	// Without overwrite an existing key yields entity.ErrDuplicateWord.
	Save(ctx context.Context, word *entity.Word, allowOverwrite bool) (*entity.Word, error)
	// Update writes meanings and progress when word.Version still matches the stored row,
	// otherwise it fails with entity.ErrStaleWord.
	Update(ctx context.Context, word *entity.Word) (*entity.Word, error)
	List(ctx context.Context, query *ListWordQuery) ([]entity.Word, error)
	ListTestable(ctx context.Context, userID string, lang entity.Language, intervals entity.ReviewIntervals, now time.Time) ([]entity.Word, error)
	// Delete moves the word into the recycle bin until retainUntil.
	Delete(ctx context.Context, userID string, lang entity.Language, word string, retainUntil time.Time) error
	Undelete(ctx context.Context, userID string, lang entity.Language, word string, now time.Time) (*entity.Word, error)
	PurgeRecycled(ctx context.Context, now time.Time) (int64, error)
}
