package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/eslsoft/oghmai/internal/entity"
	"github.com/eslsoft/oghmai/internal/repository"
)

// ReviewScheduler decides which stored words are due for a test.
type ReviewScheduler interface {
	TestableWords(ctx context.Context, userID string, lang entity.Language) ([]entity.Word, error)
	// PickNext chooses uniformly among the testable words. Overdue words get no extra weight.
	PickNext(ctx context.Context, userID string, lang entity.Language) (*entity.Word, error)
	Statistics(ctx context.Context, userID string, lang entity.Language) (*entity.TestStatistics, error)
}

// NewReviewScheduler wires the scheduler with the configured intervals.
func NewReviewScheduler(words repository.WordRepository, intervals entity.ReviewIntervals) ReviewScheduler {
	return &reviewScheduler{
		words:     words,
		intervals: intervals,
		clock:     time.Now,
		sample:    lo.Sample[entity.Word],
	}
}

type reviewScheduler struct {
	words     repository.WordRepository
	intervals entity.ReviewIntervals
	clock     func() time.Time
	sample    func([]entity.Word) entity.Word
}

func (s *reviewScheduler) TestableWords(ctx context.Context, userID string, lang entity.Language) ([]entity.Word, error) {
	if userID == "" {
		return nil, entity.ErrInvalidUserID
	}
	now := s.clock()
	words, err := s.words.ListTestable(ctx, userID, lang, s.intervals, now)
	if err != nil {
		return nil, fmt.Errorf("list testable words: %w", err)
	}
	// Repositories may prefilter coarsely; the interval rule is applied here as the source of truth.
	return lo.Filter(words, func(w entity.Word, _ int) bool {
		return s.intervals.IsTestable(w, now)
	}), nil
}

func (s *reviewScheduler) PickNext(ctx context.Context, userID string, lang entity.Language) (*entity.Word, error) {
	words, err := s.TestableWords(ctx, userID, lang)
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, entity.ErrNoTestableWords
	}
	picked := s.sample(words)
	return &picked, nil
}

func (s *reviewScheduler) Statistics(ctx context.Context, userID string, lang entity.Language) (*entity.TestStatistics, error) {
	words, err := s.TestableWords(ctx, userID, lang)
	if err != nil {
		return nil, err
	}
	stats := &entity.TestStatistics{Available: make(map[entity.Status]int)}
	for _, status := range entity.PersistedStatuses() {
		stats.Available[status] = 0
	}
	for _, w := range words {
		stats.Available[w.Status]++
	}
	return stats, nil
}
