package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eslsoft/oghmai/internal/entity"
	"github.com/eslsoft/oghmai/internal/infrastructure/database"
	"github.com/eslsoft/oghmai/internal/repository"
	"github.com/eslsoft/oghmai/pkg/filterexpr"
)

func requireSQLite(t *testing.T) {
	t.Helper()
	db, err := sql.Open("sqlite3", "file::memory:?cache=shared")
	if err != nil {
		t.Skipf("sqlite driver not available: %v", err)
		return
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		t.Skipf("skipping sqlite-dependent tests: %v", err)
	}
}

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	requireSQLite(t)
	dsn := "file:" + filepath.Join(t.TempDir(), "oghmai.db") + "?_fk=1"
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestWord(userID, word string, status entity.Status, created time.Time) *entity.Word {
	return &entity.Word{
		UserID:   userID,
		Word:     word,
		Language: entity.LanguageItalian,
		Meanings: []entity.Meaning{{
			Translation: word + " (en)",
			Definition:  "definition of " + word,
			Examples:    []string{"example with " + word},
			Type:        entity.MeaningNoun,
		}},
		CreatedAt:   created,
		Status:      status,
		TestResults: []bool{},
	}
}

func TestWordRepositorySaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewWordRepository(openTestDB(t))
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	saved, err := repo.Save(ctx, newTestWord("u1", "Cane", entity.StatusNew, created), false)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.Word != "cane" || saved.Version != 1 {
		t.Fatalf("unexpected saved word: %+v", saved)
	}
	if !saved.CreatedAt.Equal(created) {
		t.Fatalf("created_at = %v, want %v", saved.CreatedAt, created)
	}
	if len(saved.Meanings) != 1 || saved.Meanings[0].Type != entity.MeaningNoun {
		t.Fatalf("meanings not round-tripped: %+v", saved.Meanings)
	}

	if _, err := repo.Save(ctx, newTestWord("u1", "cane", entity.StatusNew, created), false); !errors.Is(err, entity.ErrDuplicateWord) {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	if _, err := repo.Get(ctx, "u2", entity.LanguageItalian, "cane"); !errors.Is(err, entity.ErrWordNotFound) {
		t.Fatalf("other user must not see the word, got %v", err)
	}
}

func TestWordRepositoryOverwriteKeepsProgress(t *testing.T) {
	ctx := context.Background()
	repo := NewWordRepository(openTestDB(t))
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	saved, err := repo.Save(ctx, newTestWord("u1", "gatto", entity.StatusNew, now), false)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	saved.Status = entity.StatusKnown
	saved.TestResults = []bool{true, true}
	saved.LastTestedAt = &now
	if _, err := repo.Update(ctx, saved); err != nil {
		t.Fatalf("update: %v", err)
	}

	replacement := newTestWord("u1", "gatto", entity.StatusNew, now)
	replacement.Meanings = append(replacement.Meanings, entity.Meaning{Translation: "tomcat", Type: entity.MeaningNoun, Examples: []string{}})
	got, err := repo.Save(ctx, replacement, true)
	if err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if len(got.Meanings) != 2 {
		t.Fatalf("meanings not replaced: %+v", got.Meanings)
	}
	if got.Status != entity.StatusKnown || len(got.TestResults) != 2 || got.LastTestedAt == nil {
		t.Fatalf("progress lost on overwrite: %+v", got)
	}
	if got.Version != 3 {
		t.Fatalf("version = %d, want 3", got.Version)
	}
}

func TestWordRepositoryUpdateDetectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewWordRepository(openTestDB(t))

	saved, err := repo.Save(ctx, newTestWord("u1", "casa", entity.StatusNew, time.Now()), false)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	first := saved.Clone()
	first.Status = entity.StatusLearned
	if _, err := repo.Update(ctx, &first); err != nil {
		t.Fatalf("first update: %v", err)
	}

	second := saved.Clone()
	second.Status = entity.StatusNew
	if _, err := repo.Update(ctx, &second); !errors.Is(err, entity.ErrStaleWord) {
		t.Fatalf("expected stale error, got %v", err)
	}

	missing := newTestWord("u1", "nessuno", entity.StatusNew, time.Now())
	missing.Version = 1
	if _, err := repo.Update(ctx, missing); !errors.Is(err, entity.ErrWordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestWordRepositoryListFiltersAndOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewWordRepository(openTestDB(t))
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	seed := []struct {
		word   string
		status entity.Status
		day    int
	}{
		{"albero", entity.StatusNew, 0},
		{"alba", entity.StatusMastered, 1},
		{"mare", entity.StatusLearned, 2},
		{"sole", entity.StatusKnown, 3},
	}
	for _, s := range seed {
		if _, err := repo.Save(ctx, newTestWord("u1", s.word, s.status, base.AddDate(0, 0, s.day)), false); err != nil {
			t.Fatalf("seed %s: %v", s.word, err)
		}
	}
	if _, err := repo.Save(ctx, newTestWord("u2", "alto", entity.StatusNew, base), false); err != nil {
		t.Fatalf("seed other user: %v", err)
	}

	after := base.AddDate(0, 0, 1)
	cases := []struct {
		name  string
		query repository.ListWordQuery
		want  []string
	}{
		{
			name:  "all by word",
			query: repository.ListWordQuery{UserID: "u1"},
			want:  []string{"alba", "albero", "mare", "sole"},
		},
		{
			name:  "prefix",
			query: repository.ListWordQuery{UserID: "u1", Where: repository.WordFilter{Prefix: "alb"}},
			want:  []string{"alba", "albero"},
		},
		{
			name: "statuses",
			query: repository.ListWordQuery{UserID: "u1", Where: repository.WordFilter{
				Statuses: []entity.Status{entity.StatusLearned, entity.StatusKnown},
			}},
			want: []string{"mare", "sole"},
		},
		{
			name:  "created after",
			query: repository.ListWordQuery{UserID: "u1", Where: repository.WordFilter{CreatedAfter: &after}},
			want:  []string{"alba", "mare", "sole"},
		},
		{
			name:  "status rank descending",
			query: repository.ListWordQuery{UserID: "u1", Order: []filterexpr.OrderTerm{{Key: "status", Desc: true}}},
			want:  []string{"alba", "sole", "mare", "albero"},
		},
		{
			name: "second page",
			query: repository.ListWordQuery{
				UserID:     "u1",
				Pagination: repository.Pagination{PageNo: 2, PageSize: 3},
			},
			want: []string{"sole"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := tc.query
			words, err := repo.List(ctx, &q)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			var got []string
			for _, w := range words {
				got = append(got, w.Word)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestWordRepositoryListTestable(t *testing.T) {
	ctx := context.Background()
	repo := NewWordRepository(openTestDB(t))
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	tested := func(word string, status entity.Status, ago time.Duration) {
		t.Helper()
		w, err := repo.Save(ctx, newTestWord("u1", word, status, now.AddDate(0, -1, 0)), false)
		if err != nil {
			t.Fatalf("save %s: %v", word, err)
		}
		if ago > 0 {
			at := now.Add(-ago)
			w.LastTestedAt = &at
			if _, err := repo.Update(ctx, w); err != nil {
				t.Fatalf("update %s: %v", word, err)
			}
		}
	}
	tested("fresh", entity.StatusNew, 0)
	tested("recent", entity.StatusNew, time.Hour)
	tested("due", entity.StatusNew, 25*time.Hour)
	tested("learned", entity.StatusLearned, 48*time.Hour)

	words, err := repo.ListTestable(ctx, "u1", entity.LanguageItalian, entity.DefaultReviewIntervals(), now)
	if err != nil {
		t.Fatalf("list testable: %v", err)
	}
	got := map[string]bool{}
	for _, w := range words {
		got[w.Word] = true
	}
	if len(got) != 2 || !got["fresh"] || !got["due"] {
		t.Fatalf("unexpected testable set: %v", got)
	}
}

func TestWordRepositoryRecycleBin(t *testing.T) {
	ctx := context.Background()
	repo := NewWordRepository(openTestDB(t))
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	if _, err := repo.Save(ctx, newTestWord("u1", "pane", entity.StatusKnown, now), false); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Delete(ctx, "u1", entity.LanguageItalian, "pane", now.Add(time.Hour)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, "u1", entity.LanguageItalian, "pane"); !errors.Is(err, entity.ErrWordNotFound) {
		t.Fatalf("deleted word still visible: %v", err)
	}
	if err := repo.Delete(ctx, "u1", entity.LanguageItalian, "pane", now); !errors.Is(err, entity.ErrWordNotFound) {
		t.Fatalf("second delete: %v", err)
	}

	restored, err := repo.Undelete(ctx, "u1", entity.LanguageItalian, "pane", now)
	if err != nil {
		t.Fatalf("undelete: %v", err)
	}
	if restored.Status != entity.StatusKnown {
		t.Fatalf("status not restored: %s", restored.Status)
	}

	if err := repo.Delete(ctx, "u1", entity.LanguageItalian, "pane", now.Add(time.Hour)); err != nil {
		t.Fatalf("delete again: %v", err)
	}
	if _, err := repo.Save(ctx, newTestWord("u1", "pane", entity.StatusNew, now), false); err != nil {
		t.Fatalf("recreate: %v", err)
	}
	if _, err := repo.Undelete(ctx, "u1", entity.LanguageItalian, "pane", now); !errors.Is(err, entity.ErrDuplicateWord) {
		t.Fatalf("expected duplicate on restore, got %v", err)
	}

	if _, err := repo.Undelete(ctx, "u1", entity.LanguageItalian, "pane", now.Add(2*time.Hour)); !errors.Is(err, entity.ErrWordNotFound) {
		t.Fatalf("expired entry must not restore, got %v", err)
	}
	n, err := repo.PurgeRecycled(ctx, now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Fatalf("purged %d rows, want 1", n)
	}
}
