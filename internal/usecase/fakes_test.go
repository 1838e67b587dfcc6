package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/eslsoft/oghmai/internal/entity"
	"github.com/eslsoft/oghmai/internal/repository"
)

type wordKey struct {
	userID string
	lang   entity.Language
	word   string
}

type recycled struct {
	word        entity.Word
	retainUntil time.Time
}

type fakeWordRepo struct {
	mu       sync.RWMutex
	items    map[wordKey]entity.Word
	recycled map[wordKey]recycled
	// staleUpdates makes the next n Update calls fail as if another writer won.
	staleUpdates int
	updates      int
}

func newFakeWordRepo(words ...entity.Word) *fakeWordRepo {
	r := &fakeWordRepo{items: make(map[wordKey]entity.Word), recycled: make(map[wordKey]recycled)}
	for _, w := range words {
		w.Normalize(time.Now())
		if w.Version == 0 {
			w.Version = 1
		}
		r.items[keyOf(w)] = w.Clone()
	}
	return r
}

func keyOf(w entity.Word) wordKey {
	return wordKey{userID: w.UserID, lang: entity.Language(w.Language.Code()), word: entity.NormalizeWordToken(w.Word)}
}

func (r *fakeWordRepo) Get(ctx context.Context, userID string, lang entity.Language, word string) (*entity.Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.items[wordKey{userID: userID, lang: entity.Language(lang.Code()), word: entity.NormalizeWordToken(word)}]
	if !ok {
		return nil, entity.ErrWordNotFound
	}
	out := w.Clone()
	return &out, nil
}

func (r *fakeWordRepo) Save(ctx context.Context, word *entity.Word, allowOverwrite bool) (*entity.Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := keyOf(*word)
	if existing, ok := r.items[key]; ok {
		if !allowOverwrite {
			return nil, entity.ErrDuplicateWord
		}
		existing.Meanings = word.Clone().Meanings
		existing.Version++
		r.items[key] = existing
		out := existing.Clone()
		return &out, nil
	}
	stored := word.Clone()
	stored.Version = 1
	r.items[key] = stored
	out := stored.Clone()
	return &out, nil
}

func (r *fakeWordRepo) Update(ctx context.Context, word *entity.Word) (*entity.Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	key := keyOf(*word)
	existing, ok := r.items[key]
	if !ok {
		return nil, entity.ErrWordNotFound
	}
	if r.staleUpdates > 0 {
		r.staleUpdates--
		existing.Version++
		r.items[key] = existing
		return nil, entity.ErrStaleWord
	}
	if existing.Version != word.Version {
		return nil, entity.ErrStaleWord
	}
	stored := word.Clone()
	stored.Version = existing.Version + 1
	r.items[key] = stored
	out := stored.Clone()
	return &out, nil
}

func (r *fakeWordRepo) List(ctx context.Context, query *repository.ListWordQuery) ([]entity.Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []entity.Word
	for key, w := range r.items {
		if key.userID != query.UserID {
			continue
		}
		if query.Language != entity.LanguageUnspecified && key.lang != query.Language {
			continue
		}
		if !matchesFilter(w, query.Where) {
			continue
		}
		out = append(out, w.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Word < out[j].Word })
	return out, nil
}

func matchesFilter(w entity.Word, f repository.WordFilter) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			found = found || s == w.Status
		}
		if !found {
			return false
		}
	}
	if f.Prefix != "" && !strings.HasPrefix(w.Word, f.Prefix) {
		return false
	}
	if f.CreatedAfter != nil && w.CreatedAt.Before(*f.CreatedAfter) {
		return false
	}
	if f.CreatedBefore != nil && w.CreatedAt.After(*f.CreatedBefore) {
		return false
	}
	if f.MaxMeanings > 0 && len(w.Meanings) > f.MaxMeanings {
		return false
	}
	return true
}

func (r *fakeWordRepo) ListTestable(ctx context.Context, userID string, lang entity.Language, intervals entity.ReviewIntervals, now time.Time) ([]entity.Word, error) {
	words, err := r.List(ctx, &repository.ListWordQuery{UserID: userID, Language: lang})
	if err != nil {
		return nil, err
	}
	var out []entity.Word
	for _, w := range words {
		if intervals.IsTestable(w, now) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *fakeWordRepo) Delete(ctx context.Context, userID string, lang entity.Language, word string, retainUntil time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := wordKey{userID: userID, lang: lang, word: entity.NormalizeWordToken(word)}
	w, ok := r.items[key]
	if !ok {
		return entity.ErrWordNotFound
	}
	delete(r.items, key)
	r.recycled[key] = recycled{word: w, retainUntil: retainUntil}
	return nil
}

func (r *fakeWordRepo) Undelete(ctx context.Context, userID string, lang entity.Language, word string, now time.Time) (*entity.Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := wordKey{userID: userID, lang: lang, word: entity.NormalizeWordToken(word)}
	rec, ok := r.recycled[key]
	if !ok || !now.Before(rec.retainUntil) {
		return nil, entity.ErrWordNotFound
	}
	if _, exists := r.items[key]; exists {
		return nil, entity.ErrDuplicateWord
	}
	delete(r.recycled, key)
	r.items[key] = rec.word
	out := rec.word.Clone()
	return &out, nil
}

func (r *fakeWordRepo) PurgeRecycled(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for key, rec := range r.recycled {
		if !now.Before(rec.retainUntil) {
			delete(r.recycled, key)
			n++
		}
	}
	return n, nil
}

type fakeChallengeRepo struct {
	mu    sync.Mutex
	items map[string]entity.Challenge
	now   func() time.Time
}

func newFakeChallengeRepo(now func() time.Time) *fakeChallengeRepo {
	return &fakeChallengeRepo{items: make(map[string]entity.Challenge), now: now}
}

func (r *fakeChallengeRepo) Store(_ context.Context, c *entity.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[c.UserID+"/"+c.ID] = *c
	return nil
}

func (r *fakeChallengeRepo) lookupLocked(userID, id string) (entity.Challenge, bool) {
	c, ok := r.items[userID+"/"+id]
	if !ok || c.Expired(r.now()) {
		return entity.Challenge{}, false
	}
	return c, true
}

func (r *fakeChallengeRepo) Load(_ context.Context, userID, id string) (*entity.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.lookupLocked(userID, id)
	if !ok {
		return nil, entity.ErrChallengeNotFound
	}
	return &c, nil
}

func (r *fakeChallengeRepo) IncrementTries(_ context.Context, userID, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.lookupLocked(userID, id)
	if !ok {
		return 0, entity.ErrChallengeNotFound
	}
	c.Tries++
	r.items[userID+"/"+id] = c
	return c.Tries, nil
}

func (r *fakeChallengeRepo) Delete(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lookupLocked(userID, id); !ok {
		return entity.ErrChallengeNotFound
	}
	delete(r.items, userID+"/"+id)
	return nil
}

func (r *fakeChallengeRepo) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, c := range r.items {
		if c.Expired(now) {
			delete(r.items, k)
			n++
		}
	}
	return n, nil
}

func (r *fakeChallengeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// fakeGenerator stands in for the generation pipeline in usecase tests.
type fakeGenerator struct {
	mu          sync.Mutex
	description *entity.WordDescription
	enriched    *entity.WordDescription
	riddle      string
	close       bool
	closeErr    error
	hint        string
	hintErr     error
	err         error

	closeCalls int
	hintCalls  int
	lastExcl   []string
}

func (g *fakeGenerator) DescribeWord(_ context.Context, definition string, exclusions []string, lang entity.Language) (*entity.WordDescription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastExcl = exclusions
	if g.err != nil {
		return nil, g.err
	}
	if g.description == nil {
		return nil, errors.New("no description scripted")
	}
	out := *g.description
	if out.Language == entity.LanguageUnspecified {
		out.Language = lang
	}
	return &out, nil
}

func (g *fakeGenerator) AddOtherMeanings(_ context.Context, desc entity.WordDescription) (*entity.WordDescription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	if g.enriched == nil {
		return nil, errors.New("no enrichment scripted")
	}
	out := *g.enriched
	return &out, nil
}

func (g *fakeGenerator) CreateRiddle(_ context.Context, word string, _ entity.Language) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	if g.riddle == "" {
		return "Riddle for " + word, nil
	}
	return g.riddle, nil
}

func (g *fakeGenerator) IsGuessClose(_ context.Context, _, _, _ string, _ entity.Language) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closeCalls++
	return g.close, g.closeErr
}

func (g *fakeGenerator) GenerateHint(_ context.Context, _, _, _ string, _ entity.Language) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hintCalls++
	return g.hint, g.hintErr
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
