package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/oghmai/internal/entity"
	"github.com/eslsoft/oghmai/internal/usecase"
	"github.com/eslsoft/oghmai/internal/usecase/generation"
)

type fakeWords struct {
	mu       sync.RWMutex
	words    map[string]entity.Word
	describe error
	lastList usecase.ListWordsInput
	lastLang entity.Language
}

func newFakeWords() *fakeWords {
	return &fakeWords{words: map[string]entity.Word{}}
}

func (f *fakeWords) key(userID string, lang entity.Language, word string) string {
	return userID + "|" + lang.Code() + "|" + entity.NormalizeWordToken(word)
}

func (f *fakeWords) DescribeWord(_ context.Context, userID string, req usecase.DescribeRequest) (*entity.Word, error) {
	if f.describe != nil {
		return nil, f.describe
	}
	if strings.TrimSpace(req.Definition) == "" {
		return nil, entity.ErrInvalidDefinition
	}
	f.mu.Lock()
	f.lastLang = req.Language
	f.mu.Unlock()
	w := entity.NewWordFromDescription(userID, entity.WordDescription{Word: "cane", Language: req.Language})
	return &w, nil
}

func (f *fakeWords) SaveWord(_ context.Context, userID string, desc entity.WordDescription, allowOverwrite bool) (*entity.Word, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.key(userID, desc.Language, desc.Word)
	if _, ok := f.words[k]; ok && !allowOverwrite {
		return nil, entity.ErrDuplicateWord
	}
	w := entity.NewWordFromDescription(userID, desc)
	w.Status = entity.StatusNew
	w.Version = 1
	f.words[k] = w
	return &w, nil
}

func (f *fakeWords) GetWord(_ context.Context, userID string, lang entity.Language, word string) (*entity.Word, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	w, ok := f.words[f.key(userID, lang, word)]
	if !ok {
		return nil, entity.ErrWordNotFound
	}
	return &w, nil
}

func (f *fakeWords) ListWords(_ context.Context, userID string, in usecase.ListWordsInput) ([]entity.Word, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastList = in
	if in.Filter == "bogus" {
		return nil, fmt.Errorf("%w: parse", entity.ErrInvalidFilter)
	}
	var out []entity.Word
	for _, w := range f.words {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeWords) DeleteWord(_ context.Context, userID string, lang entity.Language, word string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.key(userID, lang, word)
	if _, ok := f.words[k]; !ok {
		return entity.ErrWordNotFound
	}
	delete(f.words, k)
	return nil
}

func (f *fakeWords) RestoreWord(context.Context, string, entity.Language, string) (*entity.Word, error) {
	return nil, entity.ErrWordNotFound
}

func (f *fakeWords) AddOtherMeanings(context.Context, string, entity.Language, string) (*entity.Word, error) {
	return nil, fmt.Errorf("enrich: %w", generation.ErrNoResult)
}

type fakeChallenges struct {
	none bool
}

func (f *fakeChallenges) NextChallenge(context.Context, string, entity.Language) (*entity.TestChallenge, error) {
	if f.none {
		return nil, entity.ErrNoTestableWords
	}
	return &entity.TestChallenge{ID: "c1", Description: "I bark"}, nil
}

func (f *fakeChallenges) CreateChallenge(_ context.Context, _ string, _ entity.Language, word string) (*entity.TestChallenge, error) {
	if word != "cane" {
		return nil, entity.ErrWordNotFound
	}
	return &entity.TestChallenge{ID: "c2", Description: "I bark"}, nil
}

func (f *fakeChallenges) ValidateGuess(_ context.Context, _, challengeID, guess string) (*entity.TestResult, error) {
	if challengeID != "c1" {
		return nil, entity.ErrChallengeNotFound
	}
	if strings.TrimSpace(guess) == "" {
		return nil, entity.ErrInvalidGuess
	}
	if guess == "cane" {
		old, next := entity.StatusNew, entity.StatusLearned
		return &entity.TestResult{Result: entity.VerdictCorrect, Word: "cane", OldStatus: &old, NewStatus: &next}, nil
	}
	return &entity.TestResult{Result: entity.VerdictPartial, Hint: "woof"}, nil
}

func (f *fakeChallenges) Statistics(context.Context, string, entity.Language) (*entity.TestStatistics, error) {
	return &entity.TestStatistics{Available: map[entity.Status]int{entity.StatusNew: 2}}, nil
}

type testServer struct {
	router     *gin.Engine
	words      *fakeWords
	challenges *fakeChallenges
}

func newTestServer() *testServer {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	words := newFakeWords()
	challenges := &fakeChallenges{}
	router := NewRouter(RouterConfig{UserHeader: "X-User-Id"}, logger,
		NewWordHandler(words, entity.LanguageItalian),
		NewTestHandler(challenges, entity.LanguageItalian))
	return &testServer{router: router, words: words, challenges: challenges}
}

func (s *testServer) do(method, path, body string, user string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-User-Id", user)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestRequireUser(t *testing.T) {
	s := newTestServer()
	rec := s.do(http.MethodGet, "/words", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatal("request id header missing")
	}

	rec = s.do(http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
}

func TestDescribeWord(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodPost, "/describe-word", `{"definition":"a loyal pet that barks"}`, "u1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	word := decode[entity.Word](t, rec)
	if word.Word != "cane" || word.Status != entity.StatusUnsaved {
		t.Fatalf("unexpected word: %+v", word)
	}
	if s.words.lastLang != entity.LanguageItalian {
		t.Fatalf("default language not applied: %q", s.words.lastLang)
	}

	cases := []struct {
		name   string
		body   string
		setup  func()
		status int
	}{
		{name: "empty definition", body: `{"definition":" "}`, status: http.StatusBadRequest},
		{name: "bad language", body: `{"definition":"x","language":"italian"}`, status: http.StatusBadRequest},
		{name: "malformed json", body: `{"definition":`, status: http.StatusBadRequest},
		{
			name:   "generation exhausted",
			body:   `{"definition":"x"}`,
			setup:  func() { s.words.describe = generation.ErrNoResult },
			status: http.StatusServiceUnavailable,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setup != nil {
				tc.setup()
			}
			rec := s.do(http.MethodPost, "/describe-word", tc.body, "u1")
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.status, rec.Body.String())
			}
			env := decode[ErrorEnvelope](t, rec)
			if env.Error.Message == "" {
				t.Fatalf("missing error message: %s", rec.Body.String())
			}
		})
	}
}

func TestWordLifecycle(t *testing.T) {
	s := newTestServer()
	body := `{"word":"gatto","language":"it","meanings":[{"translation":"cat","definition":"felino","examples":[],"type":"NOUN"}]}`

	rec := s.do(http.MethodPost, "/words", body, "u1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("save status = %d body=%s", rec.Code, rec.Body.String())
	}
	if rec := s.do(http.MethodPost, "/words", body, "u1"); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d", rec.Code)
	}
	overwrite := strings.Replace(body, `{"word"`, `{"overwrite":true,"word"`, 1)
	if rec := s.do(http.MethodPost, "/words", overwrite, "u1"); rec.Code != http.StatusCreated {
		t.Fatalf("overwrite status = %d", rec.Code)
	}

	rec = s.do(http.MethodGet, "/words/it/Gatto", "", "u1")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	if got := decode[entity.Word](t, rec); got.Word != "gatto" {
		t.Fatalf("unexpected word: %+v", got)
	}
	if rec := s.do(http.MethodGet, "/words/it/gatto", "", "u2"); rec.Code != http.StatusNotFound {
		t.Fatalf("other user status = %d", rec.Code)
	}

	rec = s.do(http.MethodGet, "/words?filter=status%20%3D%3D%20%27NEW%27&order_by=word&page=2&page_size=5", "", "u1")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	list := decode[listWordsResponse](t, rec)
	if len(list.Words) != 1 || list.Page != 2 || list.PageSize != 5 {
		t.Fatalf("unexpected list: %+v", list)
	}
	if s.words.lastList.Filter != "status == 'NEW'" || s.words.lastList.OrderBy != "word" {
		t.Fatalf("filter not forwarded: %+v", s.words.lastList)
	}
	if rec := s.do(http.MethodGet, "/words?filter=bogus", "", "u1"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad filter status = %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/words?page_size=0&page=-1", "", "u1"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad page status = %d", rec.Code)
	}

	if rec := s.do(http.MethodPost, "/words/it/gatto/enrich", "", "u1"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("enrich status = %d", rec.Code)
	}
	if rec := s.do(http.MethodDelete, "/words/it/gatto", "", "u1"); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := s.do(http.MethodDelete, "/words/it/gatto", "", "u1"); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/words/it/gatto/restore", "", "u1"); rec.Code != http.StatusNotFound {
		t.Fatalf("restore status = %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/words/xyz/gatto", "", "u1"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad language status = %d", rec.Code)
	}
}

func TestChallengeRoutes(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodGet, "/tests/it/next", "", "u1")
	if rec.Code != http.StatusOK {
		t.Fatalf("next status = %d", rec.Code)
	}
	if got := decode[entity.TestChallenge](t, rec); got.ID != "c1" || got.Description == "" {
		t.Fatalf("unexpected challenge: %+v", got)
	}

	s.challenges.none = true
	if rec := s.do(http.MethodGet, "/tests/it/next", "", "u1"); rec.Code != http.StatusNoContent {
		t.Fatalf("no words status = %d", rec.Code)
	}

	if rec := s.do(http.MethodPost, "/tests/challenges", `{"language":"it","word":"cane"}`, "u1"); rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/tests/challenges", `{"language":"it","word":"lupo"}`, "u1"); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown word status = %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/tests/challenges", `{"language":"it"}`, "u1"); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing word status = %d", rec.Code)
	}

	rec = s.do(http.MethodPost, "/tests/challenges/c1/guess", `{"guess":"cane"}`, "u1")
	if rec.Code != http.StatusOK {
		t.Fatalf("guess status = %d", rec.Code)
	}
	result := decode[entity.TestResult](t, rec)
	if result.Result != entity.VerdictCorrect || result.NewStatus == nil || *result.NewStatus != entity.StatusLearned {
		t.Fatalf("unexpected result: %+v", result)
	}

	rec = s.do(http.MethodPost, "/tests/challenges/c1/guess", `{"guess":"lupo"}`, "u1")
	if got := decode[entity.TestResult](t, rec); got.Result != entity.VerdictPartial || got.Hint == "" || got.Word != "" {
		t.Fatalf("unexpected partial: %+v", got)
	}
	if rec := s.do(http.MethodPost, "/tests/challenges/zzz/guess", `{"guess":"cane"}`, "u1"); rec.Code != http.StatusNotFound {
		t.Fatalf("missing challenge status = %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/tests/challenges/c1/guess", `{"guess":""}`, "u1"); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty guess status = %d", rec.Code)
	}

	rec = s.do(http.MethodGet, "/tests/it/statistics", "", "u1")
	if rec.Code != http.StatusOK {
		t.Fatalf("statistics status = %d", rec.Code)
	}
	if got := decode[entity.TestStatistics](t, rec); got.Available[entity.StatusNew] != 2 {
		t.Fatalf("unexpected stats: %+v", got)
	}
}
