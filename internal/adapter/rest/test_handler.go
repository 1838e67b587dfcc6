package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eslsoft/oghmai/internal/entity"
	"github.com/eslsoft/oghmai/internal/usecase"
)

// TestHandler exposes the riddle challenge lifecycle.
type TestHandler struct {
	challenges  usecase.ChallengeUsecase
	defaultLang entity.Language
}

func NewTestHandler(challenges usecase.ChallengeUsecase, defaultLang entity.Language) *TestHandler {
	return &TestHandler{challenges: challenges, defaultLang: defaultLang}
}

type createChallengeRequest struct {
	Language string `json:"language"`
	Word     string `json:"word" binding:"required"`
}

type guessRequest struct {
	Guess string `json:"guess"`
}

// NextChallenge handles GET /tests/:language/next. 204 means nothing is due.
func (h *TestHandler) NextChallenge(c *gin.Context) {
	lang, err := parseLanguage(c.Param("language"), h.defaultLang)
	if err != nil {
		respondError(c, err)
		return
	}
	challenge, err := h.challenges.NextChallenge(c.Request.Context(), currentUser(c), lang)
	if errors.Is(err, entity.ErrNoTestableWords) {
		c.Status(http.StatusNoContent)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, challenge)
}

// CreateChallenge handles POST /tests/challenges for a word the learner picked.
func (h *TestHandler) CreateChallenge(c *gin.Context) {
	var req createChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	lang, err := parseLanguage(req.Language, h.defaultLang)
	if err != nil {
		respondError(c, err)
		return
	}
	challenge, err := h.challenges.CreateChallenge(c.Request.Context(), currentUser(c), lang, req.Word)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, challenge)
}

// ValidateGuess handles POST /tests/challenges/:id/guess.
func (h *TestHandler) ValidateGuess(c *gin.Context) {
	var req guessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	result, err := h.challenges.ValidateGuess(c.Request.Context(), currentUser(c), c.Param("id"), req.Guess)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Statistics handles GET /tests/:language/statistics.
func (h *TestHandler) Statistics(c *gin.Context) {
	lang, err := parseLanguage(c.Param("language"), h.defaultLang)
	if err != nil {
		respondError(c, err)
		return
	}
	stats, err := h.challenges.Statistics(c.Request.Context(), currentUser(c), lang)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
