package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eslsoft/oghmai/internal/entity"
	"github.com/eslsoft/oghmai/internal/repository"
	"github.com/eslsoft/oghmai/internal/usecase"
)

type WordHandler struct {
	words       usecase.WordUsecase
	defaultLang entity.Language
}

func NewWordHandler(words usecase.WordUsecase, defaultLang entity.Language) *WordHandler {
	return &WordHandler{words: words, defaultLang: defaultLang}
}

type describeWordRequest struct {
	Definition string   `json:"definition"`
	Exclusions []string `json:"exclusions" binding:"max=50"`
	Language   string   `json:"language"`
}

type saveWordRequest struct {
	Word      string           `json:"word"`
	Language  string           `json:"language"`
	Meanings  []entity.Meaning `json:"meanings"`
	Overwrite bool             `json:"overwrite"`
}

type listWordsQuery struct {
	Language string `form:"language"`
	Filter   string `form:"filter"`
	OrderBy  string `form:"order_by"`
	Page     int32  `form:"page" binding:"omitempty,gte=1"`
	PageSize int32  `form:"page_size" binding:"omitempty,gte=1,lte=10000"`
}

type listWordsResponse struct {
	Words    []entity.Word `json:"words"`
	Page     int32         `json:"page"`
	PageSize int32         `json:"page_size"`
}

// DescribeWord handles POST /describe-word.
func (h *WordHandler) DescribeWord(c *gin.Context) {
	var req describeWordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	lang, err := parseLanguage(req.Language, h.defaultLang)
	if err != nil {
		respondError(c, err)
		return
	}
	word, err := h.words.DescribeWord(c.Request.Context(), currentUser(c), usecase.DescribeRequest{
		Definition: req.Definition,
		Exclusions: req.Exclusions,
		Language:   lang,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, word)
}

// SaveWord handles POST /words.
func (h *WordHandler) SaveWord(c *gin.Context) {
	var req saveWordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	lang, err := parseLanguage(req.Language, h.defaultLang)
	if err != nil {
		respondError(c, err)
		return
	}
	word, err := h.words.SaveWord(c.Request.Context(), currentUser(c), entity.WordDescription{
		Word:     req.Word,
		Language: lang,
		Meanings: req.Meanings,
	}, req.Overwrite)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, word)
}

// ListWords handles GET /words.
func (h *WordHandler) ListWords(c *gin.Context) {
	var q listWordsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBadRequest(c, err)
		return
	}
	lang, err := entity.ParseLanguage(q.Language)
	if err != nil {
		respondError(c, err)
		return
	}
	if q.Page == 0 {
		q.Page = 1
	}
	words, err := h.words.ListWords(c.Request.Context(), currentUser(c), usecase.ListWordsInput{
		Pagination:  repository.Pagination{PageNo: q.Page, PageSize: q.PageSize},
		FilterOrder: repository.FilterOrder{Filter: q.Filter, OrderBy: q.OrderBy},
		Language:    lang,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if words == nil {
		words = []entity.Word{}
	}
	c.JSON(http.StatusOK, listWordsResponse{Words: words, Page: q.Page, PageSize: q.PageSize})
}

// GetWord handles GET /words/:language/:word.
func (h *WordHandler) GetWord(c *gin.Context) {
	lang, ok := h.pathLanguage(c)
	if !ok {
		return
	}
	word, err := h.words.GetWord(c.Request.Context(), currentUser(c), lang, c.Param("word"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, word)
}

// DeleteWord handles DELETE /words/:language/:word.
func (h *WordHandler) DeleteWord(c *gin.Context) {
	lang, ok := h.pathLanguage(c)
	if !ok {
		return
	}
	if err := h.words.DeleteWord(c.Request.Context(), currentUser(c), lang, c.Param("word")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RestoreWord handles POST /words/:language/:word/restore.
func (h *WordHandler) RestoreWord(c *gin.Context) {
	lang, ok := h.pathLanguage(c)
	if !ok {
		return
	}
	word, err := h.words.RestoreWord(c.Request.Context(), currentUser(c), lang, c.Param("word"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, word)
}

// EnrichWord handles POST /words/:language/:word/enrich.
func (h *WordHandler) EnrichWord(c *gin.Context) {
	lang, ok := h.pathLanguage(c)
	if !ok {
		return
	}
	word, err := h.words.AddOtherMeanings(c.Request.Context(), currentUser(c), lang, c.Param("word"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, word)
}

func (h *WordHandler) pathLanguage(c *gin.Context) (entity.Language, bool) {
	lang, err := parseLanguage(c.Param("language"), h.defaultLang)
	if err != nil {
		respondError(c, err)
		return "", false
	}
	return lang, true
}

// parseLanguage validates raw and substitutes def when it is empty.
func parseLanguage(raw string, def entity.Language) (entity.Language, error) {
	lang, err := entity.ParseLanguage(raw)
	if err != nil {
		return "", err
	}
	if lang == entity.LanguageUnspecified {
		return entity.Language(def.Code()), nil
	}
	return lang, nil
}
