// Package rest is the JSON-over-HTTP adapter for the vocabulary and test usecases.
package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RouterConfig carries the adapter-level settings.
type RouterConfig struct {
	UserHeader string
}

// NewRouter registers every route on a fresh gin engine.
func NewRouter(cfg RouterConfig, logger *logrus.Logger, words *WordHandler, tests *TestHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/", RequireUser(cfg.UserHeader))
	api.POST("/describe-word", words.DescribeWord)

	api.POST("/words", words.SaveWord)
	api.GET("/words", words.ListWords)
	api.GET("/words/:language/:word", words.GetWord)
	api.DELETE("/words/:language/:word", words.DeleteWord)
	api.POST("/words/:language/:word/restore", words.RestoreWord)
	api.POST("/words/:language/:word/enrich", words.EnrichWord)

	api.GET("/tests/:language/next", tests.NextChallenge)
	api.GET("/tests/:language/statistics", tests.Statistics)
	api.POST("/tests/challenges", tests.CreateChallenge)
	api.POST("/tests/challenges/:id/guess", tests.ValidateGuess)

	return r
}
