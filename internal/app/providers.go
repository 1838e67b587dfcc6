package app

import (
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	adapterrepo "github.com/eslsoft/oghmai/internal/adapter/repository"
	"github.com/eslsoft/oghmai/internal/adapter/rest"
	"github.com/eslsoft/oghmai/internal/infrastructure/config"
	"github.com/eslsoft/oghmai/internal/infrastructure/database"
	"github.com/eslsoft/oghmai/internal/repository"
	"github.com/eslsoft/oghmai/internal/usecase"
	"github.com/eslsoft/oghmai/internal/usecase/backup"
	"github.com/eslsoft/oghmai/internal/usecase/generation"
)

// ProvideChallengeRepository picks the challenge store named by challenge.store.
func ProvideChallengeRepository(cfg *config.Config, db *sqlx.DB, logger *logrus.Logger) (repository.ChallengeRepository, func(), error) {
	if cfg.Challenge.Store != "redis" {
		return adapterrepo.NewChallengeRepository(db), func() {}, nil
	}
	client, cleanup, err := database.NewRedisClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	logger.WithField("addr", cfg.Redis.Addr).Info("challenges stored in redis")
	prefix := cfg.Redis.KeyPrefix
	if prefix != "" {
		prefix += ":"
	}
	return adapterrepo.NewRedisChallengeRepository(client, prefix), cleanup, nil
}

func ProvideGenerationConfig(cfg *config.Config) generation.Config {
	return generation.Config{
		MaxAttempts:      cfg.Generation.MaxAttempts,
		Temperature:      cfg.Generation.Temperature,
		JudgeTemperature: cfg.Generation.JudgeTemperature,
		MaxTokens:        cfg.Generation.MaxTokens,
	}
}

func ProvideReviewScheduler(cfg *config.Config, words repository.WordRepository) (usecase.ReviewScheduler, error) {
	intervals, err := cfg.ReviewIntervals()
	if err != nil {
		return nil, err
	}
	return usecase.NewReviewScheduler(words, intervals), nil
}

func ProvideWordUsecase(cfg *config.Config, words repository.WordRepository, describer usecase.WordDescriber) usecase.WordUsecase {
	return usecase.NewWordUsecase(words, describer, cfg.DefaultLanguage(), cfg.Recycle.Retention)
}

func ProvideChallengeConfig(cfg *config.Config) usecase.ChallengeConfig {
	return usecase.ChallengeConfig{TTL: cfg.Challenge.TTL, MaxMisses: cfg.Challenge.MaxMisses}
}

func ProvideBackupService(words repository.WordRepository) *backup.Service {
	return backup.NewService(words)
}

func ProvideWordHandler(cfg *config.Config, words usecase.WordUsecase) *rest.WordHandler {
	return rest.NewWordHandler(words, cfg.DefaultLanguage())
}

func ProvideTestHandler(cfg *config.Config, challenges usecase.ChallengeUsecase) *rest.TestHandler {
	return rest.NewTestHandler(challenges, cfg.DefaultLanguage())
}

func ProvideRouterConfig(cfg *config.Config) rest.RouterConfig {
	return rest.RouterConfig{UserHeader: cfg.Server.UserHeader}
}
