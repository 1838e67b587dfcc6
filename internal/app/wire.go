//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	adapterrepo "github.com/eslsoft/oghmai/internal/adapter/repository"
	"github.com/eslsoft/oghmai/internal/adapter/rest"
	"github.com/eslsoft/oghmai/internal/infrastructure/config"
	"github.com/eslsoft/oghmai/internal/infrastructure/database"
	"github.com/eslsoft/oghmai/internal/infrastructure/llm"
	"github.com/eslsoft/oghmai/internal/infrastructure/logging"
	"github.com/eslsoft/oghmai/internal/infrastructure/prompts"
	"github.com/eslsoft/oghmai/internal/infrastructure/server"
	"github.com/eslsoft/oghmai/internal/usecase"
	"github.com/eslsoft/oghmai/internal/usecase/generation"
)

var configSet = wire.NewSet(
	config.Load,
	logging.NewLogger,
)

var databaseSet = wire.NewSet(
	database.NewDB,
)

var repositorySet = wire.NewSet(
	adapterrepo.NewWordRepository,
	ProvideChallengeRepository,
)

var generationSet = wire.NewSet(
	llm.NewClient,
	prompts.NewStore,
	ProvideGenerationConfig,
	generation.New,
	wire.Bind(new(generation.Generator), new(*llm.Client)),
	wire.Bind(new(generation.TemplateStore), new(*prompts.Store)),
	wire.Bind(new(usecase.WordDescriber), new(*generation.Pipeline)),
	wire.Bind(new(usecase.ChallengeGenerator), new(*generation.Pipeline)),
)

var usecaseSet = wire.NewSet(
	ProvideReviewScheduler,
	ProvideWordUsecase,
	ProvideChallengeConfig,
	usecase.NewChallengeUsecase,
	usecase.NewMaintenanceUsecase,
	ProvideBackupService,
)

var serverSet = wire.NewSet(
	ProvideWordHandler,
	ProvideTestHandler,
	ProvideRouterConfig,
	rest.NewRouter,
	server.NewServer,
)

// Initialize builds the application container using Wire.
func Initialize() (*Container, func(), error) {
	wire.Build(
		configSet,
		databaseSet,
		repositorySet,
		generationSet,
		usecaseSet,
		serverSet,
		wire.Struct(new(Container), "*"),
	)
	return nil, nil, nil
}
