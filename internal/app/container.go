package app

import (
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/oghmai/internal/infrastructure/config"
	"github.com/eslsoft/oghmai/internal/infrastructure/server"
	"github.com/eslsoft/oghmai/internal/usecase"
	"github.com/eslsoft/oghmai/internal/usecase/backup"
)

// Container aggregates the application dependencies produced by Wire.
type Container struct {
	Config      *config.Config
	Logger      *logrus.Logger
	DB          *sqlx.DB
	Server      *server.Server
	Words       usecase.WordUsecase
	Challenges  usecase.ChallengeUsecase
	Maintenance usecase.MaintenanceUsecase
	Backup      *backup.Service
}
