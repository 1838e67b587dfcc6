/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/eslsoft/oghmai/internal/adapter/repository"
	"github.com/eslsoft/oghmai/internal/infrastructure/config"
	"github.com/eslsoft/oghmai/internal/infrastructure/database"
	"github.com/eslsoft/oghmai/internal/infrastructure/logging"
	"github.com/eslsoft/oghmai/internal/usecase/backup"
)

// openBackupService connects to the configured database without the generation stack.
func openBackupService(cmd *cobra.Command, batchSize int, migrate bool) (*backup.Service, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.NewLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	logger.SetOutput(cmd.ErrOrStderr())

	db, cleanup, err := database.NewDB(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if migrate {
		if err := database.Migrate(cmd.Context(), db); err != nil {
			cleanup()
			return nil, nil, err
		}
	}
	words := repository.NewWordRepository(db)
	return backup.NewService(words, backup.WithPageSize(batchSize)), cleanup, nil
}

func bindFlagToViper(key string, flag *pflag.Flag) {
	if flag == nil {
		return
	}
	cobra.CheckErr(viper.BindPFlag(key, flag))
}
