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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/spf13/cobra"

	"github.com/eslsoft/oghmai/internal/app"
	"github.com/eslsoft/oghmai/internal/infrastructure/database"
	"github.com/eslsoft/oghmai/internal/infrastructure/logging"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		container, cleanup, err := app.Initialize()
		if err != nil {
			return fmt.Errorf("initialize application: %w", err)
		}
		defer cleanup()
		logger := container.Logger
		ctx := commandContext(cmd, logger, nil)

		if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
			if err := database.Migrate(ctx, container.DB); err != nil {
				return err
			}
		}

		scheduler := gocron.NewScheduler(time.UTC)
		if interval := container.Config.Recycle.PurgeInterval; interval > 0 {
			_, err := scheduler.Every(interval).Do(func() {
				jobCtx := logging.WithEntry(context.Background(), logger.WithField("job", "purge"))
				report, err := container.Maintenance.Purge(jobCtx)
				if err != nil {
					logger.WithError(err).Warn("scheduled purge failed")
					return
				}
				logger.WithField("recycled_words", report.RecycledWords).
					WithField("expired_challenges", report.ExpiredChallenges).
					Info("scheduled purge finished")
			})
			if err != nil {
				return fmt.Errorf("schedule purge: %w", err)
			}
			scheduler.StartAsync()
			defer scheduler.Stop()
		}

		errCh := make(chan error, 1)
		go func() { errCh <- container.Server.StartHTTP() }()

		// Graceful shutdown
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigCh:
			logger.Infof("received signal: %s, shutting down", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return container.Server.Shutdown(ctx)
		case err := <-errCh:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Bool("migrate", true, "apply the database schema before serving")
}
