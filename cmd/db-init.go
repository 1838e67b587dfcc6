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

	"github.com/eslsoft/oghmai/internal/infrastructure/config"
	"github.com/eslsoft/oghmai/internal/infrastructure/database"
	"github.com/eslsoft/oghmai/internal/infrastructure/logging"
)

// dbInitCmd applies the schema to the configured database.
var dbInitCmd = &cobra.Command{
	Use:   "db-init",
	Short: "Create the database schema",
	Long:  "Creates the words, recycled_words and challenges tables. Safe to run repeatedly. The sqlite3 driver requires a CGO_ENABLED=1 build.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger, err := logging.NewLogger(cfg)
		if err != nil {
			return err
		}
		db, cleanup, err := database.NewDB(cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := database.Migrate(cmd.Context(), db); err != nil {
			return err
		}
		cmd.Printf("schema ready (%s)\n", cfg.DatabaseDriver())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbInitCmd)
}
