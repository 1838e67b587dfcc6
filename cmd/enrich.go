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
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eslsoft/oghmai/internal/app"
	"github.com/eslsoft/oghmai/internal/entity"
	"github.com/eslsoft/oghmai/internal/repository"
	"github.com/eslsoft/oghmai/internal/usecase"
)

const enrichPageSize = 200

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Add missing meanings to words that only have one",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		language, _ := cmd.Flags().GetString("language")
		interval, _ := cmd.Flags().GetDuration("interval")
		limit, _ := cmd.Flags().GetInt("limit")

		container, cleanup, err := app.Initialize()
		if err != nil {
			return fmt.Errorf("initialize application: %w", err)
		}
		defer cleanup()
		logger := container.Logger
		ctx := commandContext(cmd, logger, logrus.Fields{"user_id": userID})
		lang := resolveLanguage(language, container.Config.DefaultLanguage())

		// Enrichment moves words out of the filter, so collect before mutating.
		var pending []entity.Word
		for page := int32(1); ; page++ {
			words, err := container.Words.ListWords(ctx, userID, usecase.ListWordsInput{
				Pagination:  repository.Pagination{PageNo: page, PageSize: enrichPageSize},
				FilterOrder: repository.FilterOrder{Filter: "meanings <= 1", OrderBy: "word"},
				Language:    lang,
			})
			if err != nil {
				return err
			}
			pending = append(pending, words...)
			if len(words) < enrichPageSize || (limit > 0 && len(pending) >= limit) {
				break
			}
		}
		if limit > 0 && len(pending) > limit {
			pending = pending[:limit]
		}
		cmd.Printf("enriching %d %s words\n", len(pending), lang.Code())

		var throttle <-chan time.Time
		if interval > 0 {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			throttle = ticker.C
		}

		enriched, failed := 0, 0
		for i, word := range pending {
			if i > 0 && throttle != nil {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-throttle:
				}
			}
			updated, err := container.Words.AddOtherMeanings(ctx, userID, word.Language, word.Word)
			if err != nil {
				if errors.Is(err, entity.ErrWordNotFound) {
					continue
				}
				failed++
				logger.WithError(err).WithField("word", word.Word).Warn("enrich failed")
				continue
			}
			if len(updated.Meanings) > len(word.Meanings) {
				enriched++
			}
			cmd.Printf("[%d/%d] %s: %d meanings\n", i+1, len(pending), word.Word, len(updated.Meanings))
		}
		cmd.Printf("done: %d enriched, %d failed\n", enriched, failed)
		return nil
	},
}

// resolveLanguage returns the normalized flag value, or def when the flag is blank.
func resolveLanguage(raw string, def entity.Language) entity.Language {
	return entity.Language(entity.Language(raw).CodeOrDefault(def))
}

func init() {
	rootCmd.AddCommand(enrichCmd)

	enrichCmd.Flags().StringP("user", "u", "", "owner of the words to enrich")
	enrichCmd.Flags().StringP("language", "l", "", "language code (defaults to app.default_language)")
	enrichCmd.Flags().Duration("interval", 2*time.Second, "minimum delay between generation calls")
	enrichCmd.Flags().Int("limit", 0, "stop after this many words (0 means all)")
	cobra.CheckErr(enrichCmd.MarkFlagRequired("user"))
}
