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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eslsoft/oghmai/internal/app"
	"github.com/eslsoft/oghmai/internal/entity"
	"github.com/eslsoft/oghmai/internal/usecase"
)

var describeCmd = &cobra.Command{
	Use:   "describe <definition>",
	Short: "Find the word matching a definition",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		language, _ := cmd.Flags().GetString("language")
		exclusions, _ := cmd.Flags().GetStringSlice("exclude")

		container, cleanup, err := app.Initialize()
		if err != nil {
			return fmt.Errorf("initialize application: %w", err)
		}
		defer cleanup()

		ctx := commandContext(cmd, container.Logger, logrus.Fields{"user_id": userID})
		word, err := container.Words.DescribeWord(ctx, userID, usecase.DescribeRequest{
			Definition: strings.Join(args, " "),
			Exclusions: exclusions,
			Language:   entity.Language(language),
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(word)
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)

	describeCmd.Flags().StringP("user", "u", "cli", "user whose vocabulary is consulted")
	describeCmd.Flags().StringP("language", "l", "", "target language code (defaults to app.default_language)")
	describeCmd.Flags().StringSliceP("exclude", "x", nil, "words that must not be suggested")
}
