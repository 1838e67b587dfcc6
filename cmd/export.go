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
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/oghmai/internal/entity"
	"github.com/eslsoft/oghmai/internal/usecase/backup"
)

const (
	exportOutputKey   = "backup.export.output"
	exportGzipKey     = "backup.export.gzip"
	exportFormatKey   = "backup.export.format"
	exportBatchKey    = "backup.export.batch_size"
	exportUserKey     = "backup.export.user"
	exportLanguageKey = "backup.export.language"

	formatNDJSON = "ndjson"
	formatXLSX   = "xlsx"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a user's vocabulary as an NDJSON backup or XLSX sheet",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()

		outputPath := viper.GetString(exportOutputKey)
		gzipEnabled := viper.GetBool(exportGzipKey)
		format := strings.ToLower(viper.GetString(exportFormatKey))
		batchSize := viper.GetInt(exportBatchKey)
		userID := viper.GetString(exportUserKey)
		language := viper.GetString(exportLanguageKey)

		if userID == "" {
			return fmt.Errorf("--user is required")
		}
		if format == "" {
			format = formatNDJSON
		}
		if format != formatNDJSON && format != formatXLSX {
			return fmt.Errorf("unsupported format %q (want %s or %s)", format, formatNDJSON, formatXLSX)
		}
		if format == formatXLSX {
			gzipEnabled = false
		}
		if outputPath == "" {
			outputPath = defaultExportFilename(format, gzipEnabled)
		}
		if format == formatNDJSON && !gzipEnabled && outputPath != "-" && strings.HasSuffix(strings.ToLower(outputPath), ".gz") {
			gzipEnabled = true
		}

		service, cleanup, err := openBackupService(cmd, batchSize, false)
		if err != nil {
			return err
		}
		defer cleanup()

		var (
			writer   = cmd.OutOrStdout()
			closeFns []func() error
		)

		if outputPath != "-" {
			if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			file, openErr := os.Create(outputPath)
			if openErr != nil {
				return fmt.Errorf("create backup file: %w", openErr)
			}
			writer = file
			closeFns = append(closeFns, file.Close)
		}

		if gzipEnabled {
			gz := gzip.NewWriter(writer)
			writer = gz
			closeFns = append([]func() error{gz.Close}, closeFns...)
		}

		defer func() {
			for _, closer := range closeFns {
				if cerr := closer(); cerr != nil && err == nil {
					err = cerr
				}
			}
		}()

		exportOpts := []backup.ExportOption{backup.WithProgressReporter(newCLIProgress(cmd.ErrOrStderr()))}
		if language != "" {
			exportOpts = append(exportOpts, backup.WithLanguage(entity.Language(language)))
		}

		var n int
		if format == formatXLSX {
			n, err = service.ExportSpreadsheet(ctx, userID, writer, exportOpts...)
		} else {
			n, err = service.Export(ctx, userID, writer, exportOpts...)
		}
		if err != nil {
			return fmt.Errorf("export backup: %w", err)
		}

		if outputPath == "-" {
			cmd.PrintErrf("exported %d words to stdout\n", n)
		} else {
			cmd.Printf("exported %d words: %s\n", n, outputPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", "output file path, - for stdout")
	exportCmd.Flags().Bool("gzip", false, "gzip the NDJSON output")
	exportCmd.Flags().StringP("format", "f", formatNDJSON, "output format: ndjson or xlsx")
	exportCmd.Flags().Int("batch-size", 0, "page size used while reading words (default 512)")
	exportCmd.Flags().StringP("user", "u", "", "owner of the exported vocabulary")
	exportCmd.Flags().StringP("language", "l", "", "only export this language")

	bindExportConfig()
}

func defaultExportFilename(format string, gzipEnabled bool) string {
	ts := time.Now().UTC().Format("20060102-150405")
	if format == formatXLSX {
		return fmt.Sprintf("oghmai-vocabulary-%s.xlsx", ts)
	}
	filename := fmt.Sprintf("oghmai-backup-%s.jsonl", ts)
	if gzipEnabled {
		filename += ".gz"
	}
	return filename
}

func bindExportConfig() {
	bindFlagToViper(exportOutputKey, exportCmd.Flags().Lookup("output"))
	bindFlagToViper(exportGzipKey, exportCmd.Flags().Lookup("gzip"))
	bindFlagToViper(exportFormatKey, exportCmd.Flags().Lookup("format"))
	bindFlagToViper(exportBatchKey, exportCmd.Flags().Lookup("batch-size"))
	bindFlagToViper(exportUserKey, exportCmd.Flags().Lookup("user"))
	bindFlagToViper(exportLanguageKey, exportCmd.Flags().Lookup("language"))
}

type cliProgress struct {
	out         io.Writer
	total       int
	count       int
	lastPrinted int
	step        int
}

func newCLIProgress(out io.Writer) *cliProgress {
	return &cliProgress{out: out}
}

func (p *cliProgress) Start(total int) {
	if total < 0 {
		total = 0
	}
	p.total = total
	p.count = 0
	p.lastPrinted = 0
	p.step = progressStep(total)
	fmt.Fprintf(p.out, "exporting %d words\n", total)
}

func (p *cliProgress) Increment(delta int) {
	if delta <= 0 {
		return
	}
	p.count += delta
	step := p.step
	if step <= 0 {
		step = 1
	}
	if p.count == p.total || p.lastPrinted == 0 || p.count-p.lastPrinted >= step {
		p.printProgress()
		p.lastPrinted = p.count
	}
}

func (p *cliProgress) Finish() {
	if p.count != p.lastPrinted {
		p.printProgress()
	}
	fmt.Fprintf(p.out, "export finished: %d/%d words\n", p.count, p.total)
}

func (p *cliProgress) printProgress() {
	if p.total > 0 {
		fmt.Fprintf(p.out, "progress: %d/%d\n", p.count, p.total)
	} else {
		fmt.Fprintf(p.out, "progress: %d words\n", p.count)
	}
}

func progressStep(total int) int {
	if total <= 0 {
		return 1000
	}
	step := total / 20
	if step < 1 {
		step = 1
	}
	if step > 1000 {
		step = 1000
	}
	return step
}
