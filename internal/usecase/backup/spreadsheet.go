package backup

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/eslsoft/oghmai/internal/entity"
)

// vocabularySheet is the default sheet of a new workbook.
const vocabularySheet = "Sheet1"

var spreadsheetHeader = []any{
	"Word", "Language", "Status", "Created", "Last tested",
	"Type", "Translation", "Definition", "Examples",
}

// ExportSpreadsheet writes the vocabulary as an XLSX workbook with one row per meaning.
// It is a read-only view; Import does not accept it.
func (s *Service) ExportSpreadsheet(ctx context.Context, userID string, w io.Writer, opts ...ExportOption) (int, error) {
	cfg := exportConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	reporter := cfg.reporter
	if reporter == nil {
		reporter = noopProgress{}
	}

	words, err := s.Collect(ctx, userID, opts...)
	if err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow(vocabularySheet, "A1", &spreadsheetHeader); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	reporter.Start(len(words))
	row := 2
	for _, word := range words {
		for _, values := range spreadsheetRows(word) {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return 0, err
			}
			if err := f.SetSheetRow(vocabularySheet, cell, &values); err != nil {
				return 0, fmt.Errorf("write row %d: %w", row, err)
			}
			row++
		}
		reporter.Increment(1)
	}
	reporter.Finish()
	if err := f.SetColWidth(vocabularySheet, "A", "A", 18); err != nil {
		return 0, err
	}
	if err := f.SetColWidth(vocabularySheet, "G", "I", 40); err != nil {
		return 0, err
	}

	if _, err := f.WriteTo(w); err != nil {
		return 0, fmt.Errorf("write workbook: %w", err)
	}
	return len(words), nil
}

func spreadsheetRows(word entity.Word) [][]any {
	lastTested := ""
	if word.LastTestedAt != nil {
		lastTested = word.LastTestedAt.UTC().Format(time.RFC3339)
	}
	prefix := []any{word.Word, word.Language.Code(), string(word.Status), word.CreatedAt.UTC().Format(time.RFC3339), lastTested}
	if len(word.Meanings) == 0 {
		return [][]any{append(prefix, "", "", "", "")}
	}
	rows := make([][]any, 0, len(word.Meanings))
	for _, m := range word.Meanings {
		row := append(append([]any{}, prefix...), string(m.Type), m.Translation, m.Definition, strings.Join(m.Examples, "\n"))
		rows = append(rows, row)
	}
	return rows
}
