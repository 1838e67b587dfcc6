package backup

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/samber/lo"

	"github.com/eslsoft/oghmai/internal/entity"
	"github.com/eslsoft/oghmai/internal/repository"
	"github.com/eslsoft/oghmai/pkg/filterexpr"
)

const (
	defaultPageSize = 512
	// formatVersion 1 stored a single flat translation per word; 2 stores meanings.
	formatVersion = 2
)

var errMissingMeta = errors.New("backup: missing meta record")

type ProgressReporter interface {
	Start(total int)
	Increment(delta int)
	Finish()
}

type noopProgress struct{}

func (noopProgress) Start(int)     {}
func (noopProgress) Increment(int) {}
func (noopProgress) Finish()       {}

// Service exports and imports one learner's vocabulary as newline-delimited JSON.
type Service struct {
	words    repository.WordRepository
	pageSize int32
	clock    func() time.Time
}

type Option func(*Service)

func WithPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pageSize = int32(size)
		}
	}
}

func NewService(words repository.WordRepository, opts ...Option) *Service {
	svc := &Service{words: words, pageSize: defaultPageSize, clock: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ExportOption func(*exportConfig)

type exportConfig struct {
	language entity.Language
	reporter ProgressReporter
}

// WithLanguage restricts the export to one language.
func WithLanguage(lang entity.Language) ExportOption {
	return func(cfg *exportConfig) {
		cfg.language = entity.Language(lang.Code())
	}
}

// WithProgressReporter registers a reporter that receives progress callbacks during export.
func WithProgressReporter(reporter ProgressReporter) ExportOption {
	return func(cfg *exportConfig) {
		cfg.reporter = reporter
	}
}

type ImportOption func(*importConfig)

type importConfig struct {
	overwrite bool
}

// WithOverwrite replaces the meanings of words the learner already has.
func WithOverwrite(overwrite bool) ImportOption {
	return func(cfg *importConfig) {
		cfg.overwrite = overwrite
	}
}

// ImportReport summarizes an import run.
type ImportReport struct {
	Imported int
	Skipped  int
}

type record struct {
	Type       string     `json:"type"`
	Version    int        `json:"version,omitempty"`
	ExportedAt *time.Time `json:"exported_at,omitempty"`
	UserID     string     `json:"user_id,omitempty"`
	Count      int        `json:"count,omitempty"`
	Payload    any        `json:"payload,omitempty"`
}

type rawRecord struct {
	Type    string          `json:"type"`
	Version int             `json:"version"`
	Payload json.RawMessage `json:"payload"`
}

// wordPayload decodes both formats; the flat fields only appear in version 1 files.
type wordPayload struct {
	entity.Word
	Translation string   `json:"translation,omitempty"`
	Definition  string   `json:"definition,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

// Collect pages through every word of userID in stable order.
func (s *Service) Collect(ctx context.Context, userID string, opts ...ExportOption) ([]entity.Word, error) {
	cfg := exportConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	var all []entity.Word
	for page := int32(1); ; page++ {
		batch, err := s.words.List(ctx, &repository.ListWordQuery{
			Pagination: repository.Pagination{PageNo: page, PageSize: s.pageSize},
			UserID:     userID,
			Language:   cfg.language,
			Order:      []filterexpr.OrderTerm{{Key: "language"}, {Key: "word"}},
		})
		if err != nil {
			return nil, fmt.Errorf("list words page %d: %w", page, err)
		}
		all = append(all, batch...)
		if int32(len(batch)) < s.pageSize {
			return all, nil
		}
	}
}

// Export writes a meta record followed by one record per word.
func (s *Service) Export(ctx context.Context, userID string, w io.Writer, opts ...ExportOption) (int, error) {
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

	writer := bufio.NewWriter(w)
	now := s.clock().UTC()
	meta := record{Type: "meta", Version: formatVersion, ExportedAt: &now, UserID: userID, Count: len(words)}
	if err := writeRecord(writer, meta); err != nil {
		return 0, err
	}
	reporter.Start(len(words))
	for _, word := range words {
		if err := writeRecord(writer, record{Type: "word", Payload: word}); err != nil {
			return 0, err
		}
		reporter.Increment(1)
	}
	reporter.Finish()
	if err := writer.Flush(); err != nil {
		return 0, fmt.Errorf("flush backup: %w", err)
	}
	return len(words), nil
}

// Import reads a backup produced by Export into userID's vocabulary.
// Words that already exist are skipped unless overwrite is requested.
func (s *Service) Import(ctx context.Context, userID string, r io.Reader, opts ...ImportOption) (*ImportReport, error) {
	cfg := importConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if userID == "" {
		return nil, entity.ErrInvalidUserID
	}

	br := bufio.NewReader(r)
	report := &ImportReport{}
	version := 0
	for lineNo := 1; ; lineNo++ {
		line, readErr := br.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, fmt.Errorf("read backup: %w", readErr)
		}
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			var rec rawRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				return nil, fmt.Errorf("decode record on line %d: %w", lineNo, err)
			}
			switch rec.Type {
			case "meta":
				if rec.Version < 1 || rec.Version > formatVersion {
					return nil, fmt.Errorf("backup: unsupported format version %d", rec.Version)
				}
				version = rec.Version
			case "word":
				if version == 0 {
					return nil, errMissingMeta
				}
				imported, err := s.importWord(ctx, userID, rec.Payload, cfg.overwrite)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				if imported {
					report.Imported++
				} else {
					report.Skipped++
				}
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
	}
	if version == 0 {
		return nil, errMissingMeta
	}
	return report, nil
}

func (s *Service) importWord(ctx context.Context, userID string, payload json.RawMessage, overwrite bool) (bool, error) {
	if len(payload) == 0 {
		return false, errors.New("backup: missing payload")
	}
	var p wordPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return false, fmt.Errorf("decode word: %w", err)
	}
	word := p.Word
	if len(word.Meanings) == 0 && (p.Translation != "" || p.Definition != "") {
		word.Meanings = []entity.Meaning{{
			Translation: p.Translation,
			Definition:  p.Definition,
			Examples:    lo.Compact(p.Examples),
			Type:        entity.MeaningOther,
		}}
	}
	if word.Status != "" {
		status, err := entity.ParseStatus(string(word.Status))
		if err != nil {
			return false, err
		}
		word.Status = status
	}
	word.UserID = userID
	word.Version = 0
	word.Normalize(s.clock())
	if word.Word == "" {
		return false, entity.ErrInvalidWord
	}

	if _, err := s.words.Save(ctx, &word, overwrite); err != nil {
		if errors.Is(err, entity.ErrDuplicateWord) {
			return false, nil
		}
		return false, fmt.Errorf("save %q: %w", word.Word, err)
	}
	return true, nil
}

func writeRecord(w io.Writer, rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		return err
	}
	return nil
}
