package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/bizdir/internal/logging"
	"github.com/google/uuid"
)

var (
	// ErrNoFile is returned when a request carries no import file.
	ErrNoFile = errors.New("no file provided")

	// ErrNotCSV is returned for files without a .csv extension.
	ErrNotCSV = errors.New("not a csv file")

	// ErrFileTooLarge is returned for files over the configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNoValidRows is returned when parsing accepts no rows. The report
	// returned alongside it still carries the parse errors.
	ErrNoValidRows = errors.New("no valid rows to import")
)

// Service runs business imports against a store.
type Service struct {
	store       Store
	importer    *Importer
	limiter     *ImportLimiter
	maxFileSize int64
	timeout     time.Duration
}

// ServiceOptions holds the import limits a Service enforces.
type ServiceOptions struct {
	MaxFileSize   int64
	MaxConcurrent int
	MaxWaitTime   time.Duration
	Timeout       time.Duration // bounds one import's commit loop
}

// NewService creates a Service.
func NewService(store Store, hasher PasswordHasher, opts ServiceOptions) *Service {
	return &Service{
		store:       store,
		importer:    NewImporter(store, hasher),
		limiter:     NewImportLimiter(opts.MaxConcurrent, opts.MaxWaitTime),
		maxFileSize: opts.MaxFileSize,
		timeout:     opts.Timeout,
	}
}

// ImportRequest is one uploaded import file.
type ImportRequest struct {
	FileName   string
	Data       []byte
	CategoryID string // optional batch-level category
}

// ImportBusinesses parses req and creates a business for every valid row.
//
// When no row survives validation it returns ErrNoValidRows together with a
// report holding the parse errors. Row-level commit failures never produce
// an error; they are reported in the summary.
func (s *Service) ImportBusinesses(ctx context.Context, req ImportRequest) (*ImportReport, error) {
	start := time.Now()

	if err := s.checkFile(req); err != nil {
		return nil, err
	}

	report := &ImportReport{
		ImportID: uuid.New().String(),
		FileName: req.FileName,
		Parse:    Parse(string(prepareInput(req.Data))),
	}

	logger := logging.WithFields(ctx,
		"import_id", report.ImportID,
		"file", req.FileName,
	)

	if len(report.Parse.Data) == 0 {
		logger.Info("import rejected", "parse_errors", len(report.Parse.Errors))
		return report, ErrNoValidRows
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	importCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	categories, err := s.store.ListCategories(importCtx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	logger.Info("import started",
		"rows", len(report.Parse.Data),
		"parse_errors", len(report.Parse.Errors),
		"batch_category", req.CategoryID,
	)

	summary, err := s.importer.Commit(importCtx, report.Parse.Data, CommitOptions{
		BatchCategoryID: req.CategoryID,
		Categories:      categories,
	})
	if err != nil {
		logger.Error("import failed", "error", err)
		return nil, err
	}

	report.Summary = summary
	report.Duration = time.Since(start)

	logger.Info("import completed",
		"total", summary.Counts.Total,
		"created", summary.Counts.Created,
		"failed", summary.Counts.Failed,
		"skipped", summary.Counts.Skipped,
		"duration_ms", report.Duration.Milliseconds(),
	)
	for _, f := range summary.Failed {
		logger.Warn("import row failed", "row", f.Row, "error", f.Errors[0].Message)
	}

	if err := s.recordRun(ctx, report); err != nil {
		logger.Warn("failed to record import history", "error", err)
	}

	return report, nil
}

// PreviewImport parses and validates req without touching the store.
func (s *Service) PreviewImport(req ImportRequest) (ParseResult, error) {
	if err := s.checkFile(req); err != nil {
		return ParseResult{}, err
	}
	return Parse(string(prepareInput(req.Data))), nil
}

// ImportLimiterStatus reports import slot usage.
func (s *Service) ImportLimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func (s *Service) checkFile(req ImportRequest) error {
	if req.FileName == "" && len(req.Data) == 0 {
		return ErrNoFile
	}
	if !strings.EqualFold(filepath.Ext(req.FileName), ".csv") {
		return fmt.Errorf("%w: %s", ErrNotCSV, filepath.Base(req.FileName))
	}
	if s.maxFileSize > 0 && int64(len(req.Data)) > s.maxFileSize {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, len(req.Data), s.maxFileSize)
	}
	return nil
}
