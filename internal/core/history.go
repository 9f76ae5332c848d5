package core

import (
	"context"
	"time"
)

// DefaultHistoryLimit caps history listings when no limit is given.
const DefaultHistoryLimit = 20

// MaxHistoryLimit is the largest page a history listing returns.
const MaxHistoryLimit = 200

// ImportRun is one completed import as kept in the import history.
type ImportRun struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	Total      int       `json:"total"`
	Created    int       `json:"created"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	DurationMs int64     `json:"durationMs"`
	ImportedAt time.Time `json:"importedAt"`
}

// HistoryStore is implemented by stores that keep an import history.
type HistoryStore interface {
	RecordImport(ctx context.Context, run ImportRun) error
	ListImports(ctx context.Context, limit int) ([]ImportRun, error)
}

func runFromReport(r *ImportReport) ImportRun {
	c := r.Summary.Counts
	return ImportRun{
		ID:         r.ImportID,
		FileName:   r.FileName,
		Total:      c.Total,
		Created:    c.Created,
		Failed:     c.Failed,
		Skipped:    c.Skipped,
		DurationMs: r.Duration.Milliseconds(),
		ImportedAt: time.Now().UTC(),
	}
}

// ImportHistory returns the most recent import runs, newest first. Stores
// without history support yield an empty list.
func (s *Service) ImportHistory(ctx context.Context, limit int) ([]ImportRun, error) {
	hs, ok := s.store.(HistoryStore)
	if !ok {
		return []ImportRun{}, nil
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return hs.ListImports(ctx, limit)
}

// recordRun stores the run if the store keeps history. Failures are logged
// by the caller and never fail the import.
func (s *Service) recordRun(ctx context.Context, report *ImportReport) error {
	hs, ok := s.store.(HistoryStore)
	if !ok {
		return nil
	}
	return hs.RecordImport(ctx, runFromReport(report))
}
