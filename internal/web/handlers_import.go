package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/bizdir/internal/core"
	"github.com/JonMunkholm/bizdir/internal/notify"
)

// multipartOverhead is the allowance for form boundaries and fields on top
// of the file size limit.
const multipartOverhead = 1 << 20

// ImportSummaryJSON is the counts block of an import response.
type ImportSummaryJSON struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// ImportResponse is the body of a successful import.
type ImportResponse struct {
	Success           bool                   `json:"success"`
	ImportID          string                 `json:"importId"`
	Summary           ImportSummaryJSON      `json:"summary"`
	CreatedBusinesses []core.CreatedBusiness `json:"createdBusinesses"`
	ParseErrors       []core.ParseError      `json:"parseErrors,omitempty"`
	FailedRows        []core.FailedRow       `json:"failedRows,omitempty"`
	SkippedRows       []core.SkippedRow      `json:"skippedRows,omitempty"`
}

// PreviewResponse is the body of a dry-run import.
type PreviewResponse struct {
	Fields      []string          `json:"fields"`
	RowCount    int               `json:"rowCount"`
	ParseErrors []core.ParseError `json:"parseErrors"`
}

func toImportResponse(report *core.ImportReport) ImportResponse {
	created := report.Summary.Created
	if created == nil {
		created = []core.CreatedBusiness{}
	}
	c := report.Summary.Counts
	return ImportResponse{
		Success:           true,
		ImportID:          report.ImportID,
		Summary:           ImportSummaryJSON{Total: c.Total, Created: c.Created, Failed: c.Failed, Skipped: c.Skipped},
		CreatedBusinesses: created,
		ParseErrors:       report.Parse.Errors,
		FailedRows:        report.Summary.Failed,
		SkippedRows:       report.Summary.Skipped,
	}
}

// handleImport creates owners and businesses from an uploaded CSV.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	req, status, err := s.readImportRequest(w, r)
	if err != nil {
		s.respondError(w, r, err, status)
		return
	}

	report, err := s.deps.Importer.ImportBusinesses(r.Context(), req)
	switch {
	case errors.Is(err, core.ErrNoValidRows):
		var parseErrors []core.ParseError
		if report != nil {
			parseErrors = report.Parse.Errors
		}
		s.respondErrorWith(w, r, err, http.StatusBadRequest, parseErrors)
		return
	case err != nil:
		s.respondError(w, r, err, importErrorStatus(err))
		return
	}

	if n := report.Summary.Counts.Created; n > 0 && s.deps.Notifier != nil {
		s.deps.Notifier.Broadcast(notify.Event{
			Type:      notify.EventBusinessesImported,
			Count:     n,
			Timestamp: time.Now().UTC(),
		})
	}

	writeJSON(w, http.StatusOK, toImportResponse(report))
}

// handleImportPreview parses and validates an upload without committing it.
func (s *Server) handleImportPreview(w http.ResponseWriter, r *http.Request) {
	req, status, err := s.readImportRequest(w, r)
	if err != nil {
		s.respondError(w, r, err, status)
		return
	}

	result, err := s.deps.Importer.PreviewImport(req)
	if err != nil {
		s.respondError(w, r, err, importErrorStatus(err))
		return
	}

	parseErrors := result.Errors
	if parseErrors == nil {
		parseErrors = []core.ParseError{}
	}
	writeJSON(w, http.StatusOK, PreviewResponse{
		Fields:      result.Meta.Fields,
		RowCount:    result.Meta.RowCount,
		ParseErrors: parseErrors,
	})
}

// handleImportTemplate serves the sample import file as a download.
func (s *Server) handleImportTemplate(w http.ResponseWriter, r *http.Request) {
	body := core.GenerateTemplate()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", core.TemplateFileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

// readImportRequest extracts the file and optional categoryId from a
// multipart form. On failure it returns the status to respond with.
func (s *Server) readImportRequest(w http.ResponseWriter, r *http.Request) (core.ImportRequest, int, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return core.ImportRequest{}, http.StatusRequestEntityTooLarge, fmt.Errorf("%w: %v", core.ErrFileTooLarge, err)
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return core.ImportRequest{}, http.StatusBadRequest, core.ErrNoFile
		}
		return core.ImportRequest{}, http.StatusBadRequest, fmt.Errorf("invalid form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return core.ImportRequest{}, http.StatusBadRequest, core.ErrNoFile
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return core.ImportRequest{}, http.StatusInternalServerError, fmt.Errorf("read upload: %w", err)
	}

	return core.ImportRequest{
		FileName:   header.Filename,
		Data:       data,
		CategoryID: r.FormValue("categoryId"),
	}, http.StatusOK, nil
}

// handleImportHistory lists recent import runs, newest first.
func (s *Server) handleImportHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", core.DefaultHistoryLimit)

	runs, err := s.deps.Importer.ImportHistory(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"imports": runs})
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	i, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// importErrorStatus maps service errors to HTTP statuses.
func importErrorStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrNoFile), errors.Is(err, core.ErrNotCSV):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
