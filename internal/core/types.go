package core

import (
	"fmt"
	"time"
)

// ErrorKind classifies a ParseError by the pipeline stage that produced it.
type ErrorKind string

const (
	// KindStructural covers a malformed header or a column-count mismatch.
	KindStructural ErrorKind = "structural"
	// KindValidation covers format violations on individual fields.
	KindValidation ErrorKind = "validation"
	// KindCommit covers failures while creating the owner and business.
	KindCommit ErrorKind = "commit"
)

// ParseError describes a problem with one input row.
// Row 0 refers to the file as a whole (empty file, missing header fields).
type ParseError struct {
	Row     int       `json:"row"`
	Field   string    `json:"field,omitempty"`
	Message string    `json:"message"`
	Kind    ErrorKind `json:"kind"`
}

func (e ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ParsedRow is one accepted input line keyed by normalized header name.
type ParsedRow struct {
	Line   int               // 1-based line number, header is line 1
	Values map[string]string // normalized field name -> trimmed value
}

// Get returns the value for a normalized field name, or "" if absent.
func (r ParsedRow) Get(field string) string {
	return r.Values[field]
}

// ParseMeta summarizes the parsed header and accepted row count.
type ParseMeta struct {
	Fields   []string `json:"fields"`
	RowCount int      `json:"rowCount"`
}

// ParseResult is the output of the lexer and validator stages.
type ParseResult struct {
	Data   []ParsedRow
	Errors []ParseError
	Meta   ParseMeta
}

// Category is a directory category available for assignment.
type Category struct {
	ID   string
	Name string
}

// BusinessRequest is a validated row mapped onto business attributes.
// Nil optional fields are omitted by the store.
type BusinessRequest struct {
	Name        string
	Email       string
	AdminName   string
	Description *string
	Phone       *string
	Website     *string
	Address     *string
	CategoryID  *string
}

// CreatedBusiness reports a business created during an import.
// Password is the generated plaintext credential and is never stored.
type CreatedBusiness struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SkippedRow reports a row whose owner email already exists.
type SkippedRow struct {
	Row   int    `json:"row"`
	Email string `json:"email"`
}

// FailedRow reports a row that was attempted and failed during commit.
type FailedRow struct {
	Row    int          `json:"row"`
	Errors []ParseError `json:"errors"`
}

// ImportCounts holds the aggregate outcome counts of one commit run.
// Total always equals Created + Failed + Skipped.
type ImportCounts struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// ImportSummary contains the result of committing a batch of rows.
// Each list preserves input order.
type ImportSummary struct {
	Counts  ImportCounts
	Created []CreatedBusiness
	Failed  []FailedRow
	Skipped []SkippedRow
}

// ImportReport is the full result of one import request.
type ImportReport struct {
	ImportID string
	FileName string
	Parse    ParseResult
	Summary  ImportSummary
	Duration time.Duration
}
