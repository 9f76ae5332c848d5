package core

// error_messages.go maps technical errors to user-facing messages.
//
// Every message carries a code operators can quote to support:
//
//	DB001   duplicate key / unique violation
//	DB002   foreign key violation (unknown category)
//	DB003   database unreachable
//	DB004   operation timed out
//	FILE001 file too large
//	FILE002 file is not a .csv
//	FILE003 no file provided
//	FILE004 file contains no valid rows
//	IMP001  too many concurrent imports
//	IMP002  import transaction aborted
//	IMP003  request cancelled
//	AUTH001 missing or invalid API key
//	RATE001 rate limited
//	ERR000  anything else
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{"duplicate key", UserMessage{"A record with this value already exists", "Re-import the file; existing owners are skipped", "DB001"}},
	{"unique constraint", UserMessage{"A record with this value already exists", "Re-import the file; existing owners are skipped", "DB001"}},
	{"foreign key", UserMessage{"Referenced category does not exist", "Choose an existing category for the import", "DB002"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB003"}},
	{"file too large", UserMessage{"File exceeds the maximum upload size", "Split the file into smaller imports", "FILE001"}},
	{"request body too large", UserMessage{"File exceeds the maximum upload size", "Split the file into smaller imports", "FILE001"}},
	{"not a csv", UserMessage{"Only .csv files can be imported", "Export your spreadsheet as CSV and try again", "FILE002"}},
	{"no file provided", UserMessage{"No file was selected", "Please select a CSV file to import", "FILE003"}},
	{"no valid rows", UserMessage{"The file contains no valid rows", "Fix the reported row errors and try again", "FILE004"}},
	{"too many concurrent imports", UserMessage{"Another import is already running", "Please wait a moment and try again", "IMP001"}},
	{"import transaction aborted", UserMessage{"The import could not be completed", "No businesses were created; please try again", "IMP002"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "IMP003"}},
	{"context deadline exceeded", UserMessage{"Operation timed out", "Try importing a smaller file", "DB004"}},
	{"timeout", UserMessage{"Operation timed out", "Try importing a smaller file", "DB004"}},
	{"api key", UserMessage{"You are not authorized to import businesses", "Sign in as a super-admin", "AUTH001"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Unknown errors map to the generic ERR000 message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError formats err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
