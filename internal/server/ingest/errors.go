package ingest

import (
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies why an upload was rejected.
type Kind string

const (
	IntegrityMismatch     Kind = "integrity_mismatch"
	UnsupportedFormat     Kind = "unsupported_format"
	MultiSheetSpreadsheet Kind = "multi_sheet_spreadsheet"
	InvalidDelimiter      Kind = "invalid_delimiter"
	SchemaViolation       Kind = "schema_violation"
	UnknownDestination    Kind = "unknown_destination"
	PermissionDenied      Kind = "permission_denied"
	MissingField          Kind = "missing_field"
	InvalidFilename       Kind = "invalid_filename"
	AuthenticationFailed  Kind = "authentication_failed"
	Internal              Kind = "internal"
)

// Status returns the HTTP status reported for the kind.
func (k Kind) Status() int {
	switch k {
	case UnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case PermissionDenied, AuthenticationFailed:
		return http.StatusForbidden
	case Internal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// SchemaError is one structured header problem. The JSON shape is returned
// to the submitter verbatim.
type SchemaError struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	FieldName   string `json:"field-name,omitempty"`
	FieldNumber int    `json:"field-number,omitempty"`
}

// Error is the single error surfaced for a rejected upload.
type Error struct {
	Kind Kind
	// Field is the form field the error is reported on.
	Field    string
	Messages []string
	// Schema holds the raw header problems of a SchemaViolation.
	Schema []SchemaError
	// Char is the offending delimiter of an InvalidDelimiter.
	Char rune
	Err  error
}

func newError(kind Kind, field string, msg string, args ...any) *Error {
	return &Error{Kind: kind, Field: field, Messages: []string{fmt.Sprintf(msg, args...)}}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Field != "" {
		b.WriteString(" on ")
		b.WriteString(e.Field)
	}
	if len(e.Messages) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Messages, "; "))
	}
	for _, s := range e.Schema {
		b.WriteString(": ")
		b.WriteString(s.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status implied by the error kind.
func (e *Error) Status() int { return e.Kind.Status() }

// Detail returns what is reported under the field key of the response: the
// schema error list for schema violations, the messages otherwise.
func (e *Error) Detail() any {
	if e.Kind == SchemaViolation && len(e.Schema) > 0 {
		return e.Schema
	}
	return e.Messages
}
