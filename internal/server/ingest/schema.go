package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/dmitrijs2005/ingestgate/internal/common"
	"github.com/dmitrijs2005/ingestgate/internal/server/models"
)

// Schema error codes.
const (
	CodeMissingHeader = "missing-header"
	CodeBlankHeader   = "blank-header"
	CodeSourceError   = "source-error"
)

// Registry is the read-only lookup of method mappings.
//
// FindMapping returns common.ErrorNotFound when method is not registered at
// all, and common.ErrorForbidden when it is registered but identity is not
// associated with it.
type Registry interface {
	FindMapping(ctx context.Context, identity, method string) (*models.MethodMapping, error)
}

// lookupMapping converts registry failures into upload errors.
func lookupMapping(ctx context.Context, reg Registry, identity, method string) (*models.MethodMapping, *Error) {
	m, err := reg.FindMapping(ctx, identity, method)
	switch {
	case err == nil:
		return m, nil
	case errors.Is(err, common.ErrorNotFound):
		return nil, newError(UnknownDestination, common.FieldMethod, "destination does not exist")
	case errors.Is(err, common.ErrorForbidden):
		return nil, newError(PermissionDenied, common.FieldMethod, "permission denied for method %q", method)
	default:
		return nil, &Error{Kind: Internal, Field: common.FieldMethod, Messages: []string{"registry unavailable"}, Err: err}
	}
}

// SchemaValidator checks sampled headers against the schema registered for
// a method.
type SchemaValidator struct {
	Registry Registry
}

// Validate looks the mapping up and checks sample against its schema. It
// returns nil when the header conforms or the method has no schema,
// otherwise an *Error.
func (v SchemaValidator) Validate(ctx context.Context, identity, method string, sample SampleRows) error {
	m, e := lookupMapping(ctx, v.Registry, identity, method)
	if e != nil {
		return e
	}
	return ValidateMapping(m, sample)
}

// ValidateMapping checks sample against the schema of m. A nil schema
// accepts any header.
func ValidateMapping(m *models.MethodMapping, sample SampleRows) error {
	if e := validateMapping(m, sample); e != nil {
		return e
	}
	return nil
}

func validateMapping(m *models.MethodMapping, sample SampleRows) *Error {
	if m == nil || m.Schema == nil {
		return nil
	}
	if errs := CheckHeader(m.Schema, sample); len(errs) > 0 {
		return &Error{Kind: SchemaViolation, Field: common.FieldFile, Schema: errs}
	}
	return nil
}

// CheckHeader compares the first sample row with the schema fields. Every
// field must appear in the header; column order and extra columns are
// accepted. Header cells are compared after trimming surrounding spaces.
func CheckHeader(schema *models.Schema, sample SampleRows) []SchemaError {
	header := sample.Header()

	present := make(map[string]struct{}, len(header))
	blank := true
	for _, cell := range header {
		cell = strings.TrimSpace(cell)
		if cell != "" {
			blank = false
		}
		present[cell] = struct{}{}
	}

	if blank {
		if len(schema.Fields) == 0 {
			return nil
		}
		return []SchemaError{{Code: CodeBlankHeader, Message: "Header row is blank"}}
	}

	var errs []SchemaError
	for i, f := range schema.Fields {
		if _, ok := present[strings.TrimSpace(f.Name)]; ok {
			continue
		}
		errs = append(errs, SchemaError{
			Code:        CodeMissingHeader,
			Message:     fmt.Sprintf("There is a missing header %q in column %d", f.Name, i+1),
			FieldName:   f.Name,
			FieldNumber: i + 1,
		})
	}
	return errs
}
