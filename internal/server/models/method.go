package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// MethodMapping binds a logical data feed to its destination path and the
// columns its files must carry.
type MethodMapping struct {
	ID          string
	Method      string
	URI         string
	Description string
	// MandatoryHeaders is the legacy comma separated header list. It is only
	// read when deriving Schema.
	MandatoryHeaders string
	// Schema is nil when uploads for the method are not schema-checked.
	Schema *Schema
}

// Field is one expected column.
type Field struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Schema is the ordered list of columns registered for a method. It is
// stored as a jsonb document of the form {"fields":[{"name":"..."}]}.
type Schema struct {
	Fields []Field `json:"fields" yaml:"fields"`
}

// FieldNames returns the column names in registration order.
func (s *Schema) FieldNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Value implements driver.Valuer. A nil schema is stored as SQL NULL.
func (s *Schema) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Scan implements sql.Scanner for jsonb columns.
func (s *Schema) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*s = Schema{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("schema: unsupported source type %T", src)
	}
	return json.Unmarshal(b, s)
}

// HeaderToSchema converts a comma separated mandatory header list into a
// Schema with one field per entry. An empty header yields nil.
func HeaderToSchema(header string) *Schema {
	if strings.TrimSpace(header) == "" {
		return nil
	}
	parts := strings.Split(header, ",")
	fields := make([]Field, 0, len(parts))
	for _, p := range parts {
		fields = append(fields, Field{Name: strings.TrimSpace(p)})
	}
	return &Schema{Fields: fields}
}
