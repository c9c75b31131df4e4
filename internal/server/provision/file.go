// Package provision loads the registry description of methods and
// credentials from YAML and applies it to the configured backend.
package provision

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dmitrijs2005/ingestgate/internal/common"
	"github.com/dmitrijs2005/ingestgate/internal/server/models"
	"gopkg.in/yaml.v3"
)

// Method describes one method mapping. Either Schema or the legacy
// MandatoryHeaders list may be given; Schema wins.
type Method struct {
	Method           string         `yaml:"method"`
	URI              string         `yaml:"uri"`
	Description      string         `yaml:"description,omitempty"`
	MandatoryHeaders string         `yaml:"mandatory_headers,omitempty"`
	Schema           *models.Schema `yaml:"schema,omitempty"`
}

// Mapping converts m to the registry model.
func (m Method) Mapping() *models.MethodMapping {
	schema := m.Schema
	if schema == nil {
		schema = models.HeaderToSchema(m.MandatoryHeaders)
	}
	return &models.MethodMapping{
		Method:           m.Method,
		URI:              m.URI,
		Description:      m.Description,
		MandatoryHeaders: m.MandatoryHeaders,
		Schema:           schema,
	}
}

// Credential describes one submitter. Secret is only honoured by the file
// registry; provisioning into PostgreSQL always generates one.
type Credential struct {
	Username string   `yaml:"username"`
	Email    string   `yaml:"email,omitempty"`
	Secret   string   `yaml:"secret,omitempty"`
	Methods  []string `yaml:"methods"`
}

type File struct {
	Methods     []Method     `yaml:"methods"`
	Credentials []Credential `yaml:"credentials"`
}

// Load reads and validates a provisioning file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading provisioning file %s", path)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes and validates a provisioning document.
func Parse(r io.Reader) (*File, error) {
	f := &File{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "decoding provisioning file")
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks that names are present and unique and that credentials
// only reference declared methods.
func (f *File) Validate() error {
	methods := make(map[string]struct{}, len(f.Methods))
	for i, m := range f.Methods {
		if strings.TrimSpace(m.Method) == "" {
			return invalid("methods[%d]: method is required", i)
		}
		if strings.TrimSpace(m.URI) == "" {
			return invalid("method %q: uri is required", m.Method)
		}
		if _, dup := methods[m.Method]; dup {
			return invalid("method %q declared twice", m.Method)
		}
		methods[m.Method] = struct{}{}
	}

	users := make(map[string]struct{}, len(f.Credentials))
	for i, c := range f.Credentials {
		if strings.TrimSpace(c.Username) == "" {
			return invalid("credentials[%d]: username is required", i)
		}
		if _, dup := users[c.Username]; dup {
			return invalid("credential %q declared twice", c.Username)
		}
		users[c.Username] = struct{}{}
		for _, m := range c.Methods {
			if _, ok := methods[m]; !ok {
				return invalid("credential %q: unknown method %q", c.Username, m)
			}
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.Mark(fmt.Errorf(format, args...), common.ErrorValidation)
}
