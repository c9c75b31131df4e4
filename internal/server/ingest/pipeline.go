// Package ingest decides whether an uploaded file is accepted and prepares it
// for storage.
//
// A request goes through fixed stages: checksum, format, sampling, schema
// and destination. The first failing stage determines the single error of
// the outcome and no later stage runs.
package ingest

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/cockroachdb/errors"

	"github.com/dmitrijs2005/ingestgate/internal/common"
	"github.com/dmitrijs2005/ingestgate/internal/server/models"
)

// Stage is a state of the upload state machine.
type Stage string

const (
	StageReceived            Stage = "received"
	StageIntegrityChecked    Stage = "integrity_checked"
	StageFormatChecked       Stage = "format_checked"
	StageSampled             Stage = "sampled"
	StageSchemaChecked       Stage = "schema_checked"
	StageDestinationResolved Stage = "destination_resolved"
	StageAccepted            Stage = "accepted"
	StageRejected            Stage = "rejected"
)

// Request is one upload to validate. Body must be positioned anywhere; each
// stage rewinds it.
type Request struct {
	Identity string
	Method   string
	// Filename is the declared target name, may be empty.
	Filename string
	// OriginalFilename is the name of the uploaded file part.
	OriginalFilename string
	Checksum         string
	Body             io.ReadSeeker
}

// Payload is the file to store for an accepted upload.
type Payload struct {
	Filename string
	Body     io.ReadSeeker
	Size     int64

	buffers []*bytes.Buffer
}

// Close returns conversion buffers to the pool. The body must not be read
// afterwards. Close is safe on a nil payload and idempotent.
func (p *Payload) Close() {
	if p == nil {
		return
	}
	for _, b := range p.buffers {
		putBuffer(b)
	}
	p.buffers = nil
}

// Outcome is the result of one pipeline run.
type Outcome struct {
	Accepted bool
	// Stage is the last state reached.
	Stage  Stage
	Error  *Error
	Status int
	// Checksum is the server computed MD5, empty only when hashing failed.
	Checksum    string
	Format      Format
	Destination string
	Payload     *Payload
}

// State is StageAccepted or StageRejected.
func (o *Outcome) State() Stage {
	if o.Accepted {
		return StageAccepted
	}
	return StageRejected
}

// Close releases the payload.
func (o *Outcome) Close() {
	if o != nil {
		o.Payload.Close()
	}
}

// Pipeline runs the validation stages. It holds no per-request state and is
// safe for concurrent use.
type Pipeline struct {
	Policy     FormatPolicy
	Registry   Registry
	SampleRows int
}

type Option func(*Pipeline)

// WithPolicy sets the accepted suffixes.
func WithPolicy(p FormatPolicy) Option {
	return func(pl *Pipeline) { pl.Policy = p }
}

// WithSampleRows bounds the number of sampled rows.
func WithSampleRows(n int) Option {
	return func(pl *Pipeline) {
		if n > 0 {
			pl.SampleRows = n
		}
	}
}

func NewPipeline(reg Registry, opts ...Option) *Pipeline {
	p := &Pipeline{
		Policy:     NewFormatPolicy(),
		Registry:   reg,
		SampleRows: DefaultSampleRows,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// run carries the per-request state through the stages.
type run struct {
	p      *Pipeline
	req    Request
	out    *Outcome
	format Format
	target string
	// converted is set once a spreadsheet has been rewritten as CSV.
	converted bool
	body      io.ReadSeeker
	buffers   []*bytes.Buffer
	rows      SampleRows
	mapping   *models.MethodMapping
}

// Run validates req and returns its outcome. On acceptance the caller owns
// Outcome.Payload and must Close it; on rejection every buffer is already
// released. req.Body is left at the start of the stream.
func (p *Pipeline) Run(ctx context.Context, req Request) *Outcome {
	r := &run{p: p, req: req, out: &Outcome{Stage: StageReceived}, body: req.Body}

	stages := []struct {
		next Stage
		fn   func(ctx context.Context) *Error
	}{
		{StageIntegrityChecked, r.checkIntegrity},
		{StageFormatChecked, r.checkFormat},
		{StageSampled, r.sample},
		{StageSchemaChecked, r.checkSchema},
		{StageDestinationResolved, r.resolveDestination},
		{StageAccepted, r.prepare},
	}

	for _, st := range stages {
		if err := st.fn(ctx); err != nil {
			r.reject(err)
			return r.out
		}
		r.out.Stage = st.next
	}

	r.out.Accepted = true
	r.out.Status = http.StatusCreated
	return r.out
}

func (r *run) reject(err *Error) {
	for _, b := range r.buffers {
		putBuffer(b)
	}
	r.buffers = nil
	_, _ = r.req.Body.Seek(0, io.SeekStart)
	r.out.Error = err
	r.out.Status = err.Status()
}

func (r *run) checkIntegrity(context.Context) *Error {
	computed, ok, err := VerifyChecksum(r.req.Body, r.req.Checksum)
	if err != nil {
		return &Error{Kind: Internal, Field: common.FieldFile, Messages: []string{"could not read upload"}, Err: err}
	}
	r.out.Checksum = computed
	if !ok {
		return newError(IntegrityMismatch, common.FieldChecksum, "checksum mismatch: computed %s", computed)
	}
	return nil
}

func (r *run) checkFormat(context.Context) *Error {
	if r.req.Filename != "" && !r.p.Policy.Accepts(r.req.Filename) {
		return newError(UnsupportedFormat, common.FieldFilename, "unsupported file extension: %s", r.req.Filename)
	}
	if r.req.OriginalFilename != "" && !r.p.Policy.Accepts(r.req.OriginalFilename) {
		return newError(UnsupportedFormat, common.FieldFile, "unsupported file extension: %s", r.req.OriginalFilename)
	}

	source := r.req.OriginalFilename
	if source == "" {
		source = r.req.Filename
	}
	if source == "" {
		return newError(MissingField, common.FieldFilename, "this field is required")
	}

	r.target = TargetName(r.req.Filename, r.req.OriginalFilename)
	if !SafeName(r.target) {
		field := common.FieldFilename
		if r.req.Filename == "" {
			field = common.FieldFile
		}
		return newError(InvalidFilename, field, "invalid file name: %s", r.target)
	}
	r.format = Classify(source)
	r.out.Format = r.format

	if r.format != FormatSpreadsheet {
		return nil
	}

	buf := getBuffer()
	r.buffers = append(r.buffers, buf)
	if err := SpreadsheetToCSV(r.req.Body, buf); err != nil {
		if errors.Is(err, ErrMultiSheet) {
			return newError(MultiSheetSpreadsheet, common.FieldFile, MultiSheetMessage)
		}
		e := newError(UnsupportedFormat, common.FieldFile, "file is not a readable spreadsheet")
		e.Err = err
		return e
	}
	if _, err := r.req.Body.Seek(0, io.SeekStart); err != nil {
		return &Error{Kind: Internal, Field: common.FieldFile, Messages: []string{"could not read upload"}, Err: err}
	}

	r.body = bytes.NewReader(buf.Bytes())
	r.format = FormatCSV
	r.converted = true
	return nil
}

func (r *run) sample(context.Context) *Error {
	if !r.format.Tabular() {
		return nil
	}
	var opts []SampleOption
	if r.converted {
		opts = append(opts, WithoutSniff())
	}
	rows, err := Sample(r.body, r.format == FormatGzipCSV, r.p.SampleRows, opts...)
	if err == nil {
		r.rows = rows
		return nil
	}

	var de *InvalidDelimiterError
	switch {
	case errors.As(err, &de):
		e := newError(InvalidDelimiter, common.FieldFile, "invalid delimiter %s, only \",\" is accepted", quoteDelimiter(de.Char))
		e.Char = de.Char
		return e
	case errors.Is(err, ErrNotGzip):
		e := newError(UnsupportedFormat, common.FieldFile, "file is not gzip compressed")
		e.Err = err
		return e
	case errors.Is(err, ErrMalformedCSV):
		return &Error{
			Kind:  SchemaViolation,
			Field: common.FieldFile,
			Schema: []SchemaError{{
				Code:    CodeSourceError,
				Message: err.Error(),
			}},
			Err: err,
		}
	default:
		return &Error{Kind: Internal, Field: common.FieldFile, Messages: []string{"could not read upload"}, Err: err}
	}
}

func (r *run) lookup(ctx context.Context) (*models.MethodMapping, *Error) {
	if r.mapping != nil {
		return r.mapping, nil
	}
	m, err := lookupMapping(ctx, r.p.Registry, r.req.Identity, r.req.Method)
	if err != nil {
		return nil, err
	}
	r.mapping = m
	return m, nil
}

func (r *run) checkSchema(ctx context.Context) *Error {
	if !r.format.Tabular() {
		return nil
	}
	m, e := r.lookup(ctx)
	if e != nil {
		return e
	}
	return validateMapping(m, r.rows)
}

func (r *run) resolveDestination(ctx context.Context) *Error {
	m, e := r.lookup(ctx)
	if e != nil {
		return e
	}
	r.out.Destination = Destination(m, r.req.Identity)
	return nil
}

// prepare builds the payload. Plain CSV is gzipped here, after every check
// passed, so validation always saw the uncompressed content. Tabular content
// is always stored under a ".csv.gz"-style name whatever was declared.
func (r *run) prepare(context.Context) *Error {
	name, body := r.target, r.body
	if r.format.Tabular() {
		name = StoredName(name)
	}

	if r.format == FormatCSV {
		if _, err := body.Seek(0, io.SeekStart); err != nil {
			return &Error{Kind: Internal, Field: common.FieldFile, Messages: []string{"could not read upload"}, Err: err}
		}
		buf := getBuffer()
		r.buffers = append(r.buffers, buf)
		if err := Compress(buf, body); err != nil {
			return &Error{Kind: Internal, Field: common.FieldFile, Messages: []string{"could not compress upload"}, Err: err}
		}
		body = bytes.NewReader(buf.Bytes())
	}

	size, err := streamSize(body)
	if err != nil {
		return &Error{Kind: Internal, Field: common.FieldFile, Messages: []string{"could not read upload"}, Err: err}
	}
	// Callers may re-read the original stream.
	if _, err := r.req.Body.Seek(0, io.SeekStart); err != nil {
		return &Error{Kind: Internal, Field: common.FieldFile, Messages: []string{"could not read upload"}, Err: err}
	}

	r.out.Payload = &Payload{Filename: name, Body: body, Size: size, buffers: r.buffers}
	r.buffers = nil
	return nil
}

func streamSize(s io.Seeker) (int64, error) {
	size, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	return size, nil
}
