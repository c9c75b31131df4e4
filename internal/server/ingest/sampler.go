package ingest

import (
	"bufio"
	"encoding/csv"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultSampleRows bounds the sample when no maximum is configured.
const DefaultSampleRows = 100

// AcceptedDelimiter is the only column separator uploads may use.
const AcceptedDelimiter = ','

// MaxHeaderBytes bounds the first line read for delimiter sniffing.
const MaxHeaderBytes = 64 << 10

// delimiterCandidates are the separators the sniffer can recognize, in tie
// breaking order.
var delimiterCandidates = []rune{',', ';', '\t', '|'}

var (
	// ErrNotGzip is returned when content classified as compressed is not gzip.
	ErrNotGzip = errors.New("content is not gzip compressed")
	// ErrMalformedCSV wraps parse failures of the sampled rows.
	ErrMalformedCSV = errors.New("malformed csv")
)

// SampleRows is a bounded prefix of a file's rows.
type SampleRows [][]string

// Header returns the first row, or nil for an empty sample.
func (s SampleRows) Header() []string {
	if len(s) == 0 {
		return nil
	}
	return s[0]
}

// InvalidDelimiterError reports a sniffed delimiter other than a comma.
type InvalidDelimiterError struct {
	Char rune
}

func (e *InvalidDelimiterError) Error() string {
	return "invalid delimiter " + quoteDelimiter(e.Char)
}

func quoteDelimiter(c rune) string {
	if c == '\t' {
		return `"\t"`
	}
	return `"` + string(c) + `"`
}

type sampleOptions struct {
	sniff bool
}

// SampleOption tunes Sample.
type SampleOption func(*sampleOptions)

// WithoutSniff skips delimiter detection, for content whose separator is
// already known to be a comma, such as a converted spreadsheet.
func WithoutSniff() SampleOption {
	return func(o *sampleOptions) { o.sniff = false }
}

// Sample reads at most maxRows rows from r. When compressed is set the stream
// is gunzipped first. Text is decoded as UTF-8 with an optional byte order
// mark. The delimiter is sniffed from the first line and anything other than
// a comma fails with *InvalidDelimiterError. A first line longer than
// MaxHeaderBytes is malformed. r is rewound to the start before returning,
// whatever the outcome.
func Sample(r io.ReadSeeker, compressed bool, maxRows int, opts ...SampleOption) (rows SampleRows, err error) {
	o := sampleOptions{sniff: true}
	for _, opt := range opts {
		opt(&o)
	}
	if maxRows <= 0 {
		maxRows = DefaultSampleRows
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	defer func() {
		if _, serr := r.Seek(0, io.SeekStart); serr != nil && err == nil {
			err = serr
		}
	}()

	var src io.Reader = r
	if compressed {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "open gzip"), ErrNotGzip)
		}
		defer func() { _ = zr.Close() }()
		src = zr
	}

	br := bufio.NewReaderSize(transform.NewReader(src, unicode.BOMOverride(unicode.UTF8.NewDecoder())), MaxHeaderBytes)

	line, err := br.ReadSlice('\n')
	first := string(line)
	if errors.Is(err, bufio.ErrBufferFull) {
		return nil, errors.Mark(errors.Newf("header line exceeds %d bytes", MaxHeaderBytes), ErrMalformedCSV)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		if compressed {
			return nil, errors.Mark(errors.Wrap(err, "read gzip"), ErrNotGzip)
		}
		return nil, err
	}
	if strings.TrimSpace(first) == "" && errors.Is(err, io.EOF) {
		return SampleRows{}, nil
	}

	if o.sniff {
		if d := SniffDelimiter(first); d != AcceptedDelimiter {
			return nil, &InvalidDelimiterError{Char: d}
		}
	}

	cr := csv.NewReader(io.MultiReader(strings.NewReader(first), br))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows = make(SampleRows, 0, min(maxRows, 16))
	for len(rows) < maxRows {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, errors.Mark(err, ErrMalformedCSV)
			}
			if compressed {
				return nil, errors.Mark(errors.Wrap(err, "read gzip"), ErrNotGzip)
			}
			return nil, err
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// SniffDelimiter picks the most frequent candidate separator outside quoted
// sections of line. Ties and lines without any candidate yield a comma.
func SniffDelimiter(line string) rune {
	counts := make(map[rune]int, len(delimiterCandidates))
	inQuotes := false
	for _, c := range line {
		if c == '"' {
			inQuotes = !inQuotes
			continue
		}
		if inQuotes {
			continue
		}
		for _, d := range delimiterCandidates {
			if c == d {
				counts[c]++
			}
		}
	}

	best, bestCount := rune(AcceptedDelimiter), 0
	for _, d := range delimiterCandidates {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}
