package ingest

import "strings"

// Format is the content format inferred from a filename.
type Format int

const (
	// FormatOpaque is an accepted suffix that is not tabular; its content is
	// stored as-is without sampling.
	FormatOpaque Format = iota
	FormatCSV
	FormatGzipCSV
	FormatSpreadsheet
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatGzipCSV:
		return "csv.gz"
	case FormatSpreadsheet:
		return "xlsx"
	default:
		return "opaque"
	}
}

// Tabular reports whether the format goes through sampling and schema checks.
func (f Format) Tabular() bool {
	return f != FormatOpaque
}

// DefaultExtensions are the suffixes accepted when none are configured.
var DefaultExtensions = []string{".csv", ".csv.gz", ".gz", ".xlsx"}

// FormatPolicy is the set of accepted filename suffixes.
type FormatPolicy struct {
	Allowed []string
}

// NewFormatPolicy builds a policy from the given suffixes, normalizing case
// and adding a leading dot where missing. With no suffixes the defaults apply.
func NewFormatPolicy(suffixes ...string) FormatPolicy {
	if len(suffixes) == 0 {
		suffixes = DefaultExtensions
	}
	allowed := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if !strings.HasPrefix(s, ".") {
			s = "." + s
		}
		allowed = append(allowed, s)
	}
	return FormatPolicy{Allowed: allowed}
}

// Accepts reports whether name ends with one of the allowed suffixes,
// ignoring case.
func (p FormatPolicy) Accepts(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range p.Allowed {
		if strings.HasSuffix(lower, suffix) && len(lower) > len(suffix) {
			return true
		}
	}
	return false
}

// Classify infers the content format from a filename.
func Classify(name string) Format {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".xlsx"):
		return FormatSpreadsheet
	case strings.HasSuffix(lower, ".gz"):
		return FormatGzipCSV
	case strings.HasSuffix(lower, ".csv"):
		return FormatCSV
	default:
		return FormatOpaque
	}
}

// TargetName picks the stored filename: the declared one when supplied,
// otherwise the original upload name.
func TargetName(declared, original string) string {
	if strings.TrimSpace(declared) != "" {
		return declared
	}
	return original
}

// SafeName reports whether name is a plain file name without directory
// parts.
func SafeName(name string) bool {
	switch name {
	case "", ".", "..":
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

// StoredName derives the stored filename of tabular content from target.
// A spreadsheet suffix becomes ".csv" and the result always ends in ".gz",
// since CSV is gzipped before storage and gzip content is kept as is.
func StoredName(target string) string {
	return GzipName(CSVName(target))
}

// CSVName replaces a trailing spreadsheet extension with ".csv".
func CSVName(name string) string {
	if i := len(name) - len(".xlsx"); i >= 0 && strings.EqualFold(name[i:], ".xlsx") {
		return name[:i] + ".csv"
	}
	return name
}

// GzipName appends ".gz" unless name already carries it.
func GzipName(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".gz") {
		return name
	}
	return name + ".gz"
}
