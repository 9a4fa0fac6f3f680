package ot

import (
	"errors"
	"fmt"
)

// Error categories for font loading. Table loading fails fast: there is no
// partial or degraded table.
//
// ErrMalformedFont covers structural damage: reads or seeks beyond the blob,
// truncated arrays, counts that overflow the remaining segment.
//
// ErrInvalidFontFile covers semantic violations: a format discriminator
// outside the enumerated set, a lookup-list index beyond the decoded lookup
// list, or lookup nesting exceeding the depth ceiling. Guessing a format
// would misinterpret all subsequent bytes, so these are hard failures too.
var (
	ErrMalformedFont   = errors.New("malformed font")
	ErrInvalidFontFile = errors.New("invalid font file")
)

// ErrorSeverity is the severity level of a font parsing error.
type ErrorSeverity int

const (
	// SeverityCritical makes the affected table unusable.
	SeverityCritical ErrorSeverity = iota
	// SeverityMajor may affect shaping results but not overall usage.
	SeverityMajor
	// SeverityMinor can be safely ignored in most cases.
	SeverityMinor
)

// String returns a human-readable representation of the severity.
func (s ErrorSeverity) String() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityMajor:
		return "MAJOR"
	case SeverityMinor:
		return "MINOR"
	default:
		return "UNKNOWN"
	}
}

// FontError is an error encountered during font parsing. It carries the
// table and section for diagnosis and wraps one of the category sentinels,
// so callers can test with errors.Is(err, ErrMalformedFont) etc.
type FontError struct {
	Table    Tag           // OpenType table where the error occurred, e.g. "GSUB"
	Section  string        // section within the table, e.g. "LookupType6"
	Issue    string        // description, naming the offending field and observed value
	Severity ErrorSeverity // severity level
	Offset   uint32        // byte offset in the table segment, 0 if unknown
	category error         // ErrMalformedFont or ErrInvalidFontFile
}

// Error implements the error interface.
func (e FontError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("[%s] %s/%s at offset %d: %s", e.Severity, e.Table, e.Section, e.Offset, e.Issue)
	}
	return fmt.Sprintf("[%s] %s/%s: %s", e.Severity, e.Table, e.Section, e.Issue)
}

// Unwrap exposes the error category.
func (e FontError) Unwrap() error {
	return e.category
}

// malformedFont creates a critical bounds/truncation error.
func malformedFont(section, issue string) error {
	return FontError{
		Section:  section,
		Issue:    issue,
		Severity: SeverityCritical,
		category: ErrMalformedFont,
	}
}

// invalidFontFile creates a critical format-violation error.
func invalidFontFile(section, issue string) error {
	return FontError{
		Section:  section,
		Issue:    issue,
		Severity: SeverityCritical,
		category: ErrInvalidFontFile,
	}
}

// InvalidFont creates an ErrInvalidFontFile-category error for font-logic
// violations discovered outside table parsing, e.g. during lookup
// application.
func InvalidFont(section, issue string) error {
	return invalidFontFile(section, issue)
}

// tableError stamps the owning table tag onto a FontError bubbling up from a
// section parser. Other errors pass through untouched.
func tableError(err error, table Tag) error {
	if err == nil {
		return nil
	}
	var fe FontError
	if errors.As(err, &fe) && fe.Table == 0 {
		fe.Table = table
		return fe
	}
	return err
}

// FontWarning is a non-critical issue encountered during font parsing.
type FontWarning struct {
	Table  Tag    // OpenType table where the warning occurred
	Issue  string // description of the issue
	Offset uint32 // byte offset in the table segment, 0 if unknown
}

// String returns a human-readable representation of the warning.
func (w FontWarning) String() string {
	if w.Offset > 0 {
		return fmt.Sprintf("[WARNING] %s at offset %d: %s", w.Table, w.Offset, w.Issue)
	}
	return fmt.Sprintf("[WARNING] %s: %s", w.Table, w.Issue)
}

// errorCollector accumulates errors and warnings during font parsing, for
// inspection after parsing completes.
type errorCollector struct {
	errors   []FontError
	warnings []FontWarning
}

func (ec *errorCollector) addError(table Tag, section, issue string, severity ErrorSeverity, offset uint32) {
	ec.errors = append(ec.errors, FontError{
		Table:    table,
		Section:  section,
		Issue:    issue,
		Severity: severity,
		Offset:   offset,
		category: ErrInvalidFontFile,
	})
}

func (ec *errorCollector) addWarning(table Tag, issue string, offset uint32) {
	ec.warnings = append(ec.warnings, FontWarning{
		Table:  table,
		Issue:  issue,
		Offset: offset,
	})
}

func (ec *errorCollector) hasErrors() bool {
	return len(ec.errors) > 0
}
