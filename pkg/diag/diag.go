// Package diag carries non-fatal data-quality findings alongside query
// results. Core queries never log; they return a diag.List and leave
// severity routing and formatting to the caller.
package diag

import "fmt"

// Severity classifies a diagnostic.
type Severity int

const (
	// Info marks findings that are expected in well-formed but incomplete
	// metadata, such as response stages with no convertible description.
	Info Severity = iota
	// Warning marks data-quality anomalies: inconsistent sample rates,
	// normalization mismatches, duplicate stage descriptions.
	Warning
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Diagnostic is a single structured finding.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	return d.Severity.String() + ": " + d.Message
}

// List accumulates diagnostics during a query. The zero value is ready
// to use.
type List []Diagnostic

// Infof appends an informational diagnostic.
func (l *List) Infof(format string, args ...interface{}) {
	*l = append(*l, Diagnostic{Severity: Info, Message: fmt.Sprintf(format, args...)})
}

// Warnf appends a warning diagnostic.
func (l *List) Warnf(format string, args ...interface{}) {
	*l = append(*l, Diagnostic{Severity: Warning, Message: fmt.Sprintf(format, args...)})
}

// Extend appends all diagnostics from another list.
func (l *List) Extend(other List) {
	*l = append(*l, other...)
}

// Warnings returns only the warning-severity entries.
func (l List) Warnings() List {
	var out List
	for _, d := range l {
		if d.Severity == Warning {
			out = append(out, d)
		}
	}
	return out
}
