package redline

import "strings"

// WarningCode identifies the type of warning encountered during extraction.
type WarningCode int

const (
	// WarningNoMarkedContent indicates that no region was selected on any
	// page. The output holds only the placeholder paragraph.
	WarningNoMarkedContent WarningCode = iota

	// WarningAltText indicates that alt text could not be produced for the
	// pictures. The document is still complete.
	WarningAltText
)

// String returns the code's name.
func (c WarningCode) String() string {
	switch c {
	case WarningNoMarkedContent:
		return "no-marked-content"
	case WarningAltText:
		return "alt-text"
	default:
		return "unknown"
	}
}

// Warning represents a non-fatal issue encountered during extraction.
// Unlike errors, warnings indicate that output was produced but may not be
// what the caller expects.
type Warning struct {
	Code    WarningCode
	Message string
}

// String returns the warning message.
func (w Warning) String() string {
	return w.Message
}

// FormatWarnings returns a human-readable string of all warnings.
// Returns empty string if there are no warnings.
func FormatWarnings(warnings []Warning) string {
	if len(warnings) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(warnings))
	for _, w := range warnings {
		msgs = append(msgs, w.Message)
	}
	return strings.Join(msgs, "; ")
}
