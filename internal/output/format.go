package output

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format represents the output format type.
type Format string

const (
	// FormatMarkdown is the default document output
	FormatMarkdown Format = "markdown"

	// FormatYAML is the YAML sphere summary
	FormatYAML Format = "yaml"

	// FormatJSON is the JSON sphere summary
	FormatJSON Format = "json"

	// FormatXLSX is the spreadsheet export of every data set
	FormatXLSX Format = "xlsx"
)

// DefaultFormat is the default output format when none is specified.
const DefaultFormat = FormatMarkdown

// ParseFormat parses a format string into a Format value.
// Accepts: "markdown" (or "md"), "yaml", "json", "xlsx" (case-insensitive)
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("invalid format: %q (expected markdown, yaml, json, or xlsx)", s)
	}
}

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatYAML:
		return ".yaml"
	case FormatJSON:
		return ".json"
	case FormatXLSX:
		return ".xlsx"
	default:
		return ".md"
	}
}

// FileName swaps the extension of name for the format's.
func (f Format) FileName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + f.Extension()
}

// ValidateFormat checks if a format value is valid.
func ValidateFormat(f Format) bool {
	switch f {
	case FormatMarkdown, FormatYAML, FormatJSON, FormatXLSX:
		return true
	default:
		return false
	}
}
