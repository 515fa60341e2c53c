package output

import (
	"bytes"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/bgsforge/powerstate/internal/dataset"
	"github.com/bgsforge/powerstate/internal/report"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Formatter is the interface for writing a value in one output format.
type Formatter interface {
	// Format returns the formatted value.
	Format(v interface{}) (string, error)

	// FormatToWriter writes formatted output directly to a writer.
	FormatToWriter(w io.Writer, v interface{}) error
}

// GetFormatter returns the formatter for f.
func GetFormatter(f Format) (Formatter, error) {
	switch f {
	case FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case FormatYAML:
		return NewYAMLFormatter(), nil
	case FormatJSON:
		return NewJSONFormatter(), nil
	case FormatXLSX:
		return NewXLSXFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %q", f)
	}
}

func formatString(f Formatter, v interface{}) (string, error) {
	var buf bytes.Buffer
	if err := f.FormatToWriter(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// YAMLFormatter formats values as YAML output.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Format formats a value as YAML.
func (f *YAMLFormatter) Format(v interface{}) (string, error) { return formatString(f, v) }

// FormatToWriter writes YAML output to a writer.
func (f *YAMLFormatter) FormatToWriter(w io.Writer, v interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	return encoder.Encode(v)
}

// JSONFormatter formats values as JSON output.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format formats a value as JSON.
func (f *JSONFormatter) Format(v interface{}) (string, error) { return formatString(f, v) }

// FormatToWriter writes JSON output to a writer.
func (f *JSONFormatter) FormatToWriter(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(v)
}

// MarkdownFormatter renders documents and single data sets as Markdown.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new Markdown formatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format renders v as Markdown.
func (f *MarkdownFormatter) Format(v interface{}) (string, error) { return formatString(f, v) }

// FormatToWriter accepts a *report.Document, a dataset.Block or a slice of blocks.
func (f *MarkdownFormatter) FormatToWriter(w io.Writer, v interface{}) error {
	switch doc := v.(type) {
	case *report.Document:
		return doc.WriteMarkdown(w)
	case dataset.Block:
		return dataset.Render(w, doc)
	case []dataset.Block:
		for _, b := range doc {
			if err := dataset.Render(w, b); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("markdown formatter does not support type %T", v)
	}
}
