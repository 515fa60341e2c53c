// Package output writes the results of a report run.
//
// # Formats
//
//   - markdown (default): the advanced document and, when enabled, the
//     simple document, as kramdown-flavored Markdown cards
//   - yaml and json: a machine-readable sphere summary with flip data and
//     economics per control system
//   - xlsx: a workbook with one sheet per data set, cells in plain text
//
// File names come from the power configuration; the extension is replaced
// by the one of the selected format.
package output
