// Package report renders the login attempt history.
//
// This package contains writers for different output formats:
//   - SimpleWriter: aligned text for terminal display
//   - JSONWriter: structured JSON for scripts
//   - MarkdownWriter: tables plus a mermaid pie chart of outcomes
//
// Report data lives in the model package (model.History); writers only
// format it, so a new format never touches the journal.
package report
