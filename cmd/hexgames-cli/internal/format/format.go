// Package format renders CLI results as aligned tables or JSON.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Formats accepted by the --format flag.
const (
	Table = "table"
	JSON  = "json"
)

// Check rejects unknown output formats.
func Check(format string) error {
	if format != Table && format != JSON {
		return fmt.Errorf("unknown format %q, want %s or %s", format, Table, JSON)
	}
	return nil
}

// WriteTable writes rows under headers, aligned in columns. An empty
// table prints empty instead of rows.
func WriteTable(w io.Writer, headers []string, rows [][]string, empty string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	rule := make([]string, len(headers))
	for i, h := range headers {
		rule[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(rule, "\t"))
	if len(rows) == 0 {
		fmt.Fprintln(tw, empty)
	}
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// Truncate shortens s to maxLen characters, adding "..." if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}
