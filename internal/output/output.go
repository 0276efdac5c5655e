// Package output renders command results as aligned text tables or JSON.
package output

import (
	"strings"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"
)

// FormatTable renders headers and rows as a tab-aligned table.
func FormatTable(headers []string, rows [][]string) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)

	writeRow(w, headers)
	for _, row := range rows {
		writeRow(w, row)
	}

	_ = w.Flush()
	return strings.TrimRight(sb.String(), "\n")
}

func writeRow(w *tabwriter.Writer, cells []string) {
	_, _ = w.Write([]byte(strings.Join(cells, "\t") + "\n"))
}

// FormatJSON renders a value as indented JSON.
func FormatJSON(v interface{}) (string, error) {
	data, err := jsoniter.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
