package output

import (
	"strings"
	"testing"
)

func TestFormatTable(t *testing.T) {
	got := FormatTable(
		[]string{"Symbol", "Price"},
		[][]string{
			{"BTCUSDT", "85000"},
			{"ETHUSDT", "3000"},
		},
	)

	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), got)
	}
	if !strings.HasPrefix(lines[0], "Symbol") {
		t.Errorf("header line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "BTCUSDT") || !strings.Contains(lines[1], "85000") {
		t.Errorf("first row = %q", lines[1])
	}
}

func TestFormatTableEmptyRows(t *testing.T) {
	got := FormatTable([]string{"A", "B"}, nil)
	if !strings.Contains(got, "A") {
		t.Errorf("headers missing from empty table: %q", got)
	}
}

func TestFormatJSON(t *testing.T) {
	got, err := FormatJSON(map[string]string{"symbol": "BTCUSDT"})
	if err != nil {
		t.Fatalf("FormatJSON failed: %v", err)
	}
	if !strings.Contains(got, `"symbol": "BTCUSDT"`) {
		t.Errorf("FormatJSON = %q", got)
	}
}
