package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/orest-d/liquer/internal/liquer"
)

func sampleFrame(t *testing.T) *liquer.DataFrame {
	t.Helper()
	df, err := liquer.ParseDataFrame([]byte(`{"schema":{"fields":[{"name":"name"},{"name":"n"}]},"data":[{"name":"alpha","n":1},{"name":"beta","n":2.5}]}`))
	if err != nil {
		t.Fatalf("parse dataframe: %v", err)
	}
	return df
}

func TestDataFrameTable(t *testing.T) {
	var buf bytes.Buffer
	if err := DataFrame(&buf, sampleFrame(t), FormatTable); err != nil {
		t.Fatalf("DataFrame: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"NAME", "alpha", "2.5", "(2 rows)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in table output:\n%s", want, out)
		}
	}
}

func TestDataFrameCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := DataFrame(&buf, sampleFrame(t), FormatCSV); err != nil {
		t.Fatalf("DataFrame: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || strings.ToLower(lines[0]) != "name,n" || lines[1] != "alpha,1" {
		t.Fatalf("unexpected csv %q", buf.String())
	}
}

func TestDataFrameJSONKeepsValues(t *testing.T) {
	var buf bytes.Buffer
	if err := DataFrame(&buf, sampleFrame(t), FormatJSON); err != nil {
		t.Fatalf("DataFrame: %v", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(rows) != 2 || rows[1]["n"] != 2.5 {
		t.Fatalf("unexpected rows %#v", rows)
	}
}

func TestRecordsEmptyTable(t *testing.T) {
	var buf bytes.Buffer
	if err := Records(&buf, []string{"query"}, nil, FormatTable); err != nil {
		t.Fatalf("Records: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "(0 rows)" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("MD"); err != nil || f != FormatMarkdown {
		t.Fatalf("expected markdown, got %q %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != FormatTable {
		t.Fatalf("expected table default, got %q %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("expected error for xml")
	}
}

func TestTruncateAndWidths(t *testing.T) {
	if got := Truncate("abcdefgh", 4); got != "abc…" {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := Truncate("abc", 0); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
	widths := ColumnWidths([]string{"a", "bb"}, [][]string{{"xxxx", "y"}, {"z"}}, 3)
	if widths[0] != 3 || widths[1] != 2 {
		t.Fatalf("unexpected widths %v", widths)
	}
}
