package core

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"
)

func TestSerializeCSV_BOMAndHeader(t *testing.T) {
	result := &TabularResult{
		Columns: []string{"id", "name"},
		Rows: [][]any{
			{int64(1), "alpha"},
			{int64(2), "beta"},
		},
	}

	out, err := SerializeCSV(result)
	if err != nil {
		t.Fatalf("SerializeCSV() error = %v", err)
	}

	if !bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("output missing UTF-8 BOM")
	}

	records, err := csv.NewReader(bytes.NewReader(out[3:])).ReadAll()
	if err != nil {
		t.Fatalf("re-parse error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	if records[0][0] != "id" || records[0][1] != "name" {
		t.Errorf("header = %v", records[0])
	}
	if records[1][0] != "1" || records[1][1] != "alpha" {
		t.Errorf("row 1 = %v", records[1])
	}
}

func TestSerializeCSV_ColumnOrderPreserved(t *testing.T) {
	result := &TabularResult{
		Columns: []string{"z", "a", "m"},
		Rows:    [][]any{{1, 2, 3}},
	}

	out, err := SerializeCSV(result)
	if err != nil {
		t.Fatalf("SerializeCSV() error = %v", err)
	}

	header := strings.SplitN(strings.TrimPrefix(string(out), "\uFEFF"), "\n", 2)[0]
	if strings.TrimSpace(header) != "z,a,m" {
		t.Errorf("header = %q, want z,a,m", header)
	}
}

func TestSerializeCSV_QuotesDelimiter(t *testing.T) {
	result := &TabularResult{
		Columns: []string{"name"},
		Rows:    [][]any{{"alpha, beta"}},
	}

	out, err := SerializeCSV(result)
	if err != nil {
		t.Fatalf("SerializeCSV() error = %v", err)
	}

	if !strings.Contains(string(out), `"alpha, beta"`) {
		t.Errorf("output = %q, want quoted field", out)
	}
}

func TestSerializeCSV_EmptyResult(t *testing.T) {
	result := &TabularResult{Columns: []string{"id"}, Rows: nil}

	out, err := SerializeCSV(result)
	if err != nil {
		t.Fatalf("SerializeCSV() error = %v", err)
	}

	body := strings.TrimPrefix(string(out), "\uFEFF")
	if strings.TrimSpace(body) != "id" {
		t.Errorf("output = %q, want header only", body)
	}
}

func TestFormatCell(t *testing.T) {
	midnight := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	afternoon := time.Date(2024, 3, 15, 14, 30, 5, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "x", "x"},
		{"bytes", []byte("y"), "y"},
		{"int64", int64(42), "42"},
		{"float", 1.5, "1.5"},
		{"bool", true, "true"},
		{"date at midnight", midnight, "2024-03-15"},
		{"timestamp", afternoon, "2024-03-15 14:30:05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatCell(tt.in); got != tt.want {
				t.Errorf("formatCell(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
