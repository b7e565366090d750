package output

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/keysweep/keysweep/internal/probe"
)

var testResults = []probe.Result{
	{Key: "key-one", Category: probe.CategoryValid, HTTPStatus: 200, Detail: "OK", ElapsedSeconds: 0.53},
	{Key: "key-two", Category: probe.CategoryInvalid, HTTPStatus: 401, Detail: `{"error": "API key not valid"}`, ElapsedSeconds: 1.2},
	{Key: "key-three", Category: probe.CategoryError, HTTPStatus: -1, Detail: "Timeout", ElapsedSeconds: 33.01},
}

func writeAll(t *testing.T, w Writer) {
	t.Helper()
	if err := w.WriteHeader(); err != nil {
		t.Fatal(err)
	}
	for i := range testResults {
		if err := w.WriteResult(&testResults[i]); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.WriteFooter(Stats{}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	writeAll(t, w)

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != len(testResults)+1 {
		t.Fatalf("rows = %d, want %d", len(rows), len(testResults)+1)
	}

	header := strings.Join(rows[0], ",")
	if header != "key,status,http_status,detail,elapsed_seconds" {
		t.Errorf("header = %q", header)
	}

	want := [][]string{
		{"key-one", "valid", "200", "OK", "0.53"},
		{"key-two", "invalid", "401", `{"error": "API key not valid"}`, "1.20"},
		{"key-three", "error", "-1", "Timeout", "33.01"},
	}
	for i, row := range rows[1:] {
		for j := range row {
			if row[j] != want[i][j] {
				t.Errorf("row %d col %d = %q, want %q", i, j, row[j], want[i][j])
			}
		}
	}
}

func TestJSONWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	w, err := NewJSONWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	writeAll(t, w)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var entries []struct {
		Key            string  `json:"key"`
		Status         string  `json:"status"`
		HTTPStatus     int     `json:"http_status"`
		Detail         string  `json:"detail"`
		ElapsedSeconds float64 `json:"elapsed_seconds"`
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatal(err)
	}

	if len(entries) != len(testResults) {
		t.Fatalf("entries = %d, want %d", len(entries), len(testResults))
	}
	if entries[2].Key != "key-three" || entries[2].HTTPStatus != -1 || entries[2].Detail != "Timeout" {
		t.Errorf("entry = %+v", entries[2])
	}
	if entries[0].Status != "valid" {
		t.Errorf("status = %q, want valid", entries[0].Status)
	}
}

func TestStatsCount(t *testing.T) {
	var stats Stats
	for i := range testResults {
		stats.Count(&testResults[i])
	}
	stats.Count(&probe.Result{Category: probe.CategoryModelNotFound, HTTPStatus: 404})

	if stats.Total != 4 {
		t.Errorf("total = %d, want 4", stats.Total)
	}
	if stats.Valid != 1 || stats.Invalid != 1 || stats.ModelNotFound != 1 || stats.Errors != 1 {
		t.Errorf("stats = %+v", stats)
	}
}
