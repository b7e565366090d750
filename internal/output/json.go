package output

import (
	"encoding/json"
	"io"
	"os"

	"github.com/keysweep/keysweep/internal/probe"
)

type jsonEntry struct {
	Key            string  `json:"key"`
	Status         string  `json:"status"`
	HTTPStatus     int     `json:"http_status"`
	Detail         string  `json:"detail"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// JSONWriter writes the report as a JSON array.
type JSONWriter struct {
	w       io.Writer
	closer  io.Closer
	entries []jsonEntry
}

// NewJSONWriter creates a JSON report writer. An outputFile of "-" or
// "" writes to stdout.
func NewJSONWriter(outputFile string) (*JSONWriter, error) {
	var w io.Writer = os.Stdout
	var closer io.Closer
	if outputFile != "" && outputFile != "-" {
		f, err := os.Create(outputFile)
		if err != nil {
			return nil, err
		}
		w = f
		closer = f
	}
	return &JSONWriter{w: w, closer: closer}, nil
}

func (j *JSONWriter) WriteHeader() error { return nil }

func (j *JSONWriter) WriteResult(result *probe.Result) error {
	j.entries = append(j.entries, jsonEntry{
		Key:            result.Key,
		Status:         string(result.Category),
		HTTPStatus:     result.HTTPStatus,
		Detail:         result.Detail,
		ElapsedSeconds: result.ElapsedSeconds,
	})
	return nil
}

func (j *JSONWriter) WriteFooter(_ Stats) error {
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	return enc.Encode(j.entries)
}

func (j *JSONWriter) Close() error {
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
