package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/keysweep/keysweep/internal/probe"
)

// CSVWriter writes the report in CSV format.
type CSVWriter struct {
	w      *csv.Writer
	closer io.Closer
}

// NewCSVWriter creates a CSV report writer. An outputFile of "-" or ""
// writes to stdout.
func NewCSVWriter(outputFile string) (*CSVWriter, error) {
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
	return &CSVWriter{w: csv.NewWriter(w), closer: closer}, nil
}

func (c *CSVWriter) WriteHeader() error {
	return c.w.Write([]string{"key", "status", "http_status", "detail", "elapsed_seconds"})
}

func (c *CSVWriter) WriteResult(result *probe.Result) error {
	return c.w.Write([]string{
		result.Key,
		string(result.Category),
		fmt.Sprintf("%d", result.HTTPStatus),
		result.Detail,
		fmt.Sprintf("%.2f", result.ElapsedSeconds),
	})
}

func (c *CSVWriter) WriteFooter(_ Stats) error {
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVWriter) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}
