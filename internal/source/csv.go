package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	apperrors "github.com/tabaudit/tabaudit/pkg/errors"
	"github.com/tabaudit/tabaudit/pkg/models"
)

// CSVSource adapts a CSV stream to the TabularSource abstraction. The
// first record is the header; every later record becomes a row mapping
// column name to a raw value. Empty cells are nulls; everything else
// stays text, to be resolved by type inference. Records with the wrong
// field count surface as PARSE_ERRORs so the profiler can tally them
// without aborting.
type CSVSource struct {
	reader  *csv.Reader
	closer  io.Closer
	columns []string
}

// NewCSVSource wraps an io.Reader holding CSV data.
func NewCSVSource(r io.Reader) (*CSVSource, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.ErrEmptyHeader
		}
		return nil, apperrors.NewParseError(fmt.Sprintf("reading CSV header: %v", err))
	}

	return &CSVSource{reader: cr, columns: header}, nil
}

// OpenCSVFile opens a CSV file as a tabular source. Close releases the
// underlying file.
func OpenCSVFile(path string) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	src, err := NewCSVSource(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	src.closer = f
	return src, nil
}

// Columns returns the header in source order.
func (s *CSVSource) Columns() []string {
	return s.columns
}

// Next returns the next row, io.EOF at the end of the stream, or a
// PARSE_ERROR for a record that does not match the header width.
func (s *CSVSource) Next(ctx context.Context) (models.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record, err := s.reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, apperrors.NewParseError(fmt.Sprintf("reading CSV record: %v", err))
	}
	if len(record) != len(s.columns) {
		return nil, apperrors.NewParseError(
			fmt.Sprintf("record has %d fields, header has %d", len(record), len(s.columns)))
	}

	row := make(models.Row, len(s.columns))
	for i, name := range s.columns {
		if record[i] == "" {
			row[name] = models.Null()
		} else {
			row[name] = models.Text(record[i])
		}
	}
	return row, nil
}

// Close releases the underlying file, when the source owns one.
func (s *CSVSource) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
