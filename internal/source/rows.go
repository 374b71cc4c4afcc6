package source

import (
	"context"
	"io"

	"github.com/tabaudit/tabaudit/pkg/models"
)

// SliceSource serves an in-memory row slice as a TabularSource. It is
// used for programmatic profiling and as a test fixture.
type SliceSource struct {
	columns []string
	rows    []models.Row
	pos     int
}

// NewSliceSource creates a source over the given header and rows.
func NewSliceSource(columns []string, rows []models.Row) *SliceSource {
	return &SliceSource{columns: columns, rows: rows}
}

// Columns returns the header in source order.
func (s *SliceSource) Columns() []string {
	return s.columns
}

// Next returns the next row or io.EOF.
func (s *SliceSource) Next(ctx context.Context) (models.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}

// Reset rewinds the source so it can be profiled again.
func (s *SliceSource) Reset() {
	s.pos = 0
}
