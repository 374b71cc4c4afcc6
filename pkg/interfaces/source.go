package interfaces

import (
	"context"

	"github.com/tabaudit/tabaudit/pkg/models"
)

// TabularSource is the header-then-rows abstraction the profiling
// engine consumes. It exposes the column names in fixed order and a
// lazy sequence of rows, each a mapping column-name to raw value.
// The source is owned by the caller and is the only suspension point
// in the pipeline.
type TabularSource interface {
	// Columns returns the header, established on first read.
	Columns() []string

	// Next returns the next row, io.EOF when the source is exhausted,
	// or a PARSE_ERROR for a row that fails to decode (the engine
	// tallies those and continues).
	Next(ctx context.Context) (models.Row, error)
}
