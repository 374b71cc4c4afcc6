package models

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// QuantileValue is one entry of a column's quantile set.
type QuantileValue struct {
	Q     float64 `json:"q"`
	Value float64 `json:"value"`
}

// HistogramBucket is one equal-width bucket of a numeric column's
// histogram. Bounds are [Low, High); the last bucket is inclusive.
type HistogramBucket struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int64   `json:"count"`
}

// NumericStats holds the numeric aggregates of a column. A nil
// NumericStats on a ColumnProfile is the "undefined" sentinel: the
// column is not numeric or carried no parseable values.
type NumericStats struct {
	Count  int64   `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdev"`

	Quantiles []QuantileValue   `json:"quantiles,omitempty"`
	Histogram []HistogramBucket `json:"histogram,omitempty"`

	// SampleApproximate is set when quantiles were derived from a
	// bounded sample rather than the full value stream.
	SampleApproximate bool `json:"sample_approximate,omitempty"`
}

// ValueCount is one entry of a categorical/boolean top-K frequency list.
type ValueCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// DistinctStats reports a column's cardinality. Count is exact until
// the configured cardinality cap is exceeded, after which it becomes a
// labeled approximation.
type DistinctStats struct {
	Count       int64 `json:"count"`
	Approximate bool  `json:"approximate"`
}

// ColumnProfile is the computed statistical and type summary of one
// column. It is created once per profiling run and never mutated.
type ColumnProfile struct {
	Name         string `json:"name"`
	InferredType string `json:"inferred_type"`

	RowCount     int64 `json:"row_count"`
	NullCount    int64 `json:"null_count"`
	NonNullCount int64 `json:"non_null_count"`

	// MalformedCount is the number of non-null values that failed to
	// parse under the inferred type. They are already included in
	// NullCount.
	MalformedCount int64 `json:"malformed_count"`

	// TypeConflict is set when a column carried numeric-looking values
	// but fell below the type-inference match ratio.
	TypeConflict bool `json:"type_conflict"`

	Distinct  DistinctStats `json:"distinct"`
	Numeric   *NumericStats `json:"numeric,omitempty"`
	TopValues []ValueCount  `json:"top_values,omitempty"`
}

// NullRate returns NullCount / RowCount, or 0 for an empty column.
func (c *ColumnProfile) NullRate() float64 {
	if c.RowCount == 0 {
		return 0
	}
	return float64(c.NullCount) / float64(c.RowCount)
}

// DatasetProfile is the profile of a whole dataset: dataset-level
// counters plus one ColumnProfile per source column, in source order.
// It is immutable once constructed and safe for concurrent readers.
type DatasetProfile struct {
	RowCount int64 `json:"row_count"`

	// MalformedRows counts rows that failed to decode under the
	// expected shape. They are tallied, never fatal.
	MalformedRows int64 `json:"malformed_rows"`

	Columns []ColumnProfile `json:"columns"`

	// SchemaFingerprint is a deterministic hash of the ordered
	// (name, inferred_type) pairs, for fast schema equality checks.
	// Profiling carries no timestamps or randomness, so two runs over
	// identical content produce identical DatasetProfile values.
	SchemaFingerprint string `json:"schema_fingerprint"`
}

// Column returns the profile of the named column, or nil when the
// dataset does not contain it.
func (p *DatasetProfile) Column(name string) *ColumnProfile {
	for i := range p.Columns {
		if p.Columns[i].Name == name {
			return &p.Columns[i]
		}
	}
	return nil
}

// ColumnNames returns the column names in source order.
func (p *DatasetProfile) ColumnNames() []string {
	names := make([]string, len(p.Columns))
	for i := range p.Columns {
		names[i] = p.Columns[i].Name
	}
	return names
}

// ComputeSchemaFingerprint hashes the ordered (name, inferred_type)
// pairs of a column list. Identical schemas always produce identical
// fingerprints; the result depends on nothing else.
func ComputeSchemaFingerprint(columns []ColumnProfile) string {
	h := xxhash.New()
	var sep = []byte{0x1f}
	var rs = []byte{0x1e}
	for i := range columns {
		_, _ = h.WriteString(columns[i].Name)
		_, _ = h.Write(sep)
		_, _ = h.WriteString(columns[i].InferredType)
		_, _ = h.Write(rs)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
