package profiler

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tabaudit/tabaudit/pkg/constants"
	apperrors "github.com/tabaudit/tabaudit/pkg/errors"
	"github.com/tabaudit/tabaudit/pkg/interfaces"
	"github.com/tabaudit/tabaudit/pkg/models"
)

// Config configures the profiling engine.
type Config struct {
	// MinMatchRatio is the minimum share of non-null values that must
	// parse under a type for the column to classify as that type.
	MinMatchRatio float64 `json:"min_match_ratio" yaml:"min_match_ratio"`

	// CardinalityCap bounds exact distinct counting; beyond it the
	// count becomes a labeled approximation.
	CardinalityCap int `json:"cardinality_cap" yaml:"cardinality_cap"`

	// TopK is the size of the categorical value-frequency list.
	TopK int `json:"top_k" yaml:"top_k"`

	// HistogramBuckets is the number of equal-width histogram buckets
	// per numeric column.
	HistogramBuckets int `json:"histogram_buckets" yaml:"histogram_buckets"`

	// SampleCap bounds the per-column value sample retained for
	// quantile estimation and histogram edge fixing.
	SampleCap int `json:"sample_cap" yaml:"sample_cap"`

	// Quantiles is the quantile set reported per numeric column.
	Quantiles []float64 `json:"quantiles" yaml:"quantiles"`

	// BatchSize is the number of rows between cooperative
	// cancellation checks.
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// DefaultConfig returns the default profiling configuration.
func DefaultConfig() *Config {
	return &Config{
		MinMatchRatio:    0.95,
		CardinalityCap:   10000,
		TopK:             20,
		HistogramBuckets: 20,
		SampleCap:        10000,
		Quantiles:        []float64{0.25, 0.5, 0.75, 0.9, 0.99},
		BatchSize:        1024,
	}
}

// Engine profiles a tabular source in one streaming pass. Memory is
// bounded by the column count and the per-column caps, not by row
// count.
type Engine struct {
	config *Config
	logger *logrus.Logger
}

// NewEngine creates a profiling engine. A nil config uses defaults.
func NewEngine(config *Config, logger *logrus.Logger) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{config: config, logger: logger}
}

// columnAccumulator carries all per-column running state for the pass.
type columnAccumulator struct {
	name     string
	nulls    int64
	tally    typeTally
	numeric  *numericAccumulator
	values   *topKCounter
	distinct *distinctCounter
}

func (e *Engine) newColumnAccumulator(name string) *columnAccumulator {
	return &columnAccumulator{
		name:     name,
		numeric:  newNumericAccumulator(e.config.SampleCap, e.config.HistogramBuckets, e.config.Quantiles),
		values:   newTopKCounter(e.config.TopK * 4),
		distinct: newDistinctCounter(e.config.CardinalityCap),
	}
}

func (a *columnAccumulator) observe(v models.Value) {
	if v.IsNull() {
		a.nulls++
		return
	}
	a.tally.observe(v)
	if n, ok := v.AsNumber(); ok {
		a.numeric.observe(n)
	}
	s := v.String()
	a.values.observe(s)
	a.distinct.observe(s)
}

// finalize classifies the column and folds the running state into an
// immutable ColumnProfile. Values that failed the inferred type count
// as nulls, on top of the raw null tally.
func (a *columnAccumulator) finalize(rowCount int64, minMatchRatio float64, topK int) models.ColumnProfile {
	inferred, matched, conflict := a.tally.classify(minMatchRatio)
	malformed := a.tally.nonNull - matched

	col := models.ColumnProfile{
		Name:           a.name,
		InferredType:   inferred,
		RowCount:       rowCount,
		NullCount:      a.nulls + malformed,
		NonNullCount:   matched,
		MalformedCount: malformed,
		TypeConflict:   conflict,
		Distinct:       a.distinct.finalize(),
	}

	switch inferred {
	case constants.TypeNumeric:
		col.Numeric = a.numeric.finalize()
	case constants.TypeCategorical, constants.TypeBoolean:
		col.TopValues = a.values.top(topK)
	}
	return col
}

// Profile consumes the source in a single streaming pass and returns
// the dataset profile. Malformed rows are tallied and skipped, never
// fatal. Cancellation is cooperative: the engine checks the context
// between row batches and aborts with a distinguishable cancelled
// error rather than returning a partial profile.
func (e *Engine) Profile(ctx context.Context, source interfaces.TabularSource) (*models.DatasetProfile, error) {
	columns := source.Columns()
	if len(columns) == 0 {
		return nil, apperrors.ErrEmptyHeader
	}

	e.logger.WithFields(logrus.Fields{
		"columns": len(columns),
	}).Debug("Starting profiling pass")
	start := time.Now()

	accs := make([]*columnAccumulator, len(columns))
	for i, name := range columns {
		accs[i] = e.newColumnAccumulator(name)
	}

	var rowCount, malformedRows int64
	for {
		if rowCount%int64(e.config.BatchSize) == 0 {
			if err := ctx.Err(); err != nil {
				return nil, apperrors.NewCancelledError("profiling aborted between row batches",
					errors.Join(apperrors.ErrProfilingCancelled, err))
			}
		}

		row, err := source.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) && appErr.Type == apperrors.ErrorTypeParse {
				malformedRows++
				continue
			}
			if ctx.Err() != nil {
				return nil, apperrors.NewCancelledError("profiling aborted while reading",
					errors.Join(apperrors.ErrProfilingCancelled, ctx.Err()))
			}
			return nil, apperrors.WrapError(err, apperrors.ErrorTypeInternal, apperrors.CodeInternal, "reading source row")
		}

		for i, name := range columns {
			v, ok := row[name]
			if !ok {
				v = models.Null()
			}
			accs[i].observe(v)
		}
		rowCount++
	}

	profile := &models.DatasetProfile{
		RowCount:      rowCount,
		MalformedRows: malformedRows,
		Columns:       make([]models.ColumnProfile, len(accs)),
	}
	for i, acc := range accs {
		profile.Columns[i] = acc.finalize(rowCount, e.config.MinMatchRatio, e.config.TopK)
	}
	profile.SchemaFingerprint = models.ComputeSchemaFingerprint(profile.Columns)

	e.logger.WithFields(logrus.Fields{
		"rows":           rowCount,
		"malformed_rows": malformedRows,
		"columns":        len(profile.Columns),
		"fingerprint":    profile.SchemaFingerprint,
		"duration":       time.Since(start),
	}).Info("Profiling pass completed")

	return profile, nil
}
