package profiler

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabaudit/tabaudit/internal/source"
	"github.com/tabaudit/tabaudit/pkg/constants"
	apperrors "github.com/tabaudit/tabaudit/pkg/errors"
	"github.com/tabaudit/tabaudit/pkg/models"
)

func numberRows(column string, values ...models.Value) []models.Row {
	rows := make([]models.Row, len(values))
	for i, v := range values {
		rows[i] = models.Row{column: v}
	}
	return rows
}

func TestProfileNumericColumn(t *testing.T) {
	src := source.NewSliceSource([]string{"age"}, numberRows("age",
		models.Number(20), models.Number(30), models.Number(40), models.Null()))

	engine := NewEngine(nil, nil)
	profile, err := engine.Profile(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, int64(4), profile.RowCount)
	assert.Equal(t, int64(0), profile.MalformedRows)
	require.Len(t, profile.Columns, 1)

	col := profile.Column("age")
	require.NotNil(t, col)
	assert.Equal(t, constants.TypeNumeric, col.InferredType)
	assert.Equal(t, int64(4), col.RowCount)
	assert.Equal(t, int64(1), col.NullCount)
	assert.Equal(t, int64(3), col.NonNullCount)
	assert.Equal(t, int64(0), col.MalformedCount)
	assert.InDelta(t, 0.25, col.NullRate(), 1e-12)

	require.NotNil(t, col.Numeric)
	assert.Equal(t, int64(3), col.Numeric.Count)
	assert.InDelta(t, 20.0, col.Numeric.Min, 1e-12)
	assert.InDelta(t, 40.0, col.Numeric.Max, 1e-12)
	assert.InDelta(t, 30.0, col.Numeric.Mean, 1e-12)
	assert.InDelta(t, 10.0, col.Numeric.StdDev, 1e-12)
	assert.False(t, col.Numeric.SampleApproximate)
}

func TestProfileIsDeterministic(t *testing.T) {
	rows := []models.Row{
		{"age": models.Number(20), "country": models.Text("US")},
		{"age": models.Number(30), "country": models.Text("DE")},
		{"age": models.Null(), "country": models.Text("US")},
	}
	src := source.NewSliceSource([]string{"age", "country"}, rows)
	engine := NewEngine(nil, nil)

	first, err := engine.Profile(context.Background(), src)
	require.NoError(t, err)

	src.Reset()
	second, err := engine.Profile(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first.SchemaFingerprint, second.SchemaFingerprint)
	assert.NotEmpty(t, first.SchemaFingerprint)
}

func TestProfileAllNullColumn(t *testing.T) {
	src := source.NewSliceSource([]string{"empty"}, numberRows("empty",
		models.Null(), models.Null(), models.Null()))

	profile, err := NewEngine(nil, nil).Profile(context.Background(), src)
	require.NoError(t, err)

	col := profile.Column("empty")
	require.NotNil(t, col)
	assert.Equal(t, constants.TypeUnknown, col.InferredType)
	assert.Equal(t, int64(3), col.NullCount)
	assert.Equal(t, int64(0), col.NonNullCount)
	assert.InDelta(t, 1.0, col.NullRate(), 1e-12)
	assert.Nil(t, col.Numeric)
	assert.Equal(t, int64(0), col.Distinct.Count)
}

func TestProfileSingleValue(t *testing.T) {
	src := source.NewSliceSource([]string{"x"}, numberRows("x", models.Number(7)))

	profile, err := NewEngine(nil, nil).Profile(context.Background(), src)
	require.NoError(t, err)

	col := profile.Column("x")
	require.NotNil(t, col.Numeric)
	assert.InDelta(t, 7.0, col.Numeric.Min, 1e-12)
	assert.InDelta(t, 7.0, col.Numeric.Max, 1e-12)
	assert.InDelta(t, 7.0, col.Numeric.Mean, 1e-12)
	assert.Zero(t, col.Numeric.StdDev)

	// Constant columns collapse the histogram into a single bucket.
	require.Len(t, col.Numeric.Histogram, 1)
	assert.Equal(t, int64(1), col.Numeric.Histogram[0].Count)
}

func TestProfileEmptyDataset(t *testing.T) {
	src := source.NewSliceSource([]string{"a", "b"}, nil)

	profile, err := NewEngine(nil, nil).Profile(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, int64(0), profile.RowCount)
	require.Len(t, profile.Columns, 2)
	for _, col := range profile.Columns {
		assert.Equal(t, constants.TypeUnknown, col.InferredType)
		assert.Equal(t, int64(0), col.RowCount)
		assert.Zero(t, col.NullRate())
	}
}

func TestProfileEmptyHeader(t *testing.T) {
	src := source.NewSliceSource(nil, nil)

	_, err := NewEngine(nil, nil).Profile(context.Background(), src)
	assert.ErrorIs(t, err, apperrors.ErrEmptyHeader)
}

func TestProfileCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := source.NewSliceSource([]string{"x"}, numberRows("x", models.Number(1)))
	_, err := NewEngine(nil, nil).Profile(ctx, src)

	require.Error(t, err)
	assert.True(t, apperrors.IsCancelled(err))
	assert.ErrorIs(t, err, apperrors.ErrProfilingCancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProfileTypeInference(t *testing.T) {
	tests := []struct {
		name     string
		values   []models.Value
		wantType string
		conflict bool
	}{
		{
			name:     "numeric strings",
			values:   []models.Value{models.Text("1.5"), models.Text("2"), models.Text("-3e2")},
			wantType: constants.TypeNumeric,
		},
		{
			name:     "booleans",
			values:   []models.Value{models.Text("true"), models.Text("false"), models.Text("yes")},
			wantType: constants.TypeBoolean,
		},
		{
			name:     "datetimes",
			values:   []models.Value{models.Text("2024-01-01"), models.Text("2024-06-15T12:00:00Z")},
			wantType: constants.TypeDateTime,
		},
		{
			name:     "plain text",
			values:   []models.Value{models.Text("alpha"), models.Text("beta")},
			wantType: constants.TypeCategorical,
		},
		{
			name: "mixed numeric and text",
			values: []models.Value{
				models.Text("1"), models.Text("2"), models.Text("a"),
				models.Text("b"), models.Text("c"),
			},
			wantType: constants.TypeCategorical,
			conflict: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := source.NewSliceSource([]string{"col"}, numberRows("col", tt.values...))
			profile, err := NewEngine(nil, nil).Profile(context.Background(), src)
			require.NoError(t, err)

			col := profile.Column("col")
			assert.Equal(t, tt.wantType, col.InferredType)
			assert.Equal(t, tt.conflict, col.TypeConflict)
		})
	}
}

func TestProfileMostlyNumericCountsStragglersAsMalformed(t *testing.T) {
	values := make([]models.Value, 0, 21)
	for i := 0; i < 20; i++ {
		values = append(values, models.Number(float64(i)))
	}
	values = append(values, models.Text("oops"))

	src := source.NewSliceSource([]string{"v"}, numberRows("v", values...))
	profile, err := NewEngine(nil, nil).Profile(context.Background(), src)
	require.NoError(t, err)

	col := profile.Column("v")
	assert.Equal(t, constants.TypeNumeric, col.InferredType)
	assert.Equal(t, int64(1), col.MalformedCount)
	assert.Equal(t, int64(1), col.NullCount)
	assert.Equal(t, int64(20), col.NonNullCount)
	assert.Equal(t, col.RowCount, col.NullCount+col.NonNullCount)
}

func TestProfileTopValuesOrdering(t *testing.T) {
	values := []models.Value{
		models.Text("US"), models.Text("US"), models.Text("US"),
		models.Text("DE"), models.Text("DE"),
		models.Text("FR"), models.Text("BR"),
	}
	src := source.NewSliceSource([]string{"country"}, numberRows("country", values...))

	profile, err := NewEngine(nil, nil).Profile(context.Background(), src)
	require.NoError(t, err)

	col := profile.Column("country")
	assert.Equal(t, constants.TypeCategorical, col.InferredType)
	require.Len(t, col.TopValues, 4)

	assert.Equal(t, models.ValueCount{Value: "US", Count: 3}, col.TopValues[0])
	assert.Equal(t, models.ValueCount{Value: "DE", Count: 2}, col.TopValues[1])
	// Ties order by value.
	assert.Equal(t, models.ValueCount{Value: "BR", Count: 1}, col.TopValues[2])
	assert.Equal(t, models.ValueCount{Value: "FR", Count: 1}, col.TopValues[3])

	assert.Equal(t, int64(4), col.Distinct.Count)
	assert.False(t, col.Distinct.Approximate)
}

func TestProfileDistinctApproximation(t *testing.T) {
	config := DefaultConfig()
	config.CardinalityCap = 10

	values := make([]models.Value, 0, 200)
	for i := 0; i < 200; i++ {
		values = append(values, models.Text(fmt.Sprintf("user-%d", i)))
	}
	src := source.NewSliceSource([]string{"user"}, numberRows("user", values...))

	profile, err := NewEngine(config, nil).Profile(context.Background(), src)
	require.NoError(t, err)

	col := profile.Column("user")
	assert.True(t, col.Distinct.Approximate)
	assert.InDelta(t, 200, float64(col.Distinct.Count), 20)
}

func TestProfileQuantiles(t *testing.T) {
	src := source.NewSliceSource([]string{"v"}, numberRows("v",
		models.Number(1), models.Number(2), models.Number(3),
		models.Number(4), models.Number(5)))

	profile, err := NewEngine(nil, nil).Profile(context.Background(), src)
	require.NoError(t, err)

	col := profile.Column("v")
	require.NotNil(t, col.Numeric)

	var median float64
	for _, q := range col.Numeric.Quantiles {
		if q.Q == 0.5 {
			median = q.Value
		}
	}
	assert.InDelta(t, 3.0, median, 1e-12)
}

func TestProfileHistogramCoversRange(t *testing.T) {
	config := DefaultConfig()
	config.HistogramBuckets = 4

	values := make([]models.Value, 0, 100)
	for i := 0; i < 100; i++ {
		values = append(values, models.Number(float64(i)))
	}
	src := source.NewSliceSource([]string{"v"}, numberRows("v", values...))

	profile, err := NewEngine(config, nil).Profile(context.Background(), src)
	require.NoError(t, err)

	col := profile.Column("v")
	require.NotNil(t, col.Numeric)
	require.Len(t, col.Numeric.Histogram, 4)

	var total int64
	for _, b := range col.Numeric.Histogram {
		total += b.Count
	}
	assert.Equal(t, int64(100), total)
	assert.InDelta(t, 0.0, col.Numeric.Histogram[0].Low, 1e-12)
	assert.InDelta(t, 99.0, col.Numeric.Histogram[3].High, 1e-12)
}

func TestProfileMissingCellCountsAsNull(t *testing.T) {
	rows := []models.Row{
		{"a": models.Number(1), "b": models.Text("x")},
		{"a": models.Number(2)},
	}
	src := source.NewSliceSource([]string{"a", "b"}, rows)

	profile, err := NewEngine(nil, nil).Profile(context.Background(), src)
	require.NoError(t, err)

	col := profile.Column("b")
	assert.Equal(t, int64(1), col.NullCount)
	assert.Equal(t, int64(1), col.NonNullCount)
}

// faultySource injects parse errors between good rows.
type faultySource struct {
	rows   []models.Row
	faults map[int]bool
	pos    int
}

func (f *faultySource) Columns() []string { return []string{"v"} }

func (f *faultySource) Next(ctx context.Context) (models.Row, error) {
	if f.pos >= len(f.rows)+len(f.faults) {
		return nil, io.EOF
	}
	pos := f.pos
	f.pos++
	if f.faults[pos] {
		return nil, apperrors.NewParseError("bad record")
	}
	idx := 0
	for i := 0; i < pos; i++ {
		if !f.faults[i] {
			idx++
		}
	}
	return f.rows[idx], nil
}

func TestProfileTalliesMalformedRows(t *testing.T) {
	src := &faultySource{
		rows: numberRows("v", models.Number(1), models.Number(2)),
		faults: map[int]bool{
			1: true,
			3: true,
		},
	}

	profile, err := NewEngine(nil, nil).Profile(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, int64(2), profile.RowCount)
	assert.Equal(t, int64(2), profile.MalformedRows)
}

func TestSchemaFingerprintTracksNamesAndTypes(t *testing.T) {
	a := []models.ColumnProfile{
		{Name: "id", InferredType: constants.TypeNumeric},
		{Name: "name", InferredType: constants.TypeCategorical},
	}
	b := []models.ColumnProfile{
		{Name: "id", InferredType: constants.TypeNumeric},
		{Name: "name", InferredType: constants.TypeNumeric},
	}

	assert.Equal(t, models.ComputeSchemaFingerprint(a), models.ComputeSchemaFingerprint(a))
	assert.NotEqual(t, models.ComputeSchemaFingerprint(a), models.ComputeSchemaFingerprint(b))
}
