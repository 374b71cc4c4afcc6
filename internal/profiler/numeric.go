package profiler

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/tabaudit/tabaudit/pkg/models"
)

// numericAccumulator computes numeric aggregates in a single pass.
// Mean and variance use Welford's running scheme to avoid the
// precision loss of naive sum-of-squares. The histogram uses fixed
// equal-width bucket counters whose edges freeze once the bounded
// sample fills up; values seen afterwards are clamped into the edge
// buckets. Quantiles come from the bounded sample and are labeled
// approximate when the stream outgrew it.
type numericAccumulator struct {
	count int64
	mean  float64
	m2    float64
	min   float64
	max   float64

	sample    []float64
	sampleCap int

	// overflow counts values dropped past the sample cap while the
	// observed range was still degenerate (min == max), which makes
	// bucket edges impossible to fix. All such values equal min.
	overflow int64

	buckets     []int64
	bucketCount int
	lo          float64
	width       float64
	frozen      bool

	quantiles []float64
}

func newNumericAccumulator(sampleCap, bucketCount int, quantiles []float64) *numericAccumulator {
	if sampleCap < 1 {
		sampleCap = 1
	}
	if bucketCount < 1 {
		bucketCount = 1
	}
	return &numericAccumulator{
		sampleCap:   sampleCap,
		bucketCount: bucketCount,
		quantiles:   quantiles,
	}
}

func (a *numericAccumulator) observe(x float64) {
	a.count++
	if a.count == 1 {
		a.min, a.max = x, x
	} else {
		if x < a.min {
			a.min = x
		}
		if x > a.max {
			a.max = x
		}
	}

	delta := x - a.mean
	a.mean += delta / float64(a.count)
	a.m2 += delta * (x - a.mean)

	if a.frozen {
		a.bucketize(x)
		return
	}
	if len(a.sample) < a.sampleCap {
		a.sample = append(a.sample, x)
		return
	}
	if a.max > a.min {
		a.freeze()
		a.bucketize(x)
		return
	}
	a.overflow++
}

// freeze fixes the bucket edges from the range observed so far and
// replays the retained sample (plus any degenerate overflow) into the
// counters. From here on every value is bucketed directly.
func (a *numericAccumulator) freeze() {
	a.lo = a.min
	a.width = (a.max - a.min) / float64(a.bucketCount)
	a.buckets = make([]int64, a.bucketCount)
	a.frozen = true
	for _, v := range a.sample {
		a.bucketize(v)
	}
	if a.overflow > 0 {
		a.buckets[a.bucketIndex(a.sample[0])] += a.overflow
		a.overflow = 0
	}
}

func (a *numericAccumulator) bucketize(x float64) {
	a.buckets[a.bucketIndex(x)]++
}

func (a *numericAccumulator) bucketIndex(x float64) int {
	if a.width <= 0 {
		return 0
	}
	idx := int((x - a.lo) / a.width)
	if idx < 0 {
		idx = 0
	}
	if idx >= a.bucketCount {
		idx = a.bucketCount - 1
	}
	return idx
}

// finalize builds the reported stats, or nil when no parseable value
// was seen (the undefined sentinel for entirely-null columns).
func (a *numericAccumulator) finalize() *models.NumericStats {
	if a.count == 0 {
		return nil
	}

	stdev := 0.0
	if a.count > 1 {
		stdev = math.Sqrt(a.m2 / float64(a.count-1))
	}

	stats := &models.NumericStats{
		Count:             a.count,
		Min:               a.min,
		Max:               a.max,
		Mean:              a.mean,
		StdDev:            stdev,
		SampleApproximate: a.count > int64(len(a.sample)),
	}

	stats.Histogram = a.finalizeHistogram()
	stats.Quantiles = a.finalizeQuantiles()
	return stats
}

func (a *numericAccumulator) finalizeHistogram() []models.HistogramBucket {
	if !a.frozen {
		if a.max == a.min {
			// Constant column: a single bucket carries everything.
			return []models.HistogramBucket{{Low: a.min, High: a.max, Count: a.count}}
		}
		a.freeze()
	}
	out := make([]models.HistogramBucket, a.bucketCount)
	for i := 0; i < a.bucketCount; i++ {
		out[i] = models.HistogramBucket{
			Low:   a.lo + float64(i)*a.width,
			High:  a.lo + float64(i+1)*a.width,
			Count: a.buckets[i],
		}
	}
	out[a.bucketCount-1].High = a.max
	return out
}

func (a *numericAccumulator) finalizeQuantiles() []models.QuantileValue {
	if len(a.quantiles) == 0 || len(a.sample) == 0 {
		return nil
	}
	sorted := make([]float64, len(a.sample))
	copy(sorted, a.sample)
	sort.Float64s(sorted)

	out := make([]models.QuantileValue, len(a.quantiles))
	for i, q := range a.quantiles {
		out[i] = models.QuantileValue{Q: q, Value: stat.Quantile(q, stat.Empirical, sorted, nil)}
	}
	return out
}
