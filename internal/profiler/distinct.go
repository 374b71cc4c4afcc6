package profiler

import (
	"github.com/axiomhq/hyperloglog"

	"github.com/tabaudit/tabaudit/pkg/models"
)

// distinctCounter tracks column cardinality exactly up to a cap; past
// the cap it degrades to a HyperLogLog sketch so the reported count is
// a clearly labeled approximation instead of a silent truncation.
type distinctCounter struct {
	exact  map[string]struct{}
	cap    int
	sketch *hyperloglog.Sketch
}

func newDistinctCounter(cap int) *distinctCounter {
	if cap < 1 {
		cap = 1
	}
	return &distinctCounter{
		exact: make(map[string]struct{}),
		cap:   cap,
	}
}

func (d *distinctCounter) observe(value string) {
	if d.sketch != nil {
		d.sketch.Insert([]byte(value))
		return
	}
	if _, ok := d.exact[value]; ok {
		return
	}
	if len(d.exact) < d.cap {
		d.exact[value] = struct{}{}
		return
	}
	// Cap exceeded: seed the sketch with everything seen so far.
	d.sketch = hyperloglog.New14()
	for v := range d.exact {
		d.sketch.Insert([]byte(v))
	}
	d.exact = nil
	d.sketch.Insert([]byte(value))
}

func (d *distinctCounter) finalize() models.DistinctStats {
	if d.sketch != nil {
		return models.DistinctStats{Count: int64(d.sketch.Estimate()), Approximate: true}
	}
	return models.DistinctStats{Count: int64(len(d.exact))}
}
