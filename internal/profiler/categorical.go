package profiler

import (
	"sort"

	"github.com/tabaudit/tabaudit/pkg/models"
)

// topKCounter is a bounded value-frequency counter. It holds at most
// capacity entries; when a new value arrives at capacity, the current
// least-frequent entry is evicted and its count seeds the newcomer
// (space-saving style), keeping memory independent of cardinality.
type topKCounter struct {
	counts   map[string]int64
	capacity int
}

func newTopKCounter(capacity int) *topKCounter {
	if capacity < 1 {
		capacity = 1
	}
	return &topKCounter{
		counts:   make(map[string]int64, capacity),
		capacity: capacity,
	}
}

func (c *topKCounter) observe(value string) {
	if _, ok := c.counts[value]; ok {
		c.counts[value]++
		return
	}
	if len(c.counts) < c.capacity {
		c.counts[value] = 1
		return
	}
	victim, floor := c.leastFrequent()
	delete(c.counts, victim)
	c.counts[value] = floor + 1
}

// leastFrequent picks the entry with the smallest count, breaking ties
// by key so eviction stays deterministic.
func (c *topKCounter) leastFrequent() (string, int64) {
	var victim string
	var floor int64 = -1
	for v, n := range c.counts {
		if floor < 0 || n < floor || (n == floor && v < victim) {
			victim, floor = v, n
		}
	}
	return victim, floor
}

// top returns up to k entries ordered by descending count, then by
// value, so identical inputs always render identically.
func (c *topKCounter) top(k int) []models.ValueCount {
	if len(c.counts) == 0 {
		return nil
	}
	out := make([]models.ValueCount, 0, len(c.counts))
	for v, n := range c.counts {
		out = append(out, models.ValueCount{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}
