package profiler

import (
	"time"

	"github.com/tabaudit/tabaudit/pkg/constants"
	"github.com/tabaudit/tabaudit/pkg/models"
)

// datetimeLayouts are the formats a text value may carry to count as a
// datetime during inference. Purely numeric strings never reach these
// (they already parsed as numbers).
var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

func parsesAsDateTime(v models.Value) bool {
	if v.Kind != models.KindText {
		return false
	}
	for _, layout := range datetimeLayouts {
		if _, err := time.Parse(layout, v.Str); err == nil {
			return true
		}
	}
	return false
}

// typeTally keeps the running per-type parse counts for one column.
type typeTally struct {
	nonNull int64
	numeric int64
	boolean int64

	datetime int64
}

func (t *typeTally) observe(v models.Value) {
	t.nonNull++
	if _, ok := v.AsNumber(); ok {
		t.numeric++
	}
	if _, ok := v.AsBool(); ok {
		t.boolean++
	}
	if parsesAsDateTime(v) {
		t.datetime++
	}
}

// classify resolves the column type by majority against the minimum
// match ratio. A column below the ratio that still carries
// numeric-looking values demotes to categorical with the conflict flag
// set. It returns the inferred type, the number of values matching it,
// and the conflict flag.
func (t *typeTally) classify(minMatchRatio float64) (string, int64, bool) {
	if t.nonNull == 0 {
		return constants.TypeUnknown, 0, false
	}
	total := float64(t.nonNull)
	switch {
	case float64(t.boolean)/total >= minMatchRatio:
		return constants.TypeBoolean, t.boolean, false
	case float64(t.numeric)/total >= minMatchRatio:
		return constants.TypeNumeric, t.numeric, false
	case float64(t.datetime)/total >= minMatchRatio:
		return constants.TypeDateTime, t.datetime, false
	default:
		return constants.TypeCategorical, t.nonNull, t.numeric > 0
	}
}
