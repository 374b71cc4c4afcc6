package drift

import (
	"math"

	"github.com/tabaudit/tabaudit/pkg/models"
)

// categoryShift compares the top-K value distributions of one
// categorical/boolean column pair: membership changes plus the L1
// distance between the overlapping relative frequencies.
func (d *Detector) categoryShift(base, cand *models.ColumnProfile) (models.CategoryShift, bool) {
	if len(base.TopValues) == 0 && len(cand.TopValues) == 0 {
		return models.CategoryShift{}, false
	}

	baseFreq := relativeFrequencies(base)
	candFreq := relativeFrequencies(cand)

	shift := models.CategoryShift{Column: base.Name}

	// Walk the candidate's ranked list first so new categories appear
	// in frequency order.
	for _, vc := range cand.TopValues {
		if _, ok := baseFreq[vc.Value]; !ok {
			shift.NewCategories = append(shift.NewCategories, vc.Value)
		}
	}
	for _, vc := range base.TopValues {
		if _, ok := candFreq[vc.Value]; !ok {
			shift.MissingCategories = append(shift.MissingCategories, vc.Value)
		}
	}

	// Sum in the baseline's rank order; summing over a map would let
	// iteration order perturb the float result.
	for _, vb := range base.TopValues {
		if cf, ok := candFreq[vb.Value]; ok {
			shift.Distance += math.Abs(cf - baseFreq[vb.Value])
		}
	}

	significant := shift.Distance >= d.config.CategoryDistanceWarn ||
		len(shift.NewCategories) > 0 || len(shift.MissingCategories) > 0
	return shift, significant
}

func relativeFrequencies(col *models.ColumnProfile) map[string]float64 {
	freqs := make(map[string]float64, len(col.TopValues))
	if col.RowCount == 0 {
		return freqs
	}
	for _, vc := range col.TopValues {
		freqs[vc.Value] = float64(vc.Count) / float64(col.RowCount)
	}
	return freqs
}
