package drift

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/tabaudit/tabaudit/pkg/constants"
	"github.com/tabaudit/tabaudit/pkg/models"
)

// epsilon guards the relative-delta denominator against zero baselines.
const epsilon = 1e-9

// Thresholds holds the warn/critical cut points for one drift metric.
// Relative deltas below Warn produce no entry; between Warn and
// Critical they score as warnings; at or above Critical, as critical.
type Thresholds struct {
	Warn     float64 `json:"warn" yaml:"warn"`
	Critical float64 `json:"critical" yaml:"critical"`
}

// Config configures the drift detector. Threshold magnitudes are
// deployment-specific, so they are configuration with defaults, not
// constants.
type Config struct {
	Metrics map[string]Thresholds `json:"metrics" yaml:"metrics"`

	// CategoryDistanceWarn gates CategoryShift reporting: shifts whose
	// L1 distance and membership changes are all below it are dropped.
	CategoryDistanceWarn float64 `json:"category_distance_warn" yaml:"category_distance_warn"`
}

// DefaultConfig returns the default drift thresholds.
func DefaultConfig() *Config {
	return &Config{
		Metrics: map[string]Thresholds{
			constants.DriftMetricMean:     {Warn: 0.05, Critical: 0.20},
			constants.DriftMetricStdDev:   {Warn: 0.05, Critical: 0.20},
			constants.DriftMetricNullRate: {Warn: 0.05, Critical: 0.20},
		},
		CategoryDistanceWarn: 0.10,
	}
}

// Detector diffs two dataset profiles. It is a pure function of its
// inputs: no I/O, no error states, an empty report at worst.
type Detector struct {
	config *Config
	logger *logrus.Logger
}

// NewDetector creates a drift detector. A nil config uses defaults.
func NewDetector(config *Config, logger *logrus.Logger) *Detector {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Detector{config: config, logger: logger}
}

// Diff compares a baseline profile against a candidate. diff(A, A) is
// the identity: empty added/removed/type changes and no deltas.
func (d *Detector) Diff(baseline, candidate *models.DatasetProfile) *models.DriftReport {
	report := &models.DriftReport{
		AddedColumns:   []string{},
		RemovedColumns: []string{},
	}

	baselineCols := make(map[string]*models.ColumnProfile, len(baseline.Columns))
	for i := range baseline.Columns {
		baselineCols[baseline.Columns[i].Name] = &baseline.Columns[i]
	}
	candidateCols := make(map[string]*models.ColumnProfile, len(candidate.Columns))
	for i := range candidate.Columns {
		candidateCols[candidate.Columns[i].Name] = &candidate.Columns[i]
	}

	// Added/removed by name, reported in first-seen order of their
	// respective profiles.
	for i := range candidate.Columns {
		if _, ok := baselineCols[candidate.Columns[i].Name]; !ok {
			report.AddedColumns = append(report.AddedColumns, candidate.Columns[i].Name)
		}
	}
	for i := range baseline.Columns {
		if _, ok := candidateCols[baseline.Columns[i].Name]; !ok {
			report.RemovedColumns = append(report.RemovedColumns, baseline.Columns[i].Name)
		}
	}

	// Type changes and statistical drift walk the baseline's column
	// order so the report is deterministic.
	for i := range baseline.Columns {
		base := &baseline.Columns[i]
		cand, ok := candidateCols[base.Name]
		if !ok {
			continue
		}

		if base.InferredType != cand.InferredType {
			report.TypeChanges = append(report.TypeChanges, models.TypeChange{
				Column:  base.Name,
				OldType: base.InferredType,
				NewType: cand.InferredType,
			})
		}

		report.StatDeltas = append(report.StatDeltas, d.statDeltas(base, cand)...)

		if shift, ok := d.categoryShift(base, cand); ok {
			report.CategoryShifts = append(report.CategoryShifts, shift)
		}
	}

	d.logger.WithFields(logrus.Fields{
		"added":        len(report.AddedColumns),
		"removed":      len(report.RemovedColumns),
		"type_changes": len(report.TypeChanges),
		"stat_deltas":  len(report.StatDeltas),
	}).Debug("Drift diff computed")

	return report
}

// statDeltas scores mean, stdev and null_rate for one column pair.
// Numeric deltas require both sides to carry defined numeric stats and
// matching types; null_rate applies to every common column.
func (d *Detector) statDeltas(base, cand *models.ColumnProfile) []models.StatDelta {
	var deltas []models.StatDelta

	if base.InferredType == cand.InferredType && base.Numeric != nil && cand.Numeric != nil {
		if delta, ok := d.scoreDelta(base.Name, constants.DriftMetricMean, base.Numeric.Mean, cand.Numeric.Mean); ok {
			deltas = append(deltas, delta)
		}
		if delta, ok := d.scoreDelta(base.Name, constants.DriftMetricStdDev, base.Numeric.StdDev, cand.Numeric.StdDev); ok {
			deltas = append(deltas, delta)
		}
	}

	if delta, ok := d.scoreDelta(base.Name, constants.DriftMetricNullRate, base.NullRate(), cand.NullRate()); ok {
		deltas = append(deltas, delta)
	}
	return deltas
}

func (d *Detector) scoreDelta(column, metric string, baseline, candidate float64) (models.StatDelta, bool) {
	thresholds, ok := d.config.Metrics[metric]
	if !ok {
		return models.StatDelta{}, false
	}

	rel := math.Abs(candidate-baseline) / math.Max(math.Abs(baseline), epsilon)
	if rel < thresholds.Warn {
		return models.StatDelta{}, false
	}

	severity := constants.DriftWarning
	if rel >= thresholds.Critical {
		severity = constants.DriftCritical
	}
	return models.StatDelta{
		Column:        column,
		Metric:        metric,
		Baseline:      baseline,
		Candidate:     candidate,
		RelativeDelta: rel,
		Severity:      severity,
	}, true
}
