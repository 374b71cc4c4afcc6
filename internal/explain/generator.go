package explain

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/tabaudit/tabaudit/pkg/constants"
	"github.com/tabaudit/tabaudit/pkg/models"
)

const epsilon = 1e-9

// Config configures explanation generation.
type Config struct {
	// StrictnessBand is the relative breach magnitude below which a
	// failed threshold reclassifies from a data-quality problem to a
	// threshold that is probably too strict.
	StrictnessBand float64 `json:"strictness_band" yaml:"strictness_band"`
}

// DefaultConfig returns the default explanation configuration.
func DefaultConfig() *Config {
	return &Config{StrictnessBand: 0.05}
}

// Generator converts failing validation results into structured,
// human-readable explanations with fix hints. It is deterministic
// given identical inputs and performs no external lookups.
type Generator struct {
	config *Config
	logger *logrus.Logger
}

// NewGenerator creates an explanation generator. A nil config uses
// defaults.
func NewGenerator(config *Config, logger *logrus.Logger) *Generator {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Generator{config: config, logger: logger}
}

// Explain produces one explanation per failing or erroring result.
// Passed and skipped results produce none.
func (g *Generator) Explain(results []models.ValidationResult) []models.Explanation {
	var out []models.Explanation
	for i := range results {
		r := &results[i]
		switch r.Verdict {
		case constants.VerdictFail, constants.VerdictError:
			out = append(out, g.explainOne(r))
		}
	}
	g.logger.WithField("explanations", len(out)).Debug("Explanations generated")
	return out
}

func (g *Generator) explainOne(r *models.ValidationResult) models.Explanation {
	exp := models.Explanation{
		RuleID:  r.RuleID,
		Verdict: r.Verdict,
		Summary: r.Message,
	}
	if r.Rule != nil {
		exp.Column = r.Rule.Column
		exp.Metric = r.Rule.Metric
	}

	exp.RootCause = g.classify(r)
	exp.SuggestedFix = suggestedFix(r, exp.RootCause, g.config.StrictnessBand)
	return exp
}

// classify maps (metric, verdict, reason) to a root cause. Schema and
// type errors are schema mismatches; threshold breaches are data
// quality problems, unless the breach is small relative to the
// threshold's tolerance band, which points at the threshold itself.
func (g *Generator) classify(r *models.ValidationResult) string {
	if r.Verdict == constants.VerdictError {
		return constants.RootCauseSchemaMismatch
	}
	if r.Rule != nil && r.Rule.Metric == constants.MetricType {
		return constants.RootCauseSchemaMismatch
	}
	if breachMagnitude(r) < g.config.StrictnessBand {
		return constants.RootCauseThresholdTooStrict
	}
	return constants.RootCauseDataQuality
}

// breachMagnitude measures how far the observed value landed beyond
// the threshold, relative to the threshold itself. For in_range rules
// the nearest violated bound serves as the reference.
func breachMagnitude(r *models.ValidationResult) float64 {
	rule := r.Rule
	if rule == nil {
		return math.Inf(1)
	}

	var reference float64
	switch {
	case rule.Range != nil:
		if r.Observed < rule.Range.Low {
			reference = rule.Range.Low
		} else {
			reference = rule.Range.High
		}
	case rule.Threshold != nil:
		reference = *rule.Threshold
	default:
		return math.Inf(1)
	}

	return math.Abs(r.Observed-reference) / math.Max(math.Abs(reference), epsilon)
}
