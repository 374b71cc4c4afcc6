package audit

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tabaudit/tabaudit/internal/drift"
	"github.com/tabaudit/tabaudit/internal/explain"
	"github.com/tabaudit/tabaudit/internal/profiler"
	"github.com/tabaudit/tabaudit/internal/rules"
	"github.com/tabaudit/tabaudit/pkg/interfaces"
	"github.com/tabaudit/tabaudit/pkg/models"
)

// Config aggregates the per-component configurations of one audit
// pipeline.
type Config struct {
	Profiler  *profiler.Config `json:"profiler" yaml:"profiler"`
	Drift     *drift.Config    `json:"drift" yaml:"drift"`
	Evaluator *rules.Config    `json:"evaluator" yaml:"evaluator"`
	Explain   *explain.Config  `json:"explain" yaml:"explain"`
}

// DefaultConfig returns the default audit configuration.
func DefaultConfig() *Config {
	return &Config{
		Profiler:  profiler.DefaultConfig(),
		Drift:     drift.DefaultConfig(),
		Evaluator: rules.DefaultConfig(),
		Explain:   explain.DefaultConfig(),
	}
}

// Auditor runs the full pipeline synchronously, as one batch
// operation per invocation: profile, then drift against an optional
// baseline, then rule evaluation, then explanations.
type Auditor struct {
	config    *Config
	logger    *logrus.Logger
	profiler  *profiler.Engine
	detector  *drift.Detector
	evaluator *rules.Evaluator
	explainer *explain.Generator
}

// NewAuditor creates an auditor. A nil config uses defaults.
func NewAuditor(config *Config, logger *logrus.Logger) *Auditor {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Auditor{
		config:    config,
		logger:    logger,
		profiler:  profiler.NewEngine(config.Profiler, logger),
		detector:  drift.NewDetector(config.Drift, logger),
		evaluator: rules.NewEvaluator(config.Evaluator, logger),
		explainer: explain.NewGenerator(config.Explain, logger),
	}
}

// Options selects the optional stages of one run.
type Options struct {
	// Baseline, when set, enables drift detection against it.
	Baseline *models.DatasetProfile

	// Expectations, when set, enables rule evaluation. A nil set
	// yields a report with an empty result list and a pass outcome.
	Expectations *models.ExpectationSet
}

// Run executes the audit pipeline against one source and folds the
// per-rule verdicts into the aggregate outcome CI consumes.
func (a *Auditor) Run(ctx context.Context, source interfaces.TabularSource, opts Options) (*models.AuditReport, error) {
	started := time.Now()

	profile, err := a.profiler.Profile(ctx, source)
	if err != nil {
		return nil, err
	}

	report := &models.AuditReport{
		Profile:   profile,
		StartedAt: started.UTC(),
	}

	if opts.Baseline != nil {
		report.Drift = a.detector.Diff(opts.Baseline, profile)
	}

	if opts.Expectations != nil {
		results, groups, err := a.evaluator.Evaluate(ctx, profile, opts.Expectations)
		if err != nil {
			return nil, err
		}
		report.Results = results
		report.GroupResults = groups
		report.Explanations = a.explainer.Explain(results)
	}

	report.Outcome = models.OutcomeOf(report.Results)
	report.Duration = time.Since(started)

	a.logger.WithFields(logrus.Fields{
		"outcome":  report.Outcome,
		"rules":    len(report.Results),
		"duration": report.Duration,
	}).Info("Audit completed")

	return report, nil
}
