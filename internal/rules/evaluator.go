package rules

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tabaudit/tabaudit/pkg/constants"
	apperrors "github.com/tabaudit/tabaudit/pkg/errors"
	"github.com/tabaudit/tabaudit/pkg/models"
)

// Config configures rule evaluation.
type Config struct {
	// Concurrent evaluates independent rules across workers. Results
	// are still assembled in declaration order.
	Concurrent     bool `json:"concurrent" yaml:"concurrent"`
	MaxConcurrency int  `json:"max_concurrency" yaml:"max_concurrency"`
}

// DefaultConfig returns the default evaluator configuration.
func DefaultConfig() *Config {
	return &Config{Concurrent: false, MaxConcurrency: 4}
}

// Evaluator evaluates a declarative expectation set against a dataset
// profile. Every rule's outcome is independent: one rule erroring
// never blocks or alters another rule's evaluation.
type Evaluator struct {
	config *Config
	logger *logrus.Logger
}

// NewEvaluator creates a rule evaluator. A nil config uses defaults.
func NewEvaluator(config *Config, logger *logrus.Logger) *Evaluator {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Evaluator{config: config, logger: logger}
}

// Evaluate produces one ValidationResult per declared rule, in
// declaration order, plus the derived group verdicts. A malformed
// expectation set fails fast with CONFIG_ERROR before any rule runs.
func (e *Evaluator) Evaluate(ctx context.Context, profile *models.DatasetProfile, set *models.ExpectationSet) ([]models.ValidationResult, []models.GroupResult, error) {
	if err := ValidateSet(set); err != nil {
		return nil, nil, err
	}

	e.logger.WithFields(logrus.Fields{
		"rules":  len(set.Rules),
		"groups": len(set.Groups),
	}).Debug("Starting rule evaluation")

	results := make([]models.ValidationResult, len(set.Rules))

	if e.config.Concurrent && len(set.Rules) > 1 {
		e.evaluateConcurrently(profile, set, results)
	} else {
		for i := range set.Rules {
			select {
			case <-ctx.Done():
				return nil, nil, apperrors.NewCancelledError("rule evaluation aborted", ctx.Err())
			default:
			}
			results[i] = e.evaluateRule(profile, &set.Rules[i], i)
		}
	}

	groups := deriveGroupResults(set, results)

	e.logger.WithFields(logrus.Fields{
		"outcome": models.OutcomeOf(results),
	}).Info("Rule evaluation completed")

	return results, groups, nil
}

// evaluateConcurrently fans independent rules out over a bounded
// worker pool. The profile is read-only, so workers share it without
// synchronization; each worker writes only its own result slot, which
// keeps declaration order intact.
func (e *Evaluator) evaluateConcurrently(profile *models.DatasetProfile, set *models.ExpectationSet, results []models.ValidationResult) {
	semaphore := make(chan struct{}, e.config.MaxConcurrency)
	var wg sync.WaitGroup

	for i := range set.Rules {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()
			results[idx] = e.evaluateRule(profile, &set.Rules[idx], idx)
		}(i)
	}
	wg.Wait()
}

// evaluateRule resolves the guard, the target column and the metric,
// then compares the observed value against the threshold.
func (e *Evaluator) evaluateRule(profile *models.DatasetProfile, rule *models.Rule, idx int) models.ValidationResult {
	result := models.ValidationResult{
		RuleID:   ruleID(rule, idx),
		Rule:     rule,
		Severity: ruleSeverity(rule),
	}

	if rule.Guard != nil {
		guard := e.evaluateRule(profile, rule.Guard, idx)
		switch guard.Verdict {
		case constants.VerdictPass:
			// Guard holds; evaluate the rule proper.
		case constants.VerdictError:
			result.Verdict = constants.VerdictError
			result.Reason = guard.Reason
			result.Message = fmt.Sprintf("guard could not be evaluated: %s", guard.Message)
			return result
		default:
			result.Verdict = constants.VerdictSkipped
			result.Reason = apperrors.CodeGuardFalse
			result.Message = fmt.Sprintf("skipped: guard condition not met (%s)", guard.Message)
			return result
		}
	}

	observed, observedText, err := observeMetric(profile, rule)
	if err != nil {
		result.Verdict = constants.VerdictError
		result.Reason = err.Code
		result.Message = err.Message
		return result
	}
	result.Observed = observed
	result.ObservedText = observedText

	var holds bool
	if rule.Metric == constants.MetricType {
		holds = compareType(observedText, rule)
	} else {
		holds = compareScalar(observed, rule)
	}

	if holds {
		result.Verdict = constants.VerdictPass
		result.Message = passMessage(rule, observed, observedText)
	} else {
		result.Verdict = constants.VerdictFail
		result.Message = failMessage(rule, observed, observedText)
	}
	return result
}

// observeMetric resolves the requested metric from the profile. A
// missing column is a SCHEMA_ERROR; a metric structurally incompatible
// with the inferred type is a TYPE_MISMATCH.
func observeMetric(profile *models.DatasetProfile, rule *models.Rule) (float64, string, *apperrors.AppError) {
	if rule.Metric == constants.MetricRowCount && rule.Column == "" {
		return float64(profile.RowCount), "", nil
	}

	col := profile.Column(rule.Column)
	if col == nil {
		return 0, "", apperrors.NewSchemaError(
			fmt.Sprintf("column '%s' not found in profile", rule.Column))
	}

	switch rule.Metric {
	case constants.MetricRowCount:
		return float64(col.RowCount), "", nil
	case constants.MetricNullRate:
		return col.NullRate(), "", nil
	case constants.MetricDistinctCount:
		return float64(col.Distinct.Count), "", nil
	case constants.MetricType:
		return 0, col.InferredType, nil
	case constants.MetricMean, constants.MetricStdDev, constants.MetricMin, constants.MetricMax:
		if col.Numeric == nil {
			return 0, "", apperrors.NewTypeMismatchError(
				fmt.Sprintf("metric '%s' requires a numeric column, '%s' is %s", rule.Metric, col.Name, col.InferredType))
		}
		switch rule.Metric {
		case constants.MetricMean:
			return col.Numeric.Mean, "", nil
		case constants.MetricStdDev:
			return col.Numeric.StdDev, "", nil
		case constants.MetricMin:
			return col.Numeric.Min, "", nil
		default:
			return col.Numeric.Max, "", nil
		}
	default:
		// Unknown metrics are rejected by ValidateSet before
		// evaluation; reaching this is a programming error.
		return 0, "", apperrors.NewTypeMismatchError(
			fmt.Sprintf("metric '%s' is not supported", rule.Metric))
	}
}

func compareScalar(observed float64, rule *models.Rule) bool {
	if rule.Operator == constants.OperatorInRange {
		return observed >= rule.Range.Low && observed <= rule.Range.High
	}
	threshold := *rule.Threshold
	switch rule.Operator {
	case constants.OperatorEq:
		return observed == threshold
	case constants.OperatorNe:
		return observed != threshold
	case constants.OperatorLt:
		return observed < threshold
	case constants.OperatorLe:
		return observed <= threshold
	case constants.OperatorGt:
		return observed > threshold
	case constants.OperatorGe:
		return observed >= threshold
	default:
		return false
	}
}

func compareType(observedType string, rule *models.Rule) bool {
	if rule.Operator == constants.OperatorEq {
		return observedType == rule.TypeName
	}
	return observedType != rule.TypeName
}

func ruleID(rule *models.Rule, idx int) string {
	if rule.ID != "" {
		return rule.ID
	}
	return fmt.Sprintf("rule_%d", idx+1)
}

func ruleSeverity(rule *models.Rule) string {
	if rule.Severity == "" {
		return constants.SeverityError
	}
	return rule.Severity
}
