package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tabaudit/tabaudit/pkg/constants"
	apperrors "github.com/tabaudit/tabaudit/pkg/errors"
	"github.com/tabaudit/tabaudit/pkg/models"
)

var validMetrics = map[string]bool{
	constants.MetricMean:          true,
	constants.MetricStdDev:        true,
	constants.MetricMin:           true,
	constants.MetricMax:           true,
	constants.MetricNullRate:      true,
	constants.MetricDistinctCount: true,
	constants.MetricRowCount:      true,
	constants.MetricType:          true,
}

var validOperators = map[string]bool{
	constants.OperatorEq:      true,
	constants.OperatorNe:      true,
	constants.OperatorLt:      true,
	constants.OperatorLe:      true,
	constants.OperatorGt:      true,
	constants.OperatorGe:      true,
	constants.OperatorInRange: true,
}

// LoadFile reads an expectation set from a YAML file, normalizes it
// and validates it. A malformed definition is a CONFIG_ERROR: the
// audit itself is misconfigured, so loading fails fast before any
// evaluation can begin.
func LoadFile(path string) (*models.ExpectationSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrorTypeConfig, apperrors.CodeConfigError,
			fmt.Sprintf("reading expectation file %s", path))
	}
	return LoadBytes(data)
}

// LoadBytes parses, normalizes and validates a YAML expectation set.
func LoadBytes(data []byte) (*models.ExpectationSet, error) {
	var set models.ExpectationSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrorTypeConfig, apperrors.CodeConfigError,
			"parsing expectation YAML")
	}
	Normalize(&set)
	if err := ValidateSet(&set); err != nil {
		return nil, err
	}
	return &set, nil
}

// Normalize assigns stable IDs to unnamed rules and defaults missing
// severities to error.
func Normalize(set *models.ExpectationSet) {
	for i := range set.Rules {
		if set.Rules[i].ID == "" {
			set.Rules[i].ID = fmt.Sprintf("rule_%d", i+1)
		}
		normalizeRule(&set.Rules[i])
	}
}

func normalizeRule(rule *models.Rule) {
	if rule.Severity == "" {
		rule.Severity = constants.SeverityError
	}
	if rule.Guard != nil {
		normalizeRule(rule.Guard)
	}
}

// ValidateSet checks the structural validity of an expectation set:
// known metrics and operators, thresholds matching their operator,
// unique rule IDs and resolvable group references.
func ValidateSet(set *models.ExpectationSet) error {
	seen := make(map[string]bool, len(set.Rules))
	for i := range set.Rules {
		rule := &set.Rules[i]
		if rule.ID != "" {
			if seen[rule.ID] {
				return apperrors.NewConfigError(fmt.Sprintf("duplicate rule id '%s'", rule.ID))
			}
			seen[rule.ID] = true
		}
		if err := validateRule(rule, fmt.Sprintf("rule %d", i+1)); err != nil {
			return err
		}
	}

	for _, group := range set.Groups {
		if group.Name == "" {
			return apperrors.NewConfigError("group without a name")
		}
		if group.Combine != constants.CombineAnd && group.Combine != constants.CombineOr {
			return apperrors.NewConfigError(
				fmt.Sprintf("group '%s': combine must be and/or, got '%s'", group.Name, group.Combine))
		}
		if len(group.RuleIDs) == 0 {
			return apperrors.NewConfigError(fmt.Sprintf("group '%s' references no rules", group.Name))
		}
		for _, id := range group.RuleIDs {
			if set.RuleByID(id) == nil {
				return apperrors.NewConfigError(
					fmt.Sprintf("group '%s' references unknown rule '%s'", group.Name, id))
			}
		}
	}
	return nil
}

func validateRule(rule *models.Rule, where string) error {
	if !validMetrics[rule.Metric] {
		return apperrors.NewConfigError(fmt.Sprintf("%s: unknown metric '%s'", where, rule.Metric))
	}
	if !validOperators[rule.Operator] {
		return apperrors.NewConfigError(fmt.Sprintf("%s: unknown operator '%s'", where, rule.Operator))
	}
	if rule.Column == "" && rule.Metric != constants.MetricRowCount {
		return apperrors.NewConfigError(fmt.Sprintf("%s: metric '%s' requires a target column", where, rule.Metric))
	}
	if rule.Severity != constants.SeverityWarn && rule.Severity != constants.SeverityError {
		return apperrors.NewConfigError(fmt.Sprintf("%s: severity must be warn/error, got '%s'", where, rule.Severity))
	}

	switch {
	case rule.Metric == constants.MetricType:
		if rule.Operator != constants.OperatorEq && rule.Operator != constants.OperatorNe {
			return apperrors.NewConfigError(fmt.Sprintf("%s: metric 'type' supports only eq/ne", where))
		}
		if rule.TypeName == "" {
			return apperrors.NewConfigError(fmt.Sprintf("%s: metric 'type' requires a type value", where))
		}
	case rule.Operator == constants.OperatorInRange:
		if rule.Range == nil {
			return apperrors.NewConfigError(fmt.Sprintf("%s: in_range requires a [low, high] range", where))
		}
		if rule.Range.Low > rule.Range.High {
			return apperrors.NewConfigError(fmt.Sprintf("%s: in_range low exceeds high", where))
		}
	default:
		if rule.Threshold == nil {
			return apperrors.NewConfigError(fmt.Sprintf("%s: operator '%s' requires a scalar threshold", where, rule.Operator))
		}
	}

	if rule.Guard != nil {
		return validateRule(rule.Guard, where+" guard")
	}
	return nil
}
