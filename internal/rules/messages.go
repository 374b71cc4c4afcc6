package rules

import (
	"fmt"
	"strconv"

	"github.com/tabaudit/tabaudit/pkg/constants"
	"github.com/tabaudit/tabaudit/pkg/models"
)

var operatorSymbols = map[string]string{
	constants.OperatorEq: "=",
	constants.OperatorNe: "≠",
	constants.OperatorLt: "<",
	constants.OperatorLe: "≤",
	constants.OperatorGt: ">",
	constants.OperatorGe: "≥",
}

func formatObserved(rule *models.Rule, observed float64, observedText string) string {
	if rule.Metric == constants.MetricType {
		return observedText
	}
	return strconv.FormatFloat(observed, 'g', -1, 64)
}

func subject(rule *models.Rule) string {
	if rule.Column == "" {
		return rule.Metric
	}
	return fmt.Sprintf("%s for '%s'", rule.Metric, rule.Column)
}

func passMessage(rule *models.Rule, observed float64, observedText string) string {
	if rule.Operator == constants.OperatorInRange {
		return fmt.Sprintf("%s is %s, within allowed %s",
			subject(rule), formatObserved(rule, observed, observedText), rule.ExpectedText())
	}
	return fmt.Sprintf("%s is %s, satisfies %s %s",
		subject(rule), formatObserved(rule, observed, observedText),
		operatorSymbols[rule.Operator], rule.ExpectedText())
}

// failMessage interpolates the observed and threshold values so a
// reader sees both sides of the breach, e.g. "null_rate for 'age' is
// 0.25, exceeds allowed ≤ 0.1".
func failMessage(rule *models.Rule, observed float64, observedText string) string {
	obs := formatObserved(rule, observed, observedText)
	expected := rule.ExpectedText()

	switch rule.Operator {
	case constants.OperatorLt, constants.OperatorLe:
		return fmt.Sprintf("%s is %s, exceeds allowed %s %s",
			subject(rule), obs, operatorSymbols[rule.Operator], expected)
	case constants.OperatorGt, constants.OperatorGe:
		return fmt.Sprintf("%s is %s, falls below required %s %s",
			subject(rule), obs, operatorSymbols[rule.Operator], expected)
	case constants.OperatorEq:
		return fmt.Sprintf("%s is %s, differs from required %s",
			subject(rule), obs, expected)
	case constants.OperatorNe:
		return fmt.Sprintf("%s is %s, matches forbidden value %s",
			subject(rule), obs, expected)
	default:
		return fmt.Sprintf("%s is %s, outside allowed range %s",
			subject(rule), obs, expected)
	}
}
