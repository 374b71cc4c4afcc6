package explain

import (
	"fmt"

	"github.com/tabaudit/tabaudit/pkg/constants"
	apperrors "github.com/tabaudit/tabaudit/pkg/errors"
	"github.com/tabaudit/tabaudit/pkg/models"
)

// suggestedFix renders the fix hint for one failing result,
// interpolating the column, observed value and threshold.
func suggestedFix(r *models.ValidationResult, rootCause string, band float64) string {
	rule := r.Rule

	if r.Verdict == constants.VerdictError {
		switch r.Reason {
		case apperrors.CodeSchemaError:
			if rule != nil {
				return fmt.Sprintf("Column '%s' is missing from the dataset: restore it upstream or retarget the rule.", rule.Column)
			}
			return "Restore the missing column upstream or retarget the rule."
		case apperrors.CodeTypeMismatch:
			if rule != nil {
				return fmt.Sprintf("Metric '%s' does not apply to column '%s': change the metric or fix the column's source type.", rule.Metric, rule.Column)
			}
			return "Change the metric or fix the column's source type."
		default:
			return "Review the rule definition and the profiled schema."
		}
	}

	if rule == nil {
		return "Review and address the violated expectation."
	}

	if rootCause == constants.RootCauseThresholdTooStrict {
		return fmt.Sprintf("Observed %s is within %.0f%% of the allowed %s: consider widening the threshold instead of changing the data.",
			observedText(r), band*100, rule.ExpectedText())
	}

	switch rule.Metric {
	case constants.MetricNullRate:
		return fmt.Sprintf("Investigate upstream completeness for '%s': %s of rows are null or malformed, allowed is %s. Impute or drop incomplete records, or fix the extraction.",
			rule.Column, observedText(r), rule.ExpectedText())
	case constants.MetricDistinctCount:
		return fmt.Sprintf("Cardinality of '%s' is %s (expected %s %s): check for duplicated or collapsed source values.",
			rule.Column, observedText(r), rule.Operator, rule.ExpectedText())
	case constants.MetricMean, constants.MetricStdDev:
		return fmt.Sprintf("Distribution of '%s' shifted (%s is %s, expected %s %s): check for outliers, unit changes or a broken upstream transformation.",
			rule.Column, rule.Metric, observedText(r), rule.Operator, rule.ExpectedText())
	case constants.MetricMin, constants.MetricMax:
		return fmt.Sprintf("Range of '%s' breached (%s is %s, expected %s %s): look for sentinel values or truncated input.",
			rule.Column, rule.Metric, observedText(r), rule.Operator, rule.ExpectedText())
	case constants.MetricRowCount:
		return fmt.Sprintf("Row count is %s, expected %s %s: verify the extraction produced the complete dataset.",
			observedText(r), rule.Operator, rule.ExpectedText())
	case constants.MetricType:
		return fmt.Sprintf("Column '%s' inferred as %s, expected %s: align the source type or update the expectation.",
			rule.Column, r.ObservedText, rule.ExpectedText())
	default:
		return "Review and address the violated expectation."
	}
}

func observedText(r *models.ValidationResult) string {
	if r.ObservedText != "" {
		return r.ObservedText
	}
	return fmt.Sprintf("%g", r.Observed)
}
