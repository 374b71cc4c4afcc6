package models

import (
	"strconv"
	"time"

	"github.com/tabaudit/tabaudit/pkg/constants"
)

// ValidationResult is the outcome of evaluating one rule. One result
// is produced per declared rule, in declaration order.
type ValidationResult struct {
	RuleID   string `json:"rule_id"`
	Rule     *Rule  `json:"rule,omitempty"`
	Verdict  string `json:"verdict"`
	Severity string `json:"severity"`

	// Reason carries the error code (SCHEMA_ERROR, TYPE_MISMATCH) for
	// error verdicts, or GUARD_FALSE for skipped ones.
	Reason string `json:"reason,omitempty"`

	Observed     float64 `json:"observed"`
	ObservedText string  `json:"observed_text,omitempty"`
	Message      string  `json:"message"`
}

// GroupResult is the derived verdict of a named rule group: the
// logical and/or combination of its members' verdicts, treating
// skipped as vacuously true and error as failing the group.
type GroupResult struct {
	Name    string   `json:"name"`
	Combine string   `json:"combine"`
	Verdict string   `json:"verdict"`
	RuleIDs []string `json:"rules"`
}

// TypeChange records a column whose inferred type differs between two
// profiles of the same logical dataset.
type TypeChange struct {
	Column  string `json:"column"`
	OldType string `json:"old_type"`
	NewType string `json:"new_type"`
}

// StatDelta records a statistical drift entry at or above the warn
// threshold for one (column, metric) pair.
type StatDelta struct {
	Column        string  `json:"column"`
	Metric        string  `json:"metric"`
	Baseline      float64 `json:"baseline"`
	Candidate     float64 `json:"candidate"`
	RelativeDelta float64 `json:"relative_delta"`
	Severity      string  `json:"severity"`
}

// CategoryShift records top-K category membership changes for a
// categorical column present in both profiles.
type CategoryShift struct {
	Column            string   `json:"column"`
	NewCategories     []string `json:"new_categories,omitempty"`
	MissingCategories []string `json:"missing_categories,omitempty"`

	// Distance is the L1 distance between the overlapping top-K
	// relative frequencies.
	Distance float64 `json:"distance"`
}

// DriftReport is the deterministic diff of two dataset profiles.
// Added/removed columns are reported in first-seen order of their
// respective profiles.
type DriftReport struct {
	AddedColumns   []string        `json:"added_columns"`
	RemovedColumns []string        `json:"removed_columns"`
	TypeChanges    []TypeChange    `json:"type_changes"`
	StatDeltas     []StatDelta     `json:"stat_deltas"`
	CategoryShifts []CategoryShift `json:"category_shifts,omitempty"`
}

// Empty reports whether the diff carries no drift at all.
func (r *DriftReport) Empty() bool {
	return len(r.AddedColumns) == 0 && len(r.RemovedColumns) == 0 &&
		len(r.TypeChanges) == 0 && len(r.StatDeltas) == 0 &&
		len(r.CategoryShifts) == 0
}

// HasCritical reports whether any stat delta reached the critical
// threshold.
func (r *DriftReport) HasCritical() bool {
	for _, d := range r.StatDeltas {
		if d.Severity == constants.DriftCritical {
			return true
		}
	}
	return false
}

// Explanation converts one failing or erroring validation result into
// a root-cause classification and an actionable fix hint.
type Explanation struct {
	RuleID    string `json:"rule_id"`
	Column    string `json:"column"`
	Metric    string `json:"metric"`
	Verdict   string `json:"verdict"`
	RootCause string `json:"root_cause"`
	Summary   string `json:"summary"`

	// SuggestedFix interpolates the observed and threshold values.
	SuggestedFix string `json:"suggested_fix"`
}

// AuditReport aggregates one full audit run: the computed profile, the
// optional drift against a baseline, the per-rule results and their
// explanations, and the overall outcome.
type AuditReport struct {
	Profile      *DatasetProfile    `json:"profile"`
	Drift        *DriftReport       `json:"drift,omitempty"`
	Results      []ValidationResult `json:"results"`
	GroupResults []GroupResult      `json:"group_results,omitempty"`
	Explanations []Explanation      `json:"explanations,omitempty"`
	Outcome      string             `json:"outcome"`
	Duration     time.Duration      `json:"duration"`
	StartedAt    time.Time          `json:"started_at"`
}

// OutcomeOf folds validation results into the aggregate audit outcome:
// pass iff every result passed or was skipped; any fail makes the run
// fail; any error dominates, so CI can separate bad data from bad
// configuration.
func OutcomeOf(results []ValidationResult) string {
	outcome := constants.OutcomePass
	for i := range results {
		switch results[i].Verdict {
		case constants.VerdictError:
			return constants.OutcomeError
		case constants.VerdictFail:
			outcome = constants.OutcomeFail
		}
	}
	return outcome
}

// ExitCode maps the audit outcome to the CI exit code convention:
// pass 0, fail 1, error 2.
func ExitCode(outcome string) int {
	switch outcome {
	case constants.OutcomePass:
		return constants.ExitCodePass
	case constants.OutcomeFail:
		return constants.ExitCodeFail
	default:
		return constants.ExitCodeError
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatRange(r *Range) string {
	return "[" + formatFloat(r.Low) + ", " + formatFloat(r.High) + "]"
}
