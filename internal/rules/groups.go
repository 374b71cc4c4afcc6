package rules

import (
	"github.com/tabaudit/tabaudit/pkg/constants"
	"github.com/tabaudit/tabaudit/pkg/models"
)

// deriveGroupResults folds member verdicts into group verdicts. Groups
// are derived, not primitive: skipped members are vacuously true and
// erroring members fail their group, but group membership never
// changes how a rule itself is evaluated.
func deriveGroupResults(set *models.ExpectationSet, results []models.ValidationResult) []models.GroupResult {
	if len(set.Groups) == 0 {
		return nil
	}

	verdictByID := make(map[string]string, len(results))
	for i := range results {
		verdictByID[results[i].RuleID] = results[i].Verdict
	}

	out := make([]models.GroupResult, len(set.Groups))
	for i, group := range set.Groups {
		out[i] = models.GroupResult{
			Name:    group.Name,
			Combine: group.Combine,
			Verdict: groupVerdict(group, verdictByID),
			RuleIDs: group.RuleIDs,
		}
	}
	return out
}

func groupVerdict(group models.RuleGroup, verdictByID map[string]string) string {
	holds := group.Combine == constants.CombineAnd
	for _, id := range group.RuleIDs {
		member := memberHolds(verdictByID[id])
		if group.Combine == constants.CombineAnd {
			holds = holds && member
		} else {
			holds = holds || member
		}
	}
	if holds {
		return constants.VerdictPass
	}
	return constants.VerdictFail
}

func memberHolds(verdict string) bool {
	switch verdict {
	case constants.VerdictPass, constants.VerdictSkipped:
		return true
	default:
		return false
	}
}
