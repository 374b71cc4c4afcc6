package interfaces

import (
	"context"

	"github.com/tabaudit/tabaudit/pkg/models"
)

// Profiler computes a dataset profile from a tabular source in a
// single streaming pass.
type Profiler interface {
	Profile(ctx context.Context, source TabularSource) (*models.DatasetProfile, error)
}

// DriftDetector diffs two profiles of the same logical dataset. Pure,
// no I/O; it always succeeds structurally.
type DriftDetector interface {
	Diff(baseline, candidate *models.DatasetProfile) *models.DriftReport
}

// RuleEvaluator evaluates a declarative expectation set against a
// profile, producing one result per rule in declaration order plus the
// derived group verdicts.
type RuleEvaluator interface {
	Evaluate(ctx context.Context, profile *models.DatasetProfile, set *models.ExpectationSet) ([]models.ValidationResult, []models.GroupResult, error)
}

// Explainer converts failing verdicts into structured explanations.
type Explainer interface {
	Explain(results []models.ValidationResult) []models.Explanation
}

// SnapshotStore persists dataset profiles for later drift comparisons
// and lineage.
type SnapshotStore interface {
	Save(ctx context.Context, dataset string, profile *models.DatasetProfile) (string, error)
	Load(ctx context.Context, id string) (*models.DatasetProfile, error)
	Latest(ctx context.Context, dataset string) (string, *models.DatasetProfile, error)
	List(ctx context.Context, dataset string) ([]models.SnapshotMeta, error)
	Prune(ctx context.Context, dataset string, keep int) (int64, error)
	Close() error
}
