package constants

// Inferred column types
const (
	TypeNumeric     = "numeric"
	TypeCategorical = "categorical"
	TypeBoolean     = "boolean"
	TypeDateTime    = "datetime"
	TypeUnknown     = "unknown"
)

// Profiled metrics addressable by rules
const (
	MetricMean          = "mean"
	MetricStdDev        = "stdev"
	MetricMin           = "min"
	MetricMax           = "max"
	MetricNullRate      = "null_rate"
	MetricDistinctCount = "distinct_count"
	MetricRowCount      = "row_count"
	MetricType          = "type"
)

// Comparison operators
const (
	OperatorEq      = "eq"
	OperatorNe      = "ne"
	OperatorLt      = "lt"
	OperatorLe      = "le"
	OperatorGt      = "gt"
	OperatorGe      = "ge"
	OperatorInRange = "in_range"
)

// Rule verdicts
const (
	VerdictPass    = "pass"
	VerdictFail    = "fail"
	VerdictSkipped = "skipped"
	VerdictError   = "error"
)

// Rule severities
const (
	SeverityWarn  = "warn"
	SeverityError = "error"
)

// Group combinators
const (
	CombineAnd = "and"
	CombineOr  = "or"
)

// Drift severities
const (
	DriftWarning  = "warning"
	DriftCritical = "critical"
)

// Drift metrics scored against warn/critical thresholds
const (
	DriftMetricMean     = "mean"
	DriftMetricStdDev   = "stdev"
	DriftMetricNullRate = "null_rate"
)

// Root causes attached to explanations
const (
	RootCauseDataQuality        = "data_quality"
	RootCauseSchemaMismatch     = "schema_mismatch"
	RootCauseThresholdTooStrict = "threshold_too_strict"
)

// Aggregate audit outcomes and their CI exit codes
const (
	OutcomePass  = "pass"
	OutcomeFail  = "fail"
	OutcomeError = "error"

	ExitCodePass  = 0
	ExitCodeFail  = 1
	ExitCodeError = 2
)
