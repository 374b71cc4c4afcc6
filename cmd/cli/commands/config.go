package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/tabaudit/tabaudit/internal/audit"
	"github.com/tabaudit/tabaudit/pkg/constants"
)

// newLogger builds the command logger; --verbose (or TABAUDIT_VERBOSE)
// switches to debug level.
func newLogger() *logrus.Logger {
	logger := logrus.New()
	if viper.GetBool("verbose") {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// auditConfig assembles the pipeline configuration from viper,
// starting from the component defaults. Recognized keys mirror the
// config structs: profiler.*, drift.*, evaluator.*, explain.*.
func auditConfig() *audit.Config {
	cfg := audit.DefaultConfig()

	setFloat := func(key string, dst *float64) {
		if viper.IsSet(key) {
			*dst = viper.GetFloat64(key)
		}
	}
	setInt := func(key string, dst *int) {
		if viper.IsSet(key) {
			*dst = viper.GetInt(key)
		}
	}
	setBool := func(key string, dst *bool) {
		if viper.IsSet(key) {
			*dst = viper.GetBool(key)
		}
	}

	setFloat("profiler.min_match_ratio", &cfg.Profiler.MinMatchRatio)
	setInt("profiler.cardinality_cap", &cfg.Profiler.CardinalityCap)
	setInt("profiler.top_k", &cfg.Profiler.TopK)
	setInt("profiler.histogram_buckets", &cfg.Profiler.HistogramBuckets)
	setInt("profiler.sample_cap", &cfg.Profiler.SampleCap)

	for _, metric := range []string{constants.DriftMetricMean, constants.DriftMetricStdDev, constants.DriftMetricNullRate} {
		thresholds := cfg.Drift.Metrics[metric]
		changed := false
		if key := "drift." + metric + ".warn"; viper.IsSet(key) {
			thresholds.Warn = viper.GetFloat64(key)
			changed = true
		}
		if key := "drift." + metric + ".critical"; viper.IsSet(key) {
			thresholds.Critical = viper.GetFloat64(key)
			changed = true
		}
		if changed {
			cfg.Drift.Metrics[metric] = thresholds
		}
	}

	setBool("evaluator.concurrent", &cfg.Evaluator.Concurrent)
	setInt("evaluator.max_concurrency", &cfg.Evaluator.MaxConcurrency)
	setFloat("explain.strictness_band", &cfg.Explain.StrictnessBand)

	return cfg
}
