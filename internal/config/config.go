package config

import (
	stderrors "errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gosobol/internal/errors"

	"github.com/go-playground/validator/v10"
)

// Config represents the complete application configuration
type Config struct {
	Analysis AnalysisConfig `validate:"required"`
	Output   OutputConfig
	Archive  ArchiveConfig
	Runtime  RuntimeConfig `validate:"required"`
}

// AnalysisConfig holds the sampling and estimation settings of a run
type AnalysisConfig struct {
	SampleCount       int     `validate:"gt=0"`
	Seed              int64
	Resamples         int     `validate:"gt=0"`
	Confidence        float64 `validate:"gt=0,lt=1"`
	Sampler           string  `validate:"oneof=random sobol"`
	Scheme            string  `validate:"oneof=second first-total"`
	NonFinitePolicy   string  `validate:"oneof=fail propagate"`
	MeasurementOffset float64 `validate:"gt=0"`
	ScenariosFile     string  `validate:"omitempty,file"`
	// Scenarios restricts a run to these ids; empty runs every scenario
	Scenarios []string
}

// OutputConfig holds optional export targets. Empty means skip.
type OutputConfig struct {
	XLSX     string
	CSVDir   string
	Markdown string
	HTML     string
}

// ArchiveConfig holds the run archive connection
type ArchiveConfig struct {
	DatabaseURL string
}

// Enabled reports whether runs should be archived
func (a ArchiveConfig) Enabled() bool {
	return a.DatabaseURL != ""
}

// RuntimeConfig holds process-level settings
type RuntimeConfig struct {
	ParallelScenarios bool
	LogLevel          string `validate:"oneof=error warn info debug trace"`
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := Default()

	analysis, err := loadAnalysisConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load analysis configuration")
	}
	config.Analysis = *analysis
	config.Output = *loadOutputConfig()
	config.Archive = ArchiveConfig{DatabaseURL: getEnvOrDefault("ARCHIVE_DATABASE_URL", "")}
	parallel, err := getEnvBool("PARALLEL_SCENARIOS", true)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load runtime configuration")
	}
	config.Runtime = RuntimeConfig{
		ParallelScenarios: parallel,
		LogLevel:          strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
	}

	if err := Validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// Default returns the configuration used when no environment is set
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			SampleCount:       1000,
			Seed:              42,
			Resamples:         100,
			Confidence:        0.95,
			Sampler:           "random",
			Scheme:            "second",
			NonFinitePolicy:   "fail",
			MeasurementOffset: 2.0,
		},
		Runtime: RuntimeConfig{ParallelScenarios: true, LogLevel: "info"},
	}
}

func loadAnalysisConfig() (*AnalysisConfig, error) {
	d := Default().Analysis
	a := &AnalysisConfig{
		Sampler:         strings.ToLower(getEnvOrDefault("SAMPLER", d.Sampler)),
		Scheme:          strings.ToLower(getEnvOrDefault("SCHEME", d.Scheme)),
		NonFinitePolicy: strings.ToLower(getEnvOrDefault("NON_FINITE_POLICY", d.NonFinitePolicy)),
		ScenariosFile:   getEnvOrDefault("SCENARIOS_FILE", ""),
		Scenarios:       getEnvListOrDefault("SCENARIOS", nil),
	}

	var err error
	if a.SampleCount, err = getEnvInt("SAMPLE_COUNT", d.SampleCount); err != nil {
		return nil, err
	}
	if a.Seed, err = getEnvInt64("SEED", d.Seed); err != nil {
		return nil, err
	}
	if a.Resamples, err = getEnvInt("BOOTSTRAP_RESAMPLES", d.Resamples); err != nil {
		return nil, err
	}
	if a.Confidence, err = getEnvFloat("CONFIDENCE_LEVEL", d.Confidence); err != nil {
		return nil, err
	}
	if a.MeasurementOffset, err = getEnvFloat("MEASUREMENT_OFFSET", d.MeasurementOffset); err != nil {
		return nil, err
	}
	return a, nil
}

func loadOutputConfig() *OutputConfig {
	return &OutputConfig{
		XLSX:     getEnvOrDefault("EXPORT_XLSX", ""),
		CSVDir:   getEnvOrDefault("EXPORT_CSV_DIR", ""),
		Markdown: getEnvOrDefault("REPORT_MARKDOWN", ""),
		HTML:     getEnvOrDefault("REPORT_HTML", ""),
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct constraints and reports the first failing field
func Validate(config *Config) error {
	err := validate.Struct(config)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if stderrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return errors.ConfigInvalid(fmt.Sprintf("%s fails %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.WithCode(errors.CodeConfigInvalid, err)
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// The numeric getters reject malformed values rather than falling back to
// the default.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s must be an integer, got %q", key, value))
	}
	return v, nil
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s must be an integer, got %q", key, value))
	}
	return v, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s must be a finite number, got %q", key, value))
	}
	return v, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(value)
	if err != nil {
		return false, errors.ConfigInvalid(fmt.Sprintf("%s must be a boolean, got %q", key, value))
	}
	return v, nil
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
