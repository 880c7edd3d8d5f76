// Package config loads and validates nmapxlsx configuration files.
package config

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/anstrom/nmapxlsx/internal/errors"
)

const (
	defaultCommentWidth = 500
	defaultAuthor       = "nmapxlsx"
)

// Config represents the complete converter configuration
type Config struct {
	// Workbook output settings
	Workbook WorkbookConfig `yaml:"workbook" json:"workbook"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Metrics export
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// WorkbookConfig holds settings for the generated spreadsheet
type WorkbookConfig struct {
	// Author recorded on script-output comments
	CommentAuthor string `yaml:"comment_author" json:"comment_author" validate:"required,max=255"`

	// Width of the comment box on the Service column
	CommentWidth uint `yaml:"comment_width" json:"comment_width" validate:"min=50,max=2000"`

	// Values offered by the review dropdown
	ReviewValues []string `yaml:"review_values" json:"review_values" validate:"min=1,max=32,dive,required,max=255"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`

	// Log format (text, json)
	Format string `yaml:"format" json:"format" validate:"oneof=text json"`

	// Log output (stdout, stderr, file path)
	Output string `yaml:"output" json:"output" validate:"required"`
}

// MetricsConfig holds metrics export settings
type MetricsConfig struct {
	// Textfile is where the run's counters are written; empty disables export
	Textfile string `yaml:"textfile" json:"textfile"`
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Workbook: WorkbookConfig{
			CommentAuthor: defaultAuthor,
			CommentWidth:  defaultCommentWidth,
			ReviewValues:  []string{"Y", "N", "N/A"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Load loads configuration from a file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	config := Default()

	if path == "" {
		return config, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, errors.WrapConfigError(errors.CodeConfiguration, "failed to read config file", err)
	}

	// JSON is a subset of YAML, so one decoder serves both extensions.
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.WrapConfigError(errors.CodeConfiguration,
			fmt.Sprintf("failed to parse config %s", path), err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

var validate = validator.New()

// Validate validates the configuration
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if stderrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		if fe.Tag() == "required" {
			cfgErr := errors.ErrConfigMissing(fe.Namespace())
			cfgErr.Cause = err
			return cfgErr
		}
		cfgErr := errors.ErrConfigInvalid(fe.Namespace(), fe.Value())
		cfgErr.Message = fmt.Sprintf("Invalid configuration value (rule: %s)", fe.Tag())
		cfgErr.Cause = err
		return cfgErr
	}
	return errors.WrapConfigError(errors.CodeValidation, "invalid configuration", err)
}
