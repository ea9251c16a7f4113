package config

import (
	"fmt"

	"github.com/kbukum/pullstream/errors"
	"github.com/kbukum/pullstream/logger"
	"github.com/kbukum/pullstream/observability"
	"github.com/kbukum/pullstream/pipeline"
)

// DefaultName is the program name used for file discovery and telemetry.
const DefaultName = "pullstream"

// Config is the full pullstream configuration.
type Config struct {
	Name        string               `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string               `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Logging     logger.Config        `yaml:"logging" mapstructure:"logging"`
	Pipeline    PipelineConfig       `yaml:"pipeline" mapstructure:"pipeline"`
	Telemetry   observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// PipelineConfig describes the chain to build.
// Input and InputFile are mutually exclusive; with neither set the input
// comes from stdin.
type PipelineConfig struct {
	ReadSize   int      `yaml:"read_size" mapstructure:"read_size" validate:"gte=0"`
	Transforms []string `yaml:"transforms" mapstructure:"transforms" validate:"dive,required"`
	Input      string   `yaml:"input" mapstructure:"input" validate:"excluded_with=InputFile"`
	InputFile  string   `yaml:"input_file" mapstructure:"input_file"`
}

// ApplyDefaults fills unset fields. version is reported to telemetry.
func (c *Config) ApplyDefaults(version string) {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Pipeline.ReadSize == 0 {
		c.Pipeline.ReadSize = pipeline.DefaultReadSize
	}
	c.Logging.ApplyDefaults()
	c.Telemetry.ApplyDefaults(c.Name, version)
}

// Validate checks every field and returns a single INVALID_CONFIG error
// listing all problems.
func (c *Config) Validate() error {
	problems := validateStruct(c)

	if err := c.Logging.Validate(); err != nil {
		problems = append(problems, FieldError{Field: "logging", Message: err.Error()})
	}
	if err := c.Telemetry.Validate(); err != nil {
		problems = append(problems, FieldError{Field: "telemetry", Message: err.Error()})
	}
	for i, name := range c.Pipeline.Transforms {
		if name == "" {
			continue
		}
		if _, err := pipeline.LookupTransform(name); err != nil {
			problems = append(problems, FieldError{
				Field:   fmt.Sprintf("pipeline.transforms[%d]", i),
				Message: fmt.Sprintf("unknown transform %q", name),
			})
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return invalid(problems)
}

// Load reads configuration for name, applies defaults and validates it.
func Load(name, version string, opts ...LoaderOption) (*Config, error) {
	var cfg Config
	if err := LoadConfig(name, &cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults(version)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsInvalid reports whether err is a configuration error.
func IsInvalid(err error) bool {
	return errors.HasCode(err, errors.ErrCodeInvalidConfig)
}
