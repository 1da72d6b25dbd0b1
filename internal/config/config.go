package config

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/specialistvlad/cellflow/internal/graph"
	"github.com/specialistvlad/cellflow/internal/validate"
)

// ValidationConfig controls how processed results are compared against the
// original workbook values.
type ValidationConfig struct {
	Tolerance  float64
	StrictMode bool
	MaxDepth   int
}

// ProcessingConfig controls the evaluation run itself.
type ProcessingConfig struct {
	Workers int
}

// OutputConfig controls where and how processed sheets are written.
type OutputConfig struct {
	Format    string
	Directory string
}

// LoggingConfig controls the application logger.
type LoggingConfig struct {
	Level  string
	Format string
}

// Config is the fully resolved application configuration.
type Config struct {
	Validation ValidationConfig
	Processing ProcessingConfig
	Output     OutputConfig
	Logging    LoggingConfig
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	return &Config{
		Validation: ValidationConfig{
			Tolerance:  validate.DefaultTolerance,
			StrictMode: true,
			MaxDepth:   graph.DefaultMaxDepth,
		},
		Processing: ProcessingConfig{
			Workers: 4,
		},
		Output: OutputConfig{
			Format:    "csv",
			Directory: "output",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// HCL decoding schemas. Pointer fields distinguish "absent" from
// "explicitly set", so partial config files only override what they name.
type validationBlock struct {
	Tolerance  *float64 `hcl:"tolerance,optional"`
	StrictMode *bool    `hcl:"strict_mode,optional"`
	MaxDepth   *int     `hcl:"max_depth,optional"`
}

type processingBlock struct {
	Workers *int `hcl:"workers,optional"`
}

type outputBlock struct {
	Format    *string `hcl:"format,optional"`
	Directory *string `hcl:"directory,optional"`
}

type loggingBlock struct {
	Level  *string `hcl:"level,optional"`
	Format *string `hcl:"format,optional"`
}

type fileSchema struct {
	Validation *validationBlock `hcl:"validation,block"`
	Processing *processingBlock `hcl:"processing,block"`
	Output     *outputBlock     `hcl:"output,block"`
	Logging    *loggingBlock    `hcl:"logging,block"`
}

// Load reads an HCL config file and merges it over the defaults. An empty
// path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, diags)
	}

	var parsed fileSchema
	diags = gohcl.DecodeBody(hclFile.Body, nil, &parsed)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, diags)
	}

	cfg.apply(&parsed)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) apply(parsed *fileSchema) {
	if b := parsed.Validation; b != nil {
		if b.Tolerance != nil {
			c.Validation.Tolerance = *b.Tolerance
		}
		if b.StrictMode != nil {
			c.Validation.StrictMode = *b.StrictMode
		}
		if b.MaxDepth != nil {
			c.Validation.MaxDepth = *b.MaxDepth
		}
	}
	if b := parsed.Processing; b != nil {
		if b.Workers != nil {
			c.Processing.Workers = *b.Workers
		}
	}
	if b := parsed.Output; b != nil {
		if b.Format != nil {
			c.Output.Format = strings.ToLower(*b.Format)
		}
		if b.Directory != nil {
			c.Output.Directory = *b.Directory
		}
	}
	if b := parsed.Logging; b != nil {
		if b.Level != nil {
			c.Logging.Level = strings.ToLower(*b.Level)
		}
		if b.Format != nil {
			c.Logging.Format = strings.ToLower(*b.Format)
		}
	}
}

// Validate checks every field against its allowed range.
func (c *Config) Validate() error {
	if c.Validation.Tolerance < 0 {
		return fmt.Errorf("validation.tolerance must not be negative, got %g", c.Validation.Tolerance)
	}
	if c.Validation.MaxDepth < 1 {
		return fmt.Errorf("validation.max_depth must be at least 1, got %d", c.Validation.MaxDepth)
	}
	if c.Processing.Workers < 1 {
		return fmt.Errorf("processing.workers must be at least 1, got %d", c.Processing.Workers)
	}
	if c.Output.Format != "csv" {
		return fmt.Errorf("output.format must be 'csv', got %q", c.Output.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", c.Logging.Format)
	}
	return nil
}
