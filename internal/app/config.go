package app

import "errors"

// Config holds the invocation-level settings an App instance runs with.
// File-level settings live in the config package; fields here either point
// at files or override what those files say.
type Config struct {
	WorkbookPath string
	ConfigPath   string

	OutputDir      string
	Analyze        bool
	AnalysisOutput string
	NoValidate     bool
	Workers        int

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.WorkbookPath == "" {
		return nil, errors.New("WorkbookPath is a required configuration field and cannot be empty")
	}

	return &cfg, nil
}
