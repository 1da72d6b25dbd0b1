package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/specialistvlad/cellflow/internal/config"
	"github.com/specialistvlad/cellflow/internal/ctxlog"
	"github.com/specialistvlad/cellflow/internal/engine"
	"github.com/specialistvlad/cellflow/internal/validate"
	"github.com/specialistvlad/cellflow/internal/xlsx"
)

// ErrValidationFailed is returned by Run when processing succeeded but the
// recomputed values do not match the workbook.
var ErrValidationFailed = errors.New("validation failed")

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	appConfig *Config
	cfg       *config.Config
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger.
func NewApp(outW io.Writer, appConfig *Config) (*App, error) {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	cfg, err := config.Load(appConfig.ConfigPath)
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg, appConfig)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("Configuration loaded.", "config_path", appConfig.ConfigPath)

	return &App{
		outW:      outW,
		logger:    logger,
		appConfig: appConfig,
		cfg:       cfg,
	}, nil
}

// applyOverrides lets invocation flags win over the config file.
func applyOverrides(cfg *config.Config, appConfig *Config) {
	if appConfig.OutputDir != "" {
		cfg.Output.Directory = appConfig.OutputDir
	}
	if appConfig.Workers > 0 {
		cfg.Processing.Workers = appConfig.Workers
	}
	if appConfig.LogLevel != "" {
		cfg.Logging.Level = appConfig.LogLevel
	}
	if appConfig.LogFormat != "" {
		cfg.Logging.Format = appConfig.LogFormat
	}
}

// Run executes the requested mode: structural analysis or the full
// processing pipeline.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Info("Processing workbook.", "path", a.appConfig.WorkbookPath)

	wb, err := xlsx.Read(a.appConfig.WorkbookPath)
	if err != nil {
		return err
	}

	eng := engine.New(a.cfg)
	if a.appConfig.Analyze {
		return a.runAnalyze(eng, wb)
	}
	return a.runProcess(ctx, eng, wb)
}

func (a *App) runProcess(ctx context.Context, eng *engine.Engine, wb *xlsx.Workbook) error {
	result, err := eng.Process(ctx, wb)
	if err != nil {
		return err
	}

	if _, err := eng.WriteOutputs(ctx, result); err != nil {
		return err
	}

	if a.appConfig.NoValidate {
		if n := len(result.Failures) + len(result.Skipped); n > 0 {
			return fmt.Errorf("%d column(s) failed evaluation or were skipped", n)
		}
		a.logger.Info("Validation disabled, skipping report.")
		return nil
	}

	report := eng.Validate(wb, result)
	fmt.Fprint(a.outW, report.Generate())
	if report.Overall != validate.StatusPassed {
		return ErrValidationFailed
	}
	a.logger.Info("Processing completed successfully.")
	return nil
}

func (a *App) runAnalyze(eng *engine.Engine, wb *xlsx.Workbook) error {
	analysis, err := eng.Analyze(wb)
	if err != nil {
		return err
	}

	if path := a.appConfig.AnalysisOutput; path != "" {
		encoded, err := json.MarshalIndent(analysis, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, encoded, 0o644); err != nil {
			return fmt.Errorf("failed to write analysis file: %w", err)
		}
		fmt.Fprintf(a.outW, "Analysis saved to %s\n", path)
		return nil
	}

	fmt.Fprintln(a.outW, "Excel File Analysis:")
	fmt.Fprintln(a.outW, "\nSheets:")
	for _, sheet := range analysis.Sheets {
		fmt.Fprintf(a.outW, "\n%s:\n", sheet.Name)
		fmt.Fprintf(a.outW, "  Input columns: %s\n", strings.Join(sheet.InputColumns, ", "))
		fmt.Fprintf(a.outW, "  Formula columns: %s\n", strings.Join(sheet.FormulaColumns, ", "))
	}
	return nil
}
