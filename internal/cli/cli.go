package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/cellflow/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("cellflow", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
Cellflow - dependency-aware Excel formula recomputation and validation.

Usage:
  cellflow [options] [WORKBOOK_PATH]

Arguments:
  WORKBOOK_PATH
    Path to the .xlsx workbook to process.

Options:
`)
		flagSet.PrintDefaults()
	}

	workbookFlag := flagSet.String("workbook", "", "Path to the workbook file.")
	wFlag := flagSet.String("w", "", "Path to the workbook file (shorthand).")
	configFlag := flagSet.String("config", "", "Path to an HCL config file.")
	outputDirFlag := flagSet.String("output-dir", "", "Directory for processed sheet CSV files.")
	analyzeFlag := flagSet.Bool("analyze", false, "Report workbook structure and dependencies without processing.")
	analysisOutFlag := flagSet.String("analysis-out", "", "Write the analysis as JSON to this file instead of stdout.")
	noValidateFlag := flagSet.Bool("no-validate", false, "Skip validation of recomputed values.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", 0, "Number of concurrent workers for output writing. 0 uses the config value.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *workbookFlag != "" {
		path = *workbookFlag
	} else if *wFlag != "" {
		path = *wFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Workbook path determined.", "path", path)

	if path == "" {
		slog.Debug("No workbook path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if *workersFlag < 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid workers: must not be negative"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		WorkbookPath:   path,
		ConfigPath:     *configFlag,
		OutputDir:      *outputDirFlag,
		Analyze:        *analyzeFlag,
		AnalysisOutput: *analysisOutFlag,
		NoValidate:     *noValidateFlag,
		Workers:        *workersFlag,
		LogFormat:      logFormat,
		LogLevel:       logLevel,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
