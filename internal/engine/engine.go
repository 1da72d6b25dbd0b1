package engine

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/cellflow/internal/config"
	"github.com/specialistvlad/cellflow/internal/ctxlog"
	"github.com/specialistvlad/cellflow/internal/formula"
	"github.com/specialistvlad/cellflow/internal/graph"
	"github.com/specialistvlad/cellflow/internal/ref"
	"github.com/specialistvlad/cellflow/internal/scheduler"
	"github.com/specialistvlad/cellflow/internal/table"
	"github.com/specialistvlad/cellflow/internal/validate"
	"github.com/specialistvlad/cellflow/internal/xlsx"
)

// Engine drives the full processing pipeline for one workbook.
type Engine struct {
	cfg *config.Config
}

// New returns an engine configured by cfg.
func New(cfg *config.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Result holds the outcome of one processing run.
type Result struct {
	// Processed maps sheet names to their recomputed tables. Columns whose
	// formula failed or was skipped keep the workbook's cached values.
	Processed map[string]*table.Table
	Skipped   []ref.Reference
	Failures  []scheduler.NodeFailure
}

// Process recomputes every formula column of the workbook in dependency
// order and returns the processed sheets.
func (e *Engine) Process(ctx context.Context, wb *xlsx.Workbook) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	resolver := wb.Resolver()

	g, constants, err := e.buildGraph(wb, resolver)
	if err != nil {
		return nil, err
	}

	order, err := g.ProcessingOrder()
	if err != nil {
		return nil, err
	}
	logger.Debug("Processing order resolved.", "nodes", len(order))

	provider := e.inputProvider(wb, resolver, constants)
	evaluate := e.formulaEvaluator(wb, resolver)

	run, err := scheduler.New(g).Run(ctx, order, provider, evaluate)
	if err != nil {
		return nil, err
	}
	for _, failure := range run.Failures {
		logger.Warn("Formula evaluation failed.", "column", failure.Ref, "error", failure.Err)
	}
	if len(run.Skipped) > 0 {
		logger.Warn("Columns skipped due to upstream failures.", "count", len(run.Skipped))
	}

	processed, err := assembleSheets(wb, run)
	if err != nil {
		return nil, err
	}

	return &Result{
		Processed: processed,
		Skipped:   run.Skipped,
		Failures:  run.Failures,
	}, nil
}

// buildGraph registers one node per column. Formula columns that reference
// no other column are constants; they are registered as inputs and
// evaluated directly by the value provider.
func (e *Engine) buildGraph(wb *xlsx.Workbook, resolver formula.Resolver) (*graph.Graph, map[ref.Reference]string, error) {
	g := graph.New(e.cfg.Validation.MaxDepth)
	constants := make(map[ref.Reference]string)

	for _, sheet := range wb.Sheets {
		for _, colName := range sheet.Data.ColumnNames() {
			r := ref.New(sheet.Name, colName)
			formulaStr, hasFormula := sheet.Formulas[colName]

			if !hasFormula {
				if err := g.AddNode(r, true, nil); err != nil {
					return nil, nil, err
				}
				continue
			}

			refs, err := formula.ExtractRefs(formulaStr, sheet.Name, resolver)
			if err != nil {
				return nil, nil, fmt.Errorf("column %s: %w", r, err)
			}
			if len(refs) == 0 {
				constants[r] = formulaStr
				if err := g.AddNode(r, true, nil); err != nil {
					return nil, nil, err
				}
				continue
			}
			if err := g.AddNode(r, false, refs); err != nil {
				return nil, nil, err
			}
		}
	}
	return g, constants, nil
}

func (e *Engine) inputProvider(wb *xlsx.Workbook, resolver formula.Resolver, constants map[ref.Reference]string) scheduler.ValueProvider {
	return scheduler.ValueProviderFunc(func(ctx context.Context, r ref.Reference) (cty.Value, error) {
		sheet, ok := wb.Sheet(r.Sheet)
		if !ok {
			return cty.NilVal, fmt.Errorf("unknown sheet %s", r.Sheet)
		}

		if formulaStr, isConstant := constants[r]; isConstant {
			vec, err := formula.Eval(formulaStr, r.Sheet, sheet.Data.Rows(), resolver, noLookup)
			if err != nil {
				return cty.NilVal, err
			}
			return vectorToCty(vec), nil
		}

		col, ok := sheet.Data.Column(r.Address)
		if !ok {
			return cty.NilVal, fmt.Errorf("unknown column %s", r)
		}
		return columnToCty(col), nil
	})
}

func noLookup(r ref.Reference) ([]float64, error) {
	return nil, fmt.Errorf("unexpected reference to %s in a constant formula", r)
}

func (e *Engine) formulaEvaluator(wb *xlsx.Workbook, resolver formula.Resolver) scheduler.EvaluateFunc {
	return func(ctx context.Context, r ref.Reference, deps map[ref.Reference]cty.Value) (cty.Value, error) {
		sheet, ok := wb.Sheet(r.Sheet)
		if !ok {
			return cty.NilVal, fmt.Errorf("unknown sheet %s", r.Sheet)
		}
		formulaStr, ok := sheet.Formulas[r.Address]
		if !ok {
			return cty.NilVal, fmt.Errorf("no formula recorded for %s", r)
		}

		lookup := func(dep ref.Reference) ([]float64, error) {
			v, ok := deps[dep]
			if !ok {
				return nil, fmt.Errorf("value of %s is not available", dep)
			}
			vec, err := ctyToVector(v)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", dep, err)
			}
			return vec, nil
		}

		vec, err := formula.Eval(formulaStr, r.Sheet, sheet.Data.Rows(), resolver, lookup)
		if err != nil {
			return cty.NilVal, err
		}
		return vectorToCty(vec), nil
	}
}

// assembleSheets overlays the computed columns onto clones of the original
// sheets. Columns without a computed value keep the cached workbook data,
// so a partial run still yields complete tables.
func assembleSheets(wb *xlsx.Workbook, run *scheduler.RunResult) (map[string]*table.Table, error) {
	processed := make(map[string]*table.Table, len(wb.Sheets))
	for _, sheet := range wb.Sheets {
		out := sheet.Data.Clone()
		for colName := range sheet.Formulas {
			v, ok := run.Values[ref.New(sheet.Name, colName)]
			if !ok {
				continue
			}
			vec, err := ctyToVector(v)
			if err != nil {
				return nil, fmt.Errorf("column %s.%s: %w", sheet.Name, colName, err)
			}
			if err := out.SetColumn(table.NewNumeric(colName, vec)); err != nil {
				return nil, fmt.Errorf("column %s.%s: %w", sheet.Name, colName, err)
			}
		}
		processed[sheet.Name] = out
	}
	return processed, nil
}

// Validate compares the processed sheets against the workbook's cached
// values and returns the report. Columns that failed evaluation or were
// skipped keep their cached values and therefore show no drift, so they
// are reported as global errors and fail the report outright.
func (e *Engine) Validate(wb *xlsx.Workbook, result *Result) *validate.Report {
	original := make(map[string]*table.Table, len(wb.Sheets))
	for _, sheet := range wb.Sheets {
		original[sheet.Name] = sheet.Data
	}
	v := validate.New(e.cfg.Validation.Tolerance, e.cfg.Validation.StrictMode)
	report := v.CompareWorkbook(original, result.Processed)

	for _, failure := range result.Failures {
		report.Overall = validate.StatusFailed
		report.GlobalErrors = append(report.GlobalErrors,
			fmt.Sprintf("formula evaluation failed for %s: %v", failure.Ref, failure.Err))
	}
	for _, r := range result.Skipped {
		report.Overall = validate.StatusFailed
		report.GlobalErrors = append(report.GlobalErrors,
			fmt.Sprintf("column %s not evaluated due to an upstream failure", r))
	}
	return report
}
