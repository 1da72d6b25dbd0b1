package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/cellflow/internal/ctxlog"
	"github.com/specialistvlad/cellflow/internal/graph"
	"github.com/specialistvlad/cellflow/internal/ref"
)

// FormulaEvaluationError wraps a failure raised by the evaluation callback,
// tagged with the reference that failed.
type FormulaEvaluationError struct {
	Ref ref.Reference
	Err error
}

func (e *FormulaEvaluationError) Error() string {
	return fmt.Sprintf("evaluating %s: %v", e.Ref, e.Err)
}

func (e *FormulaEvaluationError) Unwrap() error { return e.Err }

// ValueProvider supplies the values of input nodes.
type ValueProvider interface {
	Value(ctx context.Context, r ref.Reference) (cty.Value, error)
}

// ValueProviderFunc adapts a plain function to the ValueProvider interface.
type ValueProviderFunc func(ctx context.Context, r ref.Reference) (cty.Value, error)

// Value implements ValueProvider.
func (f ValueProviderFunc) Value(ctx context.Context, r ref.Reference) (cty.Value, error) {
	return f(ctx, r)
}

// EvaluateFunc computes a formula node's value from its already-resolved
// dependency values.
type EvaluateFunc func(ctx context.Context, r ref.Reference, deps map[ref.Reference]cty.Value) (cty.Value, error)

// NodeFailure records one failed node and its cause.
type NodeFailure struct {
	Ref ref.Reference
	Err error
}

// RunResult is the outcome of one scheduler run. Values holds every
// successfully resolved reference; Skipped lists, in processing order, the
// nodes abandoned because something upstream of them failed.
type RunResult struct {
	Values   map[ref.Reference]cty.Value
	Skipped  []ref.Reference
	Failures []NodeFailure
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithDefaultValue substitutes the given value for failed nodes instead of
// skipping their dependents. Off by default: a skip is honest, a default is
// something the caller must explicitly ask for.
func WithDefaultValue(v cty.Value) Option {
	return func(s *Scheduler) {
		s.defaultValue = &v
	}
}

// Scheduler walks a processing order and invokes the caller's callbacks.
// One Scheduler may serve several sequential runs; each run gets its own
// value cache.
type Scheduler struct {
	graph        *graph.Graph
	defaultValue *cty.Value
}

// New creates a scheduler bound to a validated graph.
func New(g *graph.Graph, opts ...Option) *Scheduler {
	s := &Scheduler{graph: g}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run evaluates every reference in order. Node failures do not abort the
// run; they are recorded and their dependents skipped. The returned error
// is non-nil only for internal invariant violations or context
// cancellation, where any partial result would be meaningless.
func (s *Scheduler) Run(ctx context.Context, order []ref.Reference, provider ValueProvider, evaluate EvaluateFunc) (*RunResult, error) {
	logger := ctxlog.FromContext(ctx)
	result := &RunResult{
		Values: make(map[ref.Reference]cty.Value, len(order)),
	}
	unusable := make(map[ref.Reference]bool)

	for _, r := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		deps, err := s.graph.Dependencies(r)
		if err != nil {
			return nil, fmt.Errorf("internal: order contains unknown node %s: %w", r, err)
		}

		if skip, cause := firstUnusable(deps, unusable); skip {
			logger.Warn("Skipping node due to upstream failure.", "ref", r.String(), "upstream", cause.String())
			unusable[r] = true
			result.Skipped = append(result.Skipped, r)
			continue
		}

		value, err := s.resolve(ctx, r, deps, provider, evaluate, result.Values)
		if err != nil {
			if isInternal(err) {
				return nil, err
			}
			logger.Error("Node evaluation failed.", "ref", r.String(), "error", err)
			result.Failures = append(result.Failures, NodeFailure{Ref: r, Err: err})
			if s.defaultValue != nil {
				result.Values[r] = *s.defaultValue
				continue
			}
			unusable[r] = true
			continue
		}
		result.Values[r] = value
	}

	return result, nil
}

// resolve computes a single node's value.
func (s *Scheduler) resolve(
	ctx context.Context,
	r ref.Reference,
	deps []ref.Reference,
	provider ValueProvider,
	evaluate EvaluateFunc,
	cache map[ref.Reference]cty.Value,
) (cty.Value, error) {
	isInput, err := s.graph.IsInput(r)
	if err != nil {
		return cty.NilVal, internalError(fmt.Errorf("order contains unknown node %s", r))
	}

	if isInput {
		value, err := provider.Value(ctx, r)
		if err != nil {
			return cty.NilVal, fmt.Errorf("input value for %s: %w", r, err)
		}
		return value, nil
	}

	depValues := make(map[ref.Reference]cty.Value, len(deps))
	for _, d := range deps {
		v, ok := cache[d]
		if !ok {
			// The order guarantees dependencies resolve first; a miss here
			// is a bug in the caller or the graph, not a user error.
			return cty.NilVal, internalError(fmt.Errorf("dependency %s of %s not resolved", d, r))
		}
		depValues[d] = v
	}

	value, err := evaluate(ctx, r, depValues)
	if err != nil {
		return cty.NilVal, &FormulaEvaluationError{Ref: r, Err: err}
	}
	return value, nil
}

// firstUnusable reports whether any dependency has failed or been skipped,
// returning the first offender for diagnostics.
func firstUnusable(deps []ref.Reference, unusable map[ref.Reference]bool) (bool, ref.Reference) {
	for _, d := range deps {
		if unusable[d] {
			return true, d
		}
	}
	return false, ref.Reference{}
}

// internalErr marks errors that must abort the whole run.
type internalErr struct {
	err error
}

func (e *internalErr) Error() string { return "internal: " + e.err.Error() }
func (e *internalErr) Unwrap() error { return e.err }

func internalError(err error) error { return &internalErr{err: err} }

func isInternal(err error) bool {
	var ie *internalErr
	return errors.As(err, &ie)
}
