package formula

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/efp"

	"github.com/specialistvlad/cellflow/internal/ref"
)

// ColumnLookup returns the already-computed values of a referenced column.
type ColumnLookup func(r ref.Reference) ([]float64, error)

// Eval recomputes a formula column-wise: every referenced column is taken
// as a whole vector of length rows, scalars broadcast, and the result is
// one numeric column of the same length. Formulas using anything outside
// the supported subset fail with an error; the evaluator never guesses.
func Eval(formulaStr, currentSheet string, rows int, resolve Resolver, lookup ColumnLookup) ([]float64, error) {
	ps := efp.ExcelParser()
	tokens := ps.Parse(strings.TrimPrefix(formulaStr, "="))
	if tokens == nil {
		return nil, fmt.Errorf("cannot tokenize formula %q", formulaStr)
	}

	ev := &evaluator{
		tokens:  filterTokens(tokens),
		sheet:   currentSheet,
		rows:    rows,
		resolve: resolve,
		lookup:  lookup,
	}
	result, err := ev.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if ev.pos != len(ev.tokens) {
		return nil, fmt.Errorf("unexpected token %q in formula %q", ev.tokens[ev.pos].TValue, formulaStr)
	}
	vec, err := result.single()
	if err != nil {
		return nil, err
	}
	return vec, nil
}

func filterTokens(tokens []efp.Token) []efp.Token {
	out := tokens[:0:0]
	for _, t := range tokens {
		if t.TType == efp.TokenTypeWhitespace {
			continue
		}
		out = append(out, t)
	}
	return out
}

// operand is either a single column vector or, for range operands feeding
// an aggregate, a group of them.
type operand struct {
	vecs [][]float64
}

func (o operand) single() ([]float64, error) {
	if len(o.vecs) != 1 {
		return nil, fmt.Errorf("multi-column range used where a single column is required")
	}
	return o.vecs[0], nil
}

type evaluator struct {
	tokens  []efp.Token
	pos     int
	sheet   string
	rows    int
	resolve Resolver
	lookup  ColumnLookup
}

func (ev *evaluator) peek() (efp.Token, bool) {
	if ev.pos >= len(ev.tokens) {
		return efp.Token{}, false
	}
	return ev.tokens[ev.pos], true
}

// precedence of infix operators; higher binds tighter.
func precedence(op string) int {
	switch op {
	case "=", "<>", "<", ">", "<=", ">=":
		return 1
	case "+", "-":
		return 2
	case "*", "/":
		return 3
	case "^":
		return 4
	default:
		return 0
	}
}

// parseExpr implements precedence climbing over the token stream.
func (ev *evaluator) parseExpr(minPrec int) (operand, error) {
	left, err := ev.parseUnary()
	if err != nil {
		return operand{}, err
	}

	for {
		tok, ok := ev.peek()
		if !ok || tok.TType != efp.TokenTypeOperatorInfix {
			return left, nil
		}
		prec := precedence(tok.TValue)
		if prec == 0 {
			return operand{}, fmt.Errorf("unsupported operator %q", tok.TValue)
		}
		if prec < minPrec {
			return left, nil
		}
		ev.pos++

		right, err := ev.parseExpr(prec + 1)
		if err != nil {
			return operand{}, err
		}
		left, err = applyBinary(tok.TValue, left, right)
		if err != nil {
			return operand{}, err
		}
	}
}

func (ev *evaluator) parseUnary() (operand, error) {
	tok, ok := ev.peek()
	if !ok {
		return operand{}, fmt.Errorf("unexpected end of formula")
	}

	switch tok.TType {
	case efp.TokenTypeOperatorPrefix:
		ev.pos++
		inner, err := ev.parseUnary()
		if err != nil {
			return operand{}, err
		}
		vec, err := inner.single()
		if err != nil {
			return operand{}, err
		}
		out := make([]float64, len(vec))
		for i, v := range vec {
			out[i] = -v
		}
		return ev.maybePostfix(operand{vecs: [][]float64{out}})

	case efp.TokenTypeOperand:
		ev.pos++
		op, err := ev.parseOperand(tok)
		if err != nil {
			return operand{}, err
		}
		return ev.maybePostfix(op)

	case efp.TokenTypeFunction:
		if tok.TSubType != efp.TokenSubTypeStart {
			return operand{}, fmt.Errorf("unexpected function token %q", tok.TValue)
		}
		return ev.parseFunction(tok.TValue)

	case efp.TokenTypeSubexpression:
		if tok.TSubType != efp.TokenSubTypeStart {
			return operand{}, fmt.Errorf("unbalanced parentheses")
		}
		ev.pos++
		inner, err := ev.parseExpr(0)
		if err != nil {
			return operand{}, err
		}
		closing, ok := ev.peek()
		if !ok || closing.TType != efp.TokenTypeSubexpression || closing.TSubType != efp.TokenSubTypeStop {
			return operand{}, fmt.Errorf("unbalanced parentheses")
		}
		ev.pos++
		return ev.maybePostfix(inner)

	default:
		return operand{}, fmt.Errorf("unsupported token %q (%s)", tok.TValue, tok.TType)
	}
}

// maybePostfix handles the percent operator.
func (ev *evaluator) maybePostfix(op operand) (operand, error) {
	tok, ok := ev.peek()
	if !ok || tok.TType != efp.TokenTypeOperatorPostfix {
		return op, nil
	}
	ev.pos++
	vec, err := op.single()
	if err != nil {
		return operand{}, err
	}
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = v / 100
	}
	return operand{vecs: [][]float64{out}}, nil
}

func (ev *evaluator) parseOperand(tok efp.Token) (operand, error) {
	switch tok.TSubType {
	case efp.TokenSubTypeNumber:
		n, err := strconv.ParseFloat(tok.TValue, 64)
		if err != nil {
			return operand{}, fmt.Errorf("malformed number %q", tok.TValue)
		}
		return operand{vecs: [][]float64{ev.broadcast(n)}}, nil

	case efp.TokenSubTypeLogical:
		switch strings.ToUpper(tok.TValue) {
		case "TRUE":
			return operand{vecs: [][]float64{ev.broadcast(1)}}, nil
		case "FALSE":
			return operand{vecs: [][]float64{ev.broadcast(0)}}, nil
		}
		return operand{}, fmt.Errorf("unsupported logical literal %q", tok.TValue)

	case efp.TokenSubTypeRange:
		refs, err := resolveRangeToken(tok.TValue, ev.sheet, ev.resolve)
		if err != nil {
			return operand{}, err
		}
		vecs := make([][]float64, 0, len(refs))
		for _, r := range refs {
			vec, err := ev.lookup(r)
			if err != nil {
				return operand{}, err
			}
			vecs = append(vecs, vec)
		}
		return operand{vecs: vecs}, nil

	default:
		return operand{}, fmt.Errorf("unsupported operand %q (%s)", tok.TValue, tok.TSubType)
	}
}

func (ev *evaluator) broadcast(v float64) []float64 {
	vec := make([]float64, ev.rows)
	for i := range vec {
		vec[i] = v
	}
	return vec
}

func applyBinary(op string, left, right operand) (operand, error) {
	a, err := left.single()
	if err != nil {
		return operand{}, err
	}
	b, err := right.single()
	if err != nil {
		return operand{}, err
	}
	if len(a) != len(b) {
		return operand{}, fmt.Errorf("operand length mismatch: %d vs %d", len(a), len(b))
	}

	out := make([]float64, len(a))
	for i := range a {
		x, y := a[i], b[i]
		if math.IsNaN(x) || math.IsNaN(y) {
			out[i] = math.NaN()
			continue
		}
		switch op {
		case "+":
			out[i] = x + y
		case "-":
			out[i] = x - y
		case "*":
			out[i] = x * y
		case "/":
			out[i] = x / y
		case "^":
			out[i] = math.Pow(x, y)
		case "=":
			out[i] = boolVal(x == y)
		case "<>":
			out[i] = boolVal(x != y)
		case "<":
			out[i] = boolVal(x < y)
		case ">":
			out[i] = boolVal(x > y)
		case "<=":
			out[i] = boolVal(x <= y)
		case ">=":
			out[i] = boolVal(x >= y)
		default:
			return operand{}, fmt.Errorf("unsupported operator %q", op)
		}
	}
	return operand{vecs: [][]float64{out}}, nil
}

func boolVal(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// parseFunction consumes `NAME( arg , arg ... )` and applies the function.
func (ev *evaluator) parseFunction(rawName string) (operand, error) {
	name := strings.ToUpper(strings.TrimSuffix(rawName, "("))
	ev.pos++

	var args []operand
	for {
		tok, ok := ev.peek()
		if !ok {
			return operand{}, fmt.Errorf("unterminated call to %s", name)
		}
		if tok.TType == efp.TokenTypeFunction && tok.TSubType == efp.TokenSubTypeStop {
			ev.pos++
			break
		}
		if tok.TType == efp.TokenTypeArgument {
			ev.pos++
			continue
		}
		arg, err := ev.parseExpr(0)
		if err != nil {
			return operand{}, err
		}
		args = append(args, arg)
	}

	result, err := ev.applyFunction(name, args)
	if err != nil {
		return operand{}, err
	}
	return ev.maybePostfix(result)
}

func (ev *evaluator) applyFunction(name string, args []operand) (operand, error) {
	switch name {
	case "SUM", "AVERAGE", "MIN", "MAX", "COUNT":
		return ev.aggregate(name, args)
	case "IF":
		return ev.conditional(args)
	default:
		return operand{}, fmt.Errorf("unsupported function %s", name)
	}
}

// aggregate folds every element of every argument into one scalar,
// ignoring missing values, and broadcasts it back to column length.
func (ev *evaluator) aggregate(name string, args []operand) (operand, error) {
	if len(args) == 0 {
		return operand{}, fmt.Errorf("%s requires at least one argument", name)
	}

	var (
		sum   float64
		count int
		min   = math.Inf(1)
		max   = math.Inf(-1)
	)
	for _, arg := range args {
		for _, vec := range arg.vecs {
			for _, v := range vec {
				if math.IsNaN(v) {
					continue
				}
				sum += v
				count++
				if v < min {
					min = v
				}
				if v > max {
					max = v
				}
			}
		}
	}

	var result float64
	switch name {
	case "SUM":
		result = sum
	case "COUNT":
		result = float64(count)
	case "AVERAGE":
		if count == 0 {
			result = math.NaN()
		} else {
			result = sum / float64(count)
		}
	case "MIN":
		if count == 0 {
			result = math.NaN()
		} else {
			result = min
		}
	case "MAX":
		if count == 0 {
			result = math.NaN()
		} else {
			result = max
		}
	}
	return operand{vecs: [][]float64{ev.broadcast(result)}}, nil
}

// conditional is element-wise IF(cond, then, else).
func (ev *evaluator) conditional(args []operand) (operand, error) {
	if len(args) != 3 {
		return operand{}, fmt.Errorf("IF requires exactly 3 arguments, got %d", len(args))
	}
	cond, err := args[0].single()
	if err != nil {
		return operand{}, err
	}
	then, err := args[1].single()
	if err != nil {
		return operand{}, err
	}
	otherwise, err := args[2].single()
	if err != nil {
		return operand{}, err
	}

	out := make([]float64, len(cond))
	for i, c := range cond {
		switch {
		case math.IsNaN(c):
			out[i] = math.NaN()
		case c != 0:
			out[i] = then[i]
		default:
			out[i] = otherwise[i]
		}
	}
	return operand{vecs: [][]float64{out}}, nil
}
