package formula

import (
	"fmt"
	"strings"

	"github.com/xuri/efp"
	"github.com/xuri/excelize/v2"

	"github.com/specialistvlad/cellflow/internal/ref"
)

// Resolver maps a sheet name and column letter to that column's header
// name. The workbook reader provides the concrete implementation.
type Resolver interface {
	ColumnName(sheet, columnLetter string) (string, bool)
}

// ResolverFunc adapts a plain function to the Resolver interface.
type ResolverFunc func(sheet, columnLetter string) (string, bool)

// ColumnName implements Resolver.
func (f ResolverFunc) ColumnName(sheet, columnLetter string) (string, bool) {
	return f(sheet, columnLetter)
}

// ExtractRefs returns the column references a formula consumes, in first
// appearance order with duplicates removed. Unqualified cell references
// are attributed to currentSheet; a reference to a column the resolver
// does not know is an error rather than a silent drop.
func ExtractRefs(formulaStr, currentSheet string, resolve Resolver) ([]ref.Reference, error) {
	ps := efp.ExcelParser()
	tokens := ps.Parse(strings.TrimPrefix(formulaStr, "="))
	if tokens == nil {
		return nil, fmt.Errorf("cannot tokenize formula %q", formulaStr)
	}

	var out []ref.Reference
	seen := make(map[ref.Reference]bool)

	for _, token := range tokens {
		if token.TType != efp.TokenTypeOperand || token.TSubType != efp.TokenSubTypeRange {
			continue
		}
		refs, err := resolveRangeToken(token.TValue, currentSheet, resolve)
		if err != nil {
			return nil, err
		}
		for _, r := range refs {
			if !seen[r] {
				seen[r] = true
				out = append(out, r)
			}
		}
	}

	return out, nil
}

// resolveRangeToken expands one range operand into column references.
// Supported shapes: B2, $B$2, B2:B100, B:B, and any of those qualified
// with a sheet name.
func resolveRangeToken(value, currentSheet string, resolve Resolver) ([]ref.Reference, error) {
	sheet := currentSheet
	cellPart := value
	if idx := strings.Index(value, "!"); idx >= 0 {
		sheet = strings.Trim(value[:idx], "'")
		cellPart = value[idx+1:]
	}

	letters, err := spanColumnLetters(cellPart)
	if err != nil {
		return nil, fmt.Errorf("reference %q: %w", value, err)
	}

	refs := make([]ref.Reference, 0, len(letters))
	for _, letter := range letters {
		name, ok := resolve.ColumnName(sheet, letter)
		if !ok {
			return nil, fmt.Errorf("reference %q: no column %s on sheet %s", value, letter, sheet)
		}
		refs = append(refs, ref.New(sheet, name))
	}
	return refs, nil
}

// spanColumnLetters returns the column letters covered by a cell or range
// fragment, e.g. "B2" -> [B], "B2:D9" -> [B C D], "B:B" -> [B].
func spanColumnLetters(cellPart string) ([]string, error) {
	endpoints := strings.Split(cellPart, ":")
	if len(endpoints) > 2 {
		return nil, fmt.Errorf("malformed range %q", cellPart)
	}

	letters := make([]string, 0, len(endpoints))
	for _, endpoint := range endpoints {
		letter := columnLetter(strings.ReplaceAll(endpoint, "$", ""))
		if letter == "" {
			return nil, fmt.Errorf("malformed cell reference %q", endpoint)
		}
		letters = append(letters, letter)
	}

	if len(letters) == 1 || letters[0] == letters[1] {
		return letters[:1], nil
	}

	start, err := excelize.ColumnNameToNumber(letters[0])
	if err != nil {
		return nil, err
	}
	end, err := excelize.ColumnNameToNumber(letters[1])
	if err != nil {
		return nil, err
	}
	if end < start {
		start, end = end, start
	}

	span := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		name, err := excelize.ColumnNumberToName(i)
		if err != nil {
			return nil, err
		}
		span = append(span, name)
	}
	return span, nil
}

// columnLetter strips the trailing row number from a cell coordinate,
// returning the leading letters only.
func columnLetter(coord string) string {
	for i, c := range coord {
		if c >= '0' && c <= '9' {
			return coord[:i]
		}
	}
	return coord
}
