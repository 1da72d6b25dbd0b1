package engine

import (
	"fmt"
	"math"

	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/cellflow/internal/table"
)

// Column values travel through the scheduler as cty lists. cty numbers
// cannot hold NaN, so missing cells are carried as null elements and
// mapped back to NaN on the way out.

func vectorToCty(vec []float64) cty.Value {
	if len(vec) == 0 {
		return cty.ListValEmpty(cty.Number)
	}
	vals := make([]cty.Value, len(vec))
	for i, v := range vec {
		if math.IsNaN(v) {
			vals[i] = cty.NullVal(cty.Number)
		} else {
			vals[i] = cty.NumberFloatVal(v)
		}
	}
	return cty.ListVal(vals)
}

func ctyToVector(v cty.Value) ([]float64, error) {
	ty := v.Type()
	if !ty.IsListType() || !ty.ElementType().Equals(cty.Number) {
		return nil, fmt.Errorf("value is %s, not a numeric column", ty.FriendlyName())
	}

	out := make([]float64, 0, v.LengthInt())
	for it := v.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		if elem.IsNull() {
			out = append(out, math.NaN())
			continue
		}
		f, _ := elem.AsBigFloat().Float64()
		out = append(out, f)
	}
	return out, nil
}

// columnToCty encodes an input column. Text columns become string lists,
// so a formula referencing one fails with a type message instead of
// silently reading garbage.
func columnToCty(col *table.Column) cty.Value {
	if col.IsNumeric() {
		vec := make([]float64, col.Len())
		for i := range vec {
			vec[i] = col.Float(i)
		}
		return vectorToCty(vec)
	}

	if col.Len() == 0 {
		return cty.ListValEmpty(cty.String)
	}
	vals := make([]cty.Value, col.Len())
	for i := range vals {
		if col.Missing(i) {
			vals[i] = cty.NullVal(cty.String)
		} else {
			vals[i] = cty.StringVal(fmt.Sprint(col.Cell(i)))
		}
	}
	return cty.ListVal(vals)
}
