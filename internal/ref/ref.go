package ref

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentRegex validates a single segment of a reference. Sheet names and
// addresses share the same character set; spaces are allowed because Excel
// permits them in sheet names.
var segmentRegex = regexp.MustCompile(`^[a-zA-Z0-9_ -]+$`)

// Reference identifies one logical data unit: a column or cell inside a
// named worksheet. It is a value type with structural equality, safe to
// copy freely and to use as a map key.
type Reference struct {
	Sheet   string
	Address string
}

// New constructs a Reference without validation. Use Parse for untrusted
// input.
func New(sheet, address string) Reference {
	return Reference{Sheet: sheet, Address: address}
}

// Parse creates a Reference from its canonical `sheet.address` string form.
func Parse(raw string) (Reference, error) {
	if raw == "" {
		return Reference{}, fmt.Errorf("reference cannot be empty")
	}

	idx := strings.Index(raw, ".")
	if idx < 0 {
		return Reference{}, fmt.Errorf("invalid reference format: %q (want sheet.address)", raw)
	}

	sheet, address := raw[:idx], raw[idx+1:]
	if sheet == "" || address == "" {
		return Reference{}, fmt.Errorf("reference contains empty segment: %q", raw)
	}
	if !segmentRegex.MatchString(sheet) {
		return Reference{}, fmt.Errorf("invalid sheet name: %q", sheet)
	}
	if !segmentRegex.MatchString(address) {
		return Reference{}, fmt.Errorf("invalid address: %q", address)
	}

	return Reference{Sheet: sheet, Address: address}, nil
}

// String serializes the Reference into its canonical form.
func (r Reference) String() string {
	return r.Sheet + "." + r.Address
}

// IsZero reports whether the Reference is the zero value.
func (r Reference) IsZero() bool {
	return r.Sheet == "" && r.Address == ""
}
