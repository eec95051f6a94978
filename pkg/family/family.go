// Package family defines the closed set of error families DebugAssist
// classifies into.
//
// The set is fixed at build time and shared by the rule engine, the
// statistical classifier and the playbook store. Declaration order is
// significant: it is the deterministic tie-break order used when ranking
// equal-probability alternatives.
package family

import (
	"errors"
	"fmt"
)

// Family is a coarse category of programming error.
type Family string

// All declared families, in tie-break order.
const (
	ImportError    Family = "import_error"
	SyntaxError    Family = "syntax_error"
	TypeError      Family = "type_error"
	ValueError     Family = "value_error"
	AttributeError Family = "attribute_error"
	KeyError       Family = "key_error"
	IndexError     Family = "index_error"
	FileError      Family = "file_error"
	ZeroDivision   Family = "zero_division"
	ConnectionErr  Family = "connection_error"
)

// ErrUnknownFamily indicates a label outside the declared set.
var ErrUnknownFamily = errors.New("unknown error family")

// all preserves declaration order.
var all = []Family{
	ImportError,
	SyntaxError,
	TypeError,
	ValueError,
	AttributeError,
	KeyError,
	IndexError,
	FileError,
	ZeroDivision,
	ConnectionErr,
}

// index maps each family to its declaration position.
var index = func() map[Family]int {
	m := make(map[Family]int, len(all))
	for i, f := range all {
		m[f] = i
	}
	return m
}()

// All returns the declared families in declaration order.
// The returned slice is a copy; callers may reorder it freely.
func All() []Family {
	out := make([]Family, len(all))
	copy(out, all)
	return out
}

// Count returns the number of declared families.
func Count() int {
	return len(all)
}

// Index returns the declaration position of f. Unknown families sort last.
func Index(f Family) int {
	if i, ok := index[f]; ok {
		return i
	}
	return len(all)
}

// Valid reports whether f is a declared family.
func Valid(f Family) bool {
	_, ok := index[f]
	return ok
}

// Parse converts a label into a declared Family.
func Parse(s string) (Family, error) {
	f := Family(s)
	if !Valid(f) {
		return "", fmt.Errorf("%w: %q", ErrUnknownFamily, s)
	}
	return f, nil
}

// String implements fmt.Stringer.
func (f Family) String() string {
	return string(f)
}
