package bytecode

import (
	"math"
	"strconv"
)

// Value is the runtime value type of the VM. Values are plain doubles.
type Value float64

// String formats the value the way listings and traces print it: shortest
// decimal form without an exponent, "NaN", "inf" or "-inf".
func (v Value) String() string {
	f := float64(v)
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
