package types

import (
	"math"
	"strconv"
)

type FloatValue float64

func (v FloatValue) Kind() Kind {
	return FloatKind
}

// String returns string representation of the float64
func (v FloatValue) String() string {
	return strconv.FormatFloat(float64(v), 'g', -1, 64)
}

// Equals compares bit patterns, so a stored NaN equals itself and 0 differs from -0.
func (v FloatValue) Equals(other Value) bool {
	o, ok := other.(FloatValue)
	if !ok {
		return false
	}
	return math.Float64bits(float64(v)) == math.Float64bits(float64(o))
}
