package util

import (
	"fmt"
	"math"
	"strconv"
)

// FormatScientific renders value in scientific notation with the given
// number of digits after the decimal point. Precision values below zero
// fall back to 6 digits, matching the default of the dat-file exporters.
func FormatScientific(value float64, precision int) string {
	if precision < 0 {
		precision = 6
	}
	return strconv.FormatFloat(value, 'e', precision, 64)
}

// FormatResidual renders a residual or gap value in the compact aligned
// form used by solver history output.
func FormatResidual(value float64) string {
	return fmt.Sprintf("%9.2e", value)
}

// FormatMagnitude renders a value compactly, switching to scientific
// notation outside the [1e-3, 1e3) band.
func FormatMagnitude(value float64) string {
	abs := math.Abs(value)
	if value != 0 && (abs >= 1000 || abs < 0.001) {
		return fmt.Sprintf("%8.2e", value)
	}
	return fmt.Sprintf("%8.3g", value)
}
