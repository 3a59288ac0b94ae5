package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatScientific(t *testing.T) {
	assert.Equal(t, "1.500000e+00", FormatScientific(1.5, 6))
	assert.Equal(t, "-2.50e-04", FormatScientific(-2.5e-4, 2))
	assert.Equal(t, "1.000000e+00", FormatScientific(1, -3), "negative precision falls back to 6")
}

func TestFormatResidual(t *testing.T) {
	assert.Equal(t, " 1.23e-05", FormatResidual(1.23e-5))
}

func TestFormatMagnitude(t *testing.T) {
	assert.Equal(t, "    1.25", FormatMagnitude(1.25))
	assert.Contains(t, FormatMagnitude(1234567.0), "e+06")
	assert.Contains(t, FormatMagnitude(0.00001), "e-05")
}
