package barcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckDigit(t *testing.T) {
	// 4006381333931 is the canonical EAN-13 reference code.
	cd, err := CheckDigit("400638133393")
	require.NoError(t, err)
	assert.Equal(t, 1, cd)

	// weighted sum already a multiple of 10 -> check digit 0
	cd, err = CheckDigit("000000000000")
	require.NoError(t, err)
	assert.Equal(t, 0, cd)
}

func TestCheckDigitRejectsBadInput(t *testing.T) {
	_, err := CheckDigit("12345")
	assert.Error(t, err)
	_, err = CheckDigit("40063813339x")
	assert.Error(t, err)
}

func TestEAN13(t *testing.T) {
	code, err := EAN13(42)
	require.NoError(t, err)
	assert.Len(t, code, 13)
	assert.Equal(t, CountryPrefix+CompanyPrefix+"00042", code[:12])
	assert.True(t, Valid(code))
}

func TestEAN13Range(t *testing.T) {
	_, err := EAN13(-1)
	assert.Error(t, err)
	_, err = EAN13(100000)
	assert.Error(t, err)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("4006381333931"))
	assert.False(t, Valid("4006381333932"))
	assert.False(t, Valid("400638133393"))
}
