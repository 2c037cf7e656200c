package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaxID(t *testing.T) {
	t.Run("accepts dashed and plain forms", func(t *testing.T) {
		a, err := NewTaxID("20-12345678-6")
		require.NoError(t, err)
		b, err := NewTaxID("20123456786")
		require.NoError(t, err)
		assert.Equal(t, a, b)
		assert.Equal(t, "20123456786", a.String())
		assert.Equal(t, "20-12345678-6", a.Formatted())
	})

	t.Run("rejects wrong check digit", func(t *testing.T) {
		_, err := NewTaxID("20123456785")
		assert.Error(t, err)
	})

	t.Run("rejects wrong length and non digits", func(t *testing.T) {
		_, err := NewTaxID("2012345678")
		assert.Error(t, err)
		_, err = NewTaxID("2012345678X")
		assert.Error(t, err)
	})

	t.Run("accepts company prefix", func(t *testing.T) {
		// weighted sum 142, remainder 10, check digit 1
		_, err := NewTaxID("30712345671")
		assert.NoError(t, err)
	})
}

func TestNormalizeAccountNumber(t *testing.T) {
	got, err := NormalizeAccountNumber("0110599520000012345678")
	require.NoError(t, err)
	assert.Equal(t, "0110599520000012345678", got)

	_, err = NormalizeAccountNumber("011059952000001234567")
	assert.Error(t, err)
	_, err = NormalizeAccountNumber("")
	assert.Error(t, err)
}
