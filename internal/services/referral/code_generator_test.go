package referral

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predyx/backend/internal/repository/fakes"
)

func TestGenerateUnique_FormatAndUniqueness(t *testing.T) {
	accounts := fakes.NewAccounts()
	gen := NewCodeGenerator(accounts, 6)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := gen.GenerateUnique(context.Background())
		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.True(t, ValidCodeFormat(code), "generated code %q has invalid characters", code)
		seen[code] = true
	}
	// 50 draws from a 32^6 space should not collide
	assert.Len(t, seen, 50)
}

func TestGenerateUnique_Exhaustion(t *testing.T) {
	accounts := fakes.NewAccounts()
	accounts.CodeCollision = true
	gen := NewCodeGenerator(accounts, 6)

	_, err := gen.GenerateUnique(context.Background())
	assert.ErrorIs(t, err, ErrGenerationExhausted)
}

func TestDeterministicFor_StableAndCaseInsensitive(t *testing.T) {
	gen := NewCodeGenerator(fakes.NewAccounts(), 8)

	wallet := "0xAbCd1111111111111111111111111111111111Ef"
	first := gen.DeterministicFor(wallet)
	second := gen.DeterministicFor(strings.ToLower(wallet))

	assert.Equal(t, first, second, "same wallet must always yield the same code")
	assert.Len(t, first, 8)
	assert.True(t, ValidCodeFormat(first))

	other := gen.DeterministicFor("0x1234111111111111111111111111111111111111")
	assert.NotEqual(t, first, other)
}

func TestNewCodeGenerator_LengthBounds(t *testing.T) {
	gen := NewCodeGenerator(fakes.NewAccounts(), 12)
	code := gen.DeterministicFor("0x1111111111111111111111111111111111111111")
	assert.Len(t, code, 6, "out-of-bounds length falls back to the default")
}

func TestValidCodeFormat(t *testing.T) {
	assert.True(t, ValidCodeFormat("ABC234"))
	assert.True(t, ValidCodeFormat("WXYZ5678"))

	assert.False(t, ValidCodeFormat("ABC23"), "too short")
	assert.False(t, ValidCodeFormat("ABC234567"), "too long")
	assert.False(t, ValidCodeFormat("ABC230"), "0 is ambiguous")
	assert.False(t, ValidCodeFormat("ABC23O"), "O is ambiguous")
	assert.False(t, ValidCodeFormat("ABC231"), "1 is ambiguous")
	assert.False(t, ValidCodeFormat("ABC23I"), "I is ambiguous")
	assert.False(t, ValidCodeFormat("abc234"), "lowercase input must be normalized first")
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "ABC234", NormalizeCode("  abc234 "))
}
