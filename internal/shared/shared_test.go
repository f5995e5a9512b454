package shared

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeURLSafeToken_LengthAndAlphabet(t *testing.T) {
	tok, err := MakeURLSafeToken(24)
	require.NoError(t, err)

	// 24 bytes -> 32 base64url characters, no padding
	assert.Len(t, tok, 32)
	assert.False(t, strings.ContainsAny(tok, "+/="), "token must be URL-safe: %q", tok)
}

func TestMakeURLSafeToken_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		tok, err := MakeURLSafeToken(24)
		require.NoError(t, err)
		_, dup := seen[tok]
		require.False(t, dup, "duplicate token generated")
		seen[tok] = struct{}{}
	}
}
