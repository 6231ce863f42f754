package rand

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenGenerator_Token(t *testing.T) {
	gen := NewTokenGenerator(64)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := gen.Token()
		require.NoError(t, err)

		raw, err := base64.URLEncoding.DecodeString(token)
		require.NoError(t, err)
		require.Len(t, raw, 64)

		if seen[token] {
			t.Fatalf("generator returned duplicate token %q", token)
		}
		seen[token] = true
	}
}
