package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	t.Parallel()

	t.Run("produces a PHC argon2id digest", func(t *testing.T) {
		digest, err := HashPassword("correct horse battery staple")
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(digest, "$argon2id$v=19$"))
		require.NotContains(t, digest, "correct horse")
	})

	t.Run("salts are unique per call", func(t *testing.T) {
		a, err := HashPassword("same input")
		require.NoError(t, err)
		b, err := HashPassword("same input")
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	})
}

func TestVerifyPassword(t *testing.T) {
	t.Parallel()

	digest, err := HashPassword("longenough1")
	require.NoError(t, err)

	t.Run("accepts the original plaintext", func(t *testing.T) {
		require.True(t, VerifyPassword("longenough1", digest))
	})

	t.Run("rejects a different plaintext", func(t *testing.T) {
		require.False(t, VerifyPassword("wrong", digest))
	})

	t.Run("malformed digests fail closed", func(t *testing.T) {
		for _, bad := range []string{
			"",
			"plaintext-left-over-from-legacy-row",
			"$argon2id$v=19$m=19456,t=2,p=1$notbase64!!$x",
			"$bcrypt$whatever",
			"$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		} {
			require.False(t, VerifyPassword("longenough1", bad), "digest %q", bad)
		}
	})
}
