package passhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cheap = Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

func TestHashAndVerify(t *testing.T) {
	h, err := HashPassword("segredo")
	require.NoError(t, err)
	assert.Contains(t, h, "$argon2id$v=19$m=65536,t=3,p=2$")

	ok, err := VerifyPassword(h, "segredo")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword(h, "errada")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCustomParamsRoundTrip(t *testing.T) {
	h, err := Hash("x", cheap)
	require.NoError(t, err)
	ok, err := VerifyPassword(h, "x")
	require.NoError(t, err)
	assert.True(t, ok)

	other, err := Hash("x", cheap)
	require.NoError(t, err)
	assert.NotEqual(t, h, other, "salts must differ")
}

func TestVerifyRejectsMalformed(t *testing.T) {
	for _, bad := range []string{
		"",
		"$argon2id$bad",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=x$c2FsdA$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$!!$a2V5",
	} {
		_, err := VerifyPassword(bad, "x")
		assert.ErrorIs(t, err, ErrInvalidHash, bad)
	}
}
