package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Small parameters keep the test fast; production uses defaultParams.
var testParams = Argon2Params{
	Time:    1,
	Memory:  8 * 1024,
	Threads: 1,
	KeyLen:  16,
	SaltLen: 16,
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPasswordWithParams("correct horse battery staple", testParams)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(hash), "$argon2id$v=19$"))

	ok, err := VerifyPassword("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	first, err := HashPasswordWithParams("same input", testParams)
	require.NoError(t, err)
	second, err := HashPasswordWithParams("same input", testParams)
	require.NoError(t, err)

	assert.NotEqual(t, string(first), string(second))
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	_, err := VerifyPassword("anything", []byte("not-a-hash"))
	assert.Error(t, err)

	_, err = VerifyPassword("anything", []byte("$bcrypt$v=19$t=1,m=8,p=1$c2FsdA$aGFzaA"))
	assert.Error(t, err)
}
