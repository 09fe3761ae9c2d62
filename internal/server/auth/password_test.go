package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	bcryptCost = bcrypt.MinCost
	m.Run()
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword([]byte("s3creto"))
	require.NoError(t, err)
	assert.NotEqual(t, []byte("s3creto"), hash)

	ok, err := CheckPassword(hash, []byte("s3creto"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword(hash, []byte("otra"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	ok, err := CheckPassword([]byte("not-a-bcrypt-hash"), []byte("x"))
	require.Error(t, err)
	assert.False(t, ok)
}

func TestHashPassword_TooLong(t *testing.T) {
	long := make([]byte, 80)
	for i := range long {
		long[i] = 'a'
	}
	_, err := HashPassword(long)
	require.Error(t, err)
}
