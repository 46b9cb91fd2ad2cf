package hashing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func cheapArgon2(t *testing.T) *Argon2 {
	t.Helper()
	h, err := NewArgon2(Argon2Params{Memory: 8 * 1024, Time: 1, Threads: 1, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)
	return h
}

func TestArgon2_HashAndVerify(t *testing.T) {
	h := cheapArgon2(t)

	d1, err := h.Hash("Abcde12345!")
	require.NoError(t, err)
	d2, err := h.Hash("Abcde12345!")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(d1, "$argon2id$v=19$m=8192,t=1,p=1$"))
	assert.NotEqual(t, d1, d2, "salt is random per call")
	assert.NotContains(t, d1, "Abcde12345!")

	ok, err := h.Verify(d1, "Abcde12345!")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(d1, "Abcde12345?")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2_VerifyUsesDigestParameters(t *testing.T) {
	old := cheapArgon2(t)
	d, err := old.Hash("pw")
	require.NoError(t, err)

	stronger, err := NewArgon2(Argon2Params{Memory: 16 * 1024, Time: 2, Threads: 2, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)

	ok, err := stronger.Verify(d, "pw")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestArgon2_MalformedDigest(t *testing.T) {
	h := cheapArgon2(t)

	for _, d := range []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"$argon2id$v=16$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"$argon2id$v=19$m=1,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,x=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$!!$a2V5",
	} {
		ok, err := h.Verify(d, "pw")
		assert.Error(t, err, d)
		assert.False(t, ok)
	}
}

func TestNewArgon2_RejectsWeakParams(t *testing.T) {
	_, err := NewArgon2(Argon2Params{Memory: 1024, Time: 1, Threads: 1, SaltLength: 16, KeyLength: 32})
	assert.Error(t, err)
	_, err = NewArgon2(Argon2Params{Memory: 8192, Time: 1, Threads: 1, SaltLength: 8, KeyLength: 32})
	assert.Error(t, err)
}

func TestBcrypt(t *testing.T) {
	h, err := NewBcrypt(bcrypt.MinCost)
	require.NoError(t, err)

	d, err := h.Hash("Abcde12345!")
	require.NoError(t, err)
	assert.NotEqual(t, "Abcde12345!", d)

	ok, err := h.Verify(d, "Abcde12345!")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(d, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.Verify("not-a-bcrypt-digest", "nope")
	assert.Error(t, err)

	_, err = NewBcrypt(99)
	assert.Error(t, err)
}

func TestPlaintext(t *testing.T) {
	var h Plaintext
	d, err := h.Hash("b")
	require.NoError(t, err)
	assert.Equal(t, "b", d)

	ok, _ := h.Verify("b", "b")
	assert.True(t, ok)
	ok, _ = h.Verify("b", "c")
	assert.False(t, ok)
}

func TestNew(t *testing.T) {
	h, err := New(Config{Enabled: false})
	require.NoError(t, err)
	assert.IsType(t, Plaintext{}, h)

	cfg := DefaultConfig()
	h, err = New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &Argon2{}, h)

	cfg.Algorithm = AlgorithmBcrypt
	cfg.BcryptCost = bcrypt.MinCost
	h, err = New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &Bcrypt{}, h)

	cfg.Algorithm = "md5"
	_, err = New(cfg)
	assert.Error(t, err)
}
