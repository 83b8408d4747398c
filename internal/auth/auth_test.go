package auth

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/wellness_hub/internal/errs"
)

func TestIssueAndVerify(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	token, exp, err := m.Issue(42, "teacher", "anon-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "teacher", claims.Role)
	assert.Equal(t, "anon-1", claims.AnonID)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("one", time.Hour).Issue(1, "student", "")
	require.NoError(t, err)

	_, err = NewTokenManager("two", time.Hour).Verify(token)
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := NewTokenManager("secret", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := m.Issue(1, "student", "")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Verify(token)
	require.Error(t, err)
	assert.Equal(t, errs.KindUnauthorized, errs.KindOf(err))
	assert.Equal(t, "token expired", errs.Message(err))
}

func TestVerifyRejectsNoneAlg(t *testing.T) {
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, jwtlib.MapClaims{
		"sub": "1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager("secret", time.Hour).Verify(signed)
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := NewTokenManager("secret", time.Hour).Verify("not-a-token")
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	ok, err := CheckPassword(hash, "correct horse")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}
