package util

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("user-1", "a@example.com", secret, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateJWT(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, tokenIssuer, claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestValidateJWTRejects(t *testing.T) {
	expired, err := GenerateJWT("user-1", "", secret, -time.Minute)
	require.NoError(t, err)
	_, err = ValidateJWT(expired, secret)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	good, err := GenerateJWT("user-1", "", secret, time.Hour)
	require.NoError(t, err)
	_, err = ValidateJWT(good, []byte("other-secret"))
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(time.Hour).Unix()})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ValidateJWT(unsigned, secret)
	assert.Error(t, err)

	noSubject, err := GenerateJWT("", "", secret, time.Hour)
	require.NoError(t, err)
	_, err = ValidateJWT(noSubject, secret)
	assert.Error(t, err)

	_, err = ValidateJWT("not.a.token", secret)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Sup3rSecret")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("Sup3rSecret", string(hash)))
	assert.False(t, CheckPasswordHash("sup3rsecret", string(hash)))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("Sup3rSecret"))
	for _, bad := range []string{
		"Sh0rt",
		"alllower123",
		"ALLUPPER123",
		"NoDigitsHere",
		"With Space1",
		"MyPassword1",
	} {
		assert.Error(t, ValidatePassword(bad), bad)
	}
}
