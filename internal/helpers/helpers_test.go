package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPasswordStrong(t *testing.T) {
	assert.True(t, IsPasswordStrong("Abcdef1!"))
	assert.False(t, IsPasswordStrong("Abcde1!"), "too short")
	assert.False(t, IsPasswordStrong("abcdef1!"), "no upper case")
	assert.False(t, IsPasswordStrong("ABCDEF1!"), "no lower case")
	assert.False(t, IsPasswordStrong("Abcdefg!"), "no digit")
	assert.False(t, IsPasswordStrong("Abcdefg1"), "no special character")
}

func TestNormalizePostalCode(t *testing.T) {
	assert.Equal(t, "M5V2T6", NormalizePostalCode("m5v 2t6"))
	assert.Equal(t, "L6B1B6", NormalizePostalCode("L6B 1B6 0000"))
	assert.Equal(t, "ABC", NormalizePostalCode(" a b c "))
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 12))
	assert.Equal(t, 1, TotalPages(12, 12))
	assert.Equal(t, 3, TotalPages(25, 12))
	assert.Equal(t, 0, TotalPages(10, 0))
}

func TestStringTrimAndSplitList(t *testing.T) {
	assert.Equal(t, "abc-123", StringTrim(` "abc-123" `))
	assert.Equal(t, "abc", StringTrim("'abc'"))
	assert.Equal(t, []string{"http://a", "https://b"}, SplitList(" http://a, ,https://b,"))
	assert.Nil(t, SplitList(""))
}

func TestCensorText(t *testing.T) {
	assert.Equal(t, "lovely staff", CensorText("lovely staff"))
	assert.NotContains(t, CensorText("this place is shit"), "shit")
	assert.Equal(t, 5, CharCount("héllo"))
}

var testSecret = []byte("test-signing-secret")

func signed(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return s
}

func newTestValidator() *TokenValidator {
	return NewStaticTokenValidator(func(token *jwt.Token) (interface{}, error) {
		return testSecret, nil
	})
}

func TestTokenValidator(t *testing.T) {
	v := newTestValidator()
	ctx := context.Background()

	good := signed(t, &CustomClaims{
		Email: "a@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	claims, err := v.Validate(ctx, good)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "a@example.com", claims.Email)

	expired := signed(t, &CustomClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}})
	_, err = v.Validate(ctx, expired)
	assert.Error(t, err)

	noSubject := signed(t, &CustomClaims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	_, err = v.Validate(ctx, noSubject)
	assert.Error(t, err)

	_, err = v.Validate(ctx, "")
	assert.Error(t, err)

	_, err = v.Validate(ctx, "not.a.jwt")
	assert.Error(t, err)
}
