package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIssuer(t *testing.T, ttl time.Duration) *TokenIssuer {
	t.Helper()
	secret, err := GenerateSecureSecret()
	require.NoError(t, err)
	issuer, err := NewTokenIssuer(secret, ttl)
	require.NoError(t, err)
	return issuer
}

// TestIssueAndValidate тестирует выдачу и проверку токена правки
func TestIssueAndValidate(t *testing.T) {
	issuer := newIssuer(t, time.Hour)

	token, err := issuer.Issue("builder")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."), "Неверный формат JWT токена")

	claims, err := issuer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "builder", claims.Editor)
	assert.Equal(t, "voxelworld", claims.Issuer)
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	token, err := newIssuer(t, time.Hour).Issue("builder")
	require.NoError(t, err)

	_, err = newIssuer(t, time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "токен с чужой подписью принят")
}

func TestValidateRejectsExpired(t *testing.T) {
	issuer := newIssuer(t, time.Hour)

	claims := &EditClaims{
		Editor: "builder",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			Issuer:    tokenIssuer,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(issuer.secret)
	require.NoError(t, err)

	_, err = issuer.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "просроченный токен принят")
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := newIssuer(t, 0).Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenIssuerSecret(t *testing.T) {
	_, err := NewTokenIssuer(base64.StdEncoding.EncodeToString([]byte("short")), time.Hour)
	assert.ErrorIs(t, err, ErrWeakSecret)

	_, err = NewTokenIssuer("%%%", time.Hour)
	assert.Error(t, err)

	issuer := newIssuer(t, 0)
	assert.Equal(t, DefaultTokenTTL, issuer.TTL())
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("", "s3cret"), "пустой хеш не должен совпадать")
}
