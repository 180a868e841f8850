package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Ошибки выдачи и проверки токенов правки
var (
	ErrWeakSecret   = errors.New("секрет должен быть не короче 32 байт")
	ErrInvalidToken = errors.New("недействительный токен")
)

// DefaultTokenTTL время жизни токена, если не задано явно
const DefaultTokenTTL = 24 * time.Hour

const tokenIssuer = "voxelworld"

// EditClaims: полезная нагрузка токена правки мира
type EditClaims struct {
	Editor string `json:"editor"`
	jwt.RegisteredClaims
}

// TokenIssuer подписывает и проверяет токены HS256 одним секретом
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer создаёт издателя по секрету в base64.
// Секрет короче 32 байт отклоняется; ttl <= 0 означает DefaultTokenTTL.
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	decoded, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("декодирование секрета: %w", err)
	}
	if len(decoded) < 32 {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: decoded, ttl: ttl}, nil
}

// TTL возвращает время жизни выдаваемых токенов
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue выдаёт токен правки для editor
func (i *TokenIssuer) Issue(editor string) (string, error) {
	now := time.Now()
	claims := &EditClaims{
		Editor: editor,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   editor,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Validate проверяет подпись, срок и издателя токена
func (i *TokenIssuer) Validate(tokenString string) (*EditClaims, error) {
	claims := &EditClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	}, jwt.WithIssuer(tokenIssuer))

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateSecureSecret генерирует случайный секрет для конфигурации
func GenerateSecureSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
