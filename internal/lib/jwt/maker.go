// Package jwt проверяет и выпускает HS256-токены провайдера идентификации.
//
// Сервис сам пользователей не аутентифицирует: токен выпускает внешний
// провайдер, здесь проверяется подпись и читаются claims uid, role,
// email и name. GenerateToken нужен для локальной отладки и тестов.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims пользовательские данные токена.
type Claims struct {
	UID   string `json:"uid"`
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Maker проверяет и подписывает токены общим секретом.
type Maker struct {
	secretKey []byte
	tokenTTL  time.Duration
}

// NewJWTMaker создает Maker; ttl используется только при выпуске токена.
func NewJWTMaker(secretKey string, ttl time.Duration) *Maker {
	return &Maker{
		secretKey: []byte(secretKey),
		tokenTTL:  ttl,
	}
}

// GenerateToken подписывает токен с указанными claims.
func (m *Maker) GenerateToken(uid, role, email, name string) (string, error) {
	now := time.Now()
	claims := Claims{
		UID:   uid,
		Role:  role,
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// ParseToken проверяет подпись и срок действия, возвращает claims.
func (m *Maker) ParseToken(tokenStr string) (*Claims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(_ *jwt.Token) (any, error) {
		return m.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	if claims.UID == "" {
		return nil, fmt.Errorf("%s: %w", op, errors.New("uid claim is empty"))
	}
	return claims, nil
}
