package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"emaginer/internal/errs"
)

type Claims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenService — выпуск и проверка bearer-токенов. Проверка свежести
// (iat против password_changed_at) живёт в auth-middleware, не здесь.
type TokenService interface {
	Sign(userID int) (string, error)
	Verify(tokenStr string) (*Claims, error)
}

type tokenService struct {
	secret    []byte
	expiresIn time.Duration
}

func NewTokenService(secret string, expiresIn time.Duration) TokenService {
	return &tokenService{secret: []byte(secret), expiresIn: expiresIn}
}

func (s *tokenService) Sign(userID int) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiresIn)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *tokenService) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		// защита: принимаем только HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errs.ErrExpiredToken
		}
		return nil, errs.ErrInvalidToken
	}
	if !token.Valid || claims.IssuedAt == nil {
		return nil, errs.ErrInvalidToken
	}
	return claims, nil
}
