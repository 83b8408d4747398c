// Package auth выпускает и проверяет токены доступа и хэширует пароли.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/Freeeeeet/wellness_hub/internal/errs"
)

// Claims содержимое токена
type Claims struct {
	UserID int64
	Role   string
	AnonID string
	Expiry time.Time
}

type tokenClaims struct {
	Role string `json:"role"`
	Anon string `json:"anon"`
	jwtlib.RegisteredClaims
}

// TokenManager подписывает токены HS256
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue выпускает токен для пользователя
func (m *TokenManager) Issue(userID int64, role, anonID string) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)

	claims := tokenClaims{
		Role: role,
		Anon: anonID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwtlib.NewNumericDate(now),
			NotBefore: jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(exp),
		},
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify проверяет подпись и срок действия токена
func (m *TokenManager) Verify(token string) (*Claims, error) {
	var claims tokenClaims
	parsed, err := jwtlib.ParseWithClaims(token, &claims, func(t *jwtlib.Token) (interface{}, error) {
		// только HMAC
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected alg: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwtlib.WithTimeFunc(m.now), jwtlib.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, errs.Wrap(errs.KindUnauthorized, err, "token expired")
		}
		return nil, errs.Wrap(errs.KindUnauthorized, err, "invalid token")
	}
	if !parsed.Valid {
		return nil, errs.New(errs.KindUnauthorized, "invalid token")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, errs.New(errs.KindUnauthorized, "invalid token subject")
	}

	return &Claims{
		UserID: userID,
		Role:   claims.Role,
		AnonID: claims.Anon,
		Expiry: claims.ExpiresAt.Time,
	}, nil
}
