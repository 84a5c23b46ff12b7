package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// HS256TokenVerifier returns a VerifyFunc that validates HMAC-SHA256 signed
// tokens against the shared secret used by the identity service.
func HS256TokenVerifier(secret []byte) VerifyFunc {
	if len(secret) == 0 {
		panic("auth.HS256TokenVerifier: secret must not be empty")
	}

	return func(_ context.Context, token string) (map[string]interface{}, error) {
		parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return secret, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			return nil, err
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			return nil, errors.New("unexpected claims type")
		}

		return map[string]interface{}(claims), nil
	}
}
