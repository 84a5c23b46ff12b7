package devtoken

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Params captures the claims required to mint a development token that flows
// through the HS256 auth middleware. All fields are provided by the caller so
// the builder stays deterministic for tooling.
type Params struct {
	UserID    string        // userId/sub claim (required)
	Email     string        // email claim (required)
	ExpiresIn time.Duration // relative expiry; default 1h if zero
}

// BuildSignedToken returns an HS256-signed JWT whose payload mirrors the
// tokens issued by the identity service, for local and CI environments.
func BuildSignedToken(p Params, secret []byte, now time.Time) (string, error) {
	if strings.TrimSpace(p.UserID) == "" {
		return "", errors.New("userID is required")
	}
	if strings.TrimSpace(p.Email) == "" {
		return "", errors.New("email is required")
	}
	if len(secret) == 0 {
		return "", errors.New("secret is required")
	}

	if now.IsZero() {
		now = time.Now().UTC()
	}

	expiresIn := p.ExpiresIn
	if expiresIn == 0 {
		expiresIn = time.Hour
	}

	claims := jwt.MapClaims{
		"userId": p.UserID,
		"sub":    p.UserID,
		"email":  p.Email,
		"iat":    now.Unix(),
		"exp":    now.Add(expiresIn).Unix(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
