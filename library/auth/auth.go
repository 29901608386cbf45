// Package auth verifies bearer tokens.
//
// Tokens are issued elsewhere, this package only decides
// whether a token is genuine and who it belongs to.
package auth

import (
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/golang-jwt/jwt/v5"
)

const minSecretLen = 16

// Verifier checks HS256 tokens signed with a shared secret
type Verifier struct {
	secret []byte
	leeway time.Duration
}

// NewVerifier returns a Verifier, the secret must be at least 16 bytes.
func NewVerifier(secret []byte) (*Verifier, error) {
	if len(secret) < minSecretLen {
		return nil, errors.Errorf("auth secret must be at least %d bytes", minSecretLen)
	}

	return &Verifier{
		secret: secret,
		leeway: 30 * time.Second,
	}, nil
}

// Verify parses token and returns the caller identity.
func (v *Verifier) Verify(token string) (*Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("empty token")
	}

	claims := new(UserClaims)
	if _, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) {
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	); err != nil {
		return nil, errors.Wrap(err, "parse token")
	}

	return &Identity{
		UserID: claims.Subject,
		Role:   claims.Role,
		Name:   claims.DisplayName,
	}, nil
}

// Sign issues a token, used by tooling and tests.
func (v *Verifier) Sign(claims *UserClaims) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return token, nil
}

// BearerToken extracts the token from an `Authorization: Bearer <token>` header.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
