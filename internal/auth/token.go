package auth

import (
	"errors"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var ErrInvalidToken = errors.New("invalid token")

type tokenClaims struct {
	jwt.Claims
	Role string `json:"role"`
}

// TokenManager issues and verifies HS256-signed bearer tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

func (m *TokenManager) Issue(subject, role string) (string, error) {
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: m.secret},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := tokenClaims{
		Claims: jwt.Claims{
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
			Expiry:   jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Role: role,
	}
	return jwt.Signed(signer).Claims(claims).Serialize()
}

// Verify checks the signature and expiry and returns (subject, role).
func (m *TokenManager) Verify(raw string) (string, string, error) {
	parsed, err := jwt.ParseSigned(raw, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return "", "", ErrInvalidToken
	}

	var claims tokenClaims
	if err := parsed.Claims(m.secret, &claims); err != nil {
		return "", "", ErrInvalidToken
	}
	if err := claims.Validate(jwt.Expected{Time: time.Now()}); err != nil {
		return "", "", ErrInvalidToken
	}
	return claims.Subject, claims.Role, nil
}
