package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ostap/huddle/internal/domain"
)

var ErrEmptySecret = errors.New("auth: empty signing secret")

// JWTVerifier validates HS256 bearer tokens. The subject claim carries
// the user id; an optional "name" claim carries the display name.
type JWTVerifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewJWTVerifier(secret string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &JWTVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}, nil
}

type userClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrNotAuthenticated
	}

	var claims userClaims
	_, err := v.parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNotAuthenticated, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", domain.ErrNotAuthenticated)
	}

	name := claims.Name
	if name == "" {
		name = claims.Subject
	}
	user, err := domain.NewUser(domain.UserID(claims.Subject), name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNotAuthenticated, err)
	}
	return user, nil
}

// Issue mints a signed token for the given user. Used by the dev login
// endpoint and by tests; production tokens come from the account service.
func (v *JWTVerifier) Issue(user domain.UserID, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := userClaims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(user),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
