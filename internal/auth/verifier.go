// Package auth verifies bearer credentials presented at connection time.
package auth

import (
	"context"

	"github.com/ostap/huddle/internal/domain"
)

// Verifier maps an opaque bearer token to a verified user identity.
// Implementations return domain.ErrNotAuthenticated (possibly wrapped)
// for any credential that cannot be verified.
type Verifier interface {
	Verify(ctx context.Context, token string) (*domain.User, error)
}
