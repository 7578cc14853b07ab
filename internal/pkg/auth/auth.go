// Package auth verifies the bearer tokens minted by the identity service.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleUser    = "user"
	RoleAdmin   = "admin"
	RolePayment = "payment"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is the caller as resolved from a verified token.
type Identity struct {
	ID    string
	Role  string
	Token string
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify checks the HS256 signature and expiry and extracts the id and role claims.
func (v *Verifier) Verify(token string) (Identity, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	m, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	id, _ := m["id"].(string)
	role, _ := m["role"].(string)
	if id == "" || role == "" {
		return Identity{}, fmt.Errorf("%w: missing id or role claim", ErrInvalidToken)
	}
	return Identity{ID: id, Role: role, Token: token}, nil
}

// Issue signs a token the same way the identity service does. Used by tests
// and local tooling.
func (v *Verifier) Issue(id, role string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"id":   id,
		"role": role,
		"exp":  time.Now().Add(ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(v.secret)
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
