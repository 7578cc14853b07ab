package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifier_RoundTrip(t *testing.T) {
	v := NewVerifier("s3cret")
	tok, err := v.Issue("u1", RoleUser, time.Hour)
	require.NoError(t, err)

	id, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, Identity{ID: "u1", Role: RoleUser, Token: tok}, id)
}

func TestVerifier_Rejects(t *testing.T) {
	v := NewVerifier("s3cret")

	expired, err := v.Issue("u1", RoleUser, -time.Minute)
	require.NoError(t, err)

	other, err := NewVerifier("different").Issue("u1", RoleUser, time.Hour)
	require.NoError(t, err)

	noRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": "u1"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"expired":      expired,
		"wrong secret": other,
		"missing role": noRole,
		"garbage":      "not-a-jwt",
		"empty":        "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestIdentityContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{ID: "a", Role: RoleAdmin})
	id, ok := FromContext(ctx)
	require.True(t, ok)
	assert.True(t, id.IsAdmin())
}
