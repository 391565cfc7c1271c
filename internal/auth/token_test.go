package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)

	raw, err := m.Issue("254700000001", RoleUser)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	subject, role, err := m.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "254700000001", subject)
	require.Equal(t, RoleUser, role)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	m := NewTokenManager("secret-a", time.Hour)
	other := NewTokenManager("secret-b", time.Hour)

	raw, err := m.Issue("254700000001", RoleUser)
	require.NoError(t, err)

	_, _, err = other.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRejectsExpired(t *testing.T) {
	m := NewTokenManager("test-secret", -time.Minute)

	raw, err := m.Issue("254700000001", RoleAdmin)
	require.NoError(t, err)

	_, _, err = m.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRejectsGarbage(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)

	_, _, err := m.Verify("not-a-jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCarriesAdminRole(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)

	raw, err := m.Issue("admin", RoleAdmin)
	require.NoError(t, err)

	_, role, err := m.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, RoleAdmin, role)
}
