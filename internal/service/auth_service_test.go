package service

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liveroom/internal/model"
)

func TestLoginIssuesHostToken(t *testing.T) {
	svc := NewAuthService("admin", "hunter2", "test-secret")

	resp, err := svc.Login("admin", "hunter2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.UserID, "host_"))

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, claims.UserID)
	assert.True(t, claims.Host)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := NewAuthService("admin", "hunter2", "test-secret")

	_, err := svc.Login("admin", "wrong")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	_, err = svc.Login("nobody", "hunter2")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestParticipantTokenRoundTrip(t *testing.T) {
	svc := NewAuthService("admin", "hunter2", "test-secret")

	token, err := svc.IssueParticipantToken("alice")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.UserID)
	assert.False(t, claims.Host)
}

func TestValidateTokenRejectsForeignSigningMethod(t *testing.T) {
	svc := NewAuthService("admin", "hunter2", "test-secret")

	// Correct secret, wrong algorithm: must not verify.
	claims := &model.Claims{
		UserID: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestValidateTokenRejectsGarbageAndForeignSignatures(t *testing.T) {
	svc := NewAuthService("admin", "hunter2", "test-secret")

	_, err := svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, model.ErrInvalidToken)

	other := NewAuthService("admin", "hunter2", "different-secret")
	token, err := other.IssueParticipantToken("alice")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, model.ErrInvalidToken)
}
