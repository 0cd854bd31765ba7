package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"liveroom/internal/model"
)

// AuthService stands in for the external authorization collaborator:
// it resolves the opaque token a client presents at connection time to
// a user identity. The coordination layer trusts its output.
type AuthService struct {
	hostUsername string
	hostPassword string
	jwtSecret    []byte
}

// NewAuthService creates a new auth service.
func NewAuthService(hostUsername, hostPassword, jwtSecret string) *AuthService {
	return &AuthService{
		hostUsername: hostUsername,
		hostPassword: hostPassword,
		jwtSecret:    []byte(jwtSecret),
	}
}

// Login validates host credentials and returns a host token.
func (s *AuthService) Login(username, password string) (*model.LoginResponse, error) {
	if username != s.hostUsername || password != s.hostPassword {
		return nil, model.ErrInvalidCredentials
	}

	hostID := "host_" + uuid.New().String()[:8]
	token, err := s.issueToken(hostID, true)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Token:  token,
		UserID: hostID,
	}, nil
}

// IssueParticipantToken mints the opaque identity token handed to a
// participant when the host registers them.
func (s *AuthService) IssueParticipantToken(userID string) (string, error) {
	return s.issueToken(userID, false)
}

// ValidateToken validates a token and returns its claims.
func (s *AuthService) ValidateToken(tokenString string) (*model.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, model.ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.Claims)
	if !ok || claims.UserID == "" {
		return nil, model.ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) issueToken(userID string, host bool) (string, error) {
	claims := &model.Claims{
		UserID: userID,
		Host:   host,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
