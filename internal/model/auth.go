package model

import "github.com/golang-jwt/jwt/v5"

// Claims is the identity carried by the opaque token a client presents
// at connection time. The coordination layer trusts whatever issued it.
type Claims struct {
	UserID string `json:"userId"`
	Host   bool   `json:"host"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for host login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}
