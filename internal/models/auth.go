package models

import "github.com/golang-jwt/jwt/v5"

// ActorClaims is the JWT payload extracted for audit attribution.
// Route guarding is handled upstream; the engine only records who acted.
type ActorClaims struct {
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
	jwt.RegisteredClaims
}
