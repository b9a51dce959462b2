package types

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by access tokens. Identifier-only on purpose: embedding
// the profile document in a bearer token freezes it at login time, so
// /api/me always re-reads the store instead.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type SignupRequest struct {
	Email      string       `json:"email"`
	Password   string       `json:"password"`
	Profile    Profile      `json:"profile"`
	Skills     []SkillGroup `json:"skills,omitempty"`
	Experience []Experience `json:"experience,omitempty"`
	Projects   []Project    `json:"projects,omitempty"`
	Contact    *Contact     `json:"contact,omitempty"`
}

type SignupResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}
