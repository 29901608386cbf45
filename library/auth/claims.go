package auth

import (
	"github.com/Laisky/errors/v2"
	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin is the role allowed to manage content
const RoleAdmin = "admin"

// UserClaims is the token payload issued by the external identity service.
// Subject carries the user's ObjectID hex.
type UserClaims struct {
	jwt.RegisteredClaims
	Role        string `json:"role"`
	DisplayName string `json:"display_name"`
}

// Validate is called by the parser after the registered claims are checked.
func (uc *UserClaims) Validate() error {
	if uc.Subject == "" {
		return errors.New("token subject is empty")
	}
	return nil
}

// Identity is the caller as seen by handlers
type Identity struct {
	UserID string
	Role   string
	Name   string
}

// IsAdmin reports whether the caller may use admin routes
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}
