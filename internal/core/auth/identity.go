// Package auth resolves the caller identity from a bearer token and enforces role capabilities.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-orders/internal/core/respond"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Role is the caller's capability level.
type Role string

const (
	RoleUser  Role = "user"
	RoleStaff Role = "staff"
	RoleAdmin Role = "admin"
)

var (
	// AnyUser admits every authenticated caller.
	AnyUser = []Role{RoleUser, RoleStaff, RoleAdmin}
	// Elevated admits back-office callers only.
	Elevated = []Role{RoleStaff, RoleAdmin}
)

const identityKey = "identity"

// ErrInvalidToken is returned when a bearer token cannot be verified.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the resolved caller.
type Identity struct {
	CallerID string `json:"caller_id"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// HasRole reports whether the identity holds one of the given roles.
func (i *Identity) HasRole(roles ...Role) bool {
	if i == nil {
		return false
	}
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// IsElevated reports whether the identity is staff or admin.
func (i *Identity) IsElevated() bool {
	return i.HasRole(Elevated...)
}

type claims struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for the identity.
func IssueToken(secret string, id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: id.Email,
		Role:  id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.CallerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString([]byte(secret))
}

// ParseToken verifies the token and returns the identity it carries.
func ParseToken(secret, raw string) (*Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if c.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	switch c.Role {
	case RoleUser, RoleStaff, RoleAdmin:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, c.Role)
	}

	return &Identity{CallerID: c.Subject, Email: c.Email, Role: c.Role}, nil
}

// Middleware resolves the identity when a valid bearer token is present.
// It never rejects; routes that need a caller are wrapped with Require.
func Middleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if ok && raw != "" {
			if id, err := ParseToken(secret, raw); err == nil {
				c.Locals(identityKey, id)
			}
		}
		return c.Next()
	}
}

// Require rejects callers without an identity or without one of the roles.
func Require(roles ...Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := FromContext(c)
		if !ok || !id.HasRole(roles...) {
			return respond.Unauthorized(c)
		}
		return c.Next()
	}
}

// FromContext returns the identity resolved by Middleware.
func FromContext(c *fiber.Ctx) (*Identity, bool) {
	id, ok := c.Locals(identityKey).(*Identity)
	return id, ok && id != nil
}
