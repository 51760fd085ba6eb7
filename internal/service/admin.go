package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/boddenberg/br-lookup-go/internal/domain"
)

// ============================================================
// Admin tokens: guard the cache administration routes
// ============================================================

// RoleAdmin is the only role accepted by the admin routes.
const RoleAdmin = "admin"

const adminIssuer = "br-lookup"

// AdminClaims represents the claims in admin tokens.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AdminAuth issues and validates HS256 admin tokens. A zero secret disables
// the admin routes entirely.
type AdminAuth struct {
	secret []byte
	ttl    time.Duration
}

func NewAdminAuth(secret string, ttl time.Duration) *AdminAuth {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AdminAuth{secret: []byte(secret), ttl: ttl}
}

// Enabled reports whether a secret is configured.
func (a *AdminAuth) Enabled() bool {
	return a != nil && len(a.secret) > 0
}

// Issue signs an admin token for subject.
func (a *AdminAuth) Issue(subject string) (string, error) {
	if !a.Enabled() {
		return "", fmt.Errorf("admin secret not configured")
	}
	now := time.Now()
	claims := AdminClaims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			Issuer:    adminIssuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Validate parses tokenString and requires the admin role.
func (a *AdminAuth) Validate(tokenString string) (*AdminClaims, error) {
	if !a.Enabled() {
		return nil, &domain.ErrUnauthorized{Message: "admin routes disabled"}
	}
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "invalid token"}
	}
	if claims.Role != RoleAdmin {
		return nil, &domain.ErrUnauthorized{Message: "admin role required"}
	}
	return claims, nil
}
