package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/boddenberg/br-lookup-go/internal/domain"
	"github.com/boddenberg/br-lookup-go/internal/service"
)

func TestAdminAuth_IssueAndValidate(t *testing.T) {
	auth := service.NewAdminAuth("secret", time.Minute)

	token, err := auth.Issue("ops")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	claims, err := auth.Validate(token)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if claims.Subject != "ops" || claims.Role != service.RoleAdmin {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestAdminAuth_RejectsWrongSecretAndRole(t *testing.T) {
	auth := service.NewAdminAuth("secret", time.Minute)

	other, _ := service.NewAdminAuth("other", time.Minute).Issue("ops")
	if _, err := auth.Validate(other); err == nil {
		t.Error("expected token signed with another secret to be rejected")
	}

	viewer := jwt.NewWithClaims(jwt.SigningMethodHS256, service.AdminClaims{
		Role: "viewer",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	signed, err := viewer.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	_, err = auth.Validate(signed)
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAdminAuth_Expired(t *testing.T) {
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, service.AdminClaims{
		Role: service.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, _ := expired.SignedString([]byte("secret"))

	if _, err := service.NewAdminAuth("secret", time.Minute).Validate(signed); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestAdminAuth_Disabled(t *testing.T) {
	auth := service.NewAdminAuth("", time.Minute)

	if auth.Enabled() {
		t.Error("expected auth to be disabled without a secret")
	}
	if _, err := auth.Issue("ops"); err == nil {
		t.Error("expected issue to fail without a secret")
	}
}
