package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/courier-next/internal/config"
	"github.com/courier-next/internal/constants"
	"github.com/courier-next/internal/models"
	"github.com/courier-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newAuthTestService(t *testing.T, name string) (*AuthService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:auth_service_%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	cfg := &config.Config{}
	cfg.JWT.SecretKey = "test-secret"
	cfg.JWT.ExpireHours = 1
	cfg.Security.PasswordPolicy.MinLength = 8

	return NewAuthService(cfg, repository.NewUserRepository(db)), db
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthTestService(t, "register")

	user, token, expiresAt, err := svc.Register("Alice@Example.com", "Secret123", "Alice")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %s", user.Email)
	}
	if user.Role != constants.RoleUser {
		t.Fatalf("new user must start as user, got %s", user.Role)
	}
	if token == "" || !expiresAt.After(time.Now()) {
		t.Fatalf("unexpected token/expiry: %q %v", token, expiresAt)
	}

	claims, err := svc.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse jwt failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != user.Email {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, _, _, err := svc.Login("alice@example.com", "Secret123"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, _, _, err := svc.Login("alice@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, _, err := svc.Login("nobody@example.com", "Secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestRegisterRejectsDuplicateAndWeakPassword(t *testing.T) {
	svc, _ := newAuthTestService(t, "reject")

	if _, _, _, err := svc.Register("alice@example.com", "Secret123", ""); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, _, _, err := svc.Register("alice@example.com", "Secret123", ""); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
	if _, _, _, err := svc.Register("bob@example.com", "short", ""); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if _, _, _, err := svc.Register("not-an-email", "Secret123", ""); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestLoginRejectsDisabledUser(t *testing.T) {
	svc, db := newAuthTestService(t, "disabled")

	if _, _, _, err := svc.Register("alice@example.com", "Secret123", ""); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := db.Model(&models.User{}).Where("email = ?", "alice@example.com").
		Update("status", constants.UserStatusDisabled).Error; err != nil {
		t.Fatalf("disable user failed: %v", err)
	}
	if _, _, _, err := svc.Login("alice@example.com", "Secret123"); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("expected ErrUserDisabled, got %v", err)
	}
}

func TestParseJWTRejectsTamperedToken(t *testing.T) {
	svc, _ := newAuthTestService(t, "tampered")

	_, token, _, err := svc.Register("alice@example.com", "Secret123", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := svc.ParseJWT(token + "x"); err == nil {
		t.Fatalf("expected parse error for tampered token")
	}
	if _, err := svc.ParseJWT(""); err == nil {
		t.Fatalf("expected parse error for empty token")
	}
}
