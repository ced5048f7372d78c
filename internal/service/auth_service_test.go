package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"parking_reservation/internal/domain"
)

func newTestAuthService() (*AuthService, *fakeUserRepo) {
	users := &fakeUserRepo{}
	return NewAuthService(users, "test-secret", time.Hour), users
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, domain.RegisterUserDTO{Username: "alice", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected role user, got %s", user.Role)
	}

	resp, err := svc.Login(ctx, domain.LoginUserDTO{Username: "alice", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Token == "" || resp.Username != "alice" || resp.Role != domain.RoleUser {
		t.Fatalf("unexpected auth response: %+v", resp)
	}

	claims, err := svc.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims["username"] != "alice" || claims["role"] != domain.RoleUser {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, domain.RegisterUserDTO{Username: "alice", Password: "secret1"}); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	_, err := svc.Register(ctx, domain.RegisterUserDTO{Username: "alice", Password: "other12"})
	if !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, domain.RegisterUserDTO{Username: "alice", Password: "secret1"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := svc.Login(ctx, domain.LoginUserDTO{Username: "alice", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	_, err = svc.Login(ctx, domain.LoginUserDTO{Username: "nobody", Password: "secret1"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	svc, users := newTestAuthService()
	ctx := context.Background()

	if err := svc.EnsureAdmin(ctx, "admin", "admin123"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	if err := svc.EnsureAdmin(ctx, "admin", "admin123"); err != nil {
		t.Fatalf("second EnsureAdmin: %v", err)
	}
	if len(users.users) != 1 {
		t.Fatalf("expected one admin account, got %d", len(users.users))
	}
	if users.users[0].Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %s", users.users[0].Role)
	}

	resp, err := svc.Login(ctx, domain.LoginUserDTO{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("admin Login: %v", err)
	}
	if resp.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role on login, got %s", resp.Role)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := newTestAuthService()
	if _, err := svc.ValidateToken("not-a-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}
