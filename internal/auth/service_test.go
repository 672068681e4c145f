package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/ariefcatur/go-marketplace/internal/market"
	"github.com/ariefcatur/go-marketplace/internal/memstore"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) (*Service, *memstore.Store) {
	t.Helper()
	tok, err := NewTokens("test-secret", 0)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	st := memstore.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(st, tok, Hasher{Cost: bcrypt.MinCost}, logger), st
}

func TestRegisterThenLoginResolvesRole(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, tc := range []struct {
		username string
		role     market.Role
	}{
		{"buyer-1", market.RoleBuyer},
		{"seller-1", market.RoleSeller},
	} {
		if _, err := svc.Register(ctx, RegisterInput{Username: tc.username, Password: "pw", Role: tc.role}); err != nil {
			t.Fatalf("register %s: %v", tc.username, err)
		}
		token, err := svc.Login(ctx, tc.username, "pw")
		if err != nil {
			t.Fatalf("login %s: %v", tc.username, err)
		}
		id, err := svc.Authenticate(ctx, token)
		if err != nil {
			t.Fatalf("authenticate %s: %v", tc.username, err)
		}
		if id.Username != tc.username || id.Role != tc.role || id.RoleID == "" {
			t.Fatalf("unexpected identity for %s: %+v", tc.username, id)
		}
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	cases := map[string]RegisterInput{
		"no username": {Password: "pw", Role: market.RoleBuyer},
		"blank":       {Username: "   ", Password: "pw", Role: market.RoleBuyer},
		"no password": {Username: "a", Role: market.RoleBuyer},
		"no role":     {Username: "a", Password: "pw"},
		"too long":    {Username: "a", Password: strings.Repeat("x", 80), Role: market.RoleSeller},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), in)
			if market.KindOf(err) != market.KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterInput{Username: "dup", Password: "pw", Role: market.RoleBuyer}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(ctx, RegisterInput{Username: "dup", Password: "pw2", Role: market.RoleSeller})
	if !errors.Is(err, market.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestLoginFailures(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterInput{Username: "carol", Password: "right", Role: market.RoleBuyer}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "right"); !errors.Is(err, market.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if _, err := svc.Login(ctx, "carol", "wrong"); !errors.Is(err, market.ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
}

func TestAuthenticateUnknownSubject(t *testing.T) {
	svc, _ := newTestService(t)
	token, err := svc.tokens.Issue("7b0c6f4e-5f9e-4d5e-9a55-1b2c3d4e5f60")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, market.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unresolved user, got %v", err)
	}

	garbage, _ := svc.tokens.Issue("not-a-uuid")
	if _, err := svc.Authenticate(context.Background(), garbage); !errors.Is(err, market.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for malformed subject, got %v", err)
	}
}
