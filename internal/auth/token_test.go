package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenRoundTrip(t *testing.T) {
	tok, err := NewTokens("secret", 0)
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}
	signed, err := tok.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	sub, err := tok.Verify(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if sub != "user-1" {
		t.Fatalf("expected subject user-1, got %q", sub)
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(signed, &claims); err != nil {
		t.Fatalf("parse unverified: %v", err)
	}
	if claims.ExpiresAt != nil {
		t.Fatalf("expected no exp claim with zero ttl")
	}
}

func TestTokenRejections(t *testing.T) {
	tok, _ := NewTokens("secret", time.Minute)
	other, _ := NewTokens("other-secret", time.Minute)
	foreign, _ := other.Issue("user-1")

	expired, _ := NewTokens("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, _ := expired.Issue("user-1")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1"})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{}).SignedString([]byte("secret"))

	cases := map[string]string{
		"wrong secret": foreign,
		"expired":      old,
		"alg none":     unsigned,
		"malformed":    "not.a.token",
		"empty":        "",
		"no subject":   noSubject,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := tok.Verify(token); err == nil {
				t.Fatalf("expected %s token to be rejected", name)
			}
		})
	}
}

func TestTokenTTLAddsExpiry(t *testing.T) {
	tok, _ := NewTokens("secret", time.Hour)
	signed, _ := tok.Issue("user-1")
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(signed, &claims); err != nil {
		t.Fatalf("parse unverified: %v", err)
	}
	if claims.ExpiresAt == nil {
		t.Fatalf("expected exp claim")
	}
}

func TestNewTokensRequiresSecret(t *testing.T) {
	if _, err := NewTokens("  ", 0); err == nil || !strings.Contains(err.Error(), "secret") {
		t.Fatalf("expected secret error, got %v", err)
	}
}
