package auth

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"
)

func TestJWTValidatorRoundTrip(t *testing.T) {
	t.Parallel()

	v := NewJWTValidator("top-secret")
	token, err := v.Issue("replay", time.Minute, "publisher")
	if err != nil {
		t.Fatalf("unexpected issue error: %v", err)
	}
	claims, err := v.Validate(token)
	if err != nil {
		t.Fatalf("unexpected validate error: %v", err)
	}
	if claims.Subject != "replay" || len(claims.Roles) != 1 || claims.Roles[0] != "publisher" {
		t.Fatalf("unexpected claims: %#v", claims)
	}
}

func TestJWTValidatorRejects(t *testing.T) {
	t.Parallel()

	v := NewJWTValidator("top-secret")
	other := NewJWTValidator("other-secret")
	foreign, _ := other.Issue("replay", time.Minute)

	expired := NewJWTValidator("top-secret")
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	stale, _ := expired.Issue("replay", time.Minute)

	if _, err := v.Validate(""); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
	for name, token := range map[string]string{"foreign": foreign, "expired": stale, "garbage": "a.b.c"} {
		if _, err := v.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
	if _, err := NewJWTValidator("").Validate(foreign); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken without secret, got %v", err)
	}
}

func TestExtractBearerToken(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("POST", "/api/topics/bookings/events?token=from-query", nil)
	if got := ExtractBearerToken(req); got != "" {
		t.Fatalf("expected no token without header, got %q", got)
	}
	req.Header.Set("Authorization", "bearer from-header")
	if got := ExtractBearerToken(req); got != "from-header" {
		t.Fatalf("expected header token, got %q", got)
	}
	req.Header.Set("Authorization", "Basic abc")
	if got := ExtractBearerToken(req); got != "" {
		t.Fatalf("expected non-bearer scheme ignored, got %q", got)
	}
}
