// ABOUTME: Tests for the bearer token HTTP middleware
// ABOUTME: Covers required and optional modes plus identity propagation

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMiddleware_RequiredRejectsMissingToken(t *testing.T) {
	verifier := NewJWTVerifier([]byte("secret"))
	handler := Middleware(verifier, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not have been called")
	}))

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestMiddleware_RequiredRejectsBadToken(t *testing.T) {
	verifier := NewJWTVerifier([]byte("secret"))
	handler := Middleware(verifier, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not have been called")
	}))

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestMiddleware_RequiredAcceptsValidToken(t *testing.T) {
	verifier := NewJWTVerifier([]byte("secret"))
	token, err := verifier.Generate("client-7", time.Hour)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var seen *Identity
	handler := Middleware(verifier, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IdentityFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seen == nil || seen.Subject != "client-7" {
		t.Errorf("expected identity client-7, got %+v", seen)
	}
}

func TestMiddleware_OptionalAllowsAnonymous(t *testing.T) {
	verifier := NewJWTVerifier([]byte("secret"))

	called := false
	handler := Middleware(verifier, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if id := IdentityFromContext(r.Context()); id != nil {
			t.Errorf("expected anonymous request, got identity %+v", id)
		}
	}))

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Error("handler should have been called")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMiddleware_OptionalStillExtractsIdentity(t *testing.T) {
	verifier := NewJWTVerifier([]byte("secret"))
	token, err := verifier.Generate("client-9", time.Hour)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var seen *Identity
	handler := Middleware(verifier, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IdentityFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen == nil || seen.Subject != "client-9" {
		t.Errorf("expected identity client-9, got %+v", seen)
	}
}
