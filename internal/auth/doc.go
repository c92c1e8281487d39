// Package auth provides bearer token authentication for seance-gateway.
//
// # Authentication Method
//
// Clients authenticate with JWT bearer tokens in the Authorization header.
// Tokens are signed with HS256 using the configured jwt_secret, and carry
// the caller identity in the "sub" claim.
//
// # Middleware
//
// The HTTP middleware wraps the MCP endpoint:
//
//	handler := auth.Middleware(verifier, cfg.Auth.RequireAuth)(mux)
//
// With require_auth enabled every request needs a valid token; otherwise
// the middleware extracts the identity when present and lets anonymous
// requests through. Handlers read the identity with IdentityFromContext.
//
// # Token Management
//
//	verifier := auth.NewJWTVerifier([]byte(secret))
//	token, err := verifier.Generate("client-1", 24*time.Hour)
//	subject, err := verifier.Verify(token)
//
// Verification rejects expired tokens (ErrExpiredToken), tokens signed
// with the wrong method or secret (ErrInvalidToken), and tokens missing
// the "sub" claim (ErrMissingClaim).
package auth
