// Copyright (c) 2026 Tasknest. All rights reserved.
// Author: dev@tasknest.app

// Package middleware provides the HTTP middleware chain for the Tasknest API server.
//
// # Architecture
//
// Middleware intercepts incoming HTTP requests to apply global policies
// before they reach the domain handlers. This includes cross-cutting concerns
// like Logging, AuthZ/AuthN, Rate Limiting, and CORS.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tasknest/tasknest/internal/platform/apperr"
	"github.com/tasknest/tasknest/internal/platform/ctxkey"
	"github.com/tasknest/tasknest/internal/platform/ctxutil"
	"github.com/tasknest/tasknest/internal/platform/respond"
	"github.com/tasknest/tasknest/internal/platform/sec"
)

// AccessVerifier verifies a raw access token and returns its claims.
//
// # Why an interface?
//
// Defining AccessVerifier here decouples the middleware from the token codec
// implementation, allowing mocks to be injected during unit testing.
type AccessVerifier interface {
	VerifyAccess(raw string) (*sec.TokenClaims, error)
}

// BlacklistChecker reports whether an access token id has been revoked.
//
// The revocation list is consulted on every authenticated request and its
// answer overrides signature validity: a blacklisted token is rejected even
// though it would otherwise verify. If the list itself cannot be reached the
// check must fail closed.
type BlacklistChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// PrincipalLoader confirms that the user a token was issued to still exists.
//
// Tokens may outlive their accounts (deleted users), so every guarded request
// re-resolves the subject. Implementations are expected to answer from a
// read-through cache so this does not hit the database on every request.
type PrincipalLoader interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// Authenticate extracts and verifies the access JWT from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, verify the JWT signature and expiry via [AccessVerifier].
//  4. Reject if the token id appears on the revocation blacklist.
//  5. Reject if the subject account no longer exists.
//  6. Inject [*sec.TokenClaims] into the request context for downstream use.
//
// # Parameters
//   - verifier: The AccessVerifier instance.
//   - blacklist: The revocation list checker.
//   - principals: Resolves the token subject to a live account.
//
// # Returns
//   - An [http.Handler] middleware.
func Authenticate(verifier AccessVerifier, blacklist BlacklistChecker, principals PrincipalLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get("Authorization")

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			claims, err := verifier.VerifyAccess(parts[1])
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
				return
			}

			// ── 4. Revocation Check ───────────────────────────────────────────
			// A valid signature is not enough: logout blacklists the token id
			// for its remaining lifetime. Errors here fail closed.
			revoked, err := blacklist.IsRevoked(request.Context(), claims.SessionID())
			if err != nil {
				respond.Error(writer, request, apperr.Unavailable(err))
				return
			}
			if revoked {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
				return
			}

			// ── 5. Principal Check ────────────────────────────────────────────
			alive, err := principals.Exists(request.Context(), claims.UserID())
			if err != nil {
				respond.Error(writer, request, err)
				return
			}
			if !alive {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
				return
			}

			// ── 6. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
//
// # Flow
//  1. Check if [*sec.TokenClaims] exists in context.
//  2. If missing, abort with HTTP 401 Unauthorized.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims := GetUser(request.Context())
		if claims == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// GetUser retrieves the [*sec.TokenClaims] from the [context.Context].
//
// # Returns
//   - A pointer to [*sec.TokenClaims] if the user is authenticated.
//   - nil if the user is anonymous.
func GetUser(ctx context.Context) *sec.TokenClaims {
	claims, ok := ctx.Value(ctxkey.KeyUser).(*sec.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}
