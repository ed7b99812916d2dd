// Copyright (c) 2026 Tasknest. All rights reserved.
// Author: dev@tasknest.app

/*
Package auth provides the HTTP delivery layer for user identity management.

It implements the gateway for the authentication lifecycle, from account
creation through token rotation to logout.

# Architecture

The handler acts as a thin mediation layer between the web and domain services:
  - Protocol: Standard RESTful JSON interface.
  - Security: Access and refresh JWTs travel as Bearer tokens; no cookies.
  - Verification: Enforces strict input validation before passing to [Service].

This layer is strictly responsible for transport concerns (status codes, headers, JSON).
*/
package auth

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tasknest/tasknest/internal/platform/constants"
	requestutil "github.com/tasknest/tasknest/internal/platform/request"
	"github.com/tasknest/tasknest/internal/platform/respond"
	"github.com/tasknest/tasknest/internal/platform/sec"
	"github.com/tasknest/tasknest/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages the session lifecycle entry points (Registration,
// Login, Refresh, Logout). Profile endpoints live in the account package.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /register : Creates a new account and logs it in.
//   - POST /login    : Authenticates and returns a token pair.
//   - POST /refresh  : Rotates a refresh token into a new pair.
//   - POST /logout   : Tears down the presented session.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// All four endpoints authenticate by token content, not by the access
	// guard: refresh and logout present the refresh token themselves.
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)
	router.Post("/logout", handler.logout)

	return router
}

// # Request & Response Payloads

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type logoutRequest struct {
	AccessToken string `json:"access_token"`
}

// sessionResponse is the uniform body for register, login, and refresh.
type sessionResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func toSessionResponse(pair *TokenPair) sessionResponse {
	return sessionResponse{
		User:         pair.User,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}
}

// # Handlers

/*
register handles the creation of a new user account.

POST /api/v1/auth/register

Description: Validates input, checks for email conflicts, persists the new
profile, and returns the initial token pair.

Request:
  - Body: registerRequest (Name, Email, Password)

Response:
  - 201: sessionResponse: Created user plus tokens
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 409: ErrConflict: Email already registered
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).
		MaxLen(FieldName, input.Name, MaxNameLength).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		MaxLen(FieldEmail, input.Email, MaxEmailLength).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, err := handler.authService.Register(request.Context(), RegisterInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, toSessionResponse(pair))
}

/*
login authenticates a user and issues a token pair.

POST /api/v1/auth/login

Description: Verifies credentials and mints an access/refresh pair backed by
a new session row.

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: sessionResponse: Tokens and user profile
  - 401: ErrUnauthorized: Invalid credentials (uniform message)
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, err := handler.authService.Login(request.Context(), LoginInput{
		Email:    input.Email,
		Password: input.Password,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, toSessionResponse(pair))
}

/*
refresh rotates a refresh token into a brand new pair.

POST /api/v1/auth/refresh

Description: The refresh JWT travels as the Bearer token. The old token is
consumed atomically; replaying it afterwards yields 401.

Request:
  - Header: Authorization: Bearer <refresh JWT>

Response:
  - 200: sessionResponse: Rotated tokens
  - 401: ErrUnauthorized: Invalid, expired, or already-used token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	rawToken := bearerToken(request)
	if rawToken == "" {
		respond.Error(writer, request, validate.RequiredError(FieldRefreshToken, "Refresh token is required"))
		return
	}

	pair, err := handler.authService.Refresh(request.Context(), rawToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, toSessionResponse(pair))
}

/*
logout terminates the presented session.

POST /api/v1/auth/logout

Description: The refresh JWT travels as the Bearer token and names the
session to delete. The body may carry the current access token so its jti
can be blacklisted for its remaining lifetime. Logout always succeeds:
repeating it, or presenting an already-dead session, still returns 204.

Request:
  - Header: Authorization: Bearer <refresh JWT>
  - Body: logoutRequest (AccessToken, optional)

Response:
  - 204: Session terminated (or was already gone)
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	var input logoutRequest
	// Body is optional; a missing or malformed body just skips blacklisting.
	_ = requestutil.DecodeJSON(request, &input)

	rawToken := bearerToken(request)
	if rawToken == "" {
		respond.NoContent(writer)
		return
	}

	// Unverified decode keeps logout idempotent even with an expired
	// refresh token. The delete below is still scoped to (jti, userID).
	claims, err := sec.DecodeUnverified(rawToken)
	if err != nil {
		respond.NoContent(writer)
		return
	}

	handler.authService.Logout(request.Context(), claims.UserID(), claims.SessionID(), input.AccessToken)
	respond.NoContent(writer)
}

// bearerToken extracts the raw token from an "Authorization: Bearer" header.
func bearerToken(request *http.Request) string {
	header := request.Header.Get(constants.HeaderAuthorization)
	if header == "" {
		return ""
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return parts[1]
}
