// Copyright (c) 2026 Tasknest. All rights reserved.
// Author: dev@tasknest.app

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/tasknest/tasknest/internal/platform/request"
	"github.com/tasknest/tasknest/internal/platform/respond"
	"github.com/tasknest/tasknest/internal/platform/validate"
	"github.com/tasknest/tasknest/internal/users/auth"
)

// # Definitions & Constructors

// Handler implements the profile HTTP endpoints.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] for the /me resource.
//
// # Endpoints
//   - GET    / : Current profile (cached read-through).
//   - PATCH  / : Partial profile update.
//   - DELETE / : Account deletion with global sign-out.
//
// All routes assume the auth guard already ran; they read the principal
// from the request context.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.Me)
	router.Patch("/", handler.update)
	router.Delete("/", handler.remove)

	return router
}

// # Request Payloads

type updateProfileRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

// # Handlers

/*
Me returns the authenticated user's profile.

GET /api/v1/me (also mounted as GET /api/v1/auth/me)

Response:
  - 200: auth.User: Profile without the password hash
  - 401: ErrUnauthorized: Missing or invalid access token
*/
func (handler *Handler) Me(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.GetProfile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
update applies a partial change to the caller's profile.

PATCH /api/v1/me

Request:
  - Body: updateProfileRequest (Name, Email — both optional)

Response:
  - 200: auth.User: Updated profile
  - 400: ErrInvalidJSON: Bad input
  - 409: ErrConflict: Email already in use
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateProfileRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	if input.Name != nil {
		validator.Required(auth.FieldName, *input.Name).
			MaxLen(auth.FieldName, *input.Name, auth.MaxNameLength)
	}
	if input.Email != nil {
		validator.Required(auth.FieldEmail, *input.Email).
			Email(auth.FieldEmail, *input.Email).
			MaxLen(auth.FieldEmail, *input.Email, auth.MaxEmailLength)
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdateProfile(request.Context(), userID, UpdateProfileInput{
		Name:  input.Name,
		Email: input.Email,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
remove soft-deletes the caller's account.

DELETE /api/v1/me

Response:
  - 204: Account deleted, all sessions revoked
*/
func (handler *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.DeleteAccount(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
