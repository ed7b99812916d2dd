// Copyright (c) 2026 Tasknest. All rights reserved.
// Author: dev@tasknest.app

package tasks

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/tasknest/tasknest/internal/platform/request"
	"github.com/tasknest/tasknest/internal/platform/respond"
	"github.com/tasknest/tasknest/internal/platform/validate"
	"github.com/tasknest/tasknest/pkg/pagination"
	"github.com/tasknest/tasknest/pkg/pointer"
)

// # HTTP Handler

// Handler exposes the task endpoints. Every route requires an authenticated
// principal; the owner is always taken from the token, never from the body.
type Handler struct {
	taskService *Service
}

// NewHandler creates a task HTTP handler.
func NewHandler(taskService *Service) *Handler {
	return &Handler{taskService: taskService}
}

// Routes returns the task route tree, mounted behind the auth guard.
func (h *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", h.create)
	router.Get("/", h.list)
	router.Get("/{taskID}", h.get)
	router.Patch("/{taskID}", h.update)
	router.Delete("/{taskID}", h.remove)

	return router
}

type createTaskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	DueDate     *string `json:"due_date"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	DueDate     *string `json:"due_date"`
}

// create handles POST /tasks.
func (h *Handler) create(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createTaskRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldTitle, input.Title).MaxLen(FieldTitle, input.Title, MaxTitleLength)
	validator.MaxLen(FieldDescription, input.Description, MaxDescriptionLength)
	if input.Status != "" {
		validator.OneOf(FieldStatus, input.Status, StatusValues()...)
	}
	dueDate, dueErr := parseDueDate(input.DueDate)
	if dueErr != nil {
		respond.Error(writer, request, dueErr)
		return
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	task, err := h.taskService.Create(request.Context(), userID, CreateInput{
		Title:       input.Title,
		Description: input.Description,
		Status:      Status(input.Status),
		DueDate:     dueDate,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, task)
}

// list handles GET /tasks with optional status and due_before filters.
func (h *Handler) list(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)

	filter := ListFilter{}
	if status := request.URL.Query().Get(FieldStatus); status != "" {
		if !Status(status).Valid() {
			respond.Error(writer, request, validate.RequiredError(FieldStatus, "Status must be one of: todo, in_progress, done"))
			return
		}
		filter.Status = Status(status)
	}
	if raw := request.URL.Query().Get("due_before"); raw != "" {
		parsed, parseErr := time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			respond.Error(writer, request, validate.RequiredError("due_before", "Must be an RFC 3339 timestamp"))
			return
		}
		filter.DueBefore = &parsed
	}

	tasks, meta, err := h.taskService.List(request.Context(), userID, filter, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, tasks, *meta)
}

// get handles GET /tasks/{taskID}.
func (h *Handler) get(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	task, err := h.taskService.Get(request.Context(), requestutil.Param(request, FieldTaskID), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, task)
}

// update handles PATCH /tasks/{taskID}.
func (h *Handler) update(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateTaskRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	if input.Title != nil {
		validator.Required(FieldTitle, *input.Title).MaxLen(FieldTitle, *input.Title, MaxTitleLength)
	}
	if input.Description != nil {
		validator.MaxLen(FieldDescription, *input.Description, MaxDescriptionLength)
	}
	if input.Status != nil {
		validator.OneOf(FieldStatus, *input.Status, StatusValues()...)
	}
	dueDate, dueErr := parseDueDate(input.DueDate)
	if dueErr != nil {
		respond.Error(writer, request, dueErr)
		return
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	serviceInput := UpdateInput{
		Title:       input.Title,
		Description: input.Description,
		DueDate:     dueDate,
	}
	if input.Status != nil {
		serviceInput.Status = pointer.To(Status(*input.Status))
	}

	task, err := h.taskService.Update(request.Context(), requestutil.Param(request, FieldTaskID), userID, serviceInput)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, task)
}

// remove handles DELETE /tasks/{taskID}.
func (h *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := h.taskService.Delete(request.Context(), requestutil.Param(request, FieldTaskID), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// parseDueDate parses an optional RFC 3339 due date from the request body.
func parseDueDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, validate.RequiredError(FieldDueDate, "Must be an RFC 3339 timestamp")
	}
	return &parsed, nil
}
