// Copyright (c) 2026 Tasknest. All rights reserved.
// Author: dev@tasknest.app

package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/tasknest/tasknest/internal/platform/apperr"
	"github.com/tasknest/tasknest/pkg/pagination"
	"github.com/tasknest/tasknest/pkg/uuidv7"
)

// # Task Service

// Service implements the task management business logic.
//
// Mutations follow a strict ordering: the row is persisted, then every cached
// list page of the owner is invalidated, and only then is the request
// acknowledged. A failed invalidation fails the request even though the row
// is already written, because acknowledging while stale pages survive would
// let a client read back a listing that contradicts the write it just made.
// Change notifications are published last and are best-effort.
type Service struct {
	taskRepository TaskRepository
	cache          ListCache
	notifier       Notifier
	cacheTTL       time.Duration
	logger         *slog.Logger
}

// NewService creates a task service.
func NewService(
	taskRepository TaskRepository,
	cache ListCache,
	notifier Notifier,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *Service {
	return &Service{
		taskRepository: taskRepository,
		cache:          cache,
		notifier:       notifier,
		cacheTTL:       cacheTTL,
		logger:         logger,
	}
}

// CreateInput carries the fields of a new task.
type CreateInput struct {
	Title       string
	Description string
	Status      Status
	DueDate     *time.Time
}

// UpdateInput carries a partial task update. Nil fields stay unchanged.
type UpdateInput struct {
	Title       *string
	Description *string
	Status      *Status
	DueDate     *time.Time
}

/*
Create persists a new task for the given owner.

Parameters:
  - ctx: Request context.
  - userID: Owner of the new task.
  - input: Validated task fields; an empty status defaults to todo.

Returns:
  - *Task: The created task.
  - error: Database or cache infrastructure error.
*/
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*Task, error) {
	status := input.Status
	if status == "" {
		status = StatusTodo
	}

	now := time.Now().UTC()
	task := &Task{
		ID:          uuidv7.New(),
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Status:      status,
		DueDate:     input.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.taskRepository.Create(ctx, task); err != nil {
		return nil, err
	}
	if err := s.invalidate(ctx, userID); err != nil {
		return nil, err
	}
	s.notify(ctx, "task_created", s.notifier.TaskCreated, task)

	return task, nil
}

/*
Get fetches one task owned by the given user. Reads of a single task go
straight to the database; only list pages are cached.

Returns:
  - *Task: The task.
  - error: Not-found when absent or owned by someone else.
*/
func (s *Service) Get(ctx context.Context, id, userID string) (*Task, error) {
	return s.taskRepository.FindByIDForUser(ctx, id, userID)
}

/*
List returns one filtered page of the owner's tasks through the read-through
cache.

The cache is consulted first; on a miss or any cache failure the page is
built from the database and stored back. Cache infrastructure failures are
logged and never surfaced, so a degraded Redis only costs latency.

Returns:
  - []Task: The page of tasks.
  - *pagination.Meta: Pagination metadata including the total count.
  - error: Database error, nil on success.
*/
func (s *Service) List(ctx context.Context, userID string, filter ListFilter, params pagination.Params) ([]Task, *pagination.Meta, error) {
	key := ListCacheKey(userID, filter, params)

	cached, meta, err := s.cache.Get(ctx, key)
	if err == nil {
		return cached, meta, nil
	}
	if !apperr.IsNotFound(err) {
		s.logger.Warn("task_list_cache_read_failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
	}

	tasks, total, err := s.taskRepository.List(ctx, userID, filter, params)
	if err != nil {
		return nil, nil, err
	}
	pageMeta := pagination.NewMeta(params.Page, params.Limit, total)

	if err := s.cache.Set(ctx, key, tasks, pageMeta, s.cacheTTL); err != nil {
		s.logger.Warn("task_list_cache_write_failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
	}

	return tasks, &pageMeta, nil
}

/*
Update applies a partial update to a task owned by the given user.

Parameters:
  - ctx: Request context.
  - id: Task to update.
  - userID: Owner; a mismatch reads as not-found.
  - input: Fields to change; nil fields keep their current value.

Returns:
  - *Task: The updated task.
  - error: Not-found, database, or cache infrastructure error.
*/
func (s *Service) Update(ctx context.Context, id, userID string, input UpdateInput) (*Task, error) {
	task, err := s.taskRepository.FindByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	task.UpdatedAt = time.Now().UTC()

	if err := s.taskRepository.Update(ctx, task); err != nil {
		return nil, err
	}
	if err := s.invalidate(ctx, userID); err != nil {
		return nil, err
	}
	s.notify(ctx, "task_updated", s.notifier.TaskUpdated, task)

	return task, nil
}

/*
Delete removes a task owned by the given user.

Returns:
  - error: Not-found when absent, database or cache infrastructure error.
*/
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	task, err := s.taskRepository.FindByIDForUser(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.taskRepository.Delete(ctx, id, userID); err != nil {
		return err
	}
	if err := s.invalidate(ctx, userID); err != nil {
		return err
	}
	s.notify(ctx, "task_deleted", s.notifier.TaskDeleted, task)

	return nil
}

// invalidate drops the owner's cached list pages. The caller must not
// acknowledge a mutation until this returns nil.
func (s *Service) invalidate(ctx context.Context, userID string) error {
	if err := s.cache.InvalidateUser(ctx, userID); err != nil {
		s.logger.Error("task_list_cache_invalidation_failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}

// notify publishes a change event, logging failures instead of surfacing
// them. The mutation has already committed at this point.
func (s *Service) notify(ctx context.Context, event string, publish func(context.Context, *Task) error, task *Task) {
	if err := publish(ctx, task); err != nil {
		s.logger.Warn("task_event_publish_failed",
			slog.String("event", event),
			slog.String("task_id", task.ID),
			slog.String("error", err.Error()))
	}
}
