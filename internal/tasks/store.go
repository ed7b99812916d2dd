// Copyright (c) 2026 Tasknest. All rights reserved.
// Author: dev@tasknest.app

package tasks

import (
	"context"
	"time"

	"github.com/tasknest/tasknest/pkg/pagination"
)

// # Storage Contracts

// ListFilter narrows a task listing. Zero values mean "no filter".
type ListFilter struct {
	// Status restricts results to a single workflow state when non-empty.
	Status Status

	// DueBefore keeps only tasks whose due date is strictly before the
	// given instant. Tasks without a due date are excluded by this filter.
	DueBefore *time.Time
}

// TaskRepository defines persistence operations for tasks. All reads and
// writes are scoped by owner: a mismatched owner behaves like a missing row.
type TaskRepository interface {
	/*
		Create persists a new task.

		Parameters:
		  - ctx: Request context.
		  - task: Task to insert; ID and timestamps must already be set.

		Returns:
		  - error: Wrapped database error, nil on success.
	*/
	Create(ctx context.Context, task *Task) error

	/*
		FindByIDForUser fetches one task owned by the given user.

		Returns:
		  - *Task: The task, nil when absent.
		  - error: Not-found when no row matches both id and owner.
	*/
	FindByIDForUser(ctx context.Context, id, userID string) (*Task, error)

	/*
		List returns one page of the owner's tasks plus the total count of
		rows matching the filter, ordered by creation time descending.

		Parameters:
		  - ctx: Request context.
		  - userID: Owner whose tasks are listed.
		  - filter: Optional status / due-date narrowing.
		  - params: Page and limit, already clamped by the caller.

		Returns:
		  - []Task: The page of tasks, possibly empty.
		  - int: Total matching rows across all pages.
		  - error: Wrapped database error, nil on success.
	*/
	List(ctx context.Context, userID string, filter ListFilter, params pagination.Params) ([]Task, int, error)

	/*
		Update persists changed fields of an existing task, scoped by owner.

		Returns:
		  - error: Not-found when no row matches both id and owner.
	*/
	Update(ctx context.Context, task *Task) error

	/*
		Delete removes a task owned by the given user.

		Returns:
		  - error: Not-found when no row matches both id and owner.
	*/
	Delete(ctx context.Context, id, userID string) error
}

// ListCache caches rendered list pages per owner. Implementations must treat
// a miss as a distinct signal (not-found error) so the service can fall
// through to the repository.
type ListCache interface {
	// Get returns the cached page for the exact key, or a not-found error.
	Get(ctx context.Context, key string) ([]Task, *pagination.Meta, error)

	// Set stores one page under the exact key with the given TTL.
	Set(ctx context.Context, key string, tasks []Task, meta pagination.Meta, ttl time.Duration) error

	// InvalidateUser removes every cached page belonging to one owner.
	InvalidateUser(ctx context.Context, userID string) error
}

// Notifier publishes task change events for downstream consumers. Publishing
// is best-effort: the service logs failures and never surfaces them.
type Notifier interface {
	TaskCreated(ctx context.Context, task *Task) error
	TaskUpdated(ctx context.Context, task *Task) error
	TaskDeleted(ctx context.Context, task *Task) error
}
