// Copyright (c) 2026 Tasknest. All rights reserved.
// Author: dev@tasknest.app

/*
Package tasks implements the task management domain.

It covers owner-scoped CRUD over tasks, paginated filtered listings served
through a Redis read-through cache, and change notifications published to
Kafka for downstream consumers (mobile push, analytics).

# Architecture

  - Entities: Task with a three-state status workflow.
  - Consistency: Every mutation invalidates the owner's cached list pages
    BEFORE being acknowledged; notification publishing is best-effort.
  - Isolation: Every query is scoped by owner; a task id from another user
    behaves exactly like a missing task.
*/
package tasks

import (
	"time"
)

// # Domain Entities

// Status is the workflow state of a task.
type Status string

// Task workflow states. A task moves todo → in_progress → done, but no
// transition is enforced; clients may set any state directly.
const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Valid reports whether the status is one of the known workflow states.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// StatusValues lists the accepted wire values, for validation messages.
func StatusValues() []string {
	return []string{string(StatusTodo), string(StatusInProgress), string(StatusDone)}
}

// Task represents a single to-do item owned by one user.
type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// # Field Identifiers

// Field names used in validation errors and JSON payloads.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldStatus      = "status"
	FieldDueDate     = "due_date"
	FieldTaskID      = "taskID"
)

// MaxTitleLength caps task titles; matches the column width.
const MaxTitleLength = 200

// MaxDescriptionLength caps the free-text description.
const MaxDescriptionLength = 5000
