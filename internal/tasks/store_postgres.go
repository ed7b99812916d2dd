// Copyright (c) 2026 Tasknest. All rights reserved.
// Author: dev@tasknest.app

package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tasknest/tasknest/internal/platform/apperr"
	"github.com/tasknest/tasknest/internal/platform/database/schema"
	"github.com/tasknest/tasknest/internal/platform/dberr"
	"github.com/tasknest/tasknest/pkg/pagination"
)

// # PostgreSQL Task Repository

// PostgresTaskRepository implements TaskRepository backed by the tasks.task
// table.
type PostgresTaskRepository struct {
	db *pgxpool.Pool
}

// NewPostgresTaskRepository creates a task repository using the given pool.
func NewPostgresTaskRepository(db *pgxpool.Pool) *PostgresTaskRepository {
	return &PostgresTaskRepository{db: db}
}

// Create inserts a new task row.
func (r *PostgresTaskRepository) Create(ctx context.Context, task *Task) error {
	query := `
		INSERT INTO tasks.task (id, userid, title, description, status, duedate, createdat, updatedat)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		task.ID, task.UserID, task.Title, task.Description,
		task.Status, task.DueDate, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "Task")
	}
	return nil
}

// FindByIDForUser fetches one task scoped by owner.
func (r *PostgresTaskRepository) FindByIDForUser(ctx context.Context, id, userID string) (*Task, error) {
	query := `
		SELECT id, userid, title, description, status, duedate, createdat, updatedat
		FROM tasks.task
		WHERE id = $1 AND userid = $2`

	var task Task
	err := r.db.QueryRow(ctx, query, id, userID).Scan(
		&task.ID, &task.UserID, &task.Title, &task.Description,
		&task.Status, &task.DueDate, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.NotFound("Task")
		}
		return nil, dberr.Wrap(err, "Task")
	}
	return &task, nil
}

// List returns one page of the owner's tasks plus the total count matching
// the filter. The filter clauses are assembled dynamically and the total is
// computed with a window function so one round trip serves both needs.
func (r *PostgresTaskRepository) List(ctx context.Context, userID string, filter ListFilter, params pagination.Params) ([]Task, int, error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`
		SELECT %s,
		       COUNT(*) OVER() AS total_count
		FROM %s
		WHERE %s = $1`,
		strings.Join(schema.Task.Columns(), ", "),
		schema.Task.Table, schema.Task.UserID))

	args := []any{userID}
	argID := 2

	if filter.Status != "" {
		sb.WriteString(fmt.Sprintf(" AND %s = $%d", schema.Task.Status, argID))
		args = append(args, filter.Status)
		argID++
	}
	if filter.DueBefore != nil {
		sb.WriteString(fmt.Sprintf(" AND %s IS NOT NULL AND %s < $%d",
			schema.Task.DueDate, schema.Task.DueDate, argID))
		args = append(args, *filter.DueBefore)
		argID++
	}

	sb.WriteString(fmt.Sprintf(" ORDER BY %s DESC", schema.Task.CreatedAt))
	sb.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, params.Limit, params.Offset())

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "Task")
	}
	defer rows.Close()

	tasks := make([]Task, 0, params.Limit)
	total := 0
	for rows.Next() {
		var task Task
		if err := rows.Scan(
			&task.ID, &task.UserID, &task.Title, &task.Description,
			&task.Status, &task.DueDate, &task.CreatedAt, &task.UpdatedAt,
			&total); err != nil {
			return nil, 0, dberr.Wrap(err, "Task")
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "Task")
	}

	return tasks, total, nil
}

// Update persists mutable fields of an existing task, scoped by owner.
func (r *PostgresTaskRepository) Update(ctx context.Context, task *Task) error {
	query := `
		UPDATE tasks.task
		SET title = $1, description = $2, status = $3, duedate = $4, updatedat = $5
		WHERE id = $6 AND userid = $7`

	tag, err := r.db.Exec(ctx, query,
		task.Title, task.Description, task.Status, task.DueDate,
		task.UpdatedAt, task.ID, task.UserID)
	if err != nil {
		return dberr.Wrap(err, "Task")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Task")
	}
	return nil
}

// Delete removes a task scoped by owner.
func (r *PostgresTaskRepository) Delete(ctx context.Context, id, userID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks.task WHERE id = $1 AND userid = $2`, id, userID)
	if err != nil {
		return dberr.Wrap(err, "Task")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Task")
	}
	return nil
}
