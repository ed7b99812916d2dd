// Copyright (c) 2026 Tasknest. All rights reserved.
// Author: dev@tasknest.app

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tasknest/tasknest/internal/platform/apperr"
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
//
// Mapping:
//   - pgx.ErrNoRows            → NOT_FOUND for the given resource
//   - SQLSTATE 23505 (unique)  → CONFLICT
//   - anything else            → SERVICE_UNAVAILABLE (infrastructure failure)
func Wrap(err error, resource string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return apperr.Conflict(resource + " already exists")
	}

	return apperr.Unavailable(err)
}

// IsNotFound reports whether the wrapped or raw error represents a missing row.
func IsNotFound(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	if ae := apperr.As(err); ae != nil {
		return ae.Code == "NOT_FOUND"
	}
	return false
}
