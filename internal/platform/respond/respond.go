// Copyright (c) 2026 Tasknest. All rights reserved.
// Author: dev@tasknest.app

// Package respond writes the JSON envelopes used by every API handler.
//
// # Architecture
//
// All presentation concerns live here: success and error payloads share one
// envelope shape across the whole API so clients can parse any endpoint the
// same way. Handlers never call json.NewEncoder or WriteHeader directly.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tasknest/tasknest/internal/platform/apperr"
	"github.com/tasknest/tasknest/internal/platform/ctxkey"
	"github.com/tasknest/tasknest/pkg/pagination"
)

// SuccessEnvelope wraps a single-resource response body.
type SuccessEnvelope struct {
	Data interface{} `json:"data"`
}

// PaginatedEnvelope wraps a list response body together with paging metadata.
type PaginatedEnvelope struct {
	Data interface{}     `json:"data"`
	Meta pagination.Meta `json:"meta"`
}

// ErrorEnvelope is the uniform error response body.
type ErrorEnvelope struct {
	Error   string              `json:"error"`
	Code    string              `json:"code"`
	Details []apperr.FieldError `json:"details,omitempty"`
}

// JSON writes payload as a JSON body with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// OK writes a 200 response wrapped in the success envelope.
func OK(writer http.ResponseWriter, data interface{}) {
	JSON(writer, http.StatusOK, SuccessEnvelope{Data: data})
}

// Created writes a 201 response wrapped in the success envelope.
func Created(writer http.ResponseWriter, data interface{}) {
	JSON(writer, http.StatusCreated, SuccessEnvelope{Data: data})
}

// Paginated writes a 200 response with list data and a metadata block.
func Paginated(writer http.ResponseWriter, data interface{}, metadata pagination.Meta) {
	JSON(writer, http.StatusOK, PaginatedEnvelope{Data: data, Meta: metadata})
}

// NoContent writes a 204 response with an empty body.
func NoContent(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusNoContent)
}

// Error converts any Go error into the standard JSON error response.
//
// Errors that are not an [apperr.AppError] are treated as internal: the cause
// is logged with the request ID for correlation and the client receives a
// generic 500 body with no internals leaked.
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	var appError *apperr.AppError
	if !errors.As(err, &appError) {
		logger := loggerFrom(request)
		logger.ErrorContext(request.Context(), "unclassified_error",
			slog.String("error", err.Error()),
			slog.String("request_id", requestIDFrom(request)),
		)
		appError = apperr.Internal(err)
	}

	// 5xx responses always leave a trace server-side.
	if appError.HTTPStatus >= 500 {
		logger := loggerFrom(request)
		logger.ErrorContext(request.Context(), "server_error_response",
			slog.String("code", appError.Code),
			slog.String("request_id", requestIDFrom(request)),
			slog.Any("cause", appError.Cause),
		)
	}

	JSON(writer, appError.HTTPStatus, ErrorEnvelope{
		Error:   appError.Message,
		Code:    appError.Code,
		Details: appError.Details,
	})
}

// loggerFrom returns the per-request logger, or the process default.
func loggerFrom(request *http.Request) *slog.Logger {
	if logger, ok := request.Context().Value(ctxkey.KeyLogger).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// requestIDFrom returns the request correlation ID, if any.
func requestIDFrom(request *http.Request) string {
	if id, ok := request.Context().Value(ctxkey.KeyRequestID).(string); ok {
		return id
	}
	return ""
}
