// Copyright (c) 2026 Tasknest. All rights reserved.
// Author: dev@tasknest.app

package auth

// # Authentication Constraints

const (
	// MinPasswordLength is the minimum accepted password length at registration.
	MinPasswordLength = 8

	// MaxNameLength caps the display name to keep profile payloads sane.
	MaxNameLength = 100

	// MaxEmailLength matches the column width of users.account.email.
	MaxEmailLength = 254
)
