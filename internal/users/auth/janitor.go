// Copyright (c) 2026 Tasknest. All rights reserved.
// Author: dev@tasknest.app

package auth

import (
	"context"
	"log/slog"
	"time"
)

// StartSessionJanitor periodically purges expired session rows.
//
// Expired sessions are already rejected at refresh time, so the janitor is
// purely hygiene: it keeps the table from accumulating dead rows. It runs
// until ctx is cancelled.
func StartSessionJanitor(ctx context.Context, sessions SessionRepository, interval time.Duration, logger *slog.Logger) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := sessions.DeleteExpired(ctx); err != nil {
					logger.Warn("session_cleanup_failed", slog.String("error", err.Error()))
				}
			}
		}
	}()
}
