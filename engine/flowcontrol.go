package engine

import (
	"context"
	"database/sql"
	"log/slog"
	"math/rand"
	"time"
)

type PollingFunc func(context.Context) bool

// Poll is a Proc that polls a given function regularly.
// If the function returns true, it will be called again immediately.
// This is useful for polling a queue for new items.
func Poll(interval time.Duration, fn PollingFunc) Proc {
	return func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			if fn(ctx) {
				continue // take possible next item immediately
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
			ticker.Reset(time.Duration(float64(interval) * (0.9 + 0.2*rand.Float64())))
		}
	}
}

// Cleanup returns a PollingFunc that periodically runs a DELETE query.
// It logs errors and successful cleanups (when rows are affected).
func Cleanup(db *sql.DB, name, query string, args ...any) PollingFunc {
	return func(ctx context.Context) bool {
		start := time.Now()
		result, err := db.ExecContext(ctx, query, args...)
		if err != nil {
			slog.Error("failed to cleanup "+name, "error", err)
			return false
		}
		rowsAffected, _ := result.RowsAffected()
		if rowsAffected > 0 {
			slog.Info("cleaned up "+name, "duration", time.Since(start), "rows", rowsAffected)
		}
		return false
	}
}
