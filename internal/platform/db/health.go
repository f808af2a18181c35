package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// HealthHandler reports liveness plus database connectivity and pool stats.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		status := "ok"
		dbStatus := "up"
		code := http.StatusOK

		if err := pool.Ping(ctx); err != nil {
			status = "degraded"
			dbStatus = "down"
			code = http.StatusServiceUnavailable
		}

		stats := pool.Stat()
		return c.JSON(code, map[string]interface{}{
			"status": status,
			"database": map[string]interface{}{
				"status":            dbStatus,
				"total_conns":       stats.TotalConns(),
				"idle_conns":        stats.IdleConns(),
				"acquired_conns":    stats.AcquiredConns(),
				"max_conns":         stats.MaxConns(),
				"acquire_count":     stats.AcquireCount(),
				"canceled_acquires": stats.CanceledAcquireCount(),
			},
			"time": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
