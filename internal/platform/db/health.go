package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

const healthPingTimeout = 3 * time.Second

// poolSnapshot is the connection-pool slice of the health payload.
type poolSnapshot struct {
	InUse    int32 `json:"in_use"`
	Idle     int32 `json:"idle"`
	MaxConns int32 `json:"max_conns"`
}

type healthResponse struct {
	Status string       `json:"status"`
	PingMS int64        `json:"ping_ms"`
	Pool   poolSnapshot `json:"pool"`
	Error  string       `json:"error,omitempty"`
}

func snapshot(pool *pgxpool.Pool) poolSnapshot {
	stat := pool.Stat()
	return poolSnapshot{
		InUse:    stat.AcquiredConns(),
		Idle:     stat.IdleConns(),
		MaxConns: stat.MaxConns(),
	}
}

// HealthHandler reports whether the clinic store answers a bounded ping,
// with a pool snapshot for capacity questions.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthPingTimeout)
		defer cancel()

		start := time.Now()
		err := pool.Ping(ctx)
		resp := healthResponse{
			Status: "healthy",
			PingMS: time.Since(start).Milliseconds(),
			Pool:   snapshot(pool),
		}
		if err != nil {
			resp.Status = "unhealthy"
			resp.Error = err.Error()
			return c.JSON(http.StatusServiceUnavailable, resp)
		}
		return c.JSON(http.StatusOK, resp)
	}
}
