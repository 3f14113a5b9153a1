package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"

	"github.com/practicedesk/secretary/environments"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type brokerHealth interface {
	Healthy() bool
}

// HealthHandler handles health checks.
type HealthHandler struct {
	db           *sqlx.DB
	redis        pinger
	broker       brokerHealth
	gateway      environments.GatewayConfig
	checkTimeout time.Duration
}

// NewHealthHandler accepts nil for any optional component; nil components report "disabled".
func NewHealthHandler(db *sqlx.DB, redisClient pinger, broker brokerHealth, gw environments.GatewayConfig) *HealthHandler {
	return &HealthHandler{
		db:           db,
		redis:        redisClient,
		broker:       broker,
		gateway:      gw,
		checkTimeout: 2 * time.Second,
	}
}

// Health returns overall status and basic component statuses.
// @Summary Health check
// @Description Returns overall status with storage, Redis, broker and gateway configuration results
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Router /health [get]
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.checkTimeout)
	defer cancel()

	overallStatus := "ok"

	dbStatus := "disabled"
	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			dbStatus = "down"
			overallStatus = "down"
		} else {
			dbStatus = "up"
		}
	}

	redisStatus := "disabled"
	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			redisStatus = "down"
			overallStatus = degrade(overallStatus)
		} else {
			redisStatus = "up"
		}
	}

	brokerStatus := "disabled"
	if h.broker != nil {
		if h.broker.Healthy() {
			brokerStatus = "up"
		} else {
			brokerStatus = "down"
			overallStatus = degrade(overallStatus)
		}
	}

	gatewayStatus := "configured"
	if h.gateway.Mode == environments.GatewayModeStub {
		gatewayStatus = "stub"
	} else if _, err := h.gateway.Resolve(); err != nil {
		gatewayStatus = "misconfigured"
		overallStatus = degrade(overallStatus)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":    overallStatus,
		"timestamp": time.Now().Format(time.RFC3339),
		"components": map[string]any{
			"database": map[string]any{"status": dbStatus},
			"redis":    map[string]any{"status": redisStatus},
			"broker":   map[string]any{"status": brokerStatus},
			"gateway": map[string]any{
				"status": gatewayStatus,
				"mode":   h.gateway.Mode,
			},
		},
	})
}

func degrade(status string) string {
	if status == "down" {
		return status
	}
	return "degraded"
}
