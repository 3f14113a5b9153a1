package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/practicedesk/secretary/internal/domain"
	"github.com/practicedesk/secretary/internal/service"
	"github.com/practicedesk/secretary/pkg/logger"
	"github.com/practicedesk/secretary/pkg/response"
)

// GatewayHandler exposes the relay directly: inbound callbacks and chat history.
type GatewayHandler struct {
	relay *service.MessageRelay
}

func NewGatewayHandler(relay *service.MessageRelay) *GatewayHandler {
	return &GatewayHandler{relay: relay}
}

// InboundWebhook godoc
// @Summary Gateway inbound webhook
// @Description Receives gateway callbacks. Always acknowledged with 200.
// @Tags webhook
// @Accept json
// @Produce json
// @Param payload body map[string]any true "Gateway payload"
// @Success 200 {object} map[string]any
// @Router /webhook [post]
func (h *GatewayHandler) InboundWebhook(c echo.Context) error {
	var payload domain.InboundWebhookPayload
	if err := json.NewDecoder(c.Request().Body).Decode(&payload); err != nil {
		logger.Warnf("Inbound webhook with unreadable body: %v", err)
		return c.JSON(http.StatusOK, map[string]any{"ok": true, "ignored": "unreadable_body"})
	}

	h.relay.HandleInboundWebhook(c.Request().Context(), payload)

	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

// GetChatMessages godoc
// @Summary Chat history from the gateway
// @Description Fetches the messages exchanged with a phone number
// @Tags gateway
// @Produce json
// @Param phone path string true "Phone number"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /api/v1/gateway/messages/{phone} [get]
func (h *GatewayHandler) GetChatMessages(c echo.Context) error {
	resp := h.relay.GetMessages(c.Request().Context(), c.Param("phone"))
	return response.GatewayResult(c, http.StatusOK, resp)
}
