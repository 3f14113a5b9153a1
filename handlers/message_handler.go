package handlers

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/practicedesk/secretary/internal/domain"
	"github.com/practicedesk/secretary/internal/service"
	"github.com/practicedesk/secretary/pkg/response"
	"github.com/practicedesk/secretary/pkg/validator"
)

type MessageHandler struct {
	service *service.MessageService
}

func NewMessageHandler(service *service.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

type SendMessageRequest struct {
	To      string `json:"to" validate:"required,phone"`
	Message string `json:"message" validate:"required"`
}

type SendMessageResult struct {
	Message *domain.MessageRecord  `json:"message,omitempty"`
	Gateway domain.GatewayResponse `json:"gateway"`
}

// SendMessage godoc
// @Summary Send a WhatsApp text message
// @Description Normalizes the recipient, sends one text through the gateway and records the result
// @Tags messages
// @Accept json
// @Produce json
// @Param message body SendMessageRequest true "Recipient and text"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /api/v1/messages [post]
func (h *MessageHandler) SendMessage(c echo.Context) error {
	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	record, resp := h.service.Send(c.Request().Context(), req.To, req.Message)
	if !resp.Success {
		return response.GatewayResult(c, 0, resp)
	}

	return response.OkWithMessage(c, "Message sent", SendMessageResult{Message: record, Gateway: resp})
}

// GetMessage godoc
// @Summary Get a message
// @Description Returns one outbound message log entry
// @Tags messages
// @Produce json
// @Param id path string true "Message ID"
// @Success 200 {object} response.SuccessResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/messages/{id} [get]
func (h *MessageHandler) GetMessage(c echo.Context) error {
	record, err := h.service.GetMessage(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Ok(c, record)
}

// GetAllMessages godoc
// @Summary List messages
// @Description Retrieves a paginated list of outbound messages with optional status filter
// @Tags messages
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param pageSize query int false "Page size (default: 20, max: 100)"
// @Param status query string false "Filter by status (pending, sent, failed)"
// @Success 200 {object} response.PaginatedResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/messages [get]
func (h *MessageHandler) GetAllMessages(c echo.Context) error {
	page, pageSize, err := parsePaginationParams(c)
	if err != nil {
		return response.BadRequest(c, err)
	}

	var status *domain.MessageStatus
	if raw := c.QueryParam("status"); raw != "" {
		parsed := domain.MessageStatus(raw)
		switch parsed {
		case domain.StatusPending, domain.StatusSent, domain.StatusFailed:
		default:
			return response.BadRequestWithMessage(c, "status must be one of pending, sent, failed")
		}
		status = &parsed
	}

	messages, totalCount, err := h.service.GetAllMessages(c.Request().Context(), status, page, pageSize)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, messages, page, pageSize, totalCount)
}

// GetStats godoc
// @Summary Get message statistics
// @Description Returns count of messages by status
// @Tags messages
// @Produce json
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/messages/stats [get]
func (h *MessageHandler) GetStats(c echo.Context) error {
	stats, err := h.service.GetStats(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Ok(c, map[string]any{
		"pending": stats.Pending,
		"sent":    stats.Sent,
		"failed":  stats.Failed,
		"total":   stats.Pending + stats.Sent + stats.Failed,
	})
}

// ResendMessage godoc
// @Summary Resend a failed message
// @Description Sends a failed message again with the default request variant
// @Tags messages
// @Produce json
// @Param id path string true "Message ID"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /api/v1/messages/{id}/resend [post]
func (h *MessageHandler) ResendMessage(c echo.Context) error {
	record, resp, err := h.service.Resend(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	if !resp.Success {
		return response.GatewayResult(c, 0, resp)
	}

	return response.OkWithMessage(c, "Message resent", SendMessageResult{Message: record, Gateway: resp})
}

func parsePaginationParams(c echo.Context) (int, int, error) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)

	page := defaultPage
	if raw := c.QueryParam("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p <= 0 {
			return 0, 0, fmt.Errorf("page must be a positive integer")
		}
		page = p
	}

	pageSize := defaultPageSize
	if raw := c.QueryParam("pageSize"); raw != "" {
		ps, err := strconv.Atoi(raw)
		if err != nil || ps <= 0 || ps > maxPageSize {
			return 0, 0, fmt.Errorf("pageSize must be between 1 and %d", maxPageSize)
		}
		pageSize = ps
	}

	return page, pageSize, nil
}
