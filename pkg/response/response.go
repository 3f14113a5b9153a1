package response

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/practicedesk/secretary/environments"
	"github.com/practicedesk/secretary/internal/domain"
	"github.com/practicedesk/secretary/pkg/logger"
)

const gatewayNotConfigured = "gateway is not configured"

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type PaginatedResponse struct {
	Success    bool  `json:"success"`
	Data       any   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int   `json:"totalPages"`
}

func Ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    data,
	})
}

func OkWithMessage(c echo.Context, message string, data any) error {
	return c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Created(c echo.Context, message string, data any) error {
	return c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func BadRequest(c echo.Context, err error) error {
	return BadRequestWithMessage(c, err.Error())
}

func BadRequestWithMessage(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Success: false,
		Error:   message,
	})
}

func Unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{
		Success: false,
		Error:   "Invalid or missing API key",
	})
}

func NotFound(c echo.Context, message string) error {
	return c.JSON(http.StatusNotFound, ErrorResponse{
		Success: false,
		Error:   message,
	})
}

func BadGateway(c echo.Context, message string) error {
	return c.JSON(http.StatusBadGateway, ErrorResponse{
		Success: false,
		Error:   message,
	})
}

func InternalServerError(c echo.Context, err error) error {
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// Error writes err with the status of its type. Configuration errors never echo details.
func Error(c echo.Context, err error) error {
	var (
		validationErr *domain.ValidationError
		notFoundErr   *domain.NotFoundError
		gatewayErr    *domain.GatewayError
		configErr     *environments.ConfigError
	)

	switch {
	case errors.As(err, &validationErr):
		return BadRequest(c, validationErr)
	case errors.As(err, &notFoundErr):
		return NotFound(c, notFoundErr.Error())
	case errors.As(err, &gatewayErr):
		return BadGateway(c, gatewayErr.Message)
	case errors.As(err, &configErr):
		logger.Errorf("Configuration error while serving %s: %v", c.Path(), configErr)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Success: false, Error: gatewayNotConfigured})
	default:
		logger.Errorf("Unhandled error while serving %s: %v", c.Path(), err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Success: false, Error: "internal server error"})
	}
}

// GatewayResult writes a relay result: the response itself on success, otherwise an
// error body with the status of resp.Err.
func GatewayResult(c echo.Context, status int, resp domain.GatewayResponse) error {
	if resp.Success {
		return c.JSON(status, SuccessResponse{Success: true, Data: resp})
	}

	var validationErr *domain.ValidationError
	if errors.As(resp.Err, &validationErr) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   resp.ErrorMessage + ": " + validationErr.Error(),
		})
	}

	if resp.Err == nil {
		return BadGateway(c, resp.ErrorMessage)
	}
	return Error(c, resp.Err)
}

func Paginated(c echo.Context, data any, page, pageSize int, totalCount int64) error {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(totalCount) / pageSize
		if int(totalCount)%pageSize > 0 {
			totalPages++
		}
	}

	return c.JSON(http.StatusOK, PaginatedResponse{
		Success:    true,
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	})
}
