package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/practicedesk/secretary/internal/domain"
	"github.com/practicedesk/secretary/internal/service"
	"github.com/practicedesk/secretary/pkg/response"
	"github.com/practicedesk/secretary/pkg/validator"
)

type AppointmentHandler struct {
	service *service.AppointmentService
}

func NewAppointmentHandler(service *service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{service: service}
}

type CreateAppointmentRequest struct {
	ClientName string  `json:"clientName" validate:"required,max=255"`
	Phone      string  `json:"phone,omitempty" validate:"omitempty,phone"`
	Date       string  `json:"date" validate:"required"`
	Time       string  `json:"time" validate:"required"`
	Notes      *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// UpdateAppointmentRequest is a merge patch: omitted fields keep their value.
type UpdateAppointmentRequest struct {
	ClientName *string `json:"clientName,omitempty" validate:"omitempty,max=255"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,phone"`
	Date       *string `json:"date,omitempty"`
	Time       *string `json:"time,omitempty"`
	Notes      *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// CreateAppointment godoc
// @Summary Schedule an appointment
// @Description Dates accept YYYY-MM-DD, DD/MM/YYYY or DD-MM-YYYY; times HH:MM
// @Tags appointments
// @Accept json
// @Produce json
// @Param appointment body CreateAppointmentRequest true "Appointment"
// @Success 201 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/appointments [post]
func (h *AppointmentHandler) CreateAppointment(c echo.Context) error {
	var req CreateAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	appointment, err := h.service.Schedule(c.Request().Context(), service.AppointmentInput{
		ClientName: req.ClientName,
		Phone:      req.Phone,
		Date:       req.Date,
		Time:       req.Time,
		Notes:      req.Notes,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, "Appointment scheduled", appointment)
}

// ListAppointments godoc
// @Summary List appointments
// @Description Returns every appointment in scheduling order
// @Tags appointments
// @Produce json
// @Success 200 {object} response.SuccessResponse
// @Router /api/v1/appointments [get]
func (h *AppointmentHandler) ListAppointments(c echo.Context) error {
	appointments, err := h.service.List(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Ok(c, appointments)
}

// GetAppointment godoc
// @Summary Get an appointment
// @Tags appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} response.SuccessResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/appointments/{id} [get]
func (h *AppointmentHandler) GetAppointment(c echo.Context) error {
	appointment, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Ok(c, appointment)
}

// UpdateAppointment godoc
// @Summary Update an appointment
// @Description Only the supplied fields are changed
// @Tags appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param appointment body UpdateAppointmentRequest true "Fields to change"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/appointments/{id} [put]
func (h *AppointmentHandler) UpdateAppointment(c echo.Context) error {
	var req UpdateAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	appointment, err := h.service.Update(c.Request().Context(), c.Param("id"), domain.AppointmentPatch{
		ClientName: req.ClientName,
		Phone:      req.Phone,
		Date:       req.Date,
		Time:       req.Time,
		Notes:      req.Notes,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.OkWithMessage(c, "Appointment updated", appointment)
}

// CancelAppointment godoc
// @Summary Cancel an appointment
// @Tags appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} response.SuccessResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/appointments/{id} [delete]
func (h *AppointmentHandler) CancelAppointment(c echo.Context) error {
	cancelled, err := h.service.Cancel(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Ok(c, map[string]any{"cancelled": cancelled})
}
