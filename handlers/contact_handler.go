package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/practicedesk/secretary/internal/service"
	"github.com/practicedesk/secretary/pkg/response"
	"github.com/practicedesk/secretary/pkg/validator"
)

type ContactHandler struct {
	service *service.ContactService
}

func NewContactHandler(service *service.ContactService) *ContactHandler {
	return &ContactHandler{service: service}
}

type CreateContactRequest struct {
	Name  string  `json:"name" validate:"required,max=255"`
	Phone string  `json:"phone" validate:"required,phone"`
	Notes *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// CreateContact godoc
// @Summary Create a contact
// @Tags contacts
// @Accept json
// @Produce json
// @Param contact body CreateContactRequest true "Contact"
// @Success 201 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/contacts [post]
func (h *ContactHandler) CreateContact(c echo.Context) error {
	var req CreateContactRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	contact, err := h.service.Create(c.Request().Context(), req.Name, req.Phone, req.Notes)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, "Contact created", contact)
}

// GetContact godoc
// @Summary Get a contact
// @Tags contacts
// @Produce json
// @Param id path string true "Contact ID"
// @Success 200 {object} response.SuccessResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/contacts/{id} [get]
func (h *ContactHandler) GetContact(c echo.Context) error {
	contact, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Ok(c, contact)
}
