package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/practicedesk/secretary/environments"
	"github.com/practicedesk/secretary/handlers"
	"github.com/practicedesk/secretary/internal/middlewares"
)

type Handlers struct {
	Health      *handlers.HealthHandler
	Message     *handlers.MessageHandler
	Appointment *handlers.AppointmentHandler
	Contact     *handlers.ContactHandler
	Gateway     *handlers.GatewayHandler
	Scheduler   *handlers.SchedulerHandler
}

// RegisterRoutes registers all API routes with middleware
func RegisterRoutes(e *echo.Echo, h Handlers, cfg *environments.Config) {
	e.GET("/health", h.Health.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Gateway callbacks; both paths have been configured in the vendor panel.
	e.POST("/webhook", h.Gateway.InboundWebhook)
	e.POST("/webhook/inbound", h.Gateway.InboundWebhook)

	// API v1 base group
	v1 := e.Group("/api/v1")

	messages := v1.Group("/messages")
	messages.POST("", h.Message.SendMessage)
	messages.GET("", h.Message.GetAllMessages)
	messages.GET("/stats", h.Message.GetStats)
	messages.GET("/:id", h.Message.GetMessage)
	messages.POST("/:id/resend", h.Message.ResendMessage)

	v1.GET("/gateway/messages/:phone", h.Gateway.GetChatMessages)

	appointments := v1.Group("/appointments")
	appointments.POST("", h.Appointment.CreateAppointment)
	appointments.GET("", h.Appointment.ListAppointments)
	appointments.GET("/:id", h.Appointment.GetAppointment)
	appointments.PUT("/:id", h.Appointment.UpdateAppointment)
	appointments.DELETE("/:id", h.Appointment.CancelAppointment)

	contacts := v1.Group("/contacts")
	contacts.POST("", h.Contact.CreateContact)
	contacts.GET("/:id", h.Contact.GetContact)

	// Scheduler routes are operator-only
	schedulerGroup := v1.Group("/scheduler", middlewares.APIKeyAuth(cfg.Auth.SchedulerAPIKey))

	schedulerGroup.POST("/start", h.Scheduler.StartScheduler)
	schedulerGroup.POST("/stop", h.Scheduler.StopScheduler)
	schedulerGroup.GET("/status", h.Scheduler.GetSchedulerStatus)
}
